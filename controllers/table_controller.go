package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/tableside-api/config"
	"github.com/kendall-kelly/tableside-api/services"
	"github.com/kendall-kelly/tableside-api/utils"
)

// CreateTableRequest represents the request body for creating a dining table
type CreateTableRequest struct {
	Name      string `json:"name" binding:"required,max=50"`
	SeatCount int    `json:"seat_count" binding:"required,min=1,max=50"`
}

// SetGuestsRequest sets the number of guests seated at a table
type SetGuestsRequest struct {
	Guests *int `json:"guests" binding:"required,min=0"`
}

// MergeTablesRequest lists the tables whose bills are merged
type MergeTablesRequest struct {
	TableIDs []uint `json:"table_ids" binding:"required,min=2"`
}

// ListTables handles GET /api/v1/admin/tables
func ListTables(c *gin.Context) {
	tables, err := services.GetServices().Tables.ListTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, tables)
}

// CreateTable handles POST /api/v1/admin/tables
func CreateTable(c *gin.Context) {
	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := services.GetServices().Tables.CreateTable(c.Request.Context(), strings.TrimSpace(req.Name), req.SeatCount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, table)
}

// SetTableGuests handles PUT /api/v1/admin/tables/:id/guests
func SetTableGuests(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SetGuestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	view, err := services.GetServices().Tables.SetGuests(c.Request.Context(), id, *req.Guests)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// MergeTables handles POST /api/v1/admin/tables/merge
func MergeTables(c *gin.Context) {
	var req MergeTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	merged, err := services.GetServices().Tables.MergeTables(c.Request.Context(), req.TableIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, merged)
}

// SplitInvoice handles POST /api/v1/admin/invoices/:id/split
func SplitInvoice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	restored, err := services.GetServices().Tables.SplitTables(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, restored)
}

// GetTableQRCode handles GET /api/v1/admin/tables/:id/qr and returns a PNG
// pointing at the table's ordering page
func GetTableQRCode(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	svc := services.GetServices()
	if _, err := svc.Tables.GetTable(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	code, err := svc.TableCodes.Encode(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	png, err := utils.GenerateQRCode(tableURL(code), utils.DefaultQRSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func tableURL(code string) string {
	base := ""
	if cfg := config.GetConfig(); cfg != nil {
		base = strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return base + "/t/" + code
}
