package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/tableside-api/services"
)

// ListCombos handles GET /api/v1/admin/combos
func ListCombos(c *gin.Context) {
	combos, err := services.GetServices().Catalog.ListCombos(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, combos)
}

// GetCombo handles GET /api/v1/admin/combos/:id
func GetCombo(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	combo, err := services.GetServices().Catalog.GetCombo(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, combo)
}

// CreateCombo handles POST /api/v1/admin/combos
func CreateCombo(c *gin.Context) {
	var req services.CreateComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	combo, err := services.GetServices().Catalog.CreateCombo(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, combo)
}

// SetComboAvailability handles PUT /api/v1/admin/combos/:id/availability
func SetComboAvailability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	combo, err := services.GetServices().Catalog.SetComboAvailability(c.Request.Context(), id, *req.Available)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, combo)
}

// UploadComboImage handles POST /api/v1/admin/combos/:id/image - multipart field "image"
func UploadComboImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the \"image\" field")
		return
	}

	combo, err := services.GetServices().Catalog.SetComboImage(c.Request.Context(), id, fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, combo)
}

// DeleteCombo handles DELETE /api/v1/admin/combos/:id
func DeleteCombo(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := services.GetServices().Catalog.DeleteCombo(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id})
}
