package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/tableside-api/services"
)

// GetKitchenDashboard handles GET /api/v1/kitchen/dashboard
func GetKitchenDashboard(c *gin.Context) {
	board, err := services.GetServices().Kitchen.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, board)
}

// StartPreparing handles POST /api/v1/kitchen/items/:id/start
func StartPreparing(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := services.GetServices().Kitchen.StartPreparing(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

// MarkItemReady handles POST /api/v1/kitchen/items/:id/ready
func MarkItemReady(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := services.GetServices().Kitchen.MarkReady(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}
