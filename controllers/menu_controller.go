package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/tableside-api/services"
)

// AvailabilityRequest switches a dish on or off
type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// GetMenu handles GET /api/v1/t/:tableCode/menu
func GetMenu(c *gin.Context) {
	menu, err := services.GetServices().Catalog.Menu(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, menu)
}

// CreateFoodItem handles POST /api/v1/admin/foods
func CreateFoodItem(c *gin.Context) {
	var req services.CreateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := services.GetServices().Catalog.CreateFoodItem(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, item)
}

// SetFoodAvailability handles PUT /api/v1/admin/foods/:id/availability
func SetFoodAvailability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := services.GetServices().Catalog.SetAvailability(c.Request.Context(), id, *req.Available)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

// UploadFoodImage handles POST /api/v1/admin/foods/:id/image - multipart field "image"
func UploadFoodImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the \"image\" field")
		return
	}

	item, err := services.GetServices().Catalog.SetImage(c.Request.Context(), id, fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

// ListCategories handles GET /api/v1/admin/categories
func ListCategories(c *gin.Context) {
	categories, err := services.GetServices().Catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, categories)
}

// CreateCategory handles POST /api/v1/admin/categories
func CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := services.GetServices().Catalog.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, category)
}
