package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kendall-kelly/tableside-api/middleware"
	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/services"
)

// CartResponse is a cart with its running total
type CartResponse struct {
	*models.Cart
	Total decimal.Decimal `json:"total"`
}

// ChangeQuantityRequest moves a cart line's quantity up or down
type ChangeQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func cartResponse(cart *models.Cart) CartResponse {
	return CartResponse{Cart: cart, Total: services.CartTotal(cart)}
}

// customer reads the table and cart session resolved by the customer middleware
func customer(c *gin.Context) (uint, string, bool) {
	tableID, ok := middleware.GetTableID(c)
	sessionID := middleware.GetSessionID(c)
	if !ok || sessionID == "" {
		respondError(c, http.StatusBadRequest, "MISSING_TABLE", "Open this page from the table's QR code")
		return 0, "", false
	}
	return tableID, sessionID, true
}

// GetCart handles GET /api/v1/t/:tableCode/cart
func GetCart(c *gin.Context) {
	tableID, sessionID, ok := customer(c)
	if !ok {
		return
	}
	cart, err := services.GetServices().Carts.GetCart(c.Request.Context(), sessionID, tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, cartResponse(cart))
}

// GetCartCount handles GET /api/v1/t/:tableCode/cart/count
func GetCartCount(c *gin.Context) {
	_, sessionID, ok := customer(c)
	if !ok {
		return
	}
	n, err := services.GetServices().Carts.Count(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": n})
}

// AddCartItem handles POST /api/v1/t/:tableCode/cart/items
func AddCartItem(c *gin.Context) {
	tableID, sessionID, ok := customer(c)
	if !ok {
		return
	}
	var req services.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cart, err := services.GetServices().Carts.AddItem(c.Request.Context(), sessionID, tableID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, cartResponse(cart))
}

// UpdateCartItem handles PATCH /api/v1/t/:tableCode/cart/items/:itemId
func UpdateCartItem(c *gin.Context) {
	tableID, sessionID, ok := customer(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var req ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cart, err := services.GetServices().Carts.ChangeQuantity(c.Request.Context(), sessionID, tableID, itemID, req.Delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, cartResponse(cart))
}

// RemoveCartItem handles DELETE /api/v1/t/:tableCode/cart/items/:itemId
func RemoveCartItem(c *gin.Context) {
	tableID, sessionID, ok := customer(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}

	cart, err := services.GetServices().Carts.RemoveItem(c.Request.Context(), sessionID, tableID, itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, cartResponse(cart))
}

// ClearCart handles DELETE /api/v1/t/:tableCode/cart
func ClearCart(c *gin.Context) {
	_, sessionID, ok := customer(c)
	if !ok {
		return
	}
	if err := services.GetServices().Carts.Clear(c.Request.Context(), sessionID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
