package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/tableside-api/services"
)

// PlaceOrderRequest carries the customer's intended payment method
type PlaceOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// CheckoutRequest carries an optional discount code
type CheckoutRequest struct {
	DiscountCode string `json:"discount_code"`
}

// PlaceOrder handles POST /api/v1/t/:tableCode/orders - sends the cart to the kitchen
func PlaceOrder(c *gin.Context) {
	tableID, sessionID, ok := customer(c)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	res, err := services.GetServices().Orders.PlaceOrder(c.Request.Context(), tableID, sessionID, req.PaymentMethod)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, res)
}

// GetTableInvoice handles GET /api/v1/t/:tableCode/invoice - the table's open bill with every round
func GetTableInvoice(c *gin.Context) {
	tableID, _, ok := customer(c)
	if !ok {
		return
	}
	view, err := services.GetServices().Orders.InvoiceForTable(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// Checkout handles POST /api/v1/t/:tableCode/checkout - asks for the bill
func Checkout(c *gin.Context) {
	tableID, _, ok := customer(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	inv, err := services.GetServices().Payments.Checkout(c.Request.Context(), tableID, req.DiscountCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, inv)
}
