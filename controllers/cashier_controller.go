package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/logger"
	"github.com/kendall-kelly/tableside-api/middleware"
	"github.com/kendall-kelly/tableside-api/services"
)

// GetCashierDashboard handles GET /api/v1/cashier/dashboard
func GetCashierDashboard(c *gin.Context) {
	board, err := services.GetServices().Payments.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, board)
}

// ListInvoices handles GET /api/v1/admin/invoices?status=Paid
func ListInvoices(c *gin.Context) {
	invoices, err := services.GetServices().Payments.ListInvoices(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, invoices)
}

// GetInvoice handles GET /api/v1/cashier/invoices/:id and GET /api/v1/admin/invoices/:id
func GetInvoice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := services.GetServices().Payments.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// MarkInvoiceServed handles POST /api/v1/cashier/invoices/:id/served
func MarkInvoiceServed(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	inv, err := services.GetServices().Payments.MarkServed(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, inv)
}

// MarkInvoicePaid handles POST /api/v1/cashier/invoices/:id/paid
func MarkInvoicePaid(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	inv, err := services.GetServices().Payments.MarkPaid(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	staff, _ := middleware.GetUserID(c)
	logger.FromContext(c).Info("Payment recorded",
		zap.Uint("invoice_id", inv.ID),
		zap.String("code", inv.Code),
		zap.String("staff", staff),
	)
	respond(c, http.StatusOK, inv)
}

// GetReceipt handles GET /api/v1/cashier/invoices/:id/receipt - a link to the archived receipt
func GetReceipt(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	url, err := services.GetServices().Payments.ReceiptURL(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"url": url})
}
