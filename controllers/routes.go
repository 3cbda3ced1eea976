package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/tableside-api/middleware"
)

// RouteOptions carries the middleware the API routes are guarded with
type RouteOptions struct {
	// TableCodes resolves the :tableCode segment of customer URLs
	TableCodes middleware.TableCodeDecoder
	// SecureCookies marks the cart session cookie Secure
	SecureCookies bool
	// StaffAuth authenticates staff routes
	StaffAuth gin.HandlerFunc
	// Scope builds the per-group scope check
	Scope func(scope string) gin.HandlerFunc
}

// RegisterRoutes mounts the customer and staff API under /api/v1
func RegisterRoutes(v1 *gin.RouterGroup, opts RouteOptions) {
	t := v1.Group("/t/:tableCode", middleware.TableCode(opts.TableCodes), middleware.CartSession(opts.SecureCookies))
	{
		t.GET("/menu", GetMenu)

		t.GET("/cart", GetCart)
		t.GET("/cart/count", GetCartCount)
		t.POST("/cart/items", AddCartItem)
		t.PATCH("/cart/items/:itemId", UpdateCartItem)
		t.DELETE("/cart/items/:itemId", RemoveCartItem)
		t.DELETE("/cart", ClearCart)

		t.POST("/orders", PlaceOrder)
		t.GET("/invoice", GetTableInvoice)
		t.POST("/checkout", Checkout)
	}

	staff := v1.Group("", opts.StaffAuth)

	staff.GET("/staff/me", GetStaffProfile)

	kitchen := staff.Group("/kitchen", opts.Scope(middleware.ScopeKitchen))
	{
		kitchen.GET("/dashboard", GetKitchenDashboard)
		kitchen.POST("/items/:id/start", StartPreparing)
		kitchen.POST("/items/:id/ready", MarkItemReady)
	}

	cashier := staff.Group("/cashier", opts.Scope(middleware.ScopeCashier))
	{
		cashier.GET("/dashboard", GetCashierDashboard)
		cashier.GET("/invoices/:id", GetInvoice)
		cashier.POST("/invoices/:id/served", MarkInvoiceServed)
		cashier.POST("/invoices/:id/paid", MarkInvoicePaid)
		cashier.GET("/invoices/:id/receipt", GetReceipt)
	}

	admin := staff.Group("/admin", opts.Scope(middleware.ScopeAdmin))
	{
		admin.GET("/tables", ListTables)
		admin.POST("/tables", CreateTable)
		admin.PUT("/tables/:id/guests", SetTableGuests)
		admin.GET("/tables/:id/qr", GetTableQRCode)
		admin.POST("/tables/merge", MergeTables)
		admin.GET("/invoices", ListInvoices)
		admin.GET("/invoices/:id", GetInvoice)
		admin.POST("/invoices/:id/split", SplitInvoice)

		admin.GET("/categories", ListCategories)
		admin.POST("/categories", CreateCategory)

		admin.POST("/foods", CreateFoodItem)
		admin.PUT("/foods/:id/availability", SetFoodAvailability)
		admin.POST("/foods/:id/image", UploadFoodImage)

		admin.GET("/combos", ListCombos)
		admin.POST("/combos", CreateCombo)
		admin.GET("/combos/:id", GetCombo)
		admin.PUT("/combos/:id/availability", SetComboAvailability)
		admin.POST("/combos/:id/image", UploadComboImage)
		admin.DELETE("/combos/:id", DeleteCombo)
	}
}
