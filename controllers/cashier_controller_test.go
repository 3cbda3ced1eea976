package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/tableside-api/middleware"
	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/tests/testutil"
)

func TestCashierSettlesABill(t *testing.T) {
	env := setupTestEnv(t, middleware.ScopeCashier)
	table := testutil.SeedTable(t, env.db, "T1", 4)
	pho := testutil.SeedFood(t, env.db, "Pho", "45000")
	placed := env.guestAt(t, table).order(t, pho)
	invoiceID := idOf(placed["invoice_id"])
	invoicePath := "/api/v1/cashier/invoices/" + uintStr(invoiceID)

	w := env.do(t, http.MethodPost, invoicePath+"/served", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "NO_READY_ITEMS", errorCode(t, w))

	item := itemsOf(t, env.db, idOf(placed["order_id"]))[0]
	_, err := env.svc.Kitchen.MarkReady(t.Context(), item.ID)
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/api/v1/cashier/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataOf(t, w)["ready"], 1)

	w = env.do(t, http.MethodPost, invoicePath+"/served", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ItemServed, itemsOf(t, env.db, idOf(placed["order_id"]))[0].Status)

	w = env.do(t, http.MethodGet, invoicePath+"/receipt", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "NOT_PAID", errorCode(t, w))

	w = env.do(t, http.MethodPost, invoicePath+"/paid", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := dataOf(t, w)
	assert.Equal(t, string(models.InvoicePaid), paid["status"])
	assert.NotNil(t, paid["paid_at"])

	w = env.do(t, http.MethodPost, invoicePath+"/paid", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", errorCode(t, w))

	w = env.do(t, http.MethodGet, invoicePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := dataOf(t, w)
	assert.Equal(t, string(models.InvoicePaid), view["status"])
	assert.Len(t, view["details"], 1)

	// the receipt is archived in the background
	assert.Eventually(t, func() bool {
		w := env.do(t, http.MethodGet, invoicePath+"/receipt", nil)
		return w.Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	w = env.do(t, http.MethodGet, invoicePath+"/receipt", nil)
	assert.Contains(t, dataOf(t, w)["url"], "receipts/")

	w = env.do(t, http.MethodGet, "/api/v1/cashier/dashboard", nil)
	board := dataOf(t, w)
	assert.Empty(t, board["ready"])
	assert.Len(t, board["completed"], 1)

	var freed models.Table
	require.NoError(t, env.db.First(&freed, table.ID).Error)
	assert.Equal(t, models.TableAvailable, freed.Status)
}

func TestCashierInvoiceNotFound(t *testing.T) {
	env := setupTestEnv(t, middleware.ScopeCashier)

	for _, path := range []string{
		"/api/v1/cashier/invoices/404",
		"/api/v1/cashier/invoices/404/receipt",
	} {
		w := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "INVOICE_NOT_FOUND", errorCode(t, w))
	}

	w := env.do(t, http.MethodPost, "/api/v1/cashier/invoices/404/paid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminInvoiceHistory(t *testing.T) {
	env := setupTestEnv(t)
	pho := testutil.SeedFood(t, env.db, "Pho", "45000")
	first := env.guestAt(t, testutil.SeedTable(t, env.db, "T1", 4)).order(t, pho)
	env.guestAt(t, testutil.SeedTable(t, env.db, "T2", 4)).order(t, pho, pho)

	_, err := env.svc.Payments.MarkPaid(t.Context(), idOf(first["invoice_id"]))
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/v1/admin/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, listOf(t, w), 2)

	w = env.do(t, http.MethodGet, "/api/v1/admin/invoices?status=Paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	paid := listOf(t, w)
	require.Len(t, paid, 1)
	entry := paid[0].(map[string]interface{})
	assert.Equal(t, string(models.InvoicePaid), entry["status"])
	assert.True(t, decimal.NewFromInt(45000).Equal(money(t, entry["final_amount"])))

	w = env.do(t, http.MethodGet, "/api/v1/admin/invoices?status=Lost", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATUS", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/v1/admin/invoices/"+uintStr(idOf(first["invoice_id"])), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataOf(t, w)["details"], 1)

	w = env.do(t, http.MethodGet, "/api/v1/admin/invoices/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "INVOICE_NOT_FOUND", errorCode(t, w))
}
