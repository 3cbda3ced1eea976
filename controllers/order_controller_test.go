package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/tests/testutil"
)

func TestPlaceOrder(t *testing.T) {
	env := setupTestEnv(t)
	table := testutil.SeedTable(t, env.db, "T1", 4)
	pho := testutil.SeedFood(t, env.db, "Pho", "45000")
	g := env.guestAt(t, table)

	w := g.do(t, http.MethodPost, "/cart/items", gin.H{"food_item_id": pho.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = g.do(t, http.MethodPost, "/orders", gin.H{"payment_method": "vnpay"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.NotZero(t, data["invoice_id"])
	assert.NotZero(t, data["order_id"])

	var order models.Order
	require.NoError(t, env.db.First(&order, idOf(data["order_id"])).Error)
	assert.Equal(t, "vnpay", order.PaymentMethod)
	assert.Equal(t, table.ID, order.TableID)

	// the cart was consumed by the order
	w = g.do(t, http.MethodGet, "/cart/count", nil)
	assert.Equal(t, float64(0), dataOf(t, w)["count"])

	w = g.do(t, http.MethodPost, "/orders", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "EMPTY_CART", errorCode(t, w))
}

func TestSecondRoundJoinsTheSameInvoice(t *testing.T) {
	env := setupTestEnv(t)
	table := testutil.SeedTable(t, env.db, "T1", 4)
	pho := testutil.SeedFood(t, env.db, "Pho", "45000")
	tea := testutil.SeedFood(t, env.db, "Iced tea", "10000")

	first := env.guestAt(t, table).order(t, pho)
	second := env.guestAt(t, table).order(t, tea)
	assert.Equal(t, first["invoice_id"], second["invoice_id"])
	assert.NotEqual(t, first["order_id"], second["order_id"])

	w := env.guestAt(t, table).do(t, http.MethodGet, "/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, first["invoice_id"], data["id"])
	assert.Equal(t, string(models.InvoicePending), data["status"])
	assert.Len(t, data["orders"], 2)
	assert.Equal(t, []interface{}{"T1"}, data["tables"])
}

func TestGetTableInvoiceWithoutBill(t *testing.T) {
	env := setupTestEnv(t)
	table := testutil.SeedTable(t, env.db, "T1", 4)

	w := env.guestAt(t, table).do(t, http.MethodGet, "/invoice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_OPEN_INVOICE", errorCode(t, w))
}

func TestCheckout(t *testing.T) {
	env := setupTestEnv(t)
	table := testutil.SeedTable(t, env.db, "T1", 4)
	pho := testutil.SeedFood(t, env.db, "Pho", "45000")
	testutil.SeedDiscount(t, env.db, "TENOFF", "10", "0")
	g := env.guestAt(t, table)
	g.order(t, pho, pho)

	w := g.do(t, http.MethodPost, "/checkout", gin.H{"discount_code": "NOPE"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DISCOUNT_NOT_FOUND", errorCode(t, w))

	w = g.do(t, http.MethodPost, "/checkout", gin.H{"discount_code": "TENOFF"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, string(models.InvoicePaying), data["status"])
	assert.True(t, decimal.NewFromInt(90000).Equal(money(t, data["total_amount"])))
	assert.True(t, decimal.NewFromInt(9000).Equal(money(t, data["discount_amount"])))
	assert.True(t, decimal.NewFromInt(81000).Equal(money(t, data["final_amount"])))

	// no new rounds while the bill is being settled
	w = g.do(t, http.MethodPost, "/cart/items", gin.H{"food_item_id": pho.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = g.do(t, http.MethodPost, "/orders", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVOICE_SETTLING", errorCode(t, w))
}

func TestCheckoutWithoutBill(t *testing.T) {
	env := setupTestEnv(t)
	table := testutil.SeedTable(t, env.db, "T1", 4)

	w := env.guestAt(t, table).do(t, http.MethodPost, "/checkout", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_OPEN_INVOICE", errorCode(t, w))
}
