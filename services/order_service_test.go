package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
	"github.com/kendall-kelly/tableside-api/tests/testutil"
)

func TestPlaceOrderLifecycleWalkthrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	table := testutil.SeedTable(t, f.db, "Table 3", 4)
	pho := testutil.SeedFood(t, f.db, "Pho", "50000")
	coke := testutil.SeedFood(t, f.db, "Coke", "15000")

	view, err := f.tables.SetGuests(ctx, table.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, view.DerivedStatus)

	res := f.order(t, table, line{pho, 1}, line{coke, 1})

	order, err := f.store.Repositories(ctx).Orders.Get(res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, res.InvoiceID, order.InvoiceID)
	assert.Equal(t, models.InvoicePending, f.invoice(t, res.InvoiceID).Status)
	assert.Equal(t, models.TableOccupied, f.table(t, table.ID).Status)

	var phoItem, cokeItem models.OrderItem
	for _, it := range order.Items {
		switch it.FoodName {
		case "Pho":
			phoItem = it
		case "Coke":
			cokeItem = it
		}
	}
	assert.True(t, testutil.Money(t, "50000").Equal(phoItem.UnitPrice))
	assert.True(t, testutil.Money(t, "15000").Equal(cokeItem.LineTotal))

	_, err = f.kitchen.StartPreparing(ctx, phoItem.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceInKitchen, f.invoice(t, res.InvoiceID).Status)

	_, err = f.kitchen.MarkReady(ctx, phoItem.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePending, f.invoice(t, res.InvoiceID).Status)

	_, err = f.kitchen.MarkReady(ctx, cokeItem.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceReady, f.invoice(t, res.InvoiceID).Status)

	paid, err := f.payments.MarkPaid(ctx, res.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)
	assert.True(t, testutil.Money(t, "65000").Equal(paid.FinalAmount))

	for _, it := range f.items(t, res.InvoiceID) {
		assert.Equal(t, models.ItemPaid, it.Status)
	}
	assert.Equal(t, models.InvoicePaid, f.invoice(t, res.InvoiceID).Status)
	assert.Equal(t, models.TableAvailable, f.table(t, table.ID).Status)

	assert.Eventually(t, func() bool { return f.notifier.Notified(res.OrderID) }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return f.archive.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestPlaceOrderReusesOpenInvoice(t *testing.T) {
	f := newFixture(t)
	table := testutil.SeedTable(t, f.db, "T1", 4)
	pho := testutil.SeedFood(t, f.db, "Pho", "50000")

	first := f.order(t, table, line{pho, 1})
	second := f.order(t, table, line{pho, 2})

	assert.Equal(t, first.InvoiceID, second.InvoiceID)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, map[string]int{"Pho": 3}, f.quantities(t, first.InvoiceID))
	assert.Equal(t, int64(1), f.count(t, &models.Invoice{}))
	assert.Equal(t, int64(1), f.count(t, &models.TableInvoice{}))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	table := testutil.SeedTable(t, f.db, "T1", 4)

	_, err := f.orders.PlaceOrder(context.Background(), table.ID, "no-such-session", "")
	requireKind(t, err, KindValidation, "EMPTY_CART")

	assert.Equal(t, int64(0), f.count(t, &models.Invoice{}))
	assert.Equal(t, int64(0), f.count(t, &models.Order{}))
	assert.Equal(t, models.TableAvailable, f.table(t, table.ID).Status)
}

func TestPlaceOrderWithCartOfAnotherTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := testutil.SeedTable(t, f.db, "T1", 4)
	t2 := testutil.SeedTable(t, f.db, "T2", 4)
	pho := testutil.SeedFood(t, f.db, "Pho", "50000")

	_, err := f.carts.AddItem(ctx, "s1", t1.ID, AddItemRequest{FoodItemID: pho.ID})
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(ctx, t2.ID, "s1", "")
	requireKind(t, err, KindValidation, "CART_TABLE_MISMATCH")

	assert.Equal(t, int64(0), f.count(t, &models.Order{}))
	assert.Equal(t, int64(1), f.count(t, &models.CartItem{}))
}

func TestPlaceOrderUnknownTable(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.PlaceOrder(context.Background(), 999, "session", "")
	requireKind(t, err, KindNotFound, "TABLE_NOT_FOUND")
}

func TestPlaceOrderSnapshotsPricesAndOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := testutil.SeedTable(t, f.db, "T1", 4)
	pho := testutil.SeedFood(t, f.db, "Pho", "50000")
	large := testutil.SeedOption(t, f.db, pho, "Size", "Large", "10000")

	_, err := f.carts.AddItem(ctx, "s1", table.ID, AddItemRequest{FoodItemID: pho.ID, OptionIDs: []uint{large.ID}, Quantity: 2, Note: "no onion"})
	require.NoError(t, err)
	res, err := f.orders.PlaceOrder(ctx, table.ID, "s1", "momo")
	require.NoError(t, err)

	// catalog edits after the order must not leak into it
	require.NoError(t, f.db.Model(&models.FoodItem{}).Where("id = ?", pho.ID).Update("name", "Beef Pho").Error)
	require.NoError(t, f.db.Model(&models.FoodItem{}).Where("id = ?", pho.ID).Update("base_price", 99000).Error)
	require.NoError(t, f.db.Delete(&models.FoodOption{}, large.ID).Error)

	order, err := f.store.Repositories(ctx).Orders.Get(res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Pho", item.FoodName)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, testutil.Money(t, "60000").Equal(item.UnitPrice))
	assert.True(t, testutil.Money(t, "120000").Equal(item.LineTotal))
	assert.Equal(t, "no onion", item.Note)
	require.Len(t, item.Options, 1)
	assert.Equal(t, "Size", item.Options[0].GroupName)
	assert.Equal(t, "Large", item.Options[0].ValueName)
	assert.True(t, testutil.Money(t, "10000").Equal(item.Options[0].PriceDelta))
	assert.Equal(t, "momo", order.PaymentMethod)
	assert.Equal(t, "s1", order.CreatedBy)

	count, err := f.carts.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, int64(0), f.count(t, &models.Cart{}))
	assert.Equal(t, int64(0), f.count(t, &models.CartItemOption{}))
}

func TestPlaceOrderRejectsInvoiceAtCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := testutil.SeedTable(t, f.db, "T1", 4)
	pho := testutil.SeedFood(t, f.db, "Pho", "50000")

	f.order(t, table, line{pho, 1})
	_, err := f.payments.Checkout(ctx, table.ID, "")
	require.NoError(t, err)

	_, err = f.carts.AddItem(ctx, "late", table.ID, AddItemRequest{FoodItemID: pho.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.orders.PlaceOrder(ctx, table.ID, "late", "")
	requireKind(t, err, KindValidation, "INVOICE_SETTLING")

	count, err := f.carts.Count(ctx, "late")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "cart survives a rejected commit")
}

// failingOrders fails CreateItem once failAfter items have been written
type failingOrders struct {
	repository.OrderRepository
	created   int
	failAfter int
}

func (f *failingOrders) CreateItem(item *models.OrderItem) error {
	if f.created >= f.failAfter {
		return errors.New("disk full")
	}
	f.created++
	return f.OrderRepository.CreateItem(item)
}

type failingStore struct {
	*repository.GormStore
	failAfter int
}

func (s *failingStore) Transaction(ctx context.Context, fn func(r *repository.Repositories) error) error {
	return s.GormStore.Transaction(ctx, func(r *repository.Repositories) error {
		r.Orders = &failingOrders{OrderRepository: r.Orders, failAfter: s.failAfter}
		return fn(r)
	})
}

func TestPlaceOrderIsAtomic(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := newFixtureWithStore(t, db, &failingStore{GormStore: repository.NewGormStore(db), failAfter: 1})
	ctx := context.Background()

	table := testutil.SeedTable(t, db, "T1", 4)
	pho := testutil.SeedFood(t, db, "Pho", "50000")
	coke := testutil.SeedFood(t, db, "Coke", "15000")

	_, err := f.carts.AddItem(ctx, "s1", table.ID, AddItemRequest{FoodItemID: pho.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, "s1", table.ID, AddItemRequest{FoodItemID: coke.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(ctx, table.ID, "s1", "")
	requireKind(t, err, KindTransactionFailure, "TRANSACTION_FAILED")

	assert.Equal(t, int64(0), f.count(t, &models.Order{}))
	assert.Equal(t, int64(0), f.count(t, &models.OrderItem{}))
	assert.Equal(t, int64(0), f.count(t, &models.Invoice{}))
	assert.Equal(t, int64(0), f.count(t, &models.TableInvoice{}))
	assert.Equal(t, models.TableAvailable, f.table(t, table.ID).Status)

	count, err := f.carts.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Empty(t, f.notifier.Orders())
}

func TestPlaceOrderAtomicWithExistingInvoice(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := &failingStore{GormStore: repository.NewGormStore(db), failAfter: 100}
	f := newFixtureWithStore(t, db, store)
	ctx := context.Background()

	table := testutil.SeedTable(t, db, "T1", 4)
	pho := testutil.SeedFood(t, db, "Pho", "50000")
	coke := testutil.SeedFood(t, db, "Coke", "15000")
	first := f.order(t, table, line{pho, 1})

	store.failAfter = 1
	_, err := f.carts.AddItem(ctx, "s2", table.ID, AddItemRequest{FoodItemID: pho.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, "s2", table.ID, AddItemRequest{FoodItemID: coke.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.orders.PlaceOrder(ctx, table.ID, "s2", "")
	require.Error(t, err)

	assert.Equal(t, int64(1), f.count(t, &models.Order{}), "no partial order survives")
	assert.Equal(t, map[string]int{"Pho": 1}, f.quantities(t, first.InvoiceID))
	f.assertDerived(t, first.InvoiceID)
}

func TestInvoiceForTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := testutil.SeedTable(t, f.db, "T1", 4)
	pho := testutil.SeedFood(t, f.db, "Pho", "50000")

	_, err := f.orders.InvoiceForTable(ctx, table.ID)
	requireKind(t, err, KindNotFound, "NO_OPEN_INVOICE")

	res := f.order(t, table, line{pho, 2})
	view, err := f.orders.InvoiceForTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, res.InvoiceID, view.ID)
	assert.Equal(t, []string{"T1"}, view.Tables)
	require.Len(t, view.Orders, 1)
	assert.True(t, testutil.Money(t, "100000").Equal(view.ItemTotal))
	assert.False(t, view.IsPrepaid)
}
