package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
	"github.com/kendall-kelly/tableside-api/tests/testutil"
)

type fixture struct {
	db       *gorm.DB
	store    repository.Store
	notifier *MockNotifier
	archive  *MockReceiptArchive
	guests   *MemoryGuestTracker

	carts    *CartService
	orders   *OrderService
	kitchen  *KitchenService
	payments *PaymentService
	tables   *TableService
}

func testDeps(store repository.Store, notifier Notifier) Deps {
	return Deps{
		Store:    store,
		Notifier: notifier,
		Logger:   zap.NewNop(),
		BackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxConflictRetries)
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	return newFixtureWithStore(t, db, repository.NewGormStore(db))
}

func newFixtureWithStore(t *testing.T, db *gorm.DB, store repository.Store) *fixture {
	t.Helper()
	f := &fixture{
		db:       db,
		store:    store,
		notifier: NewMockNotifier(),
		archive:  NewMockReceiptArchive(),
		guests:   NewMemoryGuestTracker(),
	}
	d := testDeps(store, f.notifier)
	f.carts = NewCartService(d)
	f.orders = NewOrderService(d)
	f.kitchen = NewKitchenService(d)
	f.payments = NewPaymentService(d, f.archive)
	f.tables = NewTableService(d, f.guests)
	return f
}

// interleavingStore lets a rival writer act inside the next transaction right after that transaction
// reads an order item. When the transaction then rolls back on a stale write, the rival's real
// operation is committed before the caller retries, as if the rival had won the race.
type interleavingStore struct {
	repository.Store

	mu      sync.Mutex
	inTx    func(r *repository.Repositories) error
	onRetry func() error
}

func newInterleavingFixture(t *testing.T) (*fixture, *interleavingStore) {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := &interleavingStore{Store: repository.NewGormStore(db)}
	return newFixtureWithStore(t, db, store), store
}

// arm applies to the next transaction only
func (s *interleavingStore) arm(inTx func(r *repository.Repositories) error, onRetry func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx, s.onRetry = inTx, onRetry
}

func (s *interleavingStore) Transaction(ctx context.Context, fn func(r *repository.Repositories) error) error {
	s.mu.Lock()
	inTx, onRetry := s.inTx, s.onRetry
	s.inTx, s.onRetry = nil, nil
	s.mu.Unlock()

	if inTx == nil {
		return s.Store.Transaction(ctx, fn)
	}
	err := s.Store.Transaction(ctx, func(r *repository.Repositories) error {
		hooked := *r
		hooked.Orders = &itemReadHook{OrderRepository: r.Orders, after: func() error { return inTx(r) }}
		return fn(&hooked)
	})
	if errors.Is(err, repository.ErrVersionConflict) && onRetry != nil {
		if rerr := onRetry(); rerr != nil {
			return rerr
		}
	}
	return err
}

type itemReadHook struct {
	repository.OrderRepository
	after func() error
	done  bool
}

func (h *itemReadHook) GetItem(id uint) (*models.OrderItem, error) {
	item, err := h.OrderRepository.GetItem(id)
	if err != nil || h.done {
		return item, err
	}
	h.done = true
	return item, h.after()
}

type line struct {
	food models.FoodItem
	qty  int
}

// order puts the lines in a fresh session cart for the table and places it
func (f *fixture) order(t *testing.T, table models.Table, lines ...line) *PlaceOrderResult {
	t.Helper()
	ctx := context.Background()
	session := "session-" + uuid.NewString()
	for _, l := range lines {
		_, err := f.carts.AddItem(ctx, session, table.ID, AddItemRequest{FoodItemID: l.food.ID, Quantity: l.qty})
		require.NoError(t, err)
	}
	res, err := f.orders.PlaceOrder(ctx, table.ID, session, "cash")
	require.NoError(t, err)
	return res
}

func (f *fixture) invoice(t *testing.T, id uint) *models.Invoice {
	t.Helper()
	inv, err := f.store.Repositories(context.Background()).Invoices.Get(id)
	require.NoError(t, err)
	return inv
}

func (f *fixture) table(t *testing.T, id uint) *models.Table {
	t.Helper()
	table, err := f.store.Repositories(context.Background()).Tables.Get(id)
	require.NoError(t, err)
	return table
}

func (f *fixture) items(t *testing.T, invoiceIDs ...uint) []models.OrderItem {
	t.Helper()
	items, err := f.store.Repositories(context.Background()).Orders.ItemsForInvoices(invoiceIDs...)
	require.NoError(t, err)
	return items
}

// quantities sums item quantities per food name under the invoices
func (f *fixture) quantities(t *testing.T, invoiceIDs ...uint) map[string]int {
	t.Helper()
	out := make(map[string]int)
	for _, it := range f.items(t, invoiceIDs...) {
		out[it.FoodName] += it.Quantity
	}
	return out
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

// assertDerived checks that the invoice status matches its items
func (f *fixture) assertDerived(t *testing.T, invoiceID uint) {
	t.Helper()
	inv := f.invoice(t, invoiceID)
	ids, err := itemSetIDs(f.store.Repositories(context.Background()), inv)
	require.NoError(t, err)
	require.Equal(t, DeriveInvoiceStatus(itemStatuses(f.items(t, ids...))), inv.Status)
}

func requireKind(t *testing.T, err error, kind ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	require.Equal(t, code, se.Code)
}
