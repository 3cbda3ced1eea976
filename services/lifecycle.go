package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
)

// maxConflictRetries bounds how often a transaction is replayed after a stale-version write
const maxConflictRetries = 3

// Deps are the collaborators shared by the lifecycle services
type Deps struct {
	Store    repository.Store
	Notifier Notifier
	Logger   *zap.Logger
	// BackOff builds the retry policy for version conflicts; nil means exponential with 3 retries
	BackOff func() backoff.BackOff
	// Clock defaults to time.Now
	Clock func() time.Time
}

type core struct {
	store   repository.Store
	events  *dispatcher
	log     *zap.Logger
	backOff func() backoff.BackOff
	now     func() time.Time
}

func newCore(d Deps, name string) core {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named(name)

	notifier := d.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}

	bo := d.BackOff
	if bo == nil {
		bo = func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxConflictRetries)
		}
	}

	now := d.Clock
	if now == nil {
		now = time.Now
	}

	return core{
		store:   d.Store,
		events:  &dispatcher{sink: notifier, log: log, timeout: 5 * time.Second},
		log:     log,
		backOff: bo,
		now:     now,
	}
}

// transact runs fn in one transaction, replaying it while it loses optimistic-lock races
func (c core) transact(ctx context.Context, op string, fn func(r *repository.Repositories) error) error {
	attempt := 0
	run := func() error {
		attempt++
		err := c.store.Transaction(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrVersionConflict) {
			c.log.Debug("Version conflict, retrying", zap.String("op", op), zap.Int("attempt", attempt))
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(run, backoff.WithContext(c.backOff(), ctx))
	if err == nil {
		return nil
	}

	err = classify(err)
	switch KindOf(err) {
	case KindTransactionFailure:
		c.log.Error("Transaction failed", zap.String("op", op), zap.Error(err))
	case KindConcurrencyConflict:
		c.log.Warn("Giving up after version conflicts", zap.String("op", op), zap.Int("attempts", attempt))
	}
	return err
}

// itemSetIDs lists the invoices whose orders belong to inv: itself plus everything folded into it
func itemSetIDs(r *repository.Repositories, inv *models.Invoice) ([]uint, error) {
	ids := []uint{inv.ID}
	folded, err := r.Invoices.FoldedInto(inv.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range folded {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// recomputeInvoice re-derives the status of the invoice that owns invoiceID's items.
// A merged-away invoice defers to its merge group. The write always bumps the version
// so concurrent recomputations on the same invoice conflict.
func recomputeInvoice(r *repository.Repositories, invoiceID uint) (*models.Invoice, error) {
	inv, err := r.Invoices.Get(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceMerged && inv.MergeGroupID != nil {
		if inv, err = r.Invoices.Get(*inv.MergeGroupID); err != nil {
			return nil, err
		}
	}
	if !inv.Status.IsDerivable() {
		return inv, nil
	}

	ids, err := itemSetIDs(r, inv)
	if err != nil {
		return nil, err
	}
	items, err := r.Orders.ItemsForInvoices(ids...)
	if err != nil {
		return nil, err
	}

	inv.Status = DeriveInvoiceStatus(itemStatuses(items))
	if err := r.Invoices.Update(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func recomputeOrder(r *repository.Repositories, orderID uint) error {
	statuses, err := r.Orders.ItemStatuses(orderID)
	if err != nil {
		return err
	}
	return r.Orders.SetStatus(orderID, DeriveOrderStatus(statuses))
}

// orderIDsOf returns the distinct orders owning the items, in ascending order
func orderIDsOf(items []models.OrderItem) []uint {
	seen := make(map[uint]bool)
	var ids []uint
	for _, it := range items {
		if !seen[it.OrderID] {
			seen[it.OrderID] = true
			ids = append(ids, it.OrderID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func itemStatuses(items []models.OrderItem) []models.ItemStatus {
	out := make([]models.ItemStatus, len(items))
	for i, it := range items {
		out[i] = it.Status
	}
	return out
}

// aggregateDetails folds order lines into one settlement line per food item.
// The unit price is that of the first line seen; the subtotal sums the frozen line totals.
func aggregateDetails(items []models.OrderItem) []models.InvoiceDetail {
	index := make(map[uint]int)
	var details []models.InvoiceDetail
	for _, it := range items {
		if i, ok := index[it.FoodItemID]; ok {
			details[i].Quantity += it.Quantity
			details[i].SubTotal = details[i].SubTotal.Add(it.LineTotal)
			continue
		}
		index[it.FoodItemID] = len(details)
		details = append(details, models.InvoiceDetail{
			FoodItemID: it.FoodItemID,
			FoodName:   it.FoodName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			SubTotal:   it.LineTotal,
		})
	}
	return details
}

func sumDetails(details []models.InvoiceDetail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.SubTotal)
	}
	return total
}

// newInvoiceCode builds codes like INV-20260314-193000-4F2
func newInvoiceCode(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:3])
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102-150405"), suffix)
}
