package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
)

// completedLimit caps how many paid bills the cashier screen lists
const completedLimit = 50

// CashierInvoice is a bill on the cashier screen. FinalAmount is what the guests pay:
// the settled amount once the bill is at checkout, otherwise Total.
type CashierInvoice struct {
	ID          uint                 `json:"id"`
	Code        string               `json:"code"`
	Status      models.InvoiceStatus `json:"status"`
	Tables      []string             `json:"tables"`
	IsMerged    bool                 `json:"is_merged"`
	IsPrepaid   bool                 `json:"is_prepaid"`
	Total       decimal.Decimal      `json:"total"`
	FinalAmount decimal.Decimal      `json:"final_amount"`
	CreatedAt   time.Time            `json:"created_at"`
	Items       []DashboardItem      `json:"items"`
}

// CashierDashboard groups bills by service progress
type CashierDashboard struct {
	Waiting   []CashierInvoice `json:"waiting"`
	Ready     []CashierInvoice `json:"ready"`
	Completed []CashierInvoice `json:"completed"`
}

// PaymentService settles invoices and serves the cashier views
type PaymentService struct {
	core
	archive ReceiptArchive
}

// NewPaymentService creates a payment service. A nil archive discards receipts.
func NewPaymentService(d Deps, archive ReceiptArchive) *PaymentService {
	if archive == nil {
		archive = NoopReceiptArchive{}
	}
	return &PaymentService{core: newCore(d, "payment"), archive: archive}
}

// Checkout prices the table's open bill, applies an optional discount code and moves it to Paying
func (s *PaymentService) Checkout(ctx context.Context, tableID uint, discountCode string) (*models.Invoice, error) {
	var inv *models.Invoice
	var orderIDs []uint

	err := s.transact(ctx, "payment.checkout", func(r *repository.Repositories) error {
		if _, err := r.Tables.Get(tableID); err != nil {
			return lookup(err, "TABLE_NOT_FOUND", "Table not found")
		}
		var err error
		inv, err = r.Invoices.OpenForTable(tableID)
		if err != nil {
			return lookup(err, "NO_OPEN_INVOICE", "This table has no open bill")
		}

		items, err := s.finalize(r, inv, discountCode)
		if err != nil {
			return err
		}
		orderIDs = orderIDsOf(items)

		inv.Status = models.InvoicePaying
		return r.Invoices.Update(inv)
	})
	if err != nil {
		return nil, err
	}

	s.events.orderChanged(orderIDs...)
	return inv, nil
}

// MarkServed marks every ready line of the bill as served
func (s *PaymentService) MarkServed(ctx context.Context, invoiceID uint) (*models.Invoice, error) {
	var inv *models.Invoice
	var orderIDs []uint

	err := s.transact(ctx, "payment.served", func(r *repository.Repositories) error {
		var err error
		if inv, err = s.settleable(r, invoiceID); err != nil {
			return err
		}
		if !inv.Status.IsActive() {
			return validationError("INVALID_STATUS_TRANSITION", "Bill is already at checkout")
		}

		ids, err := itemSetIDs(r, inv)
		if err != nil {
			return err
		}
		n, err := r.Orders.SetItemsStatus(ids, []models.ItemStatus{models.ItemReady}, models.ItemServed)
		if err != nil {
			return err
		}
		if n == 0 {
			return validationError("NO_READY_ITEMS", "There is nothing ready to serve")
		}

		items, err := r.Orders.ItemsForInvoices(ids...)
		if err != nil {
			return err
		}
		orderIDs = orderIDsOf(items)
		for _, id := range orderIDs {
			if err := recomputeOrder(r, id); err != nil {
				return err
			}
		}
		inv, err = recomputeInvoice(r, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.orderChanged(orderIDs...)
	return inv, nil
}

// MarkPaid closes the bill: every line becomes Paid, the invoice becomes Paid and its tables are freed
func (s *PaymentService) MarkPaid(ctx context.Context, invoiceID uint) (*models.Invoice, error) {
	var inv *models.Invoice
	var receipt *InvoiceView
	var orderIDs []uint

	err := s.transact(ctx, "payment.paid", func(r *repository.Repositories) error {
		var err error
		if inv, err = s.settleable(r, invoiceID); err != nil {
			return err
		}

		var items []models.OrderItem
		if inv.Status == models.InvoicePaying {
			if items, err = s.items(r, inv); err != nil {
				return err
			}
			if len(items) == 0 {
				return validationError("NOTHING_TO_SETTLE", "There are no items to pay for")
			}
		} else if items, err = s.finalize(r, inv, ""); err != nil {
			return err
		}
		orderIDs = orderIDsOf(items)

		ids, err := itemSetIDs(r, inv)
		if err != nil {
			return err
		}
		if _, err := r.Orders.SetItemsStatus(ids, nil, models.ItemPaid); err != nil {
			return err
		}
		for _, id := range orderIDs {
			if err := recomputeOrder(r, id); err != nil {
				return err
			}
		}

		paidAt := s.now()
		inv.Status = models.InvoicePaid
		inv.PaidAt = &paidAt
		if err := r.Invoices.Update(inv); err != nil {
			return err
		}

		if err := s.freeTables(r, inv); err != nil {
			return err
		}

		receipt, err = loadInvoiceView(r, inv)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Invoice paid", zap.Uint("invoice_id", inv.ID), zap.String("final_amount", inv.FinalAmount.StringFixed(2)))
	s.events.orderChanged(orderIDs...)
	go s.archiveReceipt(receipt)
	return inv, nil
}

// GetInvoice returns a bill with its rounds and settlement lines
func (s *PaymentService) GetInvoice(ctx context.Context, invoiceID uint) (*InvoiceView, error) {
	r := s.store.Repositories(ctx)
	inv, err := r.Invoices.Get(invoiceID)
	if err != nil {
		return nil, classify(lookup(err, "INVOICE_NOT_FOUND", "Invoice not found"))
	}
	view, err := loadInvoiceView(r, inv)
	if err != nil {
		return nil, classify(err)
	}
	return view, nil
}

// ReceiptURL links to the archived receipt of a paid invoice
func (s *PaymentService) ReceiptURL(ctx context.Context, invoiceID uint) (string, error) {
	view, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	if view.Status != models.InvoicePaid {
		return "", validationError("NOT_PAID", "Only paid invoices have receipts")
	}
	url, err := s.archive.URL(ctx, ReceiptKey(view))
	if errors.Is(err, ErrReceiptArchiveDisabled) {
		return "", notFoundError("RECEIPT_NOT_FOUND", "Receipts are not archived")
	}
	if err != nil {
		return "", classify(err)
	}
	return url, nil
}

// Dashboard lists bills waiting on the kitchen, ready to settle, and recently paid
func (s *PaymentService) Dashboard(ctx context.Context) (*CashierDashboard, error) {
	r := s.store.Repositories(ctx)
	invoices, err := r.Invoices.ListByStatus(
		models.InvoicePending, models.InvoiceInKitchen,
		models.InvoiceReady, models.InvoiceServed,
		models.InvoicePaid,
	)
	if err != nil {
		return nil, classify(err)
	}

	board := &CashierDashboard{
		Waiting:   []CashierInvoice{},
		Ready:     []CashierInvoice{},
		Completed: []CashierInvoice{},
	}
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status == models.InvoicePaid && len(board.Completed) >= completedLimit {
			continue
		}
		view, err := loadInvoiceView(r, inv)
		if err != nil {
			return nil, classify(err)
		}
		entry := newCashierInvoice(view)

		switch inv.Status {
		case models.InvoicePending, models.InvoiceInKitchen:
			board.Waiting = append(board.Waiting, entry)
		case models.InvoiceReady, models.InvoiceServed:
			board.Ready = append(board.Ready, entry)
		case models.InvoicePaid:
			board.Completed = append(board.Completed, entry)
		}
	}
	return board, nil
}

// ListInvoices returns every bill, newest first, optionally only those in one status
func (s *PaymentService) ListInvoices(ctx context.Context, status string) ([]CashierInvoice, error) {
	r := s.store.Repositories(ctx)
	var (
		invoices []models.Invoice
		err      error
	)
	if status == "" {
		invoices, err = r.Invoices.List()
	} else {
		st := models.InvoiceStatus(status)
		if !st.IsKnown() {
			return nil, validationError("INVALID_STATUS", "Unknown invoice status "+status)
		}
		invoices, err = r.Invoices.ListByStatus(st)
	}
	if err != nil {
		return nil, classify(err)
	}

	list := make([]CashierInvoice, 0, len(invoices))
	for i := range invoices {
		view, err := loadInvoiceView(r, &invoices[i])
		if err != nil {
			return nil, classify(err)
		}
		list = append(list, newCashierInvoice(view))
	}
	return list, nil
}

func newCashierInvoice(view *InvoiceView) CashierInvoice {
	entry := CashierInvoice{
		ID:          view.ID,
		Code:        view.Code,
		Status:      view.Status,
		Tables:      view.Tables,
		IsMerged:    view.IsMerged,
		IsPrepaid:   view.IsPrepaid,
		Total:       view.ItemTotal,
		FinalAmount: view.ItemTotal,
		CreatedAt:   view.CreatedAt,
		Items:       []DashboardItem{},
	}
	if view.Status == models.InvoicePaying || view.Status == models.InvoicePaid {
		entry.FinalAmount = view.FinalAmount
	}
	for _, o := range view.Orders {
		for _, it := range o.Items {
			entry.Items = append(entry.Items, newDashboardItem(it))
		}
	}
	return entry
}

// settleable loads an invoice the cashier may act on
func (s *PaymentService) settleable(r *repository.Repositories, invoiceID uint) (*models.Invoice, error) {
	inv, err := r.Invoices.Get(invoiceID)
	if err != nil {
		return nil, lookup(err, "INVOICE_NOT_FOUND", "Invoice not found")
	}
	if inv.Status == models.InvoiceMerged {
		return nil, validationError("INVOICE_MERGED", "This bill was merged, settle the merged bill instead")
	}
	if !inv.Status.IsActive() && inv.Status != models.InvoicePaying {
		return nil, validationError("INVALID_STATUS_TRANSITION", "Bill is already "+string(inv.Status))
	}
	return inv, nil
}

func (s *PaymentService) items(r *repository.Repositories, inv *models.Invoice) ([]models.OrderItem, error) {
	ids, err := itemSetIDs(r, inv)
	if err != nil {
		return nil, err
	}
	return r.Orders.ItemsForInvoices(ids...)
}

// finalize rebuilds the settlement lines and amounts of inv from its items
func (s *PaymentService) finalize(r *repository.Repositories, inv *models.Invoice, discountCode string) ([]models.OrderItem, error) {
	items, err := s.items(r, inv)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, validationError("NOTHING_TO_SETTLE", "There are no items to pay for")
	}

	details := aggregateDetails(items)
	if err := r.Invoices.ReplaceDetails(inv.ID, details); err != nil {
		return nil, err
	}

	total := sumDetails(details)
	discount := decimal.Zero
	inv.DiscountID = nil
	if discountCode != "" {
		d, err := r.Discounts.FindByCode(discountCode)
		if err != nil {
			return nil, lookup(err, "DISCOUNT_NOT_FOUND", "Discount code not found")
		}
		if !d.Applies(s.now()) {
			return nil, validationError("DISCOUNT_INACTIVE", "Discount code is not active")
		}
		discount = d.AmountFor(total)
		inv.DiscountID = &d.ID
	}

	inv.TotalAmount = total
	inv.DiscountAmount = discount
	inv.FinalAmount = total.Sub(discount)
	return items, nil
}

// freeTables releases the invoice's tables unless a table now belongs to a different open bill
func (s *PaymentService) freeTables(r *repository.Repositories, inv *models.Invoice) error {
	links, err := r.Tables.LinksForInvoice(inv.ID)
	if err != nil {
		return err
	}
	for _, l := range links {
		table, err := r.Tables.Get(l.TableID)
		if err != nil {
			return err
		}
		if table.Status == models.TableMerged {
			current, err := r.Invoices.OpenForTable(table.ID)
			if err == nil && current.ID != inv.ID {
				continue
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		if table.Status != models.TableAvailable {
			if err := r.Tables.SetStatus(table, models.TableAvailable); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *PaymentService) archiveReceipt(receipt *InvoiceView) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	key, err := s.archive.Archive(ctx, receipt)
	if err != nil {
		s.log.Warn("Failed to archive receipt", zap.Uint("invoice_id", receipt.ID), zap.Error(err))
		return
	}
	s.log.Debug("Receipt archived", zap.String("key", key))
}
