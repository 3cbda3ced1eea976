package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
)

// prepaidMethods are payment methods settled online before the cashier sees the bill
var prepaidMethods = map[string]bool{"momo": true, "zalopay": true, "vnpay": true}

// InvoiceView is an invoice with the rounds, settlement lines and tables beneath it.
// It doubles as the archived receipt.
type InvoiceView struct {
	models.Invoice
	Tables    []string               `json:"tables"`
	Orders    []models.Order         `json:"orders"`
	Details   []models.InvoiceDetail `json:"details"`
	ItemTotal decimal.Decimal        `json:"item_total"`
	IsPrepaid bool                   `json:"is_prepaid"`
}

// DashboardItem is one order line as shown on staff screens
type DashboardItem struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	Status    models.ItemStatus `json:"status"`
	Note      string            `json:"note,omitempty"`
	Options   []string          `json:"options"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newDashboardItem(it models.OrderItem) DashboardItem {
	opts := make([]string, 0, len(it.Options))
	for _, o := range it.Options {
		opts = append(opts, o.Label())
	}
	return DashboardItem{
		ID:        it.ID,
		Name:      it.FoodName,
		Quantity:  it.Quantity,
		Status:    it.Status,
		Note:      it.Note,
		Options:   opts,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

// tableNames returns the names of the tables linked to the invoice
func tableNames(r *repository.Repositories, invoiceID uint) ([]string, []models.Table, error) {
	links, err := r.Tables.LinksForInvoice(invoiceID)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(links))
	tables := make([]models.Table, 0, len(links))
	for _, l := range links {
		t, err := r.Tables.Get(l.TableID)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, t.Name)
		tables = append(tables, *t)
	}
	return names, tables, nil
}

func loadInvoiceView(r *repository.Repositories, inv *models.Invoice) (*InvoiceView, error) {
	ids, err := itemSetIDs(r, inv)
	if err != nil {
		return nil, err
	}
	orders, err := r.Orders.ListForInvoices(ids...)
	if err != nil {
		return nil, err
	}
	details, err := r.Invoices.Details(inv.ID)
	if err != nil {
		return nil, err
	}
	names, _, err := tableNames(r, inv.ID)
	if err != nil {
		return nil, err
	}

	view := &InvoiceView{
		Invoice:   *inv,
		Tables:    names,
		Orders:    orders,
		Details:   details,
		ItemTotal: decimal.Zero,
	}
	for _, o := range orders {
		if prepaidMethods[o.PaymentMethod] {
			view.IsPrepaid = true
		}
		for _, it := range o.Items {
			view.ItemTotal = view.ItemTotal.Add(it.LineTotal)
		}
	}
	return view, nil
}
