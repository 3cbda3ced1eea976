package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
)

// PlaceOrderResult identifies what a committed cart became
type PlaceOrderResult struct {
	InvoiceID uint `json:"invoice_id"`
	OrderID   uint `json:"order_id"`
}

// OrderService turns carts into orders on the table's open invoice
type OrderService struct {
	core
}

// NewOrderService creates an order service
func NewOrderService(d Deps) *OrderService {
	return &OrderService{core: newCore(d, "order")}
}

// PlaceOrder commits the session's cart as a new round on the table's open invoice,
// opening an invoice when the table has none. Everything happens in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, tableID uint, sessionID, paymentMethod string) (*PlaceOrderResult, error) {
	var result PlaceOrderResult

	err := s.transact(ctx, "order.place", func(r *repository.Repositories) error {
		table, err := r.Tables.Get(tableID)
		if err != nil {
			return lookup(err, "TABLE_NOT_FOUND", "Table not found")
		}

		cart, err := r.Carts.FindBySession(sessionID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return validationError("EMPTY_CART", "Your cart is empty")
		case err != nil:
			return err
		case cart.TableID != table.ID:
			return validationError("CART_TABLE_MISMATCH", "This cart belongs to another table")
		case len(cart.Items) == 0:
			return validationError("EMPTY_CART", "Your cart is empty")
		}

		inv, err := s.openInvoice(r, table)
		if err != nil {
			return err
		}

		order := &models.Order{
			InvoiceID:     inv.ID,
			TableID:       table.ID,
			Status:        models.InvoicePending,
			CreatedBy:     sessionID,
			PaymentMethod: paymentMethod,
		}
		if err := r.Orders.Create(order); err != nil {
			return err
		}

		for _, line := range cart.Items {
			item := &models.OrderItem{
				OrderID:    order.ID,
				FoodItemID: line.FoodItemID,
				FoodName:   line.FoodName,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				LineTotal:  line.TotalPrice,
				Status:     models.ItemPending,
				Note:       line.Note,
			}
			for _, o := range line.Options {
				item.Options = append(item.Options, models.OrderItemOption{
					GroupName:  o.GroupName,
					ValueName:  o.ValueName,
					PriceDelta: o.PriceDelta,
				})
			}
			if err := r.Orders.CreateItem(item); err != nil {
				return err
			}
		}

		if table.Status != models.TableMerged && table.Status != models.TableOccupied {
			if err := r.Tables.SetStatus(table, models.TableOccupied); err != nil {
				return err
			}
		}

		if err := recomputeOrder(r, order.ID); err != nil {
			return err
		}
		if _, err := recomputeInvoice(r, inv.ID); err != nil {
			return err
		}
		if err := r.Carts.Delete(cart.ID); err != nil {
			return err
		}

		result = PlaceOrderResult{InvoiceID: inv.ID, OrderID: order.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Order placed",
		zap.Uint("table_id", tableID),
		zap.Uint("invoice_id", result.InvoiceID),
		zap.Uint("order_id", result.OrderID))
	s.events.orderChanged(result.OrderID)
	return &result, nil
}

// openInvoice returns the table's open invoice, creating one when there is none.
// An invoice already at checkout takes no more rounds.
func (s *OrderService) openInvoice(r *repository.Repositories, table *models.Table) (*models.Invoice, error) {
	inv, err := r.Invoices.OpenForTable(table.ID)
	if err == nil {
		if !inv.Status.IsActive() {
			return nil, validationError("INVOICE_SETTLING", "The bill for this table is being settled")
		}
		return inv, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	inv = &models.Invoice{
		Code:   newInvoiceCode("INV", now),
		Status: models.InvoiceOpen,
		Notes:  fmt.Sprintf("Opened for table %s", table.Name),
	}
	if err := r.Invoices.Create(inv); err != nil {
		return nil, err
	}
	if err := r.Tables.CreateLink(&models.TableInvoice{TableID: table.ID, InvoiceID: inv.ID}); err != nil {
		return nil, err
	}
	return inv, nil
}

// InvoiceForTable returns the table's open invoice with its rounds
func (s *OrderService) InvoiceForTable(ctx context.Context, tableID uint) (*InvoiceView, error) {
	r := s.store.Repositories(ctx)
	if _, err := r.Tables.Get(tableID); err != nil {
		return nil, classify(lookup(err, "TABLE_NOT_FOUND", "Table not found"))
	}
	inv, err := r.Invoices.OpenForTable(tableID)
	if err != nil {
		return nil, classify(lookup(err, "NO_OPEN_INVOICE", "This table has no open bill"))
	}
	view, err := loadInvoiceView(r, inv)
	if err != nil {
		return nil, classify(err)
	}
	return view, nil
}
