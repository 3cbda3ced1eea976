package services

import (
	"context"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
)

// KitchenTicket is an order line on the kitchen screen
type KitchenTicket struct {
	DashboardItem
	TableID   uint   `json:"table_id"`
	TableName string `json:"table_name"`
	InvoiceID uint   `json:"invoice_id"`
}

// KitchenDashboard groups open order lines by kitchen progress
type KitchenDashboard struct {
	Pending    []KitchenTicket `json:"pending"`
	InProgress []KitchenTicket `json:"in_progress"`
	Ready      []KitchenTicket `json:"ready"`
}

// KitchenService advances order lines through preparation
type KitchenService struct {
	core
}

// NewKitchenService creates a kitchen service
func NewKitchenService(d Deps) *KitchenService {
	return &KitchenService{core: newCore(d, "kitchen")}
}

// StartPreparing moves a pending or confirmed line into the kitchen
func (s *KitchenService) StartPreparing(ctx context.Context, itemID uint) (*models.OrderItem, error) {
	return s.advance(ctx, "kitchen.start", itemID, models.ItemInKitchen,
		models.ItemPending, models.ItemConfirmed)
}

// MarkReady marks a line as ready to serve
func (s *KitchenService) MarkReady(ctx context.Context, itemID uint) (*models.OrderItem, error) {
	return s.advance(ctx, "kitchen.ready", itemID, models.ItemReady,
		models.ItemPending, models.ItemConfirmed, models.ItemInKitchen)
}

// advance writes the item status and re-derives its order and invoice in the same transaction
func (s *KitchenService) advance(ctx context.Context, op string, itemID uint, to models.ItemStatus, from ...models.ItemStatus) (*models.OrderItem, error) {
	var item *models.OrderItem

	err := s.transact(ctx, op, func(r *repository.Repositories) error {
		var err error
		item, err = r.Orders.GetItem(itemID)
		if err != nil {
			return lookup(err, "ORDER_ITEM_NOT_FOUND", "Order item not found")
		}
		if !statusIn(item.Status, from) {
			return validationError("INVALID_STATUS_TRANSITION",
				"Cannot move item from "+string(item.Status)+" to "+string(to))
		}

		if err := r.Orders.SetItemStatus(item.ID, from, to); err != nil {
			return err
		}
		item.Status = to

		if err := recomputeOrder(r, item.OrderID); err != nil {
			return err
		}
		order, err := r.Orders.Get(item.OrderID)
		if err != nil {
			return err
		}
		_, err = recomputeInvoice(r, order.InvoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.orderChanged(item.OrderID)
	return item, nil
}

// Dashboard lists the lines the kitchen still has to deal with
func (s *KitchenService) Dashboard(ctx context.Context) (*KitchenDashboard, error) {
	r := s.store.Repositories(ctx)
	rows, err := r.Orders.KitchenQueue(models.ItemPending, models.ItemConfirmed, models.ItemInKitchen, models.ItemReady)
	if err != nil {
		return nil, classify(err)
	}

	names := make(map[uint]string)
	board := &KitchenDashboard{
		Pending:    []KitchenTicket{},
		InProgress: []KitchenTicket{},
		Ready:      []KitchenTicket{},
	}
	for _, row := range rows {
		name, ok := names[row.TableID]
		if !ok {
			if t, err := r.Tables.Get(row.TableID); err == nil {
				name = t.Name
			}
			names[row.TableID] = name
		}

		ticket := KitchenTicket{
			DashboardItem: newDashboardItem(row.OrderItem),
			TableID:       row.TableID,
			TableName:     name,
			InvoiceID:     row.InvoiceID,
		}
		switch row.Status {
		case models.ItemInKitchen:
			board.InProgress = append(board.InProgress, ticket)
		case models.ItemReady:
			board.Ready = append(board.Ready, ticket)
		default:
			board.Pending = append(board.Pending, ticket)
		}
	}
	return board, nil
}

func statusIn(s models.ItemStatus, set []models.ItemStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
