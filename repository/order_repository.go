package repository

import (
	"time"

	"github.com/kendall-kelly/tableside-api/models"
	"gorm.io/gorm"
)

// KitchenItem is an order line joined with the table and invoice it belongs to
type KitchenItem struct {
	models.OrderItem
	TableID   uint `json:"table_id"`
	InvoiceID uint `json:"invoice_id"`
}

// OrderRepository persists orders and their items
type OrderRepository interface {
	Create(order *models.Order) error
	// CreateItem inserts an order line together with its option snapshots
	CreateItem(item *models.OrderItem) error
	Get(id uint) (*models.Order, error)
	SetStatus(orderID uint, status models.InvoiceStatus) error
	// ListForInvoices returns the orders of the given invoices with items and options loaded
	ListForInvoices(invoiceIDs ...uint) ([]models.Order, error)
	// MoveOrders repoints the orders at another invoice
	MoveOrders(orderIDs []uint, invoiceID uint) error

	GetItem(id uint) (*models.OrderItem, error)
	ItemStatuses(orderID uint) ([]models.ItemStatus, error)
	// ItemsForInvoices returns every item of every order under the given invoices
	ItemsForInvoices(invoiceIDs ...uint) ([]models.OrderItem, error)
	// SetItemStatus moves the item to status if it is still in one of the from statuses.
	// An item that has moved on in the meantime yields ErrVersionConflict.
	SetItemStatus(itemID uint, from []models.ItemStatus, status models.ItemStatus) error
	// SetItemsStatus moves items under the invoices from any of the from statuses (all, when empty) to status
	SetItemsStatus(invoiceIDs []uint, from []models.ItemStatus, status models.ItemStatus) (int64, error)
	KitchenQueue(statuses ...models.ItemStatus) ([]KitchenItem, error)
}

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Omit("Items").Create(order).Error
}

func (r *orderRepository) CreateItem(item *models.OrderItem) error {
	return r.db.Create(item).Error
}

func (r *orderRepository) Get(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items.Options").First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *orderRepository) SetStatus(orderID uint, status models.InvoiceStatus) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *orderRepository) ListForInvoices(invoiceIDs ...uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("invoice_id IN ?", invoiceIDs).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Options").
		Order("created_at, id").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) MoveOrders(orderIDs []uint, invoiceID uint) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id IN ?", orderIDs).
		Updates(map[string]interface{}{"invoice_id": invoiceID, "updated_at": time.Now()}).Error
}

func (r *orderRepository) GetItem(id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *orderRepository) ItemStatuses(orderID uint) ([]models.ItemStatus, error) {
	var statuses []models.ItemStatus
	err := r.db.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Pluck("status", &statuses).Error
	return statuses, err
}

func (r *orderRepository) ItemsForInvoices(invoiceIDs ...uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.invoice_id IN ?", invoiceIDs).
		Order("order_items.id").
		Find(&items).Error
	return items, err
}

func (r *orderRepository) SetItemStatus(itemID uint, from []models.ItemStatus, status models.ItemStatus) error {
	res := r.db.Model(&models.OrderItem{}).
		Where("id = ? AND status IN ?", itemID, from).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.Model(&models.OrderItem{}).Where("id = ?", itemID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *orderRepository) SetItemsStatus(invoiceIDs []uint, from []models.ItemStatus, status models.ItemStatus) (int64, error) {
	sub := r.db.Model(&models.Order{}).Select("id").Where("invoice_id IN ?", invoiceIDs)
	q := r.db.Model(&models.OrderItem{}).Where("order_id IN (?)", sub)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}
	res := q.Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *orderRepository) KitchenQueue(statuses ...models.ItemStatus) ([]KitchenItem, error) {
	var rows []KitchenItem
	err := r.db.Model(&models.OrderItem{}).
		Select("order_items.*, orders.table_id, orders.invoice_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.status IN ?", statuses).
		Order("order_items.created_at, order_items.id").
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return rows, err
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var options []models.OrderItemOption
	if err := r.db.Where("order_item_id IN ?", ids).Order("id").Find(&options).Error; err != nil {
		return nil, err
	}
	byItem := make(map[uint][]models.OrderItemOption)
	for _, o := range options {
		byItem[o.OrderItemID] = append(byItem[o.OrderItemID], o)
	}
	for i := range rows {
		rows[i].Options = byItem[rows[i].ID]
	}
	return rows, nil
}
