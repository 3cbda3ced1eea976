package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the kitchen/service state of a single order line
type ItemStatus string

const (
	ItemPending       ItemStatus = "Pending"
	ItemConfirmed     ItemStatus = "Confirmed"
	ItemInKitchen     ItemStatus = "In_Kitchen"
	ItemReady         ItemStatus = "Ready"
	ItemServed        ItemStatus = "Served"
	ItemRequestedBill ItemStatus = "Requested_Bill"
	ItemPaid          ItemStatus = "Paid"
)

// Order is one round of items submitted together under an invoice
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	InvoiceID     uint          `gorm:"not null;index" json:"invoice_id"`
	TableID       uint          `gorm:"not null;index" json:"table_id"` // table that placed the round
	Status        InvoiceStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	CreatedBy     string        `gorm:"not null" json:"created_by"` // cart session id
	PaymentMethod string        `json:"payment_method"`
	Note          string        `json:"note"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line of an order. Name and prices are frozen when the order is placed.
type OrderItem struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	OrderID    uint              `gorm:"not null;index" json:"order_id"`
	FoodItemID uint              `gorm:"not null" json:"food_item_id"`
	FoodName   string            `gorm:"not null" json:"food_name"`
	Quantity   int               `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice  decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal  decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"line_total"`
	Status     ItemStatus        `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	Note       string            `json:"note"`
	Options    []OrderItemOption `gorm:"foreignKey:OrderItemID" json:"options,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderItemOption is a snapshot of a chosen option, detached from the live catalog
type OrderItemOption struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderItemID uint            `gorm:"not null;index" json:"order_item_id"`
	GroupName   string          `json:"group_name"`
	ValueName   string          `json:"value_name"`
	PriceDelta  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price_delta"`
}

// TableName specifies the table name for the OrderItemOption model
func (OrderItemOption) TableName() string {
	return "order_item_options"
}

// Label returns the text shown on dashboards for the option
func (o OrderItemOption) Label() string {
	if o.ValueName != "" {
		return o.ValueName
	}
	return o.GroupName
}
