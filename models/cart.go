package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds a customer's pending selections for one table session
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SessionID string     `gorm:"uniqueIndex;not null" json:"session_id"`
	TableID   uint       `gorm:"not null;index" json:"table_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Cart model
func (Cart) TableName() string {
	return "carts"
}

// CartItem is one selection in a cart, priced when it was added
type CartItem struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	CartID     uint             `gorm:"not null;index" json:"cart_id"`
	FoodItemID uint             `gorm:"not null" json:"food_item_id"`
	FoodName   string           `gorm:"not null" json:"food_name"`
	ImageURL   string           `json:"image_url"`
	Quantity   int              `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice  decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Note       string           `json:"note"`
	Options    []CartItemOption `gorm:"foreignKey:CartItemID" json:"options"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// OptionKey identifies the chosen option set independent of selection order
func (ci CartItem) OptionKey() string {
	keys := make([]string, 0, len(ci.Options))
	for _, o := range ci.Options {
		keys = append(keys, o.GroupName+":"+o.ValueName)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// CartItemOption is a chosen option on a cart item
type CartItemOption struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CartItemID uint            `gorm:"not null;index" json:"cart_item_id"`
	GroupName  string          `json:"group_name"`
	ValueName  string          `json:"value_name"`
	PriceDelta decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price_delta"`
}

// TableName specifies the table name for the CartItemOption model
func (CartItemOption) TableName() string {
	return "cart_item_options"
}
