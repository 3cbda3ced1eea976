package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FoodItem is a dish on the menu
type FoodItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description"`
	BasePrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"base_price"`
	DiscountPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount_price"`
	ImageURL      string          `json:"image_url"`
	IsAvailable   bool            `gorm:"not null" json:"is_available"`
	CategoryID    *uint           `gorm:"index" json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Options       []FoodOption    `gorm:"foreignKey:FoodItemID" json:"options,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the FoodItem model
func (FoodItem) TableName() string {
	return "food_items"
}

// EffectivePrice is the discounted price when one is set, otherwise the base price
func (f FoodItem) EffectivePrice() decimal.Decimal {
	if f.DiscountPrice.IsPositive() {
		return f.DiscountPrice
	}
	return f.BasePrice
}

// Category groups dishes on the menu, e.g. "Noodles" or "Drinks"
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// Combo is a set of dishes sold together at a percentage off
type Combo struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Name               string          `gorm:"not null" json:"name"`
	Description        string          `json:"description"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_percentage"`
	ImageURL           string          `json:"image_url"`
	IsAvailable        bool            `gorm:"not null" json:"is_available"`
	Details            []ComboDetail   `gorm:"foreignKey:ComboID" json:"details"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Combo model
func (Combo) TableName() string {
	return "combos"
}

// Price is the sum of the dishes' current prices less the combo percentage.
// Details must be loaded with their food items.
func (c Combo) Price() decimal.Decimal {
	sum := decimal.Zero
	for _, d := range c.Details {
		sum = sum.Add(d.FoodItem.EffectivePrice().Mul(decimal.NewFromInt(int64(d.Quantity))))
	}
	off := sum.Mul(c.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
	return sum.Sub(off)
}

// Servable reports whether the combo and every dish in it can be ordered
func (c Combo) Servable() bool {
	if !c.IsAvailable || len(c.Details) == 0 {
		return false
	}
	for _, d := range c.Details {
		if !d.FoodItem.IsAvailable {
			return false
		}
	}
	return true
}

// ComboDetail is one dish and its quantity inside a combo
type ComboDetail struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ComboID    uint     `gorm:"not null;index" json:"combo_id"`
	FoodItemID uint     `gorm:"not null;index" json:"food_item_id"`
	FoodItem   FoodItem `gorm:"foreignKey:FoodItemID" json:"food_item"`
	Quantity   int      `gorm:"not null" json:"quantity"`
}

// TableName specifies the table name for the ComboDetail model
func (ComboDetail) TableName() string {
	return "combo_details"
}

// OptionType groups options, e.g. "Size" or "Spice level"
type OptionType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// TableName specifies the table name for the OptionType model
func (OptionType) TableName() string {
	return "option_types"
}

// FoodOption is a selectable option for a food item
type FoodOption struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	FoodItemID   uint            `gorm:"not null;index" json:"food_item_id"`
	OptionTypeID uint            `gorm:"not null" json:"option_type_id"`
	OptionType   OptionType      `gorm:"foreignKey:OptionTypeID" json:"option_type"`
	Name         string          `gorm:"not null" json:"name"`
	ExtraPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"extra_price"`
	IsAvailable  bool            `gorm:"not null" json:"is_available"`
}

// TableName specifies the table name for the FoodOption model
func (FoodOption) TableName() string {
	return "food_options"
}

// All lists every model for auto-migration
func All() []interface{} {
	return []interface{}{
		&Table{}, &Invoice{}, &TableInvoice{}, &InvoiceDetail{}, &Discount{},
		&Order{}, &OrderItem{}, &OrderItemOption{},
		&Cart{}, &CartItem{}, &CartItemOption{},
		&Category{}, &FoodItem{}, &OptionType{}, &FoodOption{},
		&Combo{}, &ComboDetail{},
	}
}
