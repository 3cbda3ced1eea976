package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of a bill
type InvoiceStatus string

const (
	InvoiceOpen      InvoiceStatus = "Open"
	InvoicePending   InvoiceStatus = "Pending"
	InvoiceInKitchen InvoiceStatus = "InKitchen"
	InvoiceReady     InvoiceStatus = "Ready"
	InvoiceServed    InvoiceStatus = "Served"
	InvoicePaying    InvoiceStatus = "Paying"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceMerged    InvoiceStatus = "Merged"
	InvoiceSplit     InvoiceStatus = "Split"
	InvoiceCanceled  InvoiceStatus = "Canceled"
)

// IsKnown reports whether s is one of the invoice states
func (s InvoiceStatus) IsKnown() bool {
	switch s {
	case InvoiceOpen, InvoicePending, InvoiceInKitchen, InvoiceReady, InvoiceServed,
		InvoicePaying, InvoicePaid, InvoiceMerged, InvoiceSplit, InvoiceCanceled:
		return true
	}
	return false
}

// IsActive reports whether the invoice still accepts orders and can take part in a merge.
// Paying is non-terminal but closed to new rounds.
func (s InvoiceStatus) IsActive() bool {
	switch s {
	case InvoiceOpen, InvoicePending, InvoiceInKitchen, InvoiceReady, InvoiceServed:
		return true
	}
	return false
}

// IsDerivable reports whether the status follows the items beneath the invoice
func (s InvoiceStatus) IsDerivable() bool {
	return s.IsActive()
}

// IsTerminal reports whether the invoice lifecycle has ended
func (s InvoiceStatus) IsTerminal() bool {
	switch s {
	case InvoicePaid, InvoiceMerged, InvoiceSplit, InvoiceCanceled:
		return true
	}
	return false
}

// Invoice represents a bill for one table, or for several tables after a merge
type Invoice struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Code           string          `gorm:"uniqueIndex;not null" json:"code"`
	Status         InvoiceStatus   `gorm:"type:varchar(20);not null;default:'Open';index" json:"status"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"final_amount"`
	DiscountID     *uint           `json:"discount_id,omitempty"`
	IsMerged       bool            `gorm:"not null;default:false" json:"is_merged"`
	MergeGroupID   *uint           `gorm:"index" json:"merge_group_id,omitempty"` // merged invoice this one was folded into
	Notes          string          `json:"notes"`
	Version        int             `gorm:"not null;default:1" json:"version"` // optimistic lock
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceDetail is a settlement line, one row per food item
type InvoiceDetail struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	InvoiceID  uint            `gorm:"not null;index" json:"invoice_id"`
	FoodItemID uint            `gorm:"not null" json:"food_item_id"`
	FoodName   string          `gorm:"not null" json:"food_name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	SubTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"sub_total"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name for the InvoiceDetail model
func (InvoiceDetail) TableName() string {
	return "invoice_details"
}

// Discount is a promotion that can be applied at checkout
type Discount struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"uniqueIndex;not null" json:"code"`
	Percent   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percent"`
	MaxAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"max_amount"` // 0 means uncapped
	Active    bool            `gorm:"not null" json:"active"`
	StartsAt  *time.Time      `json:"starts_at,omitempty"`
	EndsAt    *time.Time      `json:"ends_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name for the Discount model
func (Discount) TableName() string {
	return "discounts"
}

// Applies reports whether the discount can be used at the given instant
func (d Discount) Applies(at time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartsAt != nil && at.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && at.After(*d.EndsAt) {
		return false
	}
	return true
}

// AmountFor returns the reduction for a bill total
func (d Discount) AmountFor(total decimal.Decimal) decimal.Decimal {
	amount := total.Mul(d.Percent).Div(decimal.NewFromInt(100)).Round(2)
	if d.MaxAmount.IsPositive() && amount.GreaterThan(d.MaxAmount) {
		amount = d.MaxAmount
	}
	if amount.GreaterThan(total) {
		amount = total
	}
	return amount
}
