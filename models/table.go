package models

import "time"

// TableStatus is the persisted occupancy state of a dining table
type TableStatus string

const (
	TableAvailable TableStatus = "Available"
	TableFull      TableStatus = "Full"
	TableOccupied  TableStatus = "Occupied"
	TableMerged    TableStatus = "Merged"
)

// Table represents a dining table that customers reach through its QR code
type Table struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"not null" json:"name"`
	SeatCount int         `gorm:"not null;check:seat_count > 0" json:"seat_count"`
	Status    TableStatus `gorm:"type:varchar(20);not null;default:'Available'" json:"status"`
	Version   int         `gorm:"not null;default:1" json:"version"` // optimistic lock
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Table model
func (Table) TableName() string {
	return "dining_tables"
}

// TableInvoice links a table to an invoice and carries merge lineage
type TableInvoice struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TableID      uint      `gorm:"not null;index" json:"table_id"`
	InvoiceID    uint      `gorm:"not null;index" json:"invoice_id"`
	MergeGroupID *uint     `gorm:"index" json:"merge_group_id,omitempty"` // merged invoice id while merged
	OldInvoiceID *uint     `json:"old_invoice_id,omitempty"`              // invoice to restore on split
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the TableInvoice model
func (TableInvoice) TableName() string {
	return "table_invoices"
}
