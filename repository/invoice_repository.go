package repository

import (
	"time"

	"github.com/kendall-kelly/tableside-api/models"
	"gorm.io/gorm"
)

// openStatuses are the non-terminal invoice states; at most one per table
var openStatuses = []models.InvoiceStatus{
	models.InvoiceOpen,
	models.InvoicePending,
	models.InvoiceInKitchen,
	models.InvoiceReady,
	models.InvoiceServed,
	models.InvoicePaying,
}

// InvoiceRepository persists invoices and their settlement lines
type InvoiceRepository interface {
	Get(id uint) (*models.Invoice, error)
	// OpenForTable returns the table's non-terminal invoice
	OpenForTable(tableID uint) (*models.Invoice, error)
	ListByStatus(statuses ...models.InvoiceStatus) ([]models.Invoice, error)
	// List returns every invoice, newest first
	List() ([]models.Invoice, error)
	// FoldedInto returns the invoices whose merge group is mergedID
	FoldedInto(mergedID uint) ([]models.Invoice, error)
	Create(inv *models.Invoice) error
	// Update writes every mutable field if the invoice still has the version held by inv, and bumps it
	Update(inv *models.Invoice) error

	Details(invoiceID uint) ([]models.InvoiceDetail, error)
	ReplaceDetails(invoiceID uint, details []models.InvoiceDetail) error
}

type invoiceRepository struct {
	db *gorm.DB
}

func (r *invoiceRepository) Get(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.First(&inv, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *invoiceRepository) OpenForTable(tableID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.
		Joins("JOIN table_invoices ON table_invoices.invoice_id = invoices.id").
		Where("table_invoices.table_id = ? AND invoices.status IN ?", tableID, openStatuses).
		Order("invoices.id DESC").
		First(&inv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *invoiceRepository) ListByStatus(statuses ...models.InvoiceStatus) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("status IN ?", statuses).Order("created_at DESC, id DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) List() ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Order("created_at DESC, id DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) FoldedInto(mergedID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("merge_group_id = ?", mergedID).Order("id").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Create(inv *models.Invoice) error {
	inv.Version = 1
	return r.db.Create(inv).Error
}

func (r *invoiceRepository) Update(inv *models.Invoice) error {
	res := r.db.Model(&models.Invoice{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]interface{}{
			"status":          inv.Status,
			"total_amount":    inv.TotalAmount,
			"discount_amount": inv.DiscountAmount,
			"final_amount":    inv.FinalAmount,
			"discount_id":     inv.DiscountID,
			"is_merged":       inv.IsMerged,
			"merge_group_id":  inv.MergeGroupID,
			"notes":           inv.Notes,
			"paid_at":         inv.PaidAt,
			"version":         inv.Version + 1,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	inv.Version++
	return nil
}

func (r *invoiceRepository) Details(invoiceID uint) ([]models.InvoiceDetail, error) {
	var details []models.InvoiceDetail
	err := r.db.Where("invoice_id = ?", invoiceID).Order("id").Find(&details).Error
	return details, err
}

func (r *invoiceRepository) ReplaceDetails(invoiceID uint, details []models.InvoiceDetail) error {
	if err := r.db.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceDetail{}).Error; err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	for i := range details {
		details[i].ID = 0
		details[i].InvoiceID = invoiceID
	}
	return r.db.Create(&details).Error
}
