package repository

import (
	"time"

	"github.com/kendall-kelly/tableside-api/models"
	"gorm.io/gorm"
)

// TableRepository persists dining tables and their invoice links
type TableRepository interface {
	Get(id uint) (*models.Table, error)
	List() ([]models.Table, error)
	Create(table *models.Table) error
	// SetStatus writes the status if the table still has the version held by t, and bumps it
	SetStatus(t *models.Table, status models.TableStatus) error

	LinksForTable(tableID uint) ([]models.TableInvoice, error)
	LinksForInvoice(invoiceID uint) ([]models.TableInvoice, error)
	CreateLink(link *models.TableInvoice) error
	SaveLink(link *models.TableInvoice) error
}

type tableRepository struct {
	db *gorm.DB
}

func (r *tableRepository) Get(id uint) (*models.Table, error) {
	var table models.Table
	if err := r.db.First(&table, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &table, nil
}

func (r *tableRepository) List() ([]models.Table, error) {
	var tables []models.Table
	err := r.db.Order("id").Find(&tables).Error
	return tables, err
}

func (r *tableRepository) Create(table *models.Table) error {
	if table.Status == "" {
		table.Status = models.TableAvailable
	}
	table.Version = 1
	return r.db.Create(table).Error
}

func (r *tableRepository) SetStatus(t *models.Table, status models.TableStatus) error {
	res := r.db.Model(&models.Table{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    t.Version + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	t.Status = status
	t.Version++
	return nil
}

func (r *tableRepository) LinksForTable(tableID uint) ([]models.TableInvoice, error) {
	var links []models.TableInvoice
	err := r.db.Where("table_id = ?", tableID).Order("id").Find(&links).Error
	return links, err
}

func (r *tableRepository) LinksForInvoice(invoiceID uint) ([]models.TableInvoice, error) {
	var links []models.TableInvoice
	err := r.db.Where("invoice_id = ?", invoiceID).Order("table_id").Find(&links).Error
	return links, err
}

func (r *tableRepository) CreateLink(link *models.TableInvoice) error {
	return r.db.Create(link).Error
}

func (r *tableRepository) SaveLink(link *models.TableInvoice) error {
	return r.db.Save(link).Error
}
