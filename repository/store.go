package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when an optimistic-lock update matches no row
	ErrVersionConflict = errors.New("stale version")
)

// Repositories bundles every repository bound to one database handle.
// Inside Transaction all of them share the same transaction.
type Repositories struct {
	Tables    TableRepository
	Invoices  InvoiceRepository
	Orders    OrderRepository
	Carts     CartRepository
	Catalog   CatalogRepository
	Discounts DiscountRepository
}

// Store is the unit of work used by the services
type Store interface {
	// Transaction runs fn in one database transaction. A non-nil error rolls everything back.
	Transaction(ctx context.Context, fn func(r *Repositories) error) error
	// Repositories returns repositories for reads outside a transaction
	Repositories(ctx context.Context) *Repositories
}

// GormStore implements Store on top of gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store for the given database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transaction implements Store
func (s *GormStore) Transaction(ctx context.Context, fn func(r *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

// Repositories implements Store
func (s *GormStore) Repositories(ctx context.Context) *Repositories {
	return newRepositories(s.db.WithContext(ctx))
}

func newRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tables:    &tableRepository{db: db},
		Invoices:  &invoiceRepository{db: db},
		Orders:    &orderRepository{db: db},
		Carts:     &cartRepository{db: db},
		Catalog:   &catalogRepository{db: db},
		Discounts: &discountRepository{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
