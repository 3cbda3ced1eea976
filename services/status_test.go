package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kendall-kelly/tableside-api/models"
)

func TestDeriveInvoiceStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []models.ItemStatus
		want  models.InvoiceStatus
	}{
		{"no items", nil, models.InvoicePending},
		{"all pending", []models.ItemStatus{models.ItemPending, models.ItemConfirmed}, models.InvoicePending},
		{"one in kitchen", []models.ItemStatus{models.ItemPending, models.ItemInKitchen}, models.InvoiceInKitchen},
		{"in kitchen and ready", []models.ItemStatus{models.ItemReady, models.ItemInKitchen}, models.InvoiceInKitchen},
		{"all ready", []models.ItemStatus{models.ItemReady, models.ItemReady}, models.InvoiceReady},
		{"mixed finished states", []models.ItemStatus{models.ItemServed, models.ItemRequestedBill, models.ItemPaid, models.ItemReady}, models.InvoiceReady},
		{"ready with one pending", []models.ItemStatus{models.ItemReady, models.ItemPending}, models.InvoicePending},
		{"all paid", []models.ItemStatus{models.ItemPaid}, models.InvoiceReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveInvoiceStatus(tt.items))
			assert.Equal(t, tt.want, DeriveOrderStatus(tt.items))
		})
	}
}

func TestDeriveInvoiceStatusIgnoresOrder(t *testing.T) {
	items := []models.ItemStatus{models.ItemReady, models.ItemInKitchen, models.ItemPending, models.ItemServed}
	want := DeriveInvoiceStatus(items)

	for i := range items {
		rotated := append(append([]models.ItemStatus{}, items[i:]...), items[:i]...)
		assert.Equal(t, want, DeriveInvoiceStatus(rotated))
	}
}

func TestDeriveTableStatus(t *testing.T) {
	tests := []struct {
		name    string
		current models.TableStatus
		guests  int
		seats   int
		want    models.TableStatus
	}{
		{"seats free", models.TableAvailable, 2, 4, models.TableAvailable},
		{"exactly full", models.TableAvailable, 4, 4, models.TableFull},
		{"over capacity", models.TableOccupied, 6, 4, models.TableFull},
		{"occupied table with room", models.TableOccupied, 0, 4, models.TableAvailable},
		{"merged stays merged", models.TableMerged, 0, 4, models.TableMerged},
		{"merged and full stays merged", models.TableMerged, 8, 4, models.TableMerged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTableStatus(tt.current, tt.guests, tt.seats))
		})
	}
}
