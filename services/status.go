package services

import "github.com/kendall-kelly/tableside-api/models"

// DeriveInvoiceStatus computes an invoice status from the statuses of every item beneath it.
// The result does not depend on the order of items.
func DeriveInvoiceStatus(items []models.ItemStatus) models.InvoiceStatus {
	if len(items) == 0 {
		return models.InvoicePending
	}

	allDone := true
	inKitchen := false
	for _, s := range items {
		switch s {
		case models.ItemReady, models.ItemServed, models.ItemRequestedBill, models.ItemPaid:
		default:
			allDone = false
		}
		if s == models.ItemInKitchen {
			inKitchen = true
		}
	}

	switch {
	case allDone:
		return models.InvoiceReady
	case inKitchen:
		return models.InvoiceInKitchen
	default:
		return models.InvoicePending
	}
}

// DeriveOrderStatus applies the invoice rules to the items of a single order
func DeriveOrderStatus(items []models.ItemStatus) models.InvoiceStatus {
	return DeriveInvoiceStatus(items)
}

// DeriveTableStatus computes occupancy. A merged table keeps its status.
func DeriveTableStatus(current models.TableStatus, guests, seats int) models.TableStatus {
	if current == models.TableMerged {
		return models.TableMerged
	}
	if guests < seats {
		return models.TableAvailable
	}
	return models.TableFull
}
