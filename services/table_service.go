package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
)

// TableView is a table as listed for staff, with its derived occupancy
type TableView struct {
	models.Table
	Guests        int                `json:"guests"`
	DerivedStatus models.TableStatus `json:"derived_status"`
	InvoiceID     *uint              `json:"invoice_id,omitempty"`
}

// TableService manages dining tables and merges their bills
type TableService struct {
	core
	guests GuestTracker
}

// NewTableService creates a table service. A nil tracker keeps guest counts in memory.
func NewTableService(d Deps, guests GuestTracker) *TableService {
	if guests == nil {
		guests = NewMemoryGuestTracker()
	}
	return &TableService{core: newCore(d, "table"), guests: guests}
}

// CreateTable adds a dining table
func (s *TableService) CreateTable(ctx context.Context, name string, seats int) (*models.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("VALIDATION_ERROR", "Table name is required")
	}
	if seats <= 0 {
		return nil, validationError("VALIDATION_ERROR", "Seat count must be positive")
	}

	table := &models.Table{Name: name, SeatCount: seats, Status: models.TableAvailable}
	if err := s.store.Repositories(ctx).Tables.Create(table); err != nil {
		return nil, classify(err)
	}
	return table, nil
}

// GetTable returns one table with its occupancy
func (s *TableService) GetTable(ctx context.Context, tableID uint) (*TableView, error) {
	r := s.store.Repositories(ctx)
	table, err := r.Tables.Get(tableID)
	if err != nil {
		return nil, classify(lookup(err, "TABLE_NOT_FOUND", "Table not found"))
	}
	return s.view(ctx, r, *table)
}

// ListTables returns every table with its occupancy
func (s *TableService) ListTables(ctx context.Context) ([]TableView, error) {
	r := s.store.Repositories(ctx)
	tables, err := r.Tables.List()
	if err != nil {
		return nil, classify(err)
	}
	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		v, err := s.view(ctx, r, t)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// SetGuests records how many guests sit at the table
func (s *TableService) SetGuests(ctx context.Context, tableID uint, guests int) (*TableView, error) {
	if guests < 0 {
		return nil, validationError("VALIDATION_ERROR", "Guest count cannot be negative")
	}
	r := s.store.Repositories(ctx)
	table, err := r.Tables.Get(tableID)
	if err != nil {
		return nil, classify(lookup(err, "TABLE_NOT_FOUND", "Table not found"))
	}
	if err := s.guests.SetGuestCount(ctx, tableID, guests); err != nil {
		return nil, classify(err)
	}
	return s.view(ctx, r, *table)
}

func (s *TableService) view(ctx context.Context, r *repository.Repositories, t models.Table) (*TableView, error) {
	guests, err := s.guests.GuestCount(ctx, t.ID)
	if err != nil {
		s.log.Warn("Failed to read guest count", zap.Uint("table_id", t.ID), zap.Error(err))
	}
	v := &TableView{Table: t, Guests: guests, DerivedStatus: DeriveTableStatus(t.Status, guests, t.SeatCount)}

	inv, err := r.Invoices.OpenForTable(t.ID)
	switch {
	case err == nil:
		v.InvoiceID = &inv.ID
	case !errors.Is(err, repository.ErrNotFound):
		return nil, classify(err)
	}
	return v, nil
}

type mergeSource struct {
	table   *models.Table
	invoice *models.Invoice // nil when the table had no open bill
}

// MergeTables folds the open bills of the given tables into one new merged bill.
// At least two distinct open bills are required.
func (s *TableService) MergeTables(ctx context.Context, tableIDs []uint) (*models.Invoice, error) {
	ids := uniqueIDs(tableIDs)
	var merged *models.Invoice
	var orderIDs []uint

	err := s.transact(ctx, "table.merge", func(r *repository.Repositories) error {
		orderIDs = orderIDs[:0]
		sources := make([]mergeSource, 0, len(ids))
		var invoices []*models.Invoice
		seen := make(map[uint]bool)

		for _, id := range ids {
			table, err := r.Tables.Get(id)
			if err != nil {
				return lookup(err, "TABLE_NOT_FOUND", fmt.Sprintf("Table %d not found", id))
			}
			if table.Status == models.TableMerged {
				return validationError("ALREADY_MERGED", fmt.Sprintf("Table %s is already merged", table.Name))
			}

			src := mergeSource{table: table}
			inv, err := r.Invoices.OpenForTable(id)
			switch {
			case err == nil:
				if inv.IsMerged {
					return validationError("ALREADY_MERGED", fmt.Sprintf("Table %s is already merged", table.Name))
				}
				if !inv.Status.IsActive() {
					return validationError("INVOICE_SETTLING", fmt.Sprintf("The bill for table %s is being settled", table.Name))
				}
				src.invoice = inv
				if !seen[inv.ID] {
					seen[inv.ID] = true
					invoices = append(invoices, inv)
				}
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}
			sources = append(sources, src)
		}

		if len(invoices) < 2 {
			return validationError("NOT_ENOUGH_OPEN_TABLES", "Need at least two tables with open bills to merge")
		}

		names := make([]string, len(sources))
		for i, src := range sources {
			names[i] = src.table.Name
		}
		merged = &models.Invoice{
			Code:     newInvoiceCode("MERGE", s.now()),
			Status:   models.InvoiceOpen,
			IsMerged: true,
			Notes:    "Merged tables " + strings.Join(names, ", "),
		}
		if err := r.Invoices.Create(merged); err != nil {
			return err
		}

		var details []models.InvoiceDetail
		for _, inv := range invoices {
			src, err := sourceDetails(r, inv)
			if err != nil {
				return err
			}
			details = addDetails(details, src)

			inv.Status = models.InvoiceMerged
			inv.MergeGroupID = &merged.ID
			if err := r.Invoices.Update(inv); err != nil {
				return err
			}
		}
		if err := r.Invoices.ReplaceDetails(merged.ID, details); err != nil {
			return err
		}

		for _, src := range sources {
			if err := linkToMerged(r, src, merged.ID); err != nil {
				return err
			}
			if err := r.Tables.SetStatus(src.table, models.TableMerged); err != nil {
				return err
			}
		}

		total := sumDetails(details)
		merged.TotalAmount = total
		merged.FinalAmount = total
		if err := r.Invoices.Update(merged); err != nil {
			return err
		}
		recomputed, err := recomputeInvoice(r, merged.ID)
		if err != nil {
			return err
		}
		merged = recomputed
		return s.collectOrders(r, merged, &orderIDs)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Tables merged", zap.Uints("table_ids", ids), zap.Uint("invoice_id", merged.ID))
	s.events.orderChanged(orderIDs...)
	return merged, nil
}

// SplitTables undoes a merge: each table gets back the bill it had before, or a fresh one
func (s *TableService) SplitTables(ctx context.Context, mergedInvoiceID uint) ([]models.Invoice, error) {
	var restored []models.Invoice
	var orderIDs []uint

	err := s.transact(ctx, "table.split", func(r *repository.Repositories) error {
		restored = restored[:0]
		orderIDs = orderIDs[:0]
		merged, err := r.Invoices.Get(mergedInvoiceID)
		if err != nil {
			return lookup(err, "INVOICE_NOT_FOUND", "Invoice not found")
		}
		if !merged.IsMerged {
			return validationError("NOT_MERGED", "Invoice is not a merged bill")
		}
		if !merged.Status.IsActive() {
			return validationError("INVALID_STATUS_TRANSITION", "A merged bill cannot be split once "+string(merged.Status))
		}

		links, err := r.Tables.LinksForInvoice(merged.ID)
		if err != nil {
			return err
		}

		byTable := make(map[uint]uint)
		var targets []uint
		for i := range links {
			link := &links[i]
			table, err := r.Tables.Get(link.TableID)
			if err != nil {
				return err
			}

			var target uint
			if link.OldInvoiceID != nil {
				old, err := r.Invoices.Get(*link.OldInvoiceID)
				if err != nil {
					return err
				}
				old.Status = models.InvoiceOpen
				old.MergeGroupID = nil
				if err := r.Invoices.Update(old); err != nil {
					return err
				}
				target = old.ID
			} else {
				fresh := &models.Invoice{
					Code:   newInvoiceCode(fmt.Sprintf("SPLIT-%d", table.ID), s.now()),
					Status: models.InvoiceOpen,
					Notes:  fmt.Sprintf("Split from %s for table %s", merged.Code, table.Name),
				}
				if err := r.Invoices.Create(fresh); err != nil {
					return err
				}
				target = fresh.ID
			}

			link.InvoiceID = target
			link.MergeGroupID = nil
			link.OldInvoiceID = nil
			if err := r.Tables.SaveLink(link); err != nil {
				return err
			}
			if err := r.Tables.SetStatus(table, models.TableAvailable); err != nil {
				return err
			}
			byTable[table.ID] = target
			targets = append(targets, target)
		}

		// rounds ordered while merged go back to the table that ordered them
		direct, err := r.Orders.ListForInvoices(merged.ID)
		if err != nil {
			return err
		}
		moves := make(map[uint][]uint)
		for _, o := range direct {
			if target, ok := byTable[o.TableID]; ok {
				moves[target] = append(moves[target], o.ID)
			}
		}
		for target, ids := range moves {
			if err := r.Orders.MoveOrders(ids, target); err != nil {
				return err
			}
		}

		merged.Status = models.InvoiceSplit
		merged.IsMerged = false
		if err := r.Invoices.Update(merged); err != nil {
			return err
		}

		for _, id := range targets {
			inv, err := recomputeInvoice(r, id)
			if err != nil {
				return err
			}
			restored = append(restored, *inv)
			if err := s.collectOrders(r, inv, &orderIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Merged bill split", zap.Uint("invoice_id", mergedInvoiceID), zap.Int("tables", len(restored)))
	s.events.orderChanged(orderIDs...)
	return restored, nil
}

func (s *TableService) collectOrders(r *repository.Repositories, inv *models.Invoice, into *[]uint) error {
	ids, err := itemSetIDs(r, inv)
	if err != nil {
		return err
	}
	items, err := r.Orders.ItemsForInvoices(ids...)
	if err != nil {
		return err
	}
	*into = append(*into, orderIDsOf(items)...)
	return nil
}

// linkToMerged repoints the table's link to its old bill at the merged bill, or adds a link
func linkToMerged(r *repository.Repositories, src mergeSource, mergedID uint) error {
	if src.invoice != nil {
		links, err := r.Tables.LinksForTable(src.table.ID)
		if err != nil {
			return err
		}
		for i := range links {
			if links[i].InvoiceID == src.invoice.ID {
				oldID := src.invoice.ID
				links[i].InvoiceID = mergedID
				links[i].MergeGroupID = &mergedID
				links[i].OldInvoiceID = &oldID
				return r.Tables.SaveLink(&links[i])
			}
		}
	}
	return r.Tables.CreateLink(&models.TableInvoice{
		TableID:      src.table.ID,
		InvoiceID:    mergedID,
		MergeGroupID: &mergedID,
	})
}

// sourceDetails returns the settlement lines of an open bill: the stored ones when present,
// otherwise lines aggregated from its order items
func sourceDetails(r *repository.Repositories, inv *models.Invoice) ([]models.InvoiceDetail, error) {
	details, err := r.Invoices.Details(inv.ID)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return details, nil
	}
	items, err := r.Orders.ItemsForInvoices(inv.ID)
	if err != nil {
		return nil, err
	}
	return aggregateDetails(items), nil
}

// addDetails merges src into dst, adding quantities and subtotals per food item
func addDetails(dst, src []models.InvoiceDetail) []models.InvoiceDetail {
	for _, d := range src {
		found := false
		for i := range dst {
			if dst[i].FoodItemID == d.FoodItemID {
				dst[i].Quantity += d.Quantity
				dst[i].SubTotal = dst[i].SubTotal.Add(d.SubTotal)
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, models.InvoiceDetail{
				FoodItemID: d.FoodItemID,
				FoodName:   d.FoodName,
				Quantity:   d.Quantity,
				UnitPrice:  d.UnitPrice,
				SubTotal:   d.SubTotal,
			})
		}
	}
	return dst
}
