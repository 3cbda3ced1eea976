package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
)

const (
	minCartQuantity = 1
	maxCartQuantity = 10
)

// AddItemRequest describes a selection to put in the cart
type AddItemRequest struct {
	FoodItemID uint   `json:"food_item_id" binding:"required"`
	OptionIDs  []uint `json:"option_ids"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note"`
}

// CartService manages the per-session carts that precede an order
type CartService struct {
	core
}

// NewCartService creates a cart service
func NewCartService(d Deps) *CartService {
	return &CartService{core: newCore(d, "cart")}
}

func clampQuantity(q int) int {
	if q < minCartQuantity {
		return minCartQuantity
	}
	if q > maxCartQuantity {
		return maxCartQuantity
	}
	return q
}

// sameSelection reports whether a cart line already holds this food, option set and note
func sameSelection(line models.CartItem, foodID uint, optionKey, note string) bool {
	return line.FoodItemID == foodID &&
		line.OptionKey() == optionKey &&
		strings.EqualFold(strings.TrimSpace(line.Note), note)
}

// AddItem prices the selection from the live catalog and adds it to the session's cart.
// A line with the same food, options and note absorbs the quantity instead.
func (s *CartService) AddItem(ctx context.Context, sessionID string, tableID uint, req AddItemRequest) (*models.Cart, error) {
	qty := clampQuantity(req.Quantity)
	note := strings.TrimSpace(req.Note)

	err := s.transact(ctx, "cart.add", func(r *repository.Repositories) error {
		food, err := r.Catalog.FoodItem(req.FoodItemID)
		if err != nil {
			return lookup(err, "FOOD_NOT_FOUND", "Food item not found")
		}
		if !food.IsAvailable {
			return validationError("FOOD_UNAVAILABLE", food.Name+" is not available right now")
		}

		options, err := r.Catalog.Options(food.ID, uniqueIDs(req.OptionIDs))
		if err != nil {
			return err
		}
		if len(options) != len(uniqueIDs(req.OptionIDs)) {
			return validationError("INVALID_OPTION", "One or more options do not belong to this item")
		}

		unit := food.EffectivePrice()
		chosen := make([]models.CartItemOption, 0, len(options))
		for _, o := range options {
			if !o.IsAvailable {
				return validationError("INVALID_OPTION", o.Name+" is not available right now")
			}
			unit = unit.Add(o.ExtraPrice)
			chosen = append(chosen, models.CartItemOption{
				GroupName:  o.OptionType.Name,
				ValueName:  o.Name,
				PriceDelta: o.ExtraPrice,
			})
		}

		cart, err := s.cartFor(r, sessionID, tableID)
		if err != nil {
			return err
		}

		candidate := models.CartItem{Options: chosen}
		key := candidate.OptionKey()
		for _, line := range cart.Items {
			if sameSelection(line, food.ID, key, note) {
				line.Quantity = clampQuantity(line.Quantity + qty)
				line.TotalPrice = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
				return r.Carts.UpdateItem(&line)
			}
		}

		return r.Carts.AddItem(&models.CartItem{
			CartID:     cart.ID,
			FoodItemID: food.ID,
			FoodName:   food.Name,
			ImageURL:   food.ImageURL,
			Quantity:   qty,
			UnitPrice:  unit,
			TotalPrice: unit.Mul(decimal.NewFromInt(int64(qty))),
			Note:       note,
			Options:    chosen,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, sessionID, tableID)
}

// ChangeQuantity moves a line's quantity by delta, keeping it between 1 and 10
func (s *CartService) ChangeQuantity(ctx context.Context, sessionID string, tableID, itemID uint, delta int) (*models.Cart, error) {
	err := s.transact(ctx, "cart.quantity", func(r *repository.Repositories) error {
		line, err := s.findLine(r, sessionID, itemID)
		if err != nil {
			return err
		}
		line.Quantity = clampQuantity(line.Quantity + delta)
		line.TotalPrice = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		return r.Carts.UpdateItem(line)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, sessionID, tableID)
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, tableID, itemID uint) (*models.Cart, error) {
	err := s.transact(ctx, "cart.remove", func(r *repository.Repositories) error {
		line, err := s.findLine(r, sessionID, itemID)
		if err != nil {
			return err
		}
		return r.Carts.DeleteItem(line.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, sessionID, tableID)
}

// Clear drops the whole cart
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.transact(ctx, "cart.clear", func(r *repository.Repositories) error {
		cart, err := r.Carts.FindBySession(sessionID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.Carts.Delete(cart.ID)
	})
}

// GetCart returns the session's cart; a session without one gets an empty, unsaved cart
func (s *CartService) GetCart(ctx context.Context, sessionID string, tableID uint) (*models.Cart, error) {
	cart, err := s.store.Repositories(ctx).Carts.FindBySession(sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Cart{SessionID: sessionID, TableID: tableID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return cart, nil
}

// Count returns the number of units in the cart
func (s *CartService) Count(ctx context.Context, sessionID string) (int, error) {
	n, err := s.store.Repositories(ctx).Carts.CountItems(sessionID)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// CartTotal sums the line totals of a cart
func CartTotal(cart *models.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, it := range cart.Items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

func (s *CartService) cartFor(r *repository.Repositories, sessionID string, tableID uint) (*models.Cart, error) {
	cart, err := r.Carts.FindBySession(sessionID)
	if err == nil {
		if cart.TableID != tableID {
			return nil, validationError("CART_TABLE_MISMATCH", "This cart belongs to another table")
		}
		return cart, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := r.Tables.Get(tableID); err != nil {
		return nil, lookup(err, "TABLE_NOT_FOUND", "Table not found")
	}
	cart = &models.Cart{SessionID: sessionID, TableID: tableID}
	if err := r.Carts.Create(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) findLine(r *repository.Repositories, sessionID string, itemID uint) (*models.CartItem, error) {
	cart, err := r.Carts.FindBySession(sessionID)
	if err != nil {
		return nil, lookup(err, "CART_ITEM_NOT_FOUND", "Cart item not found")
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i], nil
		}
	}
	return nil, notFoundError("CART_ITEM_NOT_FOUND", "Cart item not found")
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
