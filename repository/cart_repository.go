package repository

import (
	"github.com/kendall-kelly/tableside-api/models"
	"gorm.io/gorm"
)

// CartRepository persists session-keyed carts
type CartRepository interface {
	// FindBySession returns the session's cart with items and options loaded
	FindBySession(sessionID string) (*models.Cart, error)
	Create(cart *models.Cart) error
	AddItem(item *models.CartItem) error
	UpdateItem(item *models.CartItem) error
	DeleteItem(itemID uint) error
	// Delete removes the cart, its items and their options
	Delete(cartID uint) error
	CountItems(sessionID string) (int, error)
}

type cartRepository struct {
	db *gorm.DB
}

func (r *cartRepository) FindBySession(sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Where("session_id = ?", sessionID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Options", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&cart).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

func (r *cartRepository) Create(cart *models.Cart) error {
	return r.db.Omit("Items").Create(cart).Error
}

func (r *cartRepository) AddItem(item *models.CartItem) error {
	return r.db.Create(item).Error
}

func (r *cartRepository) UpdateItem(item *models.CartItem) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"quantity":    item.Quantity,
			"total_price": item.TotalPrice,
			"note":        item.Note,
		}).Error
}

func (r *cartRepository) DeleteItem(itemID uint) error {
	if err := r.db.Where("cart_item_id = ?", itemID).Delete(&models.CartItemOption{}).Error; err != nil {
		return err
	}
	res := r.db.Delete(&models.CartItem{}, itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepository) Delete(cartID uint) error {
	items := r.db.Model(&models.CartItem{}).Select("id").Where("cart_id = ?", cartID)
	if err := r.db.Where("cart_item_id IN (?)", items).Delete(&models.CartItemOption{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Cart{}, cartID).Error
}

func (r *cartRepository) CountItems(sessionID string) (int, error) {
	var total int64
	err := r.db.Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.session_id = ?", sessionID).
		Select("COALESCE(SUM(cart_items.quantity), 0)").
		Scan(&total).Error
	return int(total), err
}
