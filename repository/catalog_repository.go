package repository

import (
	"time"

	"github.com/kendall-kelly/tableside-api/models"
	"gorm.io/gorm"
)

// CatalogRepository reads and maintains the menu
type CatalogRepository interface {
	FoodItem(id uint) (*models.FoodItem, error)
	// Options returns the food item's options with the given ids, with their option type loaded
	Options(foodItemID uint, optionIDs []uint) ([]models.FoodOption, error)
	Menu() ([]models.FoodItem, error)
	// CreateFoodItem inserts the item and its options; option types must already exist
	CreateFoodItem(item *models.FoodItem) error
	UpdateFoodItem(id uint, fields map[string]interface{}) error
	// OptionType returns the named option type, creating it on first use
	OptionType(name string) (*models.OptionType, error)

	Category(id uint) (*models.Category, error)
	// CategoryByName matches names case-insensitively
	CategoryByName(name string) (*models.Category, error)
	Categories() ([]models.Category, error)
	CreateCategory(c *models.Category) error

	// Combo returns the combo with its dishes loaded
	Combo(id uint) (*models.Combo, error)
	// Combos lists combos with their dishes, or only the available ones
	Combos(availableOnly bool) ([]models.Combo, error)
	// CreateCombo inserts the combo and its details
	CreateCombo(c *models.Combo) error
	UpdateCombo(id uint, fields map[string]interface{}) error
	DeleteCombo(id uint) error
}

type catalogRepository struct {
	db *gorm.DB
}

func (r *catalogRepository) FoodItem(id uint) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *catalogRepository) Options(foodItemID uint, optionIDs []uint) ([]models.FoodOption, error) {
	var options []models.FoodOption
	if len(optionIDs) == 0 {
		return options, nil
	}
	err := r.db.Preload("OptionType").
		Where("food_item_id = ? AND id IN ?", foodItemID, optionIDs).
		Order("id").
		Find(&options).Error
	return options, err
}

func (r *catalogRepository) Menu() ([]models.FoodItem, error) {
	var items []models.FoodItem
	err := r.db.Where("is_available = ?", true).
		Preload("Options", "is_available = ?", true).
		Preload("Options.OptionType").
		Preload("Category").
		Order("name").
		Find(&items).Error
	return items, err
}

func (r *catalogRepository) CreateFoodItem(item *models.FoodItem) error {
	if err := r.db.Omit("Options").Create(item).Error; err != nil {
		return err
	}
	for i := range item.Options {
		item.Options[i].FoodItemID = item.ID
		if err := r.db.Omit("OptionType").Create(&item.Options[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *catalogRepository) UpdateFoodItem(id uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.Model(&models.FoodItem{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) OptionType(name string) (*models.OptionType, error) {
	var t models.OptionType
	if err := r.db.Where(models.OptionType{Name: name}).FirstOrCreate(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *catalogRepository) Category(id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *catalogRepository) CategoryByName(name string) (*models.Category, error) {
	var c models.Category
	if err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *catalogRepository) Categories() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Order("sort_order, name").Find(&categories).Error
	return categories, err
}

func (r *catalogRepository) CreateCategory(c *models.Category) error {
	return r.db.Create(c).Error
}

func (r *catalogRepository) Combo(id uint) (*models.Combo, error) {
	var c models.Combo
	if err := r.db.Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Details.FoodItem").
		First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *catalogRepository) Combos(availableOnly bool) ([]models.Combo, error) {
	var combos []models.Combo
	q := r.db.Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Details.FoodItem").
		Order("name")
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	err := q.Find(&combos).Error
	return combos, err
}

func (r *catalogRepository) CreateCombo(c *models.Combo) error {
	if err := r.db.Omit("Details").Create(c).Error; err != nil {
		return err
	}
	for i := range c.Details {
		c.Details[i].ComboID = c.ID
		if err := r.db.Omit("FoodItem").Create(&c.Details[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *catalogRepository) UpdateCombo(id uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.Model(&models.Combo{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) DeleteCombo(id uint) error {
	if err := r.db.Where("combo_id = ?", id).Delete(&models.ComboDetail{}).Error; err != nil {
		return err
	}
	res := r.db.Delete(&models.Combo{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DiscountRepository reads promotion codes
type DiscountRepository interface {
	FindByCode(code string) (*models.Discount, error)
}

type discountRepository struct {
	db *gorm.DB
}

func (r *discountRepository) FindByCode(code string) (*models.Discount, error) {
	var d models.Discount
	if err := r.db.Where("code = ?", code).First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}
