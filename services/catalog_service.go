package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
	"github.com/kendall-kelly/tableside-api/utils"
)

// MenuOption is a selectable option as shown to customers
type MenuOption struct {
	ID         uint            `json:"id"`
	Group      string          `json:"group"`
	Name       string          `json:"name"`
	ExtraPrice decimal.Decimal `json:"extra_price"`
}

// MenuItem is an available dish with its current price and photo link
type MenuItem struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    *uint           `json:"category_id"`
	Category      string          `json:"category,omitempty"`
	Price         decimal.Decimal `json:"price"`
	BasePrice     decimal.Decimal `json:"base_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	ImageURL      string          `json:"image_url,omitempty"`
	Options       []MenuOption    `json:"options"`
}

// ComboLine is one dish inside a combo
type ComboLine struct {
	FoodItemID uint   `json:"food_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

// MenuCombo is a combo whose dishes can all be served right now
type MenuCombo struct {
	ID                 uint            `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	ImageURL           string          `json:"image_url,omitempty"`
	Items              []ComboLine     `json:"items"`
}

// Menu is what a table sees: the categories, the dishes and the combos on offer
type Menu struct {
	Categories []models.Category `json:"categories"`
	Items      []MenuItem        `json:"items"`
	Combos     []MenuCombo       `json:"combos"`
}

// ComboView is a combo as the admin screens show it, with its derived price
type ComboView struct {
	models.Combo
	Price decimal.Decimal `json:"price"`
}

func newComboView(c *models.Combo) *ComboView {
	return &ComboView{Combo: *c, Price: c.Price()}
}

// NewOptionRequest describes an option created together with a food item
type NewOptionRequest struct {
	Group      string          `json:"group" binding:"required"`
	Name       string          `json:"name" binding:"required"`
	ExtraPrice decimal.Decimal `json:"extra_price"`
}

// CreateFoodRequest is the admin payload for a new dish
type CreateFoodRequest struct {
	Name          string             `json:"name" binding:"required"`
	Description   string             `json:"description"`
	BasePrice     decimal.Decimal    `json:"base_price"`
	DiscountPrice decimal.Decimal    `json:"discount_price"`
	CategoryID    *uint              `json:"category_id"`
	Options       []NewOptionRequest `json:"options" binding:"dive"`
}

// CreateCategoryRequest is the admin payload for a new menu category
type CreateCategoryRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// ComboItemRequest puts quantity portions of a dish in a combo; quantity defaults to 1
type ComboItemRequest struct {
	FoodItemID uint `json:"food_item_id" binding:"required"`
	Quantity   int  `json:"quantity"`
}

// CreateComboRequest is the admin payload for a new combo
type CreateComboRequest struct {
	Name               string             `json:"name" binding:"required"`
	Description        string             `json:"description"`
	DiscountPercentage decimal.Decimal    `json:"discount_percentage"`
	Items              []ComboItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CatalogService serves the menu and lets admins maintain it
type CatalogService struct {
	core
	images *ImageService
}

// NewCatalogService creates a catalog service. A nil image service disables photo uploads.
func NewCatalogService(d Deps, images *ImageService) *CatalogService {
	return &CatalogService{core: newCore(d, "catalog"), images: images}
}

// Menu lists the categories, dishes and combos customers can order right now
func (s *CatalogService) Menu(ctx context.Context) (*Menu, error) {
	r := s.store.Repositories(ctx)
	categories, err := r.Catalog.Categories()
	if err != nil {
		return nil, classify(err)
	}
	items, err := r.Catalog.Menu()
	if err != nil {
		return nil, classify(err)
	}
	combos, err := r.Catalog.Combos(true)
	if err != nil {
		return nil, classify(err)
	}

	menu := &Menu{
		Categories: categories,
		Items:      make([]MenuItem, 0, len(items)),
		Combos:     []MenuCombo{},
	}
	for _, f := range items {
		entry := MenuItem{
			ID:            f.ID,
			Name:          f.Name,
			Description:   f.Description,
			CategoryID:    f.CategoryID,
			Price:         f.EffectivePrice(),
			BasePrice:     f.BasePrice,
			DiscountPrice: f.DiscountPrice,
			ImageURL:      s.photoURL(ctx, f.ImageURL),
			Options:       make([]MenuOption, 0, len(f.Options)),
		}
		if f.Category != nil {
			entry.Category = f.Category.Name
		}
		for _, o := range f.Options {
			entry.Options = append(entry.Options, MenuOption{
				ID:         o.ID,
				Group:      o.OptionType.Name,
				Name:       o.Name,
				ExtraPrice: o.ExtraPrice,
			})
		}
		menu.Items = append(menu.Items, entry)
	}

	for _, c := range combos {
		if !c.Servable() {
			continue
		}
		entry := MenuCombo{
			ID:                 c.ID,
			Name:               c.Name,
			Description:        c.Description,
			Price:              c.Price(),
			DiscountPercentage: c.DiscountPercentage,
			ImageURL:           s.photoURL(ctx, c.ImageURL),
			Items:              make([]ComboLine, 0, len(c.Details)),
		}
		for _, d := range c.Details {
			entry.Items = append(entry.Items, ComboLine{FoodItemID: d.FoodItemID, Name: d.FoodItem.Name, Quantity: d.Quantity})
		}
		menu.Combos = append(menu.Combos, entry)
	}
	return menu, nil
}

// photoURL resolves a stored photo key; a failure only costs the guest the picture
func (s *CatalogService) photoURL(ctx context.Context, key string) string {
	url, err := s.images.ImageURL(ctx, key)
	if err != nil {
		s.log.Warn("Failed to resolve menu photo", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

// CreateFoodItem adds an available dish and its options to the menu
func (s *CatalogService) CreateFoodItem(ctx context.Context, req CreateFoodRequest) (*models.FoodItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("VALIDATION_ERROR", "Food name is required")
	}
	if !req.BasePrice.IsPositive() {
		return nil, validationError("VALIDATION_ERROR", "Base price must be positive")
	}
	if req.DiscountPrice.IsNegative() || req.DiscountPrice.GreaterThan(req.BasePrice) {
		return nil, validationError("VALIDATION_ERROR", "Discount price must be between 0 and the base price")
	}

	item := &models.FoodItem{
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		BasePrice:     req.BasePrice,
		DiscountPrice: req.DiscountPrice,
		IsAvailable:   true,
	}
	err := s.transact(ctx, "catalog.create", func(r *repository.Repositories) error {
		item.ID = 0
		item.Options = item.Options[:0]
		if req.CategoryID != nil {
			if _, err := r.Catalog.Category(*req.CategoryID); err != nil {
				return lookup(err, "CATEGORY_NOT_FOUND", "Category not found")
			}
			item.CategoryID = req.CategoryID
		}
		for _, o := range req.Options {
			if o.ExtraPrice.IsNegative() {
				return validationError("VALIDATION_ERROR", "Option prices cannot be negative")
			}
			t, err := r.Catalog.OptionType(strings.TrimSpace(o.Group))
			if err != nil {
				return err
			}
			item.Options = append(item.Options, models.FoodOption{
				OptionTypeID: t.ID,
				OptionType:   *t,
				Name:         strings.TrimSpace(o.Name),
				ExtraPrice:   o.ExtraPrice,
				IsAvailable:  true,
			})
		}
		return r.Catalog.CreateFoodItem(item)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Food item created", zap.Uint("food_item_id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// SetAvailability takes a dish on or off the menu
func (s *CatalogService) SetAvailability(ctx context.Context, foodItemID uint, available bool) (*models.FoodItem, error) {
	var item *models.FoodItem
	err := s.transact(ctx, "catalog.availability", func(r *repository.Repositories) error {
		if err := r.Catalog.UpdateFoodItem(foodItemID, map[string]interface{}{"is_available": available}); err != nil {
			return lookup(err, "FOOD_NOT_FOUND", "Food item not found")
		}
		var err error
		item, err = r.Catalog.FoodItem(foodItemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SetImage uploads a photo for the dish and replaces the previous one
func (s *CatalogService) SetImage(ctx context.Context, foodItemID uint, fileHeader *multipart.FileHeader) (*models.FoodItem, error) {
	current, err := s.store.Repositories(ctx).Catalog.FoodItem(foodItemID)
	if err != nil {
		return nil, classify(lookup(err, "FOOD_NOT_FOUND", "Food item not found"))
	}

	key, err := s.uploadPhoto(ctx, fileHeader, zap.Uint("food_item_id", foodItemID))
	if err != nil {
		return nil, err
	}

	var item *models.FoodItem
	err = s.transact(ctx, "catalog.image", func(r *repository.Repositories) error {
		if err := r.Catalog.UpdateFoodItem(foodItemID, map[string]interface{}{"image_url": key}); err != nil {
			return lookup(err, "FOOD_NOT_FOUND", "Food item not found")
		}
		var err error
		item, err = r.Catalog.FoodItem(foodItemID)
		return err
	})
	if err != nil {
		_ = s.images.DeleteImage(ctx, key)
		return nil, err
	}

	if err := s.images.DeleteImage(ctx, current.ImageURL); err != nil {
		s.log.Warn("Failed to delete replaced menu photo", zap.String("key", current.ImageURL), zap.Error(err))
	}
	return item, nil
}

// SetComboImage uploads a photo for the combo and replaces the previous one
func (s *CatalogService) SetComboImage(ctx context.Context, comboID uint, fileHeader *multipart.FileHeader) (*ComboView, error) {
	current, err := s.store.Repositories(ctx).Catalog.Combo(comboID)
	if err != nil {
		return nil, classify(lookup(err, "COMBO_NOT_FOUND", "Combo not found"))
	}
	key, err := s.uploadPhoto(ctx, fileHeader, zap.Uint("combo_id", comboID))
	if err != nil {
		return nil, err
	}

	var combo *models.Combo
	err = s.transact(ctx, "catalog.combo.image", func(r *repository.Repositories) error {
		if err := r.Catalog.UpdateCombo(comboID, map[string]interface{}{"image_url": key}); err != nil {
			return lookup(err, "COMBO_NOT_FOUND", "Combo not found")
		}
		var err error
		combo, err = r.Catalog.Combo(comboID)
		return err
	})
	if err != nil {
		_ = s.images.DeleteImage(ctx, key)
		return nil, err
	}

	if err := s.images.DeleteImage(ctx, current.ImageURL); err != nil {
		s.log.Warn("Failed to delete replaced combo photo", zap.String("key", current.ImageURL), zap.Error(err))
	}
	return newComboView(combo), nil
}

// uploadPhoto stores a menu photo and returns its key
func (s *CatalogService) uploadPhoto(ctx context.Context, fileHeader *multipart.FileHeader, owner zap.Field) (string, error) {
	key, err := s.images.UploadImage(ctx, fileHeader)
	if err == nil {
		return key, nil
	}
	var fe *utils.FileUploadError
	switch {
	case errors.As(err, &fe):
		return "", validationError(fe.Code, fe.Message)
	case errors.Is(err, ErrImageStorageDisabled):
		return "", validationError("IMAGE_STORAGE_DISABLED", "Photo uploads are not configured")
	}
	s.log.Error("Menu photo upload failed", owner, zap.Error(err))
	return "", classify(err)
}

// CreateCategory adds a menu category; names are unique regardless of case
func (s *CatalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("VALIDATION_ERROR", "Category name is required")
	}

	category := &models.Category{Name: name, SortOrder: req.SortOrder}
	err := s.transact(ctx, "catalog.category", func(r *repository.Repositories) error {
		category.ID = 0
		_, err := r.Catalog.CategoryByName(name)
		switch {
		case err == nil:
			return validationError("DUPLICATE_CATEGORY", "A category with this name already exists")
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return r.Catalog.CreateCategory(category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns the categories in menu order
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Repositories(ctx).Catalog.Categories()
	if err != nil {
		return nil, classify(err)
	}
	return categories, nil
}

// CreateCombo bundles existing dishes into an available combo.
// Repeated dishes are folded into one line.
func (s *CatalogService) CreateCombo(ctx context.Context, req CreateComboRequest) (*ComboView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("VALIDATION_ERROR", "Combo name is required")
	}
	if req.DiscountPercentage.IsNegative() || req.DiscountPercentage.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, validationError("VALIDATION_ERROR", "Combo discount must be at least 0 and below 100 percent")
	}
	if len(req.Items) == 0 {
		return nil, validationError("VALIDATION_ERROR", "A combo needs at least one dish")
	}

	var details []models.ComboDetail
	index := make(map[uint]int)
	for _, it := range req.Items {
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, validationError("VALIDATION_ERROR", "Combo quantities must be positive")
		}
		if i, ok := index[it.FoodItemID]; ok {
			details[i].Quantity += qty
			continue
		}
		index[it.FoodItemID] = len(details)
		details = append(details, models.ComboDetail{FoodItemID: it.FoodItemID, Quantity: qty})
	}

	var combo *models.Combo
	err := s.transact(ctx, "catalog.combo.create", func(r *repository.Repositories) error {
		for _, d := range details {
			if _, err := r.Catalog.FoodItem(d.FoodItemID); err != nil {
				return lookup(err, "FOOD_NOT_FOUND", "Food item not found")
			}
		}
		c := &models.Combo{
			Name:               name,
			Description:        strings.TrimSpace(req.Description),
			DiscountPercentage: req.DiscountPercentage,
			IsAvailable:        true,
			Details:            append([]models.ComboDetail(nil), details...),
		}
		if err := r.Catalog.CreateCombo(c); err != nil {
			return err
		}
		var err error
		combo, err = r.Catalog.Combo(c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Combo created", zap.Uint("combo_id", combo.ID), zap.String("name", combo.Name))
	return newComboView(combo), nil
}

// ListCombos returns every combo, available or not
func (s *CatalogService) ListCombos(ctx context.Context) ([]ComboView, error) {
	combos, err := s.store.Repositories(ctx).Catalog.Combos(false)
	if err != nil {
		return nil, classify(err)
	}
	views := make([]ComboView, 0, len(combos))
	for i := range combos {
		views = append(views, *newComboView(&combos[i]))
	}
	return views, nil
}

// GetCombo returns one combo with its dishes
func (s *CatalogService) GetCombo(ctx context.Context, comboID uint) (*ComboView, error) {
	combo, err := s.store.Repositories(ctx).Catalog.Combo(comboID)
	if err != nil {
		return nil, classify(lookup(err, "COMBO_NOT_FOUND", "Combo not found"))
	}
	return newComboView(combo), nil
}

// SetComboAvailability takes a combo on or off the menu
func (s *CatalogService) SetComboAvailability(ctx context.Context, comboID uint, available bool) (*ComboView, error) {
	var combo *models.Combo
	err := s.transact(ctx, "catalog.combo.availability", func(r *repository.Repositories) error {
		if err := r.Catalog.UpdateCombo(comboID, map[string]interface{}{"is_available": available}); err != nil {
			return lookup(err, "COMBO_NOT_FOUND", "Combo not found")
		}
		var err error
		combo, err = r.Catalog.Combo(comboID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newComboView(combo), nil
}

// DeleteCombo removes a combo; the dishes in it stay on the menu
func (s *CatalogService) DeleteCombo(ctx context.Context, comboID uint) error {
	err := s.transact(ctx, "catalog.combo.delete", func(r *repository.Repositories) error {
		return lookup(r.Catalog.DeleteCombo(comboID), "COMBO_NOT_FOUND", "Combo not found")
	})
	if err != nil {
		return err
	}
	s.log.Info("Combo deleted", zap.Uint("combo_id", comboID))
	return nil
}
