package testutil

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kendall-kelly/tableside-api/config"
	"github.com/kendall-kelly/tableside-api/models"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// It fails the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestDB opens a migrated in-memory sqlite database private to the test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// every connection to :memory: is a fresh database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// Money parses a decimal literal, failing the test on bad input
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad money literal %q: %v", s, err)
	}
	return d
}

// SeedTable inserts an available dining table
func SeedTable(t *testing.T, db *gorm.DB, name string, seats int) models.Table {
	t.Helper()
	table := models.Table{Name: name, SeatCount: seats, Status: models.TableAvailable, Version: 1}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("Failed to seed table: %v", err)
	}
	return table
}

// SeedFood inserts an available menu item at the given base price
func SeedFood(t *testing.T, db *gorm.DB, name, price string) models.FoodItem {
	t.Helper()
	food := models.FoodItem{Name: name, BasePrice: Money(t, price), IsAvailable: true}
	if err := db.Create(&food).Error; err != nil {
		t.Fatalf("Failed to seed food item: %v", err)
	}
	return food
}

// SeedOption inserts an option of the named type for a food item
func SeedOption(t *testing.T, db *gorm.DB, food models.FoodItem, typeName, name, extra string) models.FoodOption {
	t.Helper()
	var optType models.OptionType
	if err := db.Where(models.OptionType{Name: typeName}).FirstOrCreate(&optType).Error; err != nil {
		t.Fatalf("Failed to seed option type: %v", err)
	}
	opt := models.FoodOption{
		FoodItemID:   food.ID,
		OptionTypeID: optType.ID,
		Name:         name,
		ExtraPrice:   Money(t, extra),
		IsAvailable:  true,
	}
	if err := db.Create(&opt).Error; err != nil {
		t.Fatalf("Failed to seed food option: %v", err)
	}
	opt.OptionType = optType
	return opt
}

// SeedDiscount inserts an active discount code
func SeedDiscount(t *testing.T, db *gorm.DB, code, percent, maxAmount string) models.Discount {
	t.Helper()
	d := models.Discount{Code: code, Percent: Money(t, percent), MaxAmount: Money(t, maxAmount), Active: true}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("Failed to seed discount: %v", err)
	}
	return d
}
