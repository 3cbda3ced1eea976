package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kendall-kelly/tableside-api/config"
	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/services"
	"github.com/kendall-kelly/tableside-api/tests/testutil"
)

// LifecycleIntegrationTestSuite drives whole bills through the services.
// It uses in-memory sqlite, or the Postgres database in TEST_DATABASE_URL when set.
type LifecycleIntegrationTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *services.Services
	ctx context.Context
}

func (suite *LifecycleIntegrationTestSuite) SetupTest() {
	t := suite.T()
	suite.ctx = context.Background()

	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		testutil.RequireTestEnvironment(t)
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		suite.Require().NoError(err)
		suite.Require().NoError(db.Migrator().DropTable(models.All()...))
		suite.Require().NoError(config.Migrate(db))
		suite.db = db
	} else {
		suite.db = testutil.NewTestDB(t)
	}
	suite.svc = newServices(t, suite.db)
}

// order places one round of the foods, one unit each, from a fresh session
func (suite *LifecycleIntegrationTestSuite) order(table models.Table, foods ...models.FoodItem) *services.PlaceOrderResult {
	session := uuid.NewString() + ":" + fmt.Sprint(table.ID)
	for _, f := range foods {
		_, err := suite.svc.Carts.AddItem(suite.ctx, session, table.ID, services.AddItemRequest{FoodItemID: f.ID, Quantity: 1})
		suite.Require().NoError(err)
	}
	res, err := suite.svc.Orders.PlaceOrder(suite.ctx, table.ID, session, "cash")
	suite.Require().NoError(err)
	return res
}

func (suite *LifecycleIntegrationTestSuite) itemIDs(invoiceIDs ...uint) []uint {
	var ids []uint
	err := suite.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.invoice_id IN ?", invoiceIDs).
		Order("order_items.id").
		Pluck("order_items.id", &ids).Error
	suite.Require().NoError(err)
	return ids
}

func (suite *LifecycleIntegrationTestSuite) invoice(id uint) models.Invoice {
	var inv models.Invoice
	suite.Require().NoError(suite.db.First(&inv, id).Error)
	return inv
}

func (suite *LifecycleIntegrationTestSuite) TestMergedBillSettlesEveryTable() {
	t := suite.T()
	t1 := testutil.SeedTable(t, suite.db, "T1", 4)
	t2 := testutil.SeedTable(t, suite.db, "T2", 2)
	pho := testutil.SeedFood(t, suite.db, "Pho", "45000")
	tea := testutil.SeedFood(t, suite.db, "Iced tea", "10000")

	r1 := suite.order(t1, pho, tea)
	r2 := suite.order(t2, pho)

	merged, err := suite.svc.Tables.MergeTables(suite.ctx, []uint{t1.ID, t2.ID})
	suite.Require().NoError(err)

	// a round placed after the merge lands on the merged bill
	r3 := suite.order(t2, tea)
	suite.Equal(merged.ID, r3.InvoiceID)

	for _, id := range suite.itemIDs(r1.InvoiceID, r2.InvoiceID, merged.ID) {
		_, err := suite.svc.Kitchen.MarkReady(suite.ctx, id)
		suite.Require().NoError(err)
	}
	suite.Equal(models.InvoiceReady, suite.invoice(merged.ID).Status)

	_, err = suite.svc.Payments.MarkServed(suite.ctx, merged.ID)
	suite.Require().NoError(err)

	_, err = suite.svc.Payments.MarkPaid(suite.ctx, r1.InvoiceID)
	suite.Require().Error(err)
	suite.Equal(services.KindValidation, services.KindOf(err))

	paid, err := suite.svc.Payments.MarkPaid(suite.ctx, merged.ID)
	suite.Require().NoError(err)
	suite.Equal(models.InvoicePaid, paid.Status)
	suite.True(paid.FinalAmount.Equal(testutil.Money(t, "110000")))

	for _, id := range []uint{r1.InvoiceID, r2.InvoiceID} {
		suite.Equal(models.InvoiceMerged, suite.invoice(id).Status)
	}
	for _, table := range []models.Table{t1, t2} {
		var reloaded models.Table
		suite.Require().NoError(suite.db.First(&reloaded, table.ID).Error)
		suite.Equal(models.TableAvailable, reloaded.Status, table.Name)
	}

	var unpaid int64
	suite.Require().NoError(suite.db.Model(&models.OrderItem{}).Where("status <> ?", models.ItemPaid).Count(&unpaid).Error)
	suite.Zero(unpaid)

	next := suite.order(t1, pho)
	suite.NotEqual(merged.ID, next.InvoiceID)
	suite.NotEqual(r1.InvoiceID, next.InvoiceID)
}

func (suite *LifecycleIntegrationTestSuite) TestConcurrentKitchenUpdates() {
	t := suite.T()
	table := testutil.SeedTable(t, suite.db, "T1", 8)
	var foods []models.FoodItem
	for i := 0; i < 6; i++ {
		foods = append(foods, testutil.SeedFood(t, suite.db, fmt.Sprintf("Dish %d", i), "20000"))
	}
	placed := suite.order(table, foods...)
	ids := suite.itemIDs(placed.InvoiceID)
	suite.Require().Len(ids, 6)

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, err := suite.svc.Kitchen.MarkReady(suite.ctx, id); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		suite.NoError(err)
	}

	suite.Equal(models.InvoiceReady, suite.invoice(placed.InvoiceID).Status)
	var order models.Order
	suite.Require().NoError(suite.db.First(&order, placed.OrderID).Error)
	suite.Equal(models.InvoiceReady, order.Status)
}

func (suite *LifecycleIntegrationTestSuite) TestConcurrentFirstRoundsShareOneInvoice() {
	t := suite.T()
	table := testutil.SeedTable(t, suite.db, "T1", 8)
	pho := testutil.SeedFood(t, suite.db, "Pho", "45000")

	const guests = 4
	sessions := make([]string, guests)
	for i := range sessions {
		sessions[i] = uuid.NewString()
		_, err := suite.svc.Carts.AddItem(suite.ctx, sessions[i], table.ID, services.AddItemRequest{FoodItemID: pho.ID})
		suite.Require().NoError(err)
	}

	results := make([]*services.PlaceOrderResult, guests)
	errs := make([]error, guests)
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = suite.svc.Orders.PlaceOrder(suite.ctx, table.ID, sessions[i], "cash")
		}(i)
	}
	wg.Wait()

	for i := range results {
		suite.Require().NoError(errs[i])
		suite.Equal(results[0].InvoiceID, results[i].InvoiceID)
	}

	var links int64
	suite.Require().NoError(suite.db.Model(&models.TableInvoice{}).Where("table_id = ?", table.ID).Count(&links).Error)
	suite.Equal(int64(1), links)
}

func TestLifecycleIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleIntegrationTestSuite))
}
