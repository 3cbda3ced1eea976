package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kendall-kelly/tableside-api/middleware"
	"github.com/kendall-kelly/tableside-api/models"
	"github.com/kendall-kelly/tableside-api/repository"
	"github.com/kendall-kelly/tableside-api/services"
	"github.com/kendall-kelly/tableside-api/tests/testutil"
)

const testStaffID = "auth0|staff123"

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	svc      *services.Services
	codes    *services.TableCodeService
	photos   *services.MockObjectStore
	receipts *services.MockReceiptArchive
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// setupTestEnv wires the full route table over an in-memory database.
// Staff requests are authenticated as testStaffID with the given scopes, admin by default.
func setupTestEnv(t *testing.T, scopes ...string) *testEnv {
	t.Helper()
	if len(scopes) == 0 {
		scopes = []string{middleware.ScopeAdmin}
	}

	db := testutil.NewTestDB(t)
	codes, err := services.NewTableCodeService("controller-test-secret")
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		codes:    codes,
		photos:   services.NewMockObjectStore(),
		receipts: services.NewMockReceiptArchive(),
	}
	env.svc = services.InitServices(services.Deps{
		Store:  repository.NewGormStore(db),
		Logger: zap.NewNop(),
		BackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
		},
	}, services.Collaborators{
		Receipts: env.receipts,
		Guests:   services.NewMemoryGuestTracker(),
		Images:   services.NewImageService(env.photos),
	}, codes)
	t.Cleanup(func() { services.SetServices(nil) })

	env.router = setupTestRouter()
	RegisterRoutes(env.router.Group("/api/v1"), RouteOptions{
		TableCodes: codes,
		StaffAuth:  testutil.MockAuth(testStaffID, scopes...),
		Scope:      middleware.RequireScope,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// guest is one phone sitting at a table, keeping its session cookie between requests
type guest struct {
	env    *testEnv
	base   string
	cookie *http.Cookie
}

func (e *testEnv) guestAt(t *testing.T, table models.Table) *guest {
	t.Helper()
	code, err := e.codes.Encode(table.ID)
	require.NoError(t, err)
	return &guest{env: e, base: "/api/v1/t/" + code}
}

func (g *guest) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var cookies []*http.Cookie
	if g.cookie != nil {
		cookies = append(cookies, g.cookie)
	}
	w := g.env.do(t, method, g.base+path, body, cookies...)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			g.cookie = c
		}
	}
	return w
}

// order adds the foods to the guest's cart, one unit each, and places the order
func (g *guest) order(t *testing.T, foods ...models.FoodItem) map[string]interface{} {
	t.Helper()
	for _, f := range foods {
		w := g.do(t, http.MethodPost, "/cart/items", gin.H{"food_item_id": f.ID, "quantity": 1})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := g.do(t, http.MethodPost, "/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataOf(t, w)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], w.Body.String())
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %s", w.Body.String())
	return data
}

func listOf(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], w.Body.String())
	data, ok := response["data"].([]interface{})
	require.True(t, ok, "data is not a list: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	require.Equal(t, false, response["success"], w.Body.String())
	errData, ok := response["error"].(map[string]interface{})
	require.True(t, ok)
	return errData["code"].(string)
}

func money(t *testing.T, v interface{}) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "money value %v is not a string", v)
	return decimal.RequireFromString(s)
}

func idOf(v interface{}) uint {
	return uint(v.(float64))
}

func itemsOf(t *testing.T, db *gorm.DB, orderID uint) []models.OrderItem {
	t.Helper()
	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", orderID).Order("id").Find(&items).Error)
	return items
}

func uintStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
