package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kendall-kelly/tableside-api/config"
	"github.com/kendall-kelly/tableside-api/controllers"
	"github.com/kendall-kelly/tableside-api/middleware"
	"github.com/kendall-kelly/tableside-api/repository"
	"github.com/kendall-kelly/tableside-api/services"
)

const testTableCodeSecret = "acceptance-test-secret"

// startServer serves the full route table over db the way the binary does
func startServer(t *testing.T, cfg *config.Config, db *gorm.DB) (*httptest.Server, *services.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codes, err := services.NewTableCodeService(testTableCodeSecret)
	require.NoError(t, err)
	svc := services.InitServices(services.Deps{
		Store:  repository.NewGormStore(db),
		Logger: zap.NewNop(),
		BackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5)
		},
	}, services.Collaborators{
		Receipts: services.NewMockReceiptArchive(),
		Guests:   services.NewMemoryGuestTracker(),
	}, codes)

	staffAuth, err := middleware.StaffAuth(cfg, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.Use(gin.Recovery())
	v1 := router.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Tableside API is running",
		})
	})
	controllers.RegisterRoutes(v1, controllers.RouteOptions{
		TableCodes: codes,
		StaffAuth:  staffAuth,
		Scope: func(scope string) gin.HandlerFunc {
			return middleware.OptionalScope(cfg, scope)
		},
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		services.SetServices(nil)
	})
	return server, svc
}

// call sends a JSON request and decodes the JSON reply; a 204 decodes to nil
func call(t *testing.T, client *http.Client, method, url, auth string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &response), string(raw))
	return resp.StatusCode, response
}
