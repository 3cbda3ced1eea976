package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kendall-kelly/tableside-api/repository"
	"github.com/kendall-kelly/tableside-api/services"
)

const testTableCodeSecret = "integration-test-secret"

// newServices builds the service registry over db with in-memory collaborators
func newServices(t *testing.T, db *gorm.DB) *services.Services {
	t.Helper()
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
		Images:   services.NewImageService(services.NewMockObjectStore()),
	}, codes)
	t.Cleanup(func() { services.SetServices(nil) })
	return svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}
