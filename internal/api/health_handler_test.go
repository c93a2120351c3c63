package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/jmcgrail/riskindex-engine/internal/ingest"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

func newTestIngestService(t *testing.T) *ingest.Service {
	t.Helper()
	cfg := &config.Config{SignalSourceURLs: "https://example.com/commentary"}
	svc, err := ingest.NewService(cfg)
	if err != nil {
		t.Fatalf("Failed to create ingest service: %v", err)
	}
	return svc
}

func TestHealthEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Opened lazily; nothing listens on port 1 so pings fail fast
	db, err := sql.Open("postgres", "postgres://riskindex@127.0.0.1:1/riskindex?sslmode=disable&connect_timeout=1")
	if err != nil {
		t.Fatalf("Failed to open database handle: %v", err)
	}
	defer db.Close()

	handler := NewHealthHandler(db, newTestIngestService(t))

	router.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.New())
		c.Set("user_role", "admin")
		c.Next()
	})

	router.GET("/health", handler.GetSystemHealth)
	router.GET("/health/ingest", handler.GetIngestHealth)
	router.POST("/health/ingest/reset", handler.ResetIngestHealth)

	t.Run("GetSystemHealth_DatabaseDown", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatal(err)
		}

		if healthy, exists := response["healthy"]; !exists || healthy != false {
			t.Errorf("Expected healthy false, got %v", healthy)
		}

		if _, exists := response["error"]; !exists {
			t.Error("Expected 'error' field in response")
		}

		if _, exists := response["ingest_health"]; !exists {
			t.Error("Expected 'ingest_health' field in response")
		}
	})

	t.Run("GetIngestHealth", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health/ingest", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatal(err)
		}

		if configured, exists := response["configured"]; !exists || configured != true {
			t.Errorf("Expected configured true, got %v", configured)
		}

		if _, exists := response["health_status"]; !exists {
			t.Error("Expected 'health_status' field in response")
		}
	})

	t.Run("ResetIngestHealth_Admin", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/health/ingest/reset", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatal(err)
		}

		if response["message"] != "Ingestion health monitor reset successfully" {
			t.Error("Expected success message")
		}
	})

	t.Run("ResetIngestHealth_NonAdmin", func(t *testing.T) {
		nonAdminRouter := gin.New()
		nonAdminRouter.Use(func(c *gin.Context) {
			c.Set("user_id", uuid.New())
			c.Set("user_role", "analyst")
			c.Next()
		})
		nonAdminRouter.POST("/health/ingest/reset", handler.ResetIngestHealth)

		req := httptest.NewRequest("POST", "/health/ingest/reset", nil)
		w := httptest.NewRecorder()
		nonAdminRouter.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})
}

func TestHealthEndpoints_IngestNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	db, err := sql.Open("postgres", "postgres://riskindex@127.0.0.1:1/riskindex?sslmode=disable&connect_timeout=1")
	if err != nil {
		t.Fatalf("Failed to open database handle: %v", err)
	}
	defer db.Close()

	handler := NewHealthHandler(db, nil)

	router.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.New())
		c.Set("user_role", "admin")
		c.Next()
	})

	router.GET("/health/ingest", handler.GetIngestHealth)
	router.POST("/health/ingest/reset", handler.ResetIngestHealth)

	t.Run("GetIngestHealth_NotConfigured", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health/ingest", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatal(err)
		}

		if configured, exists := response["configured"]; !exists || configured != false {
			t.Errorf("Expected configured false, got %v", configured)
		}
	})

	t.Run("ResetIngestHealth_NotConfigured", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/health/ingest/reset", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}
