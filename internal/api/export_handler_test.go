package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/services"
)

// Mock export service for testing
type mockExportService struct {
	data        []byte
	lastFilter  services.ExportFilter
	lastOptions services.ExportOptions
	shouldError bool
}

func (m *mockExportService) Export(filter services.ExportFilter, options services.ExportOptions) ([]byte, error) {
	if m.shouldError {
		return nil, stderrors.New("mock error")
	}
	m.lastFilter = filter
	m.lastOptions = options
	return m.data, nil
}

func setupExportTestHandler() (*ExportHandler, *mockExportService) {
	mockService := &mockExportService{
		data: []byte(`{"scans":[],"metadata":{"total_count":0}}`),
	}

	handler := &ExportHandler{
		exportService: mockService,
	}

	return handler, mockService
}

func TestExportHandler_ExportScans_JSON(t *testing.T) {
	handler, mockService := setupExportTestHandler()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/exports/scans", handler.ExportScans)

	minScore := 40
	filter := services.ExportFilter{
		Bands:    []string{"Elevated", "High"},
		MinScore: &minScore,
	}

	body, _ := json.Marshal(filter)
	req, _ := http.NewRequest("POST", "/exports/scans", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}

	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", contentType)
	}

	if disposition := resp.Header().Get("Content-Disposition"); !strings.Contains(disposition, ".json") {
		t.Errorf("Expected JSON filename in Content-Disposition, got %s", disposition)
	}

	if len(mockService.lastFilter.Bands) != 2 {
		t.Errorf("Expected 2 bands in filter, got %d", len(mockService.lastFilter.Bands))
	}
	if mockService.lastFilter.MinScore == nil || *mockService.lastFilter.MinScore != 40 {
		t.Errorf("Expected min score 40 in filter, got %v", mockService.lastFilter.MinScore)
	}
	if mockService.lastOptions.Format != services.FormatJSON {
		t.Errorf("Expected JSON format by default, got %s", mockService.lastOptions.Format)
	}
	if !mockService.lastOptions.IncludeMetadata {
		t.Error("Expected metadata included by default")
	}
}

func TestExportHandler_ExportScans_CSV(t *testing.T) {
	handler, mockService := setupExportTestHandler()
	mockService.data = []byte("scan_id,deal_name,score,band\n")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/exports/scans", handler.ExportScans)

	req, _ := http.NewRequest("POST", "/exports/scans?format=csv&include_breakdown=true", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}

	if contentType := resp.Header().Get("Content-Type"); contentType != "text/csv" {
		t.Errorf("Expected Content-Type text/csv, got %s", contentType)
	}

	if disposition := resp.Header().Get("Content-Disposition"); !strings.Contains(disposition, ".csv") {
		t.Errorf("Expected CSV filename in Content-Disposition, got %s", disposition)
	}

	if mockService.lastOptions.Format != services.FormatCSV {
		t.Errorf("Expected CSV format, got %s", mockService.lastOptions.Format)
	}
	if !mockService.lastOptions.IncludeBreakdown {
		t.Error("Expected breakdown included when requested")
	}
}

func TestExportHandler_ExportScans_QueryFilter(t *testing.T) {
	handler, mockService := setupExportTestHandler()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/exports/scans", handler.ExportScans)

	// No body: filter criteria come from query parameters
	req, _ := http.NewRequest("POST", "/exports/scans?bands=High&min_score=60&has_outcome=true&scored_after=2025-01-01", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}

	if len(mockService.lastFilter.Bands) != 1 || mockService.lastFilter.Bands[0] != "High" {
		t.Errorf("Expected bands [High], got %v", mockService.lastFilter.Bands)
	}
	if mockService.lastFilter.MinScore == nil || *mockService.lastFilter.MinScore != 60 {
		t.Errorf("Expected min score 60, got %v", mockService.lastFilter.MinScore)
	}
	if mockService.lastFilter.HasOutcome == nil || !*mockService.lastFilter.HasOutcome {
		t.Errorf("Expected has_outcome true, got %v", mockService.lastFilter.HasOutcome)
	}
	if mockService.lastFilter.ScoredAfter == nil {
		t.Error("Expected scored_after to be parsed")
	}
}

func TestExportHandler_ExportScans_InvalidFormat(t *testing.T) {
	handler, _ := setupExportTestHandler()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/exports/scans", handler.ExportScans)

	req, _ := http.NewRequest("POST", "/exports/scans?format=xml", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unsupported format, got %d", resp.Code)
	}
}

func TestExportHandler_ExportScans_ServiceError(t *testing.T) {
	handler, mockService := setupExportTestHandler()
	mockService.shouldError = true

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/exports/scans", handler.ExportScans)

	req, _ := http.NewRequest("POST", "/exports/scans", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 for error case, got %d", resp.Code)
	}
}
