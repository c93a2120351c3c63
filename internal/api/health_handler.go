package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/ingest"
)

// HealthHandler reports system and ingestion health
type HealthHandler struct {
	db     *sql.DB
	ingest *ingest.Service // nil when no commentary sources are configured
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, ingestService *ingest.Service) *HealthHandler {
	return &HealthHandler{
		db:     db,
		ingest: ingestService,
	}
}

// GetSystemHealth returns overall system health status
func (h *HealthHandler) GetSystemHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	healthy := err == nil

	response := gin.H{
		"healthy":   healthy,
		"timestamp": time.Now(),
	}

	if h.ingest != nil {
		response["ingest_health"] = h.ingest.HealthStatus()
	}

	if err != nil {
		response["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetIngestHealth returns detailed commentary ingestion health
func (h *HealthHandler) GetIngestHealth(c *gin.Context) {
	if h.ingest == nil {
		c.JSON(http.StatusOK, gin.H{
			"configured": false,
			"message":    "No commentary sources configured",
			"timestamp":  time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configured":    true,
		"health_status": h.ingest.HealthStatus(),
		"timestamp":     time.Now(),
	})
}

// ResetIngestHealth resets the ingestion health monitor (Admin only)
func (h *HealthHandler) ResetIngestHealth(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if h.ingest == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ingestion is not configured"})
		return
	}

	h.ingest.ResetHealth()

	c.JSON(http.StatusOK, gin.H{
		"message":   "Ingestion health monitor reset successfully",
		"timestamp": time.Now(),
	})
}
