package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/services"
)

// ingestTriggerTimeout bounds a manually triggered ingestion run
const ingestTriggerTimeout = 5 * time.Minute

// JobsHandler exposes one-shot triggers for the maintenance jobs. The
// schedule itself runs in the jobs binary; these endpoints let an admin run a
// job on demand without waiting for the next cron fire.
type JobsHandler struct {
	scheduler *services.JobScheduler
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(scheduler *services.JobScheduler) *JobsHandler {
	return &JobsHandler{
		scheduler: scheduler,
	}
}

// RunIngest fetches and stores signals from the configured commentary
// sources immediately (Admin only)
func (h *JobsHandler) RunIngest(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if !h.scheduler.IngestionConfigured() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No commentary sources configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTriggerTimeout)
	defer cancel()

	inserted, err := h.scheduler.RunIngestOnce(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion run failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Ingestion run completed successfully",
		"inserted":  inserted,
		"timestamp": time.Now(),
	})
}

// RunAuditBackfill records audit entries for scored scans missing one
// (Admin only)
func (h *JobsHandler) RunAuditBackfill(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	limit := services.DefaultBackfillLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	recorded, err := h.scheduler.RunAuditBackfillOnce(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Audit backfill failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Audit backfill completed successfully",
		"recorded":  recorded,
		"limit":     limit,
		"timestamp": time.Now(),
	})
}

// RunSignalCleanup prunes unlinked signals past the retention window
// (Admin only)
func (h *JobsHandler) RunSignalCleanup(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	deleted, err := h.scheduler.RunSignalCleanupOnce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signal cleanup failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Signal cleanup completed successfully",
		"deleted":   deleted,
		"timestamp": time.Now(),
	})
}
