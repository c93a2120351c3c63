package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/internal/services"
)

// ScansHandler handles scan submission, scoring, and history operations
type ScansHandler struct {
	scanService services.ScanService
}

// NewScansHandler creates a new scans handler with service injection
func NewScansHandler(scanService services.ScanService) *ScansHandler {
	return &ScansHandler{
		scanService: scanService,
	}
}

// SubmitScan accepts a document scan for a deal. Resubmitting identical
// content inside the dedupe window returns the existing scan instead of
// creating a new one.
func (h *ScansHandler) SubmitScan(c *gin.Context) {
	var submission repository.ScanSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission format: " + err.Error()})
		return
	}

	response, deduped, err := h.scanService.Submit(c.Param("id"), &submission)
	if err != nil {
		respondError(c, err)
		return
	}

	if deduped {
		c.JSON(http.StatusOK, gin.H{
			"message": "Identical submission already on file",
			"deduped": true,
			"scan":    response,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Scan submitted successfully",
		"deduped": false,
		"scan":    response,
	})
}

// GetScan returns a scan with its findings and signal links
func (h *ScansHandler) GetScan(c *gin.Context) {
	response, err := h.scanService.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetDealScans returns the scan history for a deal, newest first
func (h *ScansHandler) GetDealScans(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	scans, err := h.scanService.GetByDeal(c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scans":     scans,
		"count":     len(scans),
		"timestamp": time.Now(),
	})
}

// ProcessScan runs the scoring chain on a pending scan
func (h *ScansHandler) ProcessScan(c *gin.Context) {
	scan, err := h.scanService.Process(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scan scored successfully",
		"scan":    scan,
	})
}

// GetDealAudit returns the score movement history for a deal, newest first
func (h *ScansHandler) GetDealAudit(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.scanService.AuditTrail(c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_trail": entries,
		"count":       len(entries),
		"timestamp":   time.Now(),
	})
}
