package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/internal/services"
)

// SignalsHandler handles the macro signal catalog
type SignalsHandler struct {
	signalService services.SignalService
}

// NewSignalsHandler creates a new signals handler with service injection
func NewSignalsHandler(signalService services.SignalService) *SignalsHandler {
	return &SignalsHandler{
		signalService: signalService,
	}
}

// GetSignals returns signals matching the query filters
func (h *SignalsHandler) GetSignals(c *gin.Context) {
	filters := repository.SignalFilters{}

	if types := c.Query("types"); types != "" {
		filters.Types = strings.Split(types, ",")
	}
	if source := c.Query("source"); source != "" {
		filters.Source = source
	}
	if since := c.Query("since"); since != "" {
		if parsed, err := time.Parse("2006-01-02", since); err == nil {
			filters.Since = &parsed
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			filters.Limit = parsed
		}
	}

	signals, err := h.signalService.GetAll(filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signals":   signals,
		"count":     len(signals),
		"timestamp": time.Now(),
	})
}

// CreateSignal records a macro signal by hand (Admin only). Most signals
// arrive through the ingestion job; this covers observations that never hit
// a commentary page.
func (h *SignalsHandler) CreateSignal(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var form repository.SignalForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signal format: " + err.Error()})
		return
	}

	signal, err := h.signalService.Create(&form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signal recorded successfully",
		"signal":  signal,
	})
}
