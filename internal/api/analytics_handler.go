package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/services"
)

// AnalyticsHandler handles backtest and portfolio reporting
type AnalyticsHandler struct {
	backtestService  services.BacktestService
	portfolioService services.PortfolioService
}

// NewAnalyticsHandler creates a new analytics handler with service injection
func NewAnalyticsHandler(backtestService services.BacktestService, portfolioService services.PortfolioService) *AnalyticsHandler {
	return &AnalyticsHandler{
		backtestService:  backtestService,
		portfolioService: portfolioService,
	}
}

// RunBacktest compares historical scores against recorded deal outcomes
func (h *AnalyticsHandler) RunBacktest(c *gin.Context) {
	metrics, err := h.backtestService.Run()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"backtest":  metrics,
		"timestamp": time.Now(),
	})
}

// GetPortfolioSummary returns the aggregated portfolio risk picture
func (h *AnalyticsHandler) GetPortfolioSummary(c *gin.Context) {
	summary, err := h.portfolioService.Summary()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":   summary,
		"timestamp": time.Now(),
	})
}

// GetPortfolioDeals returns every deal with its latest score and exposure
func (h *AnalyticsHandler) GetPortfolioDeals(c *gin.Context) {
	entries, err := h.portfolioService.Entries()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deals":     entries,
		"count":     len(entries),
		"timestamp": time.Now(),
	})
}
