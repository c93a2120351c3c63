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

// DealsHandler handles deal management operations
type DealsHandler struct {
	dealService services.DealService
}

// NewDealsHandler creates a new deals handler with service injection
func NewDealsHandler(dealService services.DealService) *DealsHandler {
	return &DealsHandler{
		dealService: dealService,
	}
}

// GetDeals returns deals matching the query filters
func (h *DealsHandler) GetDeals(c *gin.Context) {
	filters := repository.DealFilters{}

	if assetTypes := c.Query("asset_types"); assetTypes != "" {
		filters.AssetTypes = strings.Split(assetTypes, ",")
	}
	if market := c.Query("market"); market != "" {
		filters.Market = market
	}
	if limit := c.Query("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			filters.Limit = parsed
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if parsed, err := strconv.Atoi(offset); err == nil && parsed > 0 {
			filters.Offset = parsed
		}
	}

	deals, err := h.dealService.GetAll(filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deals":     deals,
		"count":     len(deals),
		"timestamp": time.Now(),
	})
}

// GetDeal returns a single deal by ID
func (h *DealsHandler) GetDeal(c *gin.Context) {
	deal, err := h.dealService.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

// CreateDeal registers a new deal
func (h *DealsHandler) CreateDeal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var form repository.DealForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deal format: " + err.Error()})
		return
	}

	deal, err := h.dealService.Create(&form, userID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Deal created successfully",
		"deal":    deal,
	})
}

// UpdateDeal updates an existing deal
func (h *DealsHandler) UpdateDeal(c *gin.Context) {
	var form repository.DealForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deal format: " + err.Error()})
		return
	}

	deal, err := h.dealService.Update(c.Param("id"), &form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Deal updated successfully",
		"deal":    deal,
	})
}

// DeleteDeal removes a deal (Admin only)
func (h *DealsHandler) DeleteDeal(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if err := h.dealService.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted successfully"})
}

// RecordOutcome records the realized outcome for a deal. Resubmitting
// replaces the previous outcome.
func (h *DealsHandler) RecordOutcome(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var form repository.OutcomeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outcome format: " + err.Error()})
		return
	}

	outcome, err := h.dealService.RecordOutcome(c.Param("id"), &form, userID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Outcome recorded successfully",
		"outcome": outcome,
	})
}

// GetOutcome returns the recorded outcome for a deal
func (h *DealsHandler) GetOutcome(c *gin.Context) {
	outcome, err := h.dealService.GetOutcome(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}
