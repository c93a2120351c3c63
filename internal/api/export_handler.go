package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/services"
)

// ExportHandler handles scored-scan export operations
type ExportHandler struct {
	exportService services.ExportService
}

// NewExportHandler creates a new export handler with service injection
func NewExportHandler(exportService services.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// ExportScans exports scored scans matching the filter in the requested
// format. The filter comes from the JSON body, with query parameters as a
// fallback for simple cases.
func (h *ExportHandler) ExportScans(c *gin.Context) {
	var filter services.ExportFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		filter = h.parseFilterFromQuery(c)
	}

	options := services.ExportOptions{
		Format:           services.FormatJSON,
		IncludeBreakdown: false,
		IncludeMetadata:  true,
	}

	if format := c.Query("format"); format != "" {
		switch strings.ToLower(format) {
		case "csv":
			options.Format = services.FormatCSV
		case "json":
			options.Format = services.FormatJSON
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Supported formats: json, csv"})
			return
		}
	}

	if includeBreakdown := c.Query("include_breakdown"); includeBreakdown == "true" {
		options.IncludeBreakdown = true
	}
	if includeMetadata := c.Query("include_metadata"); includeMetadata == "false" {
		options.IncludeMetadata = false
	}

	data, err := h.exportService.Export(filter, options)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := "scored_scans_" + time.Now().Format("2006-01-02_15-04-05")

	switch options.Format {
	case services.FormatCSV:
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	default:
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.json"`)
		c.Data(http.StatusOK, "application/json", data)
	}
}

// parseFilterFromQuery parses export filter criteria from query parameters
func (h *ExportHandler) parseFilterFromQuery(c *gin.Context) services.ExportFilter {
	filter := services.ExportFilter{}

	if bands := c.Query("bands"); bands != "" {
		filter.Bands = strings.Split(bands, ",")
	}
	if assetTypes := c.Query("asset_types"); assetTypes != "" {
		filter.AssetTypes = strings.Split(assetTypes, ",")
	}
	if market := c.Query("market"); market != "" {
		filter.Market = market
	}
	if versions := c.Query("model_versions"); versions != "" {
		filter.ModelVersions = strings.Split(versions, ",")
	}

	if minScore := c.Query("min_score"); minScore != "" {
		if parsed, err := strconv.Atoi(minScore); err == nil {
			filter.MinScore = &parsed
		}
	}
	if maxScore := c.Query("max_score"); maxScore != "" {
		if parsed, err := strconv.Atoi(maxScore); err == nil {
			filter.MaxScore = &parsed
		}
	}

	if scoredAfter := c.Query("scored_after"); scoredAfter != "" {
		if parsed, err := time.Parse("2006-01-02", scoredAfter); err == nil {
			filter.ScoredAfter = &parsed
		}
	}
	if scoredBefore := c.Query("scored_before"); scoredBefore != "" {
		if parsed, err := time.Parse("2006-01-02", scoredBefore); err == nil {
			filter.ScoredBefore = &parsed
		}
	}

	if hasOutcome := c.Query("has_outcome"); hasOutcome != "" {
		if parsed, err := strconv.ParseBool(hasOutcome); err == nil {
			filter.HasOutcome = &parsed
		}
	}

	if limit := c.Query("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			filter.Limit = &parsed
		}
	}

	return filter
}
