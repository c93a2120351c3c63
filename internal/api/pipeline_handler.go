package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/services"
)

// PipelineHandler handles scan pipeline management operations
type PipelineHandler struct {
	pipeline *services.ScanPipeline
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(pipeline *services.ScanPipeline) *PipelineHandler {
	return &PipelineHandler{
		pipeline: pipeline,
	}
}

// GetPipelineStatus returns scan counts by status and whether the pipeline
// loop is running
func (h *PipelineHandler) GetPipelineStatus(c *gin.Context) {
	status, err := h.pipeline.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get pipeline status: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pipeline_status": status,
		"timestamp":       time.Now(),
	})
}

// GetPipelineConfig returns the default pipeline configuration
func (h *PipelineHandler) GetPipelineConfig(c *gin.Context) {
	config := services.DefaultPipelineConfig()

	c.JSON(http.StatusOK, gin.H{
		"default_config": config,
		"description": map[string]string{
			"batch_size":       "Number of pending scans to claim per cycle",
			"interval_minutes": "How often to run scoring cycles (in minutes)",
			"max_concurrent":   "Maximum number of concurrent scoring operations",
		},
		"timestamp": time.Now(),
	})
}

// StartPipeline starts the automated scan pipeline (Admin only)
func (h *PipelineHandler) StartPipeline(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var config services.PipelineConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		// Use default config if parsing fails
		config = services.DefaultPipelineConfig()
	}

	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.IntervalMinutes <= 0 {
		config.IntervalMinutes = 5
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	if err := h.pipeline.Start(config); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to start pipeline: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Scan pipeline started successfully",
		"config":    config,
		"timestamp": time.Now(),
	})
}

// StopPipeline stops the automated scan pipeline (Admin only)
func (h *PipelineHandler) StopPipeline(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if err := h.pipeline.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to stop pipeline: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Scan pipeline stopped successfully",
		"timestamp": time.Now(),
	})
}

// RunPipelineOnce executes a single scoring cycle manually (Admin only)
func (h *PipelineHandler) RunPipelineOnce(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	config := services.DefaultPipelineConfig()

	if batchSize := c.Query("batch_size"); batchSize != "" {
		if parsed, err := strconv.Atoi(batchSize); err == nil && parsed > 0 {
			config.BatchSize = parsed
		}
	}
	if maxConcurrent := c.Query("max_concurrent"); maxConcurrent != "" {
		if parsed, err := strconv.Atoi(maxConcurrent); err == nil && parsed > 0 {
			config.MaxConcurrent = parsed
		}
	}

	stats, err := h.pipeline.RunOnce(config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run scoring cycle: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Scoring cycle completed successfully",
		"config":    config,
		"stats":     stats,
		"timestamp": time.Now(),
	})
}
