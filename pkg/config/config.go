package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	Environment string
	// Market commentary ingestion
	SignalSourceURLs  string
	SignalWindowDays  int
	SignalWindowLimit int
	// Optional rendering API for JavaScript heavy commentary sources
	RenderAPIEndpoint string
	RenderAPIUsername string
	RenderAPIPassword string
	// Scheduled jobs
	IngestCronSpec      string
	BackfillCronSpec    string
	CleanupCronSpec     string
	SignalRetentionDays int
	// Scan orchestration
	ScanDedupeWindowHours int
	// Security configuration
	AllowedOrigins  string
	TrustedProxies  string
	EnableRateLimit bool
	MaxRequestSize  int64
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENV", "development"),
		SignalSourceURLs:    getEnv("SIGNAL_SOURCE_URLS", ""),
		SignalWindowDays:    getEnvAsInt("SIGNAL_WINDOW_DAYS", 30),
		SignalWindowLimit:   getEnvAsInt("SIGNAL_WINDOW_LIMIT", 200),
		RenderAPIEndpoint:   getEnv("RENDER_API_ENDPOINT", ""),
		RenderAPIUsername:   getEnv("RENDER_API_USERNAME", ""),
		RenderAPIPassword:   getEnv("RENDER_API_PASSWORD", ""),
		IngestCronSpec:      getEnv("INGEST_CRON", "0 */6 * * *"),
		BackfillCronSpec:    getEnv("AUDIT_BACKFILL_CRON", "30 2 * * *"),
		CleanupCronSpec:     getEnv("DEDUPE_CLEANUP_CRON", "0 3 * * *"),
		SignalRetentionDays: getEnvAsInt("SIGNAL_RETENTION_DAYS", 180),
		// Security configuration
		ScanDedupeWindowHours: getEnvAsInt("SCAN_DEDUPE_WINDOW_HOURS", 24),
		AllowedOrigins:        getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:        getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:       getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 10*1024*1024), // 10MB default
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasSignalSources returns true if commentary source URLs are configured
func (c *Config) HasSignalSources() bool {
	return strings.TrimSpace(c.SignalSourceURLs) != ""
}

// HasRenderAPI returns true if a rendering API is fully configured
func (c *Config) HasRenderAPI() bool {
	return c.RenderAPIEndpoint != "" && c.RenderAPIUsername != "" && c.RenderAPIPassword != ""
}

// GetSignalSourceURLs returns the configured commentary source URLs
func (c *Config) GetSignalSourceURLs() []string {
	if !c.HasSignalSources() {
		return []string{}
	}
	parts := strings.Split(c.SignalSourceURLs, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		// Default production origins - update these for your production domains
		return []string{
			"https://your-production-domain.com",
			"https://www.your-production-domain.com",
		}
	}
	return strings.Split(c.AllowedOrigins, ",")
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return strings.Split(c.TrustedProxies, ",")
}

// IsSecurityEnabled returns true if security features should be enabled
func (c *Config) IsSecurityEnabled() bool {
	return c.IsProduction() || getEnv("ENABLE_SECURITY", "false") == "true"
}
