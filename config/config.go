package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	FMP      FMPConfig
	HTTP     HTTPConfig
	Scoring  ScoringConfig
	Screener ScreenerConfig
	Log      LogConfig

	// Max concurrent symbol analyses before requests are turned away
	AnalysisConcurrencyLimit int
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Timeout returns the per-request upstream timeout
func (c FMPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               int
	CORSAllowedOrigins string
	TimeoutSeconds     int
}

// Timeout returns the per-request handler timeout
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AllowedOrigins splits CORSAllowedOrigins on commas
func (c HTTPConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ScoringConfig holds valuation engine options
type ScoringConfig struct {
	DefaultTemplate string // AUTO or a template name
	IncludeFCFYield bool
	Locale          string // es or en
}

// ScreenerConfig holds batch scoring options
type ScreenerConfig struct {
	MaxSymbols         int
	MaxConcurrent      int
	TopPicksCount      int
	AnalysisTimeoutSec int
}

// AnalysisTimeout bounds a whole screener run
func (c ScreenerConfig) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutSec) * time.Second
}

// LogConfig holds logger options
type LogConfig struct {
	Production bool
	Level      string
}

// fmpKeyVars are checked in order for the provider key
var fmpKeyVars = []string{"FMP_API_KEY", "FMP_KEY", "FMP_APIKEY"}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		FMP: FMPConfig{
			APIKey:         firstEnv(fmpKeyVars...),
			BaseURL:        getEnvString("FMP_BASE_URL", "https://financialmodelingprep.com/stable"),
			TimeoutSeconds: getEnvInt("FMP_TIMEOUT_SECONDS", 30),
		},
		HTTP: HTTPConfig{
			Port:               getEnvInt("HTTP_PORT", 8080),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			TimeoutSeconds:     getEnvInt("HTTP_TIMEOUT_SECONDS", 30),
		},
		Scoring: ScoringConfig{
			DefaultTemplate: strings.ToUpper(getEnvString("SCORING_DEFAULT_TEMPLATE", "AUTO")),
			IncludeFCFYield: getEnvBool("SCORING_INCLUDE_FCF_YIELD", false),
			Locale:          strings.ToLower(getEnvString("SCORING_LOCALE", "es")),
		},
		Screener: ScreenerConfig{
			MaxSymbols:         getEnvInt("SCREENER_MAX_SYMBOLS", 25),
			MaxConcurrent:      getEnvInt("SCREENER_MAX_CONCURRENT", 3),
			TopPicksCount:      getEnvInt("SCREENER_TOP_PICKS", 5),
			AnalysisTimeoutSec: getEnvInt("SCREENER_TIMEOUT_SECONDS", 60),
		},
		Log: LogConfig{
			Production: getEnvBool("LOG_PRODUCTION", false),
			Level:      getEnvString("LOG_LEVEL", "info"),
		},
		AnalysisConcurrencyLimit: getEnvInt("ANALYSIS_CONCURRENCY_LIMIT", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.FMP.BaseURL == "" {
		return fmt.Errorf("FMP_BASE_URL must not be empty")
	}
	if c.FMP.TimeoutSeconds <= 0 {
		return fmt.Errorf("FMP_TIMEOUT_SECONDS must be positive, got %d", c.FMP.TimeoutSeconds)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.AnalysisConcurrencyLimit <= 0 {
		return fmt.Errorf("ANALYSIS_CONCURRENCY_LIMIT must be positive, got %d", c.AnalysisConcurrencyLimit)
	}

	if c.Screener.MaxSymbols <= 0 || c.Screener.TopPicksCount <= 0 || c.Screener.AnalysisTimeoutSec <= 0 {
		return fmt.Errorf("SCREENER_MAX_SYMBOLS, SCREENER_TOP_PICKS and SCREENER_TIMEOUT_SECONDS must be positive")
	}
	if c.Screener.MaxConcurrent <= 0 || c.Screener.MaxConcurrent > c.AnalysisConcurrencyLimit {
		return fmt.Errorf("SCREENER_MAX_CONCURRENT must be between 1 and ANALYSIS_CONCURRENCY_LIMIT (%d), got %d",
			c.AnalysisConcurrencyLimit, c.Screener.MaxConcurrent)
	}

	switch c.Scoring.Locale {
	case "es", "en":
	default:
		return fmt.Errorf("SCORING_LOCALE must be es or en, got %q", c.Scoring.Locale)
	}

	switch c.Scoring.DefaultTemplate {
	case "AUTO", "DEFAULT", "TECH", "BANKS", "ENERGY":
	default:
		return fmt.Errorf("SCORING_DEFAULT_TEMPLATE must be AUTO, DEFAULT, TECH, BANKS or ENERGY, got %q", c.Scoring.DefaultTemplate)
	}

	return nil
}

// HasFMP returns true if Financial Modeling Prep configuration is available
func (c *Config) HasFMP() bool {
	return c.FMP.APIKey != ""
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}

func getEnvString(key, defaultValue string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		FMP: FMPConfig{
			APIKey:         "",
			BaseURL:        "https://financialmodelingprep.com/stable",
			TimeoutSeconds: 30,
		},
		HTTP: HTTPConfig{
			Port:               8080,
			CORSAllowedOrigins: "*",
			TimeoutSeconds:     30,
		},
		Scoring: ScoringConfig{
			DefaultTemplate: "AUTO",
			IncludeFCFYield: false,
			Locale:          "es",
		},
		Screener: ScreenerConfig{
			MaxSymbols:         25,
			MaxConcurrent:      3,
			TopPicksCount:      5,
			AnalysisTimeoutSec: 60,
		},
		Log: LogConfig{
			Production: false,
			Level:      "info",
		},
		AnalysisConcurrencyLimit: 5,
	}
}
