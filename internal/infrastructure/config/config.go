// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	token := cfg.GetAPIKey(cfg.Ledger.Token, "LEDGER_TOKEN")
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Ledger    LedgerConfig    `yaml:"ledger"`
	Retailers RetailersConfig `yaml:"retailers"`
	Matching  MatchingConfig  `yaml:"matching"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LedgerConfig holds budgeting service API configuration
type LedgerConfig struct {
	BaseURL  string `yaml:"base_url"`
	BudgetID string `yaml:"budget_id"`
	Token    string `yaml:"token"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP API server configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RetailersConfig holds retailer-specific configuration
type RetailersConfig struct {
	Amazon  AmazonConfig  `yaml:"amazon"`
	Walmart WalmartConfig `yaml:"walmart"`
}

// AmazonConfig holds Amazon-specific settings
type AmazonConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OrdersCSV  string `yaml:"orders_csv"`
	RefundsCSV string `yaml:"refunds_csv"`
}

// WalmartConfig holds Walmart-specific settings
type WalmartConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OrdersJSON string `yaml:"orders_json"`
}

// MatchingConfig holds confidence scoring and threshold settings
type MatchingConfig struct {
	LookbackDays     int     `yaml:"lookback_days"`
	ConfidenceFloor  float64 `yaml:"confidence_floor"`
	MediumThreshold  float64 `yaml:"medium_threshold"`
	HighThreshold    float64 `yaml:"high_threshold"`
	SingleDateWindow int     `yaml:"single_date_window"`
	MultiDateWindow  int     `yaml:"multi_date_window"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LEDGER_TOKEN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Ledger: LedgerConfig{
			BaseURL:  getEnv("LEDGER_BASE_URL", "https://api.ynab.com"),
			BudgetID: os.Getenv("LEDGER_BUDGET_ID"),
			Token:    os.Getenv("LEDGER_TOKEN"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("LEDGERMATCH_DB_PATH", "ledgermatch.db"),
		},
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
		},
		Retailers: RetailersConfig{
			Amazon: AmazonConfig{
				Enabled:    true,
				OrdersCSV:  getEnv("AMAZON_ORDERS_CSV", ""),
				RefundsCSV: getEnv("AMAZON_REFUNDS_CSV", ""),
			},
			Walmart: WalmartConfig{
				Enabled:    true,
				OrdersJSON: getEnv("WALMART_ORDERS_JSON", ""),
			},
		},
		Matching: MatchingConfig{
			LookbackDays: getEnvInt("LOOKBACK_DAYS", 30),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills zero-valued tunables so a sparse config file still
// yields a working setup.
func (c *Config) applyDefaults() {
	if c.Ledger.BaseURL == "" {
		c.Ledger.BaseURL = "https://api.ynab.com"
	}
	if c.Matching.LookbackDays == 0 {
		c.Matching.LookbackDays = 30
	}
	if c.Matching.MediumThreshold == 0 {
		c.Matching.MediumThreshold = 0.6
	}
	if c.Matching.HighThreshold == 0 {
		c.Matching.HighThreshold = 0.8
	}
	if c.Matching.SingleDateWindow == 0 {
		c.Matching.SingleDateWindow = 7
	}
	if c.Matching.MultiDateWindow == 0 {
		c.Matching.MultiDateWindow = 14
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "ledgermatch.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.Ledger.Token, "LEDGER_TOKEN")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	// First, try the config value
	if configValue != "" {
		return configValue
	}

	// Then try each environment variable in order
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
