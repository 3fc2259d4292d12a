// Package common provides shared utilities for Stockpilot
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Stockpilot
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Cache       CacheConfig     `toml:"cache"`
	Clients     ClientsConfig   `toml:"clients"`
	Narrative   NarrativeConfig `toml:"narrative"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CacheConfig holds the collector response cache configuration.
type CacheConfig struct {
	Path string `toml:"path"`
	TTL  string `toml:"ttl"`
}

// GetTTL parses and returns the cache TTL duration
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// ClientsConfig holds market data provider configurations
type ClientsConfig struct {
	Yahoo ProviderConfig `toml:"yahoo"`
	Stooq ProviderConfig `toml:"stooq"`
}

// ProviderConfig holds configuration for a market data provider client
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// NarrativeConfig holds language-model narrative configuration.
// The narrative call only rephrases deterministic analysis text; the
// backend may be "ollama", "gemini", or "none".
type NarrativeConfig struct {
	Backend string       `toml:"backend"`
	Timeout string       `toml:"timeout"`
	Ollama  OllamaConfig `toml:"ollama"`
	Gemini  GeminiConfig `toml:"gemini"`
}

// GetTimeout parses and returns the narrative call timeout
func (c *NarrativeConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

// OllamaConfig holds local model server configuration
type OllamaConfig struct {
	Host  string `toml:"host"`
	Model string `toml:"model"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AnalysisConfig holds the recommendation thresholds and indicator windows.
// These are empirical constants, configurable rather than per-symbol.
type AnalysisConfig struct {
	ShortWindow      int     `toml:"short_window"`
	LongWindow       int     `toml:"long_window"`
	VolatilityWindow int     `toml:"volatility_window"`
	BuyThreshold     float64 `toml:"buy_threshold"`
	SellThreshold    float64 `toml:"sell_threshold"`
	HighConfidence   float64 `toml:"high_confidence"`
	MediumConfidence float64 `toml:"medium_confidence"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: CacheConfig{
			Path: "data/cache",
			TTL:  "15m",
		},
		Clients: ClientsConfig{
			Yahoo: ProviderConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Stooq: ProviderConfig{
				BaseURL:   "https://stooq.com",
				RateLimit: 2,
				Timeout:   "30s",
			},
		},
		Narrative: NarrativeConfig{
			Backend: "ollama",
			Timeout: "20s",
			Ollama: OllamaConfig{
				Host:  "http://localhost:11434",
				Model: "llama3.1",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Analysis: AnalysisConfig{
			ShortWindow:      20,
			LongWindow:       50,
			VolatilityWindow: 20,
			BuyThreshold:     0.02,
			SellThreshold:    0.02,
			HighConfidence:   2.0,
			MediumConfidence: 1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKPILOT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKPILOT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKPILOT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKPILOT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("STOCKPILOT_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}

	if backend := os.Getenv("STOCKPILOT_NARRATIVE_BACKEND"); backend != "" {
		config.Narrative.Backend = backend
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		config.Narrative.Ollama.Host = host
	}

	if model := os.Getenv("STOCKPILOT_OLLAMA_MODEL"); model != "" {
		config.Narrative.Ollama.Model = model
	}
}

// ResolveAPIKey resolves an API key from environment variables or a config fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "STOCKPILOT_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
