package config

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`
	CORSMaxAge  int      `json:"cors_max_age"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Model providers. OpenRouter is the default transport; a direct
	// Anthropic key switches provider for anthropic/ models.
	OpenRouterAPIKey  string `json:"openrouter_api_key"`
	OpenRouterBaseURL string `json:"openrouter_base_url"`
	OpenRouterReferer string `json:"openrouter_referer"`
	OpenRouterTitle   string `json:"openrouter_title"`
	AnthropicAPIKey   string `json:"anthropic_api_key"`
	AnthropicBaseURL  string `json:"anthropic_base_url"`

	// Models
	ModelFast      string `json:"model_fast"`
	ModelReasoning string `json:"model_reasoning"`
	ModelFallback  string `json:"model_fallback"`

	// Pricing overrides: model id -> {input, output} USD per 1M tokens.
	PricingOverrides map[string]struct {
		Input  float64 `json:"input"`
		Output float64 `json:"output"`
	} `json:"pricing_overrides"`

	GenerationRetries int `json:"generation_retries"`

	// ClickHouse warehouse
	ClickHouseAddr         []string      `json:"clickhouse_addr"`
	ClickHouseDatabase     string        `json:"clickhouse_database"`
	ClickHouseUsername     string        `json:"clickhouse_username"`
	ClickHousePassword     string        `json:"clickhouse_password"`
	ClickHouseSecure       bool          `json:"clickhouse_secure"`
	ClickHouseDialTimeout  time.Duration `json:"clickhouse_dial_timeout"`
	ClickHouseQueryTimeout time.Duration `json:"clickhouse_query_timeout"`

	// Postgres operational store. Optional; without it usage records and
	// benchmarks are disabled.
	PostgresURL string `json:"postgres_url"`

	BenchmarkTTL time.Duration `json:"benchmark_ttl"`

	// Security
	EnableDataMasking  bool     `json:"enable_data_masking"`
	EnablePIIDetection bool     `json:"enable_pii_detection"`
	SensitiveColumns   []string `json:"sensitive_columns"`
	PIIKeywords        []string `json:"pii_keywords"`
	EnableAuditLogging bool     `json:"enable_audit_logging"`
}

// ErrMissingProviderKey means no model provider credential was configured.
// The service cannot do anything useful without one, so startup fails.
var ErrMissingProviderKey = errors.New("OPENROUTER_API_KEY or ANTHROPIC_API_KEY must be set")

func Load() (*Config, error) {
	cfg := &Config{
		Host:                   DefaultHost,
		Port:                   DefaultPort,
		Environment:            DefaultEnvironment,
		APIPrefix:              DefaultAPIPrefix,
		LogLevel:               DefaultLogLevel,
		CORSOrigins:            DefaultCORSOrigins,
		CORSMaxAge:             DefaultCORSMaxAge,
		APIKeyHeader:           "X-API-Key",
		EnableAuth:             true,
		RateLimitPerMinute:     DefaultRateLimitPerMinute,
		OpenRouterBaseURL:      DefaultOpenRouterBaseURL,
		OpenRouterReferer:      DefaultOpenRouterReferer,
		OpenRouterTitle:        DefaultOpenRouterTitle,
		ModelFast:              DefaultModelFast,
		ModelReasoning:         DefaultModelReasoning,
		ModelFallback:          DefaultModelFallback,
		GenerationRetries:      DefaultGenerationRetries,
		ClickHouseAddr:         []string{DefaultClickHouseAddr},
		ClickHouseDatabase:     DefaultClickHouseDatabase,
		ClickHouseDialTimeout:  DefaultClickHouseDialTimeout,
		ClickHouseQueryTimeout: DefaultClickHouseQueryTimeout,
		BenchmarkTTL:           DefaultBenchmarkTTL,
		EnableDataMasking:      true,
		EnablePIIDetection:     true,
		SensitiveColumns:       DefaultSensitiveColumns,
		EnableAuditLogging:     true,
	}

	// Load from JSON config file if specified
	if path := getEnv("INSIGHT_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	if cfg.OpenRouterAPIKey == "" && cfg.AnthropicAPIKey == "" {
		return nil, ErrMissingProviderKey
	}

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("INSIGHT_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("INSIGHT_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("INSIGHT_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("INSIGHT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("INSIGHT_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("OPENROUTER_API_KEY", ""); v != "" {
		cfg.OpenRouterAPIKey = v
	}
	if v := getEnv("OPENROUTER_BASE_URL", ""); v != "" {
		cfg.OpenRouterBaseURL = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("INSIGHT_MODEL_FAST", ""); v != "" {
		cfg.ModelFast = v
	}
	if v := getEnv("INSIGHT_MODEL_REASONING", ""); v != "" {
		cfg.ModelReasoning = v
	}
	if v := getEnv("INSIGHT_MODEL_FALLBACK", ""); v != "" {
		cfg.ModelFallback = v
	}
	if v := getEnv("CLICKHOUSE_ADDR", ""); v != "" {
		cfg.ClickHouseAddr = strings.Split(v, ",")
	}
	if v := getEnv("CLICKHOUSE_DATABASE", ""); v != "" {
		cfg.ClickHouseDatabase = v
	}
	if v := getEnv("CLICKHOUSE_USERNAME", ""); v != "" {
		cfg.ClickHouseUsername = v
	}
	if v := getEnv("CLICKHOUSE_PASSWORD", ""); v != "" {
		cfg.ClickHousePassword = v
	}
	if v := getEnv("CLICKHOUSE_SECURE", ""); v != "" {
		cfg.ClickHouseSecure = v == "true" || v == "1"
	}
	if v := getEnv("POSTGRES_URL", ""); v != "" {
		cfg.PostgresURL = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("INSIGHT_GENERATION_RETRIES", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil && r > 0 {
			cfg.GenerationRetries = r
		}
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
