package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterReferer = "https://wizel.ai"
	DefaultOpenRouterTitle   = "Wizel Insight Engine"

	DefaultModelFast      = "anthropic/claude-haiku-4.5"
	DefaultModelReasoning = "anthropic/claude-sonnet-4.5"
	DefaultModelFallback  = "google/gemini-2.5-pro"

	DefaultGenerationRetries = 2

	DefaultClickHouseAddr         = "localhost:9000"
	DefaultClickHouseDatabase     = "analytics"
	DefaultClickHouseDialTimeout  = 10 * time.Second
	DefaultClickHouseQueryTimeout = 30 * time.Second

	DefaultBenchmarkTTL = time.Hour

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

var DefaultSensitiveColumns = []string{
	"email", "phone", "credit_card", "password", "secret",
	"token", "api_key", "access_key", "private_key",
}
