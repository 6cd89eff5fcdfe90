package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/wizelai/insight-engine/internal/analysis"
	"github.com/wizelai/insight-engine/internal/benchmark"
	"github.com/wizelai/insight-engine/internal/handler"
	"github.com/wizelai/insight-engine/internal/llm"
	"github.com/wizelai/insight-engine/internal/middleware"
	"github.com/wizelai/insight-engine/internal/schema"
	"github.com/wizelai/insight-engine/internal/security"
	"github.com/wizelai/insight-engine/internal/sqlgen"
	"github.com/wizelai/insight-engine/internal/store"
	"github.com/wizelai/insight-engine/internal/warehouse"
)

func (s *Server) setupRoutes(ctx context.Context) (http.Handler, error) {
	cfg := s.cfg

	// ─── Model gateway ───────────────────────────────────────────────────────────
	// OpenRouter serves all three model families through one API; a direct
	// Anthropic key is a fallback deployment mode that limits fallback to
	// Anthropic models.
	var provider llm.Provider
	if cfg.OpenRouterAPIKey != "" {
		provider = llm.NewOpenRouterProvider(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.OpenRouterReferer, cfg.OpenRouterTitle)
	} else {
		log.Warn().Msg("OPENROUTER_API_KEY not set - using direct Anthropic provider; non-Anthropic fallback models are unavailable")
		provider = llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL)
	}

	pricing := llm.DefaultPricing()
	for model, p := range cfg.PricingOverrides {
		pricing[model] = llm.ModelPrice{Input: p.Input, Output: p.Output}
	}

	gateway := llm.NewGateway(provider, pricing, llm.DefaultFallbacks(cfg.ModelReasoning, cfg.ModelFallback))

	// ─── Warehouse ───────────────────────────────────────────────────────────────
	executor, err := warehouse.NewClickHouse(warehouse.ClickHouseConfig{
		Addr:         cfg.ClickHouseAddr,
		Database:     cfg.ClickHouseDatabase,
		Username:     cfg.ClickHouseUsername,
		Password:     cfg.ClickHousePassword,
		Secure:       cfg.ClickHouseSecure,
		DialTimeout:  cfg.ClickHouseDialTimeout,
		QueryTimeout: cfg.ClickHouseQueryTimeout,
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, executor)

	// ─── Operational store (optional) ────────────────────────────────────────────
	var opStore *store.Store
	var benchmarks *benchmark.Service
	if cfg.PostgresURL != "" {
		opStore, err = store.New(ctx, store.Config{URL: cfg.PostgresURL})
		if err != nil {
			log.Warn().Err(err).Msg("postgres unavailable - usage records and benchmarks disabled")
		} else {
			s.closers = append(s.closers, closerFunc(func() error { opStore.Close(); return nil }))
			if err := opStore.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("could not ensure operational schema")
			}
			benchmarks = benchmark.NewService(opStore, cfg.BenchmarkTTL)
		}
	} else {
		log.Warn().Msg("POSTGRES_URL not set - usage records and benchmarks disabled")
	}

	// ─── Security ────────────────────────────────────────────────────────────────
	promptVal := security.NewPromptValidator()
	var piiDetector *security.PIIDetector
	if cfg.EnablePIIDetection {
		piiDetector = security.NewPIIDetector(cfg.PIIKeywords)
	}
	var masker *security.DataMasker
	if cfg.EnableDataMasking {
		masker = security.NewDataMasker(cfg.SensitiveColumns)
	}
	audit := security.NewAuditLogger(cfg.EnableAuditLogging)

	validator := security.NewQueryValidator(schema.AllTables(), func(table string) string {
		if tbl, ok := schema.Lookup(table); ok {
			return tbl.DateColumn
		}
		return ""
	})

	// ─── Pipeline ────────────────────────────────────────────────────────────────
	generator := sqlgen.NewGenerator(gateway, validator, cfg.ModelFast)
	analyzer := analysis.NewAnalyzer(gateway, cfg.ModelReasoning, cfg.ModelFallback)

	log.Info().
		Str("model_fast", cfg.ModelFast).
		Str("model_reasoning", cfg.ModelReasoning).
		Str("model_fallback", cfg.ModelFallback).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("data_masking", cfg.EnableDataMasking).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("postgres", opStore != nil).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(executor, pingerOrNil(opStore))
	schemaH := handler.NewSchemaHandler()

	var usage handler.UsageSaver
	if opStore != nil {
		usage = opStore
	}
	var benchGetter handler.BenchmarkGetter
	if benchmarks != nil {
		benchGetter = benchmarks
	}

	askH := handler.NewAskHandler(
		promptVal, piiDetector, masker, audit,
		generator, executor, analyzer, benchGetter, usage,
		cfg.GenerationRetries,
	)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins, cfg.CORSMaxAge)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/ask", askH.Ask)
			r.Get("/schema", schemaH.ListTables)
			r.Get("/schema/{table}", schemaH.GetTable)
		})
	})

	return r, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// pingerOrNil avoids handing the health handler a typed-nil interface.
func pingerOrNil(s *store.Store) handler.Pinger {
	if s == nil {
		return nil
	}
	return s
}
