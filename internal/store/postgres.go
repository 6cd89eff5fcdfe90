// Package store persists operational data that does not belong in the
// analytics warehouse: per-request model usage records and industry
// benchmark data.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wizelai/insight-engine/internal/benchmark"
	"github.com/wizelai/insight-engine/internal/llm"
)

// Config holds Postgres connection settings.
type Config struct {
	URL             string        `json:"url"`
	MaxConnections  int32         `json:"max_connections"`
	MaxConnLifetime time.Duration `json:"max_conn_lifetime"`
}

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the operational tables if missing. Applied at
// startup; safe to run repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS model_usage (
			id            BIGSERIAL PRIMARY KEY,
			request_id    TEXT NOT NULL,
			tenant_ids    TEXT[] NOT NULL,
			model         TEXT NOT NULL,
			operation     TEXT NOT NULL,
			tier          TEXT NOT NULL,
			input_tokens  BIGINT NOT NULL,
			output_tokens BIGINT NOT NULL,
			cost_usd      DOUBLE PRECISION NOT NULL,
			fallback      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS model_usage_request_idx ON model_usage (request_id);

		CREATE TABLE IF NOT EXISTS industry_benchmarks (
			vertical   TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveUsage persists the cost records accumulated for one request.
func (s *Store) SaveUsage(ctx context.Context, requestID string, tenantIDs []string, records []llm.CostRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO model_usage
				(request_id, tenant_ids, model, operation, tier, input_tokens, output_tokens, cost_usd, fallback)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			requestID, tenantIDs, rec.Model, rec.Operation, rec.Tier,
			rec.InputTokens, rec.OutputTokens, rec.CostUSD, rec.Fallback)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save usage: %w", err)
		}
	}
	return nil
}

// BenchmarkByVertical loads one vertical's benchmark payload. A missing
// vertical is not an error; it returns nil.
func (s *Store) BenchmarkByVertical(ctx context.Context, vertical string) (*benchmark.Benchmark, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM industry_benchmarks WHERE vertical = $1`, vertical,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load benchmark: %w", err)
	}

	var bench benchmark.Benchmark
	if err := json.Unmarshal(payload, &bench); err != nil {
		return nil, fmt.Errorf("decode benchmark payload: %w", err)
	}
	if bench.Vertical == "" {
		bench.Vertical = vertical
	}
	return &bench, nil
}

// Ping reports pool health for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
