package warehouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"reflect"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog/log"
)

// ClickHouseConfig holds connection settings for the analytics cluster.
type ClickHouseConfig struct {
	Addr         []string      `json:"addr"`
	Database     string        `json:"database"`
	Username     string        `json:"username"`
	Password     string        `json:"password"`
	Secure       bool          `json:"secure"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	QueryTimeout time.Duration `json:"query_timeout"`
	MaxOpenConns int           `json:"max_open_conns"`
}

// ClickHouse is the production Executor.
type ClickHouse struct {
	conn         driver.Conn
	queryTimeout time.Duration
}

func NewClickHouse(cfg ClickHouseConfig) (*ClickHouse, error) {
	opts := &clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:  cfg.DialTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		Settings: clickhouse.Settings{
			"readonly": 1,
		},
	}
	if cfg.Secure {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ClickHouse{conn: conn, queryTimeout: timeout}, nil
}

// Query runs one sanitized SELECT and materializes all rows.
func (c *ClickHouse) Query(ctx context.Context, sql string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := c.conn.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	defer rows.Close()

	columnTypes := rows.ColumnTypes()
	columns := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = ct.Name()
	}

	result := &Result{Columns: columns, Rows: []map[string]interface{}{}}
	for rows.Next() {
		values := make([]interface{}, len(columnTypes))
		for i, ct := range columnTypes {
			values[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(values...); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = reflect.ValueOf(values[i]).Elem().Interface()
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse rows: %w", err)
	}

	log.Debug().
		Int("rows", len(result.Rows)).
		Dur("duration", time.Since(start)).
		Msg("warehouse query")

	return result, nil
}

func (c *ClickHouse) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
