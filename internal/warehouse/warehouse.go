// Package warehouse executes validated read-only queries against the
// analytics store. Only sanitized SQL from the query validator may reach an
// Executor.
package warehouse

import "context"

// Result is one query's rows in column order.
type Result struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

// Executor runs read-only queries.
type Executor interface {
	Query(ctx context.Context, sql string) (*Result, error)
	Ping(ctx context.Context) error
	Close() error
}
