package models

import "github.com/wizelai/insight-engine/internal/llm"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// CostSummary aggregates the model spend of one request.
type CostSummary struct {
	TotalUSD    float64          `json:"total_usd"`
	TotalTokens int              `json:"total_tokens"`
	Calls       []llm.CostRecord `json:"calls"`
}

// AskResponse is returned by POST /api/v1/ask.
type AskResponse struct {
	Status   string                   `json:"status"`
	SQL      string                   `json:"sql"`
	Tables   []string                 `json:"tables"`
	Warnings []string                 `json:"warnings,omitempty"`
	Columns  []string                 `json:"columns,omitempty"`
	Data     []map[string]interface{} `json:"data,omitempty"`
	RowCount int                      `json:"row_count"`
	Analysis string                   `json:"analysis,omitempty"`

	Model           string      `json:"model"`
	AnalysisModel   string      `json:"analysis_model,omitempty"`
	Cost            CostSummary `json:"cost"`
	ExecutionTimeMs int64       `json:"execution_time_ms"`
	DryRun          bool        `json:"dry_run,omitempty"`
}

// TableInfo is one catalog entry in GET /api/v1/schema.
type TableInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []Column `json:"columns"`
	DateColumn  string   `json:"date_column,omitempty"`
	RateColumns []string `json:"rate_columns,omitempty"`
}

// Column is one column in a TableInfo.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}
