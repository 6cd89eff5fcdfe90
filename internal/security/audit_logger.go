package security

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// AuditLogger records security-relevant pipeline events. Question and SQL
// text are logged as truncated SHA-256 hashes so audit lines can be
// correlated without leaking tenant data into logs.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogGeneration records one question-to-SQL generation outcome.
func (a *AuditLogger) LogGeneration(
	question string,
	tenantIDs []string,
	generatedSQL string,
	model string,
	attempts int,
	validationPassed bool,
	durationMs int64,
) {
	if !a.enabled {
		return
	}
	sqlHash := ""
	if generatedSQL != "" {
		sqlHash = hashStr(generatedSQL)[:16]
	}

	log.Info().
		Str("event", "generation_audit").
		Str("question_hash", hashStr(question)[:16]).
		Str("tenants", strings.Join(tenantIDs, ",")).
		Str("sql_hash", sqlHash).
		Str("model", model).
		Int("attempts", attempts).
		Bool("validation_passed", validationPassed).
		Int64("duration_ms", durationMs).
		Msg("generation audit")
}

// LogExecution records one warehouse query execution.
func (a *AuditLogger) LogExecution(
	sql string,
	tenantIDs []string,
	rowCount int,
	durationMs int64,
	success bool,
	errMsg string,
) {
	if !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "execution_audit").
		Str("sql_hash", hashStr(sql)[:16]).
		Str("tenants", strings.Join(tenantIDs, ",")).
		Int("row_count", rowCount).
		Int64("duration_ms", durationMs).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("execution audit")
}

// LogRejection records a question or query stopped by a security check.
func (a *AuditLogger) LogRejection(stage, reason string, tenantIDs []string) {
	if !a.enabled {
		return
	}
	log.Warn().
		Str("event", "security_rejection").
		Str("stage", stage).
		Str("reason", reason).
		Str("tenants", strings.Join(tenantIDs, ",")).
		Msg("request rejected")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
