// Package security holds the deterministic request/response guards: SQL
// validation with tenant-isolation enforcement, prompt validation, PII
// detection, data masking and audit logging. Nothing in this package makes
// a network call.
package security

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// TenantColumn is the warehouse column every query must filter by.
	TenantColumn = "klaviyo_public_id"

	// DefaultRowLimit is injected when a candidate query has no LIMIT.
	DefaultRowLimit = 100

	// MaxRowLimit caps any LIMIT the model chose itself.
	MaxRowLimit = 10000
)

// TenantFilterLiteral renders tenant ids as the SQL IN-list used in both
// generation prompts and validation. The format is load-bearing: the prompt
// assembler instructs the model to emit exactly this predicate and the
// validator checks for it.
func TenantFilterLiteral(tenantIDs []string) string {
	quoted := make([]string, len(tenantIDs))
	for i, id := range tenantIDs {
		quoted[i] = "'" + id + "'"
	}
	return fmt.Sprintf("%s IN (%s)", TenantColumn, strings.Join(quoted, ", "))
}

// ValidationResult is the outcome of validating one candidate query.
// Sanitized is populated only when Valid is true; callers must never
// execute the original candidate on failure.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Sanitized string   `json:"sanitized,omitempty"`
	Error     string   `json:"error,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Tables    []string `json:"tables,omitempty"`
}

// destructiveKeywords are rejected anywhere in the statement. Word
// boundaries keep column names like updated_at from matching.
var destructiveKeywords = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|CREATE|REPLACE|GRANT|REVOKE|EXEC|EXECUTE)\b`)

// injectionPatterns reject SQL comments and classic injection shapes.
// Comments are rejected outright, which also closes the "keyword hidden in
// a comment" hole: there is nowhere left to hide one.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`--`),
	regexp.MustCompile(`/\*`),
	regexp.MustCompile(`(?i)\bUNION\s+SELECT\b`),
	regexp.MustCompile(`(?i)\bOR\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bAND\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bOR\s+'1'\s*=\s*'1'`),
	regexp.MustCompile(`(?i)\bxp_cmdshell\b`),
	regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`),
	regexp.MustCompile(`(?i)\bLOAD_FILE\s*\(`),
	regexp.MustCompile(`(?i)\bSLEEP\s*\(`),
}

var (
	multiStatementRe = regexp.MustCompile(`;\s*\S`)
	fromJoinRe       = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	limitRe          = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	tenantPredicateRe = regexp.MustCompile(
		`(?i)\b` + TenantColumn + `\s*(?:=\s*'([^']*)'|IN\s*\(([^)]*)\))`)
	quotedLiteralRe = regexp.MustCompile(`'([^']*)'`)
)

// QueryValidator validates model-generated SQL against the table allowlist
// and the caller's tenant scope.
type QueryValidator struct {
	allowedTables map[string]bool
	dateColumn    func(table string) string
}

// NewQueryValidator builds a validator allowing exactly the given tables.
// dateColumn maps a table to its date column for the missing-date-filter
// warning; pass nil to disable that warning.
func NewQueryValidator(allowedTables []string, dateColumn func(table string) string) *QueryValidator {
	set := make(map[string]bool, len(allowedTables))
	for _, t := range allowedTables {
		set[strings.ToLower(t)] = true
	}
	if dateColumn == nil {
		dateColumn = func(string) string { return "" }
	}
	return &QueryValidator{allowedTables: set, dateColumn: dateColumn}
}

// Validate runs the ordered checks from the security design: single
// read-only statement, no destructive keywords or comment/injection
// patterns, allowed tables only, a tenant filter covering exactly the
// authorized scope, and a bounded LIMIT (injected if missing). Checks
// short-circuit; a failed check never yields a sanitized query.
func (v *QueryValidator) Validate(sql string, tenantIDs []string) ValidationResult {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return reject("SQL query must be a non-empty string")
	}
	if len(tenantIDs) == 0 {
		return reject("no tenant ids provided for filtering")
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return reject("query must start with SELECT; only read operations are allowed")
	}
	if multiStatementRe.MatchString(trimmed) {
		return reject("multiple SQL statements not allowed; only a single SELECT is permitted")
	}
	if m := destructiveKeywords.FindString(trimmed); m != "" {
		return reject(fmt.Sprintf("dangerous keyword detected: %s; only SELECT queries are allowed", strings.ToUpper(m)))
	}
	for _, p := range injectionPatterns {
		if p.MatchString(trimmed) {
			return reject("SQL injection pattern detected: " + p.String())
		}
	}

	tables, err := v.checkTables(trimmed)
	if err != "" {
		return reject(err)
	}

	if errMsg := checkTenantFilter(trimmed, upper, tenantIDs); errMsg != "" {
		return reject(errMsg)
	}

	sanitized, warnings := v.sanitize(trimmed, tables)

	return ValidationResult{
		Valid:     true,
		Sanitized: sanitized,
		Warnings:  warnings,
		Tables:    tables,
	}
}

func reject(msg string) ValidationResult {
	return ValidationResult{Valid: false, Error: msg}
}

func (v *QueryValidator) checkTables(sql string) (tables []string, errMsg string) {
	seen := make(map[string]bool)
	for _, m := range fromJoinRe.FindAllStringSubmatch(sql, -1) {
		name := strings.ToLower(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		tables = append(tables, name)
	}
	if len(tables) == 0 {
		return nil, "no tables found in query"
	}
	for _, t := range tables {
		if !v.allowedTables[t] {
			return nil, fmt.Sprintf("table %q is not in the allowed table list", t)
		}
	}
	return tables, ""
}

// checkTenantFilter enforces the tenant isolation invariant. The predicate
// must live in the WHERE clause, every authorized id must appear as a quoted
// literal inside a klaviyo_public_id predicate, and no id outside the
// authorized scope may appear. Substring presence of the raw id elsewhere in
// the query does not count.
func checkTenantFilter(sql, upper string, tenantIDs []string) string {
	whereIdx := strings.Index(upper, "WHERE")
	if whereIdx == -1 {
		return "query must include a WHERE clause with a " + TenantColumn + " filter"
	}

	matches := tenantPredicateRe.FindAllStringSubmatchIndex(sql, -1)
	if len(matches) == 0 {
		return "query must include a " + TenantColumn + " filter for tenant isolation"
	}

	found := make(map[string]bool)
	for _, m := range matches {
		if m[0] < whereIdx {
			return TenantColumn + " filter must appear in the WHERE clause"
		}
		predicate := sql[m[0]:m[1]]
		for _, lit := range quotedLiteralRe.FindAllStringSubmatch(predicate, -1) {
			found[lit[1]] = true
		}
	}

	authorized := make(map[string]bool, len(tenantIDs))
	var missing []string
	for _, id := range tenantIDs {
		authorized[id] = true
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Sprintf("query must filter by all authorized tenant ids; missing: %s", strings.Join(missing, ", "))
	}
	for id := range found {
		if !authorized[id] {
			return fmt.Sprintf("query references tenant id %q outside the authorized scope", id)
		}
	}
	return ""
}

// sanitize trims trailing semicolons, injects or clamps LIMIT and collects
// non-fatal warnings.
func (v *QueryValidator) sanitize(sql string, tables []string) (string, []string) {
	var warnings []string

	sanitized := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))

	if m := limitRe.FindStringSubmatch(sanitized); m == nil {
		sanitized += fmt.Sprintf(" LIMIT %d", DefaultRowLimit)
		warnings = append(warnings, fmt.Sprintf("no LIMIT clause present; default LIMIT %d applied", DefaultRowLimit))
	} else if n, err := strconv.Atoi(m[1]); err == nil && n > MaxRowLimit {
		sanitized = limitRe.ReplaceAllString(sanitized, fmt.Sprintf("LIMIT %d", MaxRowLimit))
		warnings = append(warnings, fmt.Sprintf("LIMIT %d exceeds ceiling; clamped to %d", n, MaxRowLimit))
	}

	if !v.hasDateFilter(sanitized, tables) {
		warnings = append(warnings, "no date filter present; results may span all time")
	}

	return sanitized, warnings
}

// hasDateFilter reports whether the query references the date column of any
// used table. Tables without a date column are exempt.
func (v *QueryValidator) hasDateFilter(sql string, tables []string) bool {
	lower := strings.ToLower(sql)
	dated := false
	for _, t := range tables {
		col := v.dateColumn(t)
		if col == "" {
			continue
		}
		dated = true
		if strings.Contains(lower, col) {
			return true
		}
	}
	return !dated
}
