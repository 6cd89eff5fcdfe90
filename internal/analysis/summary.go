// Package analysis turns query results into a marketing analysis using the
// high-reasoning tier with an explicit fallback model. The data summary fed
// to the model is computed deterministically here, not by a model.
package analysis

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const (
	maxNumericColumns     = 10
	maxCategoricalColumns = 5
	maxUniqueValues       = 20
	categoricalSampleRows = 100
)

// SummarizeRows produces a compact statistical overview of result rows:
// per-column totals, averages, medians and ranges for numeric columns
// (money columns first), plus unique-value samples for low-cardinality
// string columns. Numbers never leave this function rounded differently
// between calls; the output is deterministic for a given input.
func SummarizeRows(rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return "No data available for analysis."
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Dataset Overview:\n- Total Records: %d", len(rows)))

	numeric := collectNumeric(rows)
	for _, col := range rankNumericColumns(numeric) {
		values := numeric[col]
		sum := 0.0
		min, max := values[0], values[0]
		for _, v := range values {
			sum += v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		avg := sum / float64(len(values))

		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		median := sorted[len(sorted)/2]

		parts = append(parts, fmt.Sprintf(
			"\n%s:\n  - Total: %.2f\n  - Average: %.2f\n  - Median: %.2f\n  - Range: %.2f to %.2f",
			col, sum, avg, median, min, max))
	}

	parts = append(parts, summarizeCategorical(rows)...)

	return strings.Join(parts, "\n")
}

func collectNumeric(rows []map[string]interface{}) map[string][]float64 {
	numeric := make(map[string][]float64)
	for _, row := range rows {
		for col, val := range row {
			if f, ok := asFloat(val); ok {
				numeric[col] = append(numeric[col], f)
			}
		}
	}
	return numeric
}

// rankNumericColumns orders columns money-first, then by total magnitude,
// and caps the list.
func rankNumericColumns(numeric map[string][]float64) []string {
	type ranked struct {
		col   string
		money bool
		sum   float64
	}

	cols := make([]ranked, 0, len(numeric))
	for col, values := range numeric {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		lower := strings.ToLower(col)
		cols = append(cols, ranked{
			col:   col,
			money: strings.Contains(lower, "revenue") || strings.Contains(lower, "value"),
			sum:   sum,
		})
	}

	sort.Slice(cols, func(i, j int) bool {
		if cols[i].money != cols[j].money {
			return cols[i].money
		}
		if cols[i].sum != cols[j].sum {
			return cols[i].sum > cols[j].sum
		}
		return cols[i].col < cols[j].col
	})

	if len(cols) > maxNumericColumns {
		cols = cols[:maxNumericColumns]
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.col
	}
	return out
}

func summarizeCategorical(rows []map[string]interface{}) []string {
	sample := rows
	if len(sample) > categoricalSampleRows {
		sample = sample[:categoricalSampleRows]
	}

	uniques := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, row := range sample {
		for col, val := range row {
			s, ok := asString(val)
			if !ok || len(s) >= 100 {
				continue
			}
			if seen[col] == nil {
				seen[col] = make(map[string]bool)
			}
			if !seen[col][s] {
				seen[col][s] = true
				uniques[col] = append(uniques[col], s)
			}
		}
	}

	cols := make([]string, 0, len(uniques))
	for col := range uniques {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	if len(cols) > maxCategoricalColumns {
		cols = cols[:maxCategoricalColumns]
	}

	var parts []string
	for _, col := range cols {
		values := uniques[col]
		if len(values) == 0 || len(values) > maxUniqueValues {
			continue
		}
		preview := values
		if len(preview) > 5 {
			preview = preview[:5]
		}
		parts = append(parts, fmt.Sprintf(
			"\n%s: %d unique values\n  - Sample: %s",
			col, len(values), strings.Join(preview, ", ")))
	}
	return parts
}

func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *string:
		if s == nil {
			return "", false
		}
		return *s, true
	}
	return "", false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}

	// Nullable warehouse columns scan as pointers (*float64 and friends),
	// populated or not. Unwrap set values so nullable revenue/AOV columns
	// still reach the summary.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return 0, false
		}
		return asFloat(rv.Elem().Interface())
	}
	return 0, false
}
