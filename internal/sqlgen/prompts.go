// Package sqlgen turns natural-language questions into validated ClickHouse
// SQL. Prompt assembly is pure string building over the schema catalog;
// generation goes through the model gateway on the fast tier and every
// candidate passes the query validator before it is returned.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/wizelai/insight-engine/internal/schema"
	"github.com/wizelai/insight-engine/internal/security"
)

// buildSchemaContext renders the catalog entries for the selected tables as
// a markdown block the model can ground column names and types on.
func buildSchemaContext(tables []string) string {
	var b strings.Builder
	b.WriteString("# Available ClickHouse Tables\n\n")

	for _, name := range tables {
		tbl, ok := schema.Lookup(name)
		if !ok {
			continue
		}

		fmt.Fprintf(&b, "## %s\n%s\n\n**Columns:**\n", tbl.Name, tbl.Description)
		for _, col := range tbl.Columns {
			fmt.Fprintf(&b, "- `%s` (%s): %s\n", col.Name, col.Type, col.Description)
		}

		if len(tbl.RequiredFilters) > 0 {
			fmt.Fprintf(&b, "\n**Required Filters:** %s\n", strings.Join(tbl.RequiredFilters, ", "))
		}
		if tbl.DateColumn != "" {
			fmt.Fprintf(&b, "**Date Column:** %s\n", tbl.DateColumn)
		}
		if len(tbl.RateColumns) > 0 {
			fmt.Fprintf(&b, "**Rate Columns (0-10000 scale):** %s\n", strings.Join(tbl.RateColumns, ", "))
			b.WriteString("*Note: Rate columns are stored as integers 0-10000 representing 0-100%. Divide by 100 for percentages.*\n")
		}

		b.WriteString("\n")
	}

	return b.String()
}

// buildExamplesContext renders the worked example queries.
func buildExamplesContext() string {
	var b strings.Builder
	b.WriteString("# Example Queries\n\n")

	for _, ex := range schema.ExampleQueries {
		fmt.Fprintf(&b, "## %s\n%s\n\n```sql\n%s\n```\n\n", ex.Name, ex.Description, strings.TrimSpace(ex.SQL))
	}

	return b.String()
}

// BuildSystemPrompt assembles the full generation prompt for the selected
// tables and tenant scope. The tenant filter literal embedded here is the
// exact predicate the validator later checks for.
func BuildSystemPrompt(tables []string, tenantIDs []string) string {
	filter := security.TenantFilterLiteral(tenantIDs)
	ids := quotedList(tenantIDs)

	var b strings.Builder
	b.WriteString("You are an expert ClickHouse SQL query generator for Klaviyo marketing analytics.\n\n")
	b.WriteString("Your task is to generate **secure**, **efficient** SQL queries based on natural language questions.\n\n")
	b.WriteString(buildSchemaContext(tables))
	b.WriteString("\n")
	b.WriteString(buildExamplesContext())
	b.WriteString("\n# Query Generation Rules\n\n")
	b.WriteString("## CRITICAL SECURITY RULES\n\n")
	b.WriteString("1. **ALWAYS include klaviyo_public_id filter** - Every query MUST filter by klaviyo_public_id\n")
	b.WriteString("2. **Only SELECT queries** - Never generate INSERT, UPDATE, DELETE, DROP, or any other destructive operation\n")
	fmt.Fprintf(&b, "3. **Use provided Klaviyo IDs** - Must filter by: %s\n", ids)
	fmt.Fprintf(&b, "4. **Add LIMIT clause** - Always include a sensible LIMIT (default: %d)\n\n", security.DefaultRowLimit)
	b.WriteString("## SQL Best Practices\n\n")
	b.WriteString("1. **Use proper aggregations** - For averages across campaigns, use weighted averages\n")
	b.WriteString("2. **Handle rate columns** - Rate columns are stored as 0-10000, divide by 100 for percentages\n")
	b.WriteString("3. **Date filtering** - Use proper date comparison with the table's date column\n")
	b.WriteString("4. **Efficient joins** - Only join when necessary, prefer single-table queries\n")
	b.WriteString("5. **Clear column aliases** - Use descriptive aliases for calculated columns\n\n")
	b.WriteString("## Query Structure\n\n")
	b.WriteString("```sql\nSELECT\n  [columns with proper formatting]\nFROM [table]\n")
	fmt.Fprintf(&b, "WHERE %s\n", filter)
	b.WriteString("  AND [additional filters]\n[GROUP BY if aggregating]\n[ORDER BY for sorting]\nLIMIT [reasonable limit]\n```\n\n")
	b.WriteString("## Response Format\n\n")
	b.WriteString("Return ONLY the SQL query, no explanations or markdown. Just the raw SQL.\n\n")
	b.WriteString("If you cannot generate a query (e.g., question is ambiguous), respond with:\n")
	b.WriteString("ERROR: [clear explanation of why query cannot be generated]\n\n")
	b.WriteString("## Example Transformations\n\n")
	b.WriteString("**Question:** \"What are my top 5 campaigns by revenue last month?\"\n\n")
	fmt.Fprintf(&b, "**SQL:**\n```sql\nSELECT\n  campaign_name,\n  SUM(conversion_value) as total_revenue,\n  SUM(recipients) as total_recipients,\n  AVG(open_rate) / 100.0 as avg_open_rate\nFROM campaign_statistics\nWHERE %s\n  AND date >= toDate(now()) - INTERVAL 1 MONTH\n  AND date < toDate(now())\nGROUP BY campaign_name\nORDER BY total_revenue DESC\nLIMIT 5\n```\n\n", filter)
	b.WriteString("**Question:** \"Show me daily revenue trends for the last 30 days\"\n\n")
	fmt.Fprintf(&b, "**SQL:**\n```sql\nSELECT\n  date,\n  total_revenue,\n  total_orders,\n  avg_order_value\nFROM account_metrics_daily\nWHERE %s\n  AND date >= toDate(now()) - INTERVAL 30 DAY\nORDER BY date ASC\nLIMIT 100\n```\n\n", filter)
	b.WriteString("Remember: Security first, efficiency second, accuracy third.")

	return b.String()
}

// BuildUserPrompt wraps the question with the per-request reminders.
func BuildUserPrompt(question string, tenantIDs []string) string {
	return fmt.Sprintf(`Generate a ClickHouse SQL query for this question:

%q

Remember:
- Filter by %s
- Use proper rate column handling (divide by 100)
- Add appropriate LIMIT
- Return ONLY the SQL query`, question, security.TenantFilterLiteral(tenantIDs))
}

func quotedList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	return strings.Join(quoted, ", ")
}
