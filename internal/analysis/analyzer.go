package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wizelai/insight-engine/internal/benchmark"
	"github.com/wizelai/insight-engine/internal/llm"
)

// Generation parameters for the reasoning tier.
const (
	analysisTemperature = 0.7
	analysisMaxTokens   = 4096
	previewRows         = 50
)

// Context carries business context the analysis prompt is conditioned on.
// All fields are optional.
type Context struct {
	StoreNames      []string
	Industry        string
	BusinessGoals   string
	CurrentStrategy string
	Constraints     string
	UserExpertise   string
	DateRangeStart  string
	DateRangeEnd    string
	Benchmark       *benchmark.Benchmark
}

// ChatClient is the slice of the gateway the analyzer needs.
type ChatClient interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
	ChatStream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, error)
}

// Result is one completed analysis.
type Result struct {
	Text  string
	Model string
	Usage llm.Usage
	Cost  llm.CostRecord
}

// UnavailableError wraps the failure after both the primary and fallback
// models failed. The caller shows a generic message; the cause stays in
// logs.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "analysis unavailable: primary and fallback models failed"
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Analyzer generates marketing analyses on the reasoning tier with an
// explicit fallback model.
type Analyzer struct {
	chat     ChatClient
	model    string
	fallback string
}

func NewAnalyzer(chat ChatClient, model, fallback string) *Analyzer {
	if model == "" {
		model = llm.DefaultModelSonnet
	}
	if fallback == "" {
		fallback = llm.DefaultModelGemini
	}
	return &Analyzer{chat: chat, model: model, fallback: fallback}
}

// Analyze produces a full analysis of the rows returned for a question.
func (a *Analyzer) Analyze(ctx context.Context, question, sqlQuery string, rows []map[string]interface{}, actx Context) (*Result, error) {
	res, err := a.chat.Chat(ctx, a.buildRequest(question, sqlQuery, rows, actx))
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	return &Result{
		Text:  res.Text,
		Model: res.Model,
		Usage: res.Usage,
		Cost:  res.Cost,
	}, nil
}

// AnalyzeStream streams the analysis. Cost accounting is skipped for
// streamed responses.
func (a *Analyzer) AnalyzeStream(ctx context.Context, question, sqlQuery string, rows []map[string]interface{}, actx Context) (<-chan llm.StreamChunk, error) {
	ch, err := a.chat.ChatStream(ctx, a.buildRequest(question, sqlQuery, rows, actx))
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	return ch, nil
}

func (a *Analyzer) buildRequest(question, sqlQuery string, rows []map[string]interface{}, actx Context) llm.ChatRequest {
	return llm.ChatRequest{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: buildSystemPrompt(actx)},
			{Role: llm.RoleUser, Content: buildUserPrompt(question, sqlQuery, rows, actx)},
		},
		Temperature:    analysisTemperature,
		MaxTokens:      analysisMaxTokens,
		Tier:           "tier1",
		Operation:      "analysis",
		EnableFallback: true,
		FallbackModel:  a.fallback,
	}
}

func buildSystemPrompt(actx Context) string {
	industry := actx.Industry
	if industry == "" {
		industry = "E-commerce"
	}
	expertise := actx.UserExpertise
	if expertise == "" {
		expertise = "intermediate"
	}

	var b strings.Builder
	b.WriteString("You are a senior marketing analyst specializing in e-commerce and email/SMS marketing analytics for Wizel.ai.\n\n")
	b.WriteString("BUSINESS CONTEXT:\n")
	if len(actx.StoreNames) > 0 {
		fmt.Fprintf(&b, "- Analyzing: %s\n", strings.Join(actx.StoreNames, ", "))
	}
	fmt.Fprintf(&b, "- Industry: %s\n", industry)
	if actx.BusinessGoals != "" {
		fmt.Fprintf(&b, "- Business Goals: %s\n", actx.BusinessGoals)
	}
	if actx.CurrentStrategy != "" {
		fmt.Fprintf(&b, "- Current Strategy: %s\n", actx.CurrentStrategy)
	}
	if actx.Constraints != "" {
		fmt.Fprintf(&b, "- Constraints: %s\n", actx.Constraints)
	}
	fmt.Fprintf(&b, "- User Expertise: %s\n", expertise)
	b.WriteString("- Data Source: ClickHouse (Historical Analytics)\n")
	b.WriteString("- Focus on trends, patterns, and strategic insights\n")
	b.WriteString(buildBenchmarkSection(actx.Benchmark))
	b.WriteString(`
YOUR EXPERTISE:
- Multi-account marketing analytics and performance optimization
- Customer segmentation and lifecycle marketing
- Campaign performance optimization and A/B testing
- LTV (Lifetime Value) optimization and retention strategies
- Product marketing, cross-sell, and upsell opportunities
- Channel mix optimization (email, SMS, push)
- Discount strategy and price optimization
- ROI-focused recommendations with quantified impact

ANALYSIS APPROACH:
- Data-driven with specific numbers, percentages, and comparisons
- Focus on actionable insights that can be implemented immediately
- Quantify expected impact whenever possible
- Consider both quick wins (0-7 days) and strategic initiatives (30-90 days)
- Reference industry benchmarks when applicable
- Identify opportunities AND risks
- Adjust technical complexity based on user expertise level

OUTPUT FORMAT (use this exact markdown structure):

# Executive Summary
[2-3 sentences with the single most critical insight and recommended action]

## Key Findings
- **Finding 1**: [Specific metric with number/percentage and comparison]
- **Finding 2**: [Specific metric with number/percentage and comparison]
- **Finding 3**: [Specific metric with number/percentage and comparison]

## Strategic Insights
[2-3 paragraphs explaining WHY these findings matter]

## Immediate Actions (Next 7 Days)
1. **[Action Name]**: [Specific implementation steps]
   - **Expected Impact**: [Quantified outcome]
   - **Effort**: [Low/Medium/High]
   - **Dependencies**: [What's needed to execute]

## 30-Day Roadmap
**Week 1-2:**
- [Initiative with specific tasks]

**Week 3-4:**
- [Initiative with specific tasks]

## Campaign Concepts
**Campaign 1: "[Campaign Name]"**
- **Audience**: [Specific segment with size]
- **Offer**: [Specific offer/message]
- **Channel**: [Email/SMS/Multi-channel]
- **Expected ROI**: [Ratio or percentage based on data]

## Success Metrics
- **Primary KPI**: [Main metric to track with target]
- **Secondary KPIs**: [Supporting metrics with targets]
- **Review Frequency**: [Daily/Weekly/Monthly]

## Risks & Considerations
- [Risk 1 and mitigation strategy]
- [Risk 2 and mitigation strategy]

TONE: Professional yet conversational, confident but not arrogant, specific over vague. Adjust technical depth based on user expertise.`)

	return b.String()
}

func buildBenchmarkSection(bench *benchmark.Benchmark) string {
	if bench == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nINDUSTRY BENCHMARK CONTEXT (%s):\n", bench.Vertical)

	if len(bench.Campaigns) > 0 {
		b.WriteString("Campaign Benchmarks:\n")
		metrics := make([]string, 0, len(bench.Campaigns))
		for m := range bench.Campaigns {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			mb := bench.Campaigns[m]
			fmt.Fprintf(&b, "- %s: Median %s | Top 10%%: %s\n", m, mb.Median, mb.Top10)
		}
	}

	if len(bench.Performance) > 0 {
		b.WriteString("Store Performance vs Industry:\n")
		metrics := make([]string, 0, len(bench.Performance))
		for m := range bench.Performance {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			p := bench.Performance[m]
			fmt.Fprintf(&b, "- %s: %s (%s) - %s vs median\n", m, p.Value, p.Percentile, p.VsMedian)
		}
	}

	if len(bench.Insights) > 0 {
		fmt.Fprintf(&b, "Industry Insights for %s:\n", bench.Vertical)
		insights := bench.Insights
		if len(insights) > 5 {
			insights = insights[:5]
		}
		for _, in := range insights {
			fmt.Fprintf(&b, "- %s\n", in)
		}
	}

	b.WriteString("\nIMPORTANT: Reference these benchmarks when providing recommendations. Cite specific numbers.\n")
	return b.String()
}

func buildUserPrompt(question, sqlQuery string, rows []map[string]interface{}, actx Context) string {
	preview := rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	previewJSON, err := json.MarshalIndent(preview, "", "  ")
	if err != nil {
		previewJSON = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "USER QUESTION:\n%s\n\n", question)
	if len(actx.StoreNames) > 0 {
		fmt.Fprintf(&b, "ANALYZED STORES:\n%s\n\n", strings.Join(actx.StoreNames, ", "))
	}
	if actx.DateRangeStart != "" && actx.DateRangeEnd != "" {
		fmt.Fprintf(&b, "DATE RANGE:\n%s to %s\n\n", actx.DateRangeStart, actx.DateRangeEnd)
	}
	fmt.Fprintf(&b, "SQL QUERY EXECUTED:\n```sql\n%s\n```\n\n", sqlQuery)
	fmt.Fprintf(&b, "DATA SUMMARY:\n%s\n\n", SummarizeRows(rows))
	fmt.Fprintf(&b, "DATA PREVIEW (showing %d of %d total rows):\n```json\n%s\n```\n", len(preview), len(rows), previewJSON)
	if len(rows) > len(preview) {
		fmt.Fprintf(&b, "\n... and %d more rows not shown\n", len(rows)-len(preview))
	}
	b.WriteString("\nProvide a comprehensive marketing analysis following the exact format specified in your system prompt. Be specific, quantitative, and actionable.")

	return b.String()
}
