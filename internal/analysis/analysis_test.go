package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wizelai/insight-engine/internal/benchmark"
	"github.com/wizelai/insight-engine/internal/llm"
)

type fakeChat struct {
	text string
	err  error
	req  llm.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResult{Text: f.text, Model: req.Model}, nil
}

func (f *fakeChat) ChatStream(_ context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{Text: f.text}
	close(ch)
	return ch, nil
}

func sampleRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"campaign_name": "Spring Sale", "total_revenue": 5000.0, "recipients": 1200},
		{"campaign_name": "VIP Drop", "total_revenue": 3000.0, "recipients": 400},
	}
}

func TestAnalyzeRequestShape(t *testing.T) {
	chat := &fakeChat{text: "# Executive Summary\nGood quarter."}
	a := NewAnalyzer(chat, "", "")

	res, err := a.Analyze(context.Background(), "how did campaigns do?", "SELECT 1", sampleRows(), Context{
		StoreNames: []string{"Acme Store"},
		Industry:   "Fashion",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Text == "" {
		t.Fatal("expected analysis text")
	}

	req := chat.req
	if req.Model != llm.DefaultModelSonnet {
		t.Fatalf("model = %s", req.Model)
	}
	if !req.EnableFallback || req.FallbackModel != llm.DefaultModelGemini {
		t.Fatalf("fallback not configured: %+v", req)
	}
	if req.Temperature != 0.7 || req.MaxTokens != 4096 {
		t.Fatalf("unexpected params: temp=%v max=%d", req.Temperature, req.MaxTokens)
	}

	sys := req.Messages[0].Content
	if !strings.Contains(sys, "Acme Store") || !strings.Contains(sys, "Fashion") {
		t.Fatal("system prompt missing business context")
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "SELECT 1") {
		t.Fatal("user prompt missing executed SQL")
	}
	if !strings.Contains(user, "Total Records: 2") {
		t.Fatal("user prompt missing data summary")
	}
}

func TestAnalyzeBenchmarkSection(t *testing.T) {
	chat := &fakeChat{text: "ok"}
	a := NewAnalyzer(chat, "", "")

	_, err := a.Analyze(context.Background(), "q", "SELECT 1", sampleRows(), Context{
		Benchmark: &benchmark.Benchmark{
			Vertical: "beauty",
			Campaigns: map[string]benchmark.MetricBenchmark{
				"openRate": {Median: "38%", Top10: "55%"},
			},
			Insights: []string{"SMS grows fastest in beauty"},
		},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	sys := chat.req.Messages[0].Content
	if !strings.Contains(sys, "INDUSTRY BENCHMARK CONTEXT (beauty)") {
		t.Fatal("benchmark section missing")
	}
	if !strings.Contains(sys, "Median 38%") || !strings.Contains(sys, "SMS grows fastest") {
		t.Fatal("benchmark details missing")
	}
}

func TestAnalyzeUnavailable(t *testing.T) {
	cause := errors.New("both models down")
	chat := &fakeChat{err: cause}
	a := NewAnalyzer(chat, "", "")

	_, err := a.Analyze(context.Background(), "q", "SELECT 1", nil, Context{})
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be wrapped")
	}
	if strings.Contains(err.Error(), "down") {
		t.Fatal("user-facing message must not leak the cause")
	}
}

func TestSummarizeRows(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := SummarizeRows(nil); got != "No data available for analysis." {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("stats", func(t *testing.T) {
		rows := []map[string]interface{}{
			{"total_revenue": 100.0, "clicks": 10, "campaign_name": "A"},
			{"total_revenue": 300.0, "clicks": 30, "campaign_name": "B"},
		}
		got := SummarizeRows(rows)
		if !strings.Contains(got, "Total Records: 2") {
			t.Fatalf("missing record count: %s", got)
		}
		if !strings.Contains(got, "total_revenue:") || !strings.Contains(got, "Total: 400.00") {
			t.Fatalf("missing revenue stats: %s", got)
		}
		if !strings.Contains(got, "Average: 200.00") {
			t.Fatalf("missing average: %s", got)
		}
		if !strings.Contains(got, "campaign_name: 2 unique values") {
			t.Fatalf("missing categorical summary: %s", got)
		}
		// money columns come before plain counters
		if strings.Index(got, "total_revenue") > strings.Index(got, "clicks:") {
			t.Fatal("revenue column should rank first")
		}
	})

	t.Run("nullable columns", func(t *testing.T) {
		// Nullable warehouse columns scan as pointers; nil means NULL.
		rev1, rev2 := 100.0, 300.0
		orders := int64(7)
		name := "Spring Sale"
		rows := []map[string]interface{}{
			{"total_revenue": &rev1, "total_orders": &orders, "campaign_name": &name},
			{"total_revenue": &rev2, "total_orders": (*int64)(nil), "campaign_name": (*string)(nil)},
		}
		got := SummarizeRows(rows)
		if !strings.Contains(got, "total_revenue:") || !strings.Contains(got, "Total: 400.00") {
			t.Fatalf("nullable revenue column missing from stats: %s", got)
		}
		if !strings.Contains(got, "total_orders:") || !strings.Contains(got, "Total: 7.00") {
			t.Fatalf("nullable integer column missing from stats: %s", got)
		}
		if !strings.Contains(got, "Spring Sale") {
			t.Fatalf("nullable string column missing from categorical sample: %s", got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		rows := sampleRows()
		if SummarizeRows(rows) != SummarizeRows(rows) {
			t.Fatal("summary not deterministic")
		}
	})
}
