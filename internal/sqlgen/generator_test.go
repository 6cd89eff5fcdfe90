package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wizelai/insight-engine/internal/llm"
	"github.com/wizelai/insight-engine/internal/schema"
	"github.com/wizelai/insight-engine/internal/security"
)

// fakeChat returns queued responses in order, recording requests.
type fakeChat struct {
	responses []string
	errs      []error
	requests  []llm.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return &llm.ChatResult{
		Text:  text,
		Model: req.Model,
		Usage: llm.Usage{PromptTokens: 1200, CompletionTokens: 80},
	}, nil
}

func newTestGenerator(chat ChatClient) *Generator {
	validator := security.NewQueryValidator(schema.TableNames, func(table string) string {
		if tbl, ok := schema.Lookup(table); ok {
			return tbl.DateColumn
		}
		return ""
	})
	return NewGenerator(chat, validator, "anthropic/claude-haiku-4.5")
}

const validSQL = "SELECT campaign_name, SUM(conversion_value) AS total_revenue " +
	"FROM campaign_statistics WHERE klaviyo_public_id IN ('Pe5Xw6') " +
	"AND date >= toDate(now()) - INTERVAL 1 MONTH GROUP BY campaign_name " +
	"ORDER BY total_revenue DESC LIMIT 5"

func TestGenerateValidQuery(t *testing.T) {
	chat := &fakeChat{responses: []string{"```sql\n" + validSQL + "\n```"}}
	g := newTestGenerator(chat)

	res, err := g.Generate(context.Background(), "top campaigns by revenue last month", []string{"Pe5Xw6"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(res.SQL, "```") {
		t.Fatalf("markdown fence not stripped: %s", res.SQL)
	}
	if len(res.Tables) != 1 || res.Tables[0] != "campaign_statistics" {
		t.Fatalf("unexpected tables: %v", res.Tables)
	}

	req := chat.requests[0]
	if req.Temperature != 0.1 || req.MaxTokens != 1000 {
		t.Fatalf("unexpected generation params: temp=%v maxTokens=%d", req.Temperature, req.MaxTokens)
	}
	if req.Operation != "sql_generation" {
		t.Fatalf("unexpected operation tag: %s", req.Operation)
	}
	sys := req.Messages[0].Content
	if !strings.Contains(sys, "klaviyo_public_id IN ('Pe5Xw6')") {
		t.Fatal("system prompt missing tenant filter literal")
	}
	if !strings.Contains(sys, "campaign_statistics") {
		t.Fatal("system prompt missing selected table schema")
	}
	if !strings.Contains(sys, "ERROR:") {
		t.Fatal("system prompt missing refusal sentinel instructions")
	}
}

func TestGenerateAmbiguousSentinel(t *testing.T) {
	chat := &fakeChat{responses: []string{"ERROR: question does not specify a metric or time range"}}
	g := newTestGenerator(chat)

	_, err := g.Generate(context.Background(), "show me the campaign stuff", []string{"Pe5Xw6"})
	var ambiguous *AmbiguousQuestionError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousQuestionError, got %v", err)
	}
	if ambiguous.Reason != "question does not specify a metric or time range" {
		t.Fatalf("unexpected reason: %q", ambiguous.Reason)
	}
}

func TestGenerateValidationFailure(t *testing.T) {
	chat := &fakeChat{responses: []string{
		"SELECT * FROM campaign_statistics WHERE date > '2026-01-01'",
	}}
	g := newTestGenerator(chat)

	_, err := g.Generate(context.Background(), "campaign revenue", []string{"Pe5Xw6"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGenerateWithRetryRecoversAfterValidationFailure(t *testing.T) {
	chat := &fakeChat{responses: []string{
		"SELECT * FROM campaign_statistics WHERE date > '2026-01-01'",
		validSQL,
	}}
	g := newTestGenerator(chat)

	res, err := g.GenerateWithRetry(context.Background(), "campaign revenue", []string{"Pe5Xw6"}, 2)
	if err != nil {
		t.Fatalf("GenerateWithRetry: %v", err)
	}
	if len(chat.requests) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(chat.requests))
	}
	if res.SQL == "" {
		t.Fatal("expected SQL from second attempt")
	}
}

func TestGenerateWithRetryExhaustsAttempts(t *testing.T) {
	provErr := errors.New("upstream unavailable")
	chat := &fakeChat{errs: []error{provErr, provErr}}
	g := newTestGenerator(chat)

	_, err := g.GenerateWithRetry(context.Background(), "campaign revenue", []string{"Pe5Xw6"}, 2)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", genErr.Attempts)
	}
	if !errors.Is(err, provErr) {
		t.Fatal("GenerationError should unwrap to the last failure")
	}
}

func TestGenerateWithRetryDoesNotRetryAmbiguous(t *testing.T) {
	chat := &fakeChat{responses: []string{"ERROR: too vague"}}
	g := newTestGenerator(chat)

	_, err := g.GenerateWithRetry(context.Background(), "campaign things", []string{"Pe5Xw6"}, 3)
	var ambiguous *AmbiguousQuestionError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousQuestionError, got %v", err)
	}
	if len(chat.requests) != 1 {
		t.Fatalf("ambiguous question retried: %d attempts", len(chat.requests))
	}
}

func TestBuildUserPrompt(t *testing.T) {
	p := BuildUserPrompt("top products", []string{"a1", "b2"})
	if !strings.Contains(p, `"top products"`) {
		t.Fatal("user prompt missing question")
	}
	if !strings.Contains(p, "klaviyo_public_id IN ('a1', 'b2')") {
		t.Fatal("user prompt missing tenant filter")
	}
}
