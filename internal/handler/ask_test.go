package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wizelai/insight-engine/internal/analysis"
	"github.com/wizelai/insight-engine/internal/benchmark"
	"github.com/wizelai/insight-engine/internal/llm"
	"github.com/wizelai/insight-engine/internal/models"
	"github.com/wizelai/insight-engine/internal/security"
	"github.com/wizelai/insight-engine/internal/sqlgen"
	"github.com/wizelai/insight-engine/internal/warehouse"
)

type fakeGenerator struct {
	result *sqlgen.Result
	err    error
	calls  int
}

func (f *fakeGenerator) GenerateWithRetry(_ context.Context, _ string, _ []string, _ int) (*sqlgen.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeExecutor struct {
	result  *warehouse.Result
	err     error
	lastSQL string
	calls   int
}

func (f *fakeExecutor) Query(_ context.Context, sql string) (*warehouse.Result, error) {
	f.calls++
	f.lastSQL = sql
	return f.result, f.err
}

func (f *fakeExecutor) Ping(context.Context) error { return nil }
func (f *fakeExecutor) Close() error               { return nil }

type fakeAnalyzer struct {
	result *analysis.Result
	err    error
	calls  int
	actx   analysis.Context
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _, _ string, _ []map[string]interface{}, actx analysis.Context) (*analysis.Result, error) {
	f.calls++
	f.actx = actx
	return f.result, f.err
}

type fakeBenchmarks struct {
	bench *benchmark.Benchmark
}

func (f *fakeBenchmarks) Get(context.Context, string) (*benchmark.Benchmark, error) {
	return f.bench, nil
}

type fakeUsage struct {
	requestID string
	records   []llm.CostRecord
}

func (f *fakeUsage) SaveUsage(_ context.Context, requestID string, _ []string, records []llm.CostRecord) error {
	f.requestID = requestID
	f.records = records
	return nil
}

func genResult() *sqlgen.Result {
	return &sqlgen.Result{
		SQL:    "SELECT campaign_name FROM campaign_statistics WHERE klaviyo_public_id IN ('a1') LIMIT 100",
		Tables: []string{"campaign_statistics"},
		Model:  llm.DefaultModelHaiku,
		Cost:   llm.CostRecord{Model: llm.DefaultModelHaiku, CostUSD: 0.001, InputTokens: 900, OutputTokens: 60},
	}
}

type deps struct {
	gen   *fakeGenerator
	exec  *fakeExecutor
	an    *fakeAnalyzer
	bench *fakeBenchmarks
	usage *fakeUsage
}

func newTestHandler(d *deps) *AskHandler {
	// Avoid a typed-nil UsageSaver interface when no fake is provided.
	var usage UsageSaver
	if d.usage != nil {
		usage = d.usage
	}
	return NewAskHandler(
		security.NewPromptValidator(),
		security.NewPIIDetector(nil),
		security.NewDataMasker(nil),
		security.NewAuditLogger(false),
		d.gen, d.exec, d.an, d.bench, usage,
		2,
	)
}

func doAsk(t *testing.T, h *AskHandler, body map[string]interface{}) (*httptest.ResponseRecorder, models.AskResponse) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(raw))
	rr := httptest.NewRecorder()
	h.Ask(rr, req)

	var resp models.AskResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rr, resp
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var e models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return e.Message
}

func TestAskFullPipeline(t *testing.T) {
	d := &deps{
		gen: &fakeGenerator{result: genResult()},
		exec: &fakeExecutor{result: &warehouse.Result{
			Columns: []string{"campaign_name", "customer_email"},
			Rows: []map[string]interface{}{
				{"campaign_name": "Spring Sale", "customer_email": "jane.doe@example.com"},
			},
		}},
		an: &fakeAnalyzer{result: &analysis.Result{
			Text:  "# Executive Summary\nSolid performance.",
			Model: llm.DefaultModelSonnet,
			Cost:  llm.CostRecord{Model: llm.DefaultModelSonnet, CostUSD: 0.03, InputTokens: 2000, OutputTokens: 800},
		}},
		bench: &fakeBenchmarks{bench: &benchmark.Benchmark{Vertical: "fashion"}},
		usage: &fakeUsage{},
	}
	h := newTestHandler(d)

	rr, resp := doAsk(t, h, map[string]interface{}{
		"question":    "top campaigns by revenue",
		"klaviyo_ids": []string{"a1"},
		"analyze":     true,
		"vertical":    "fashion",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	if d.exec.calls != 1 || d.exec.lastSQL != genResult().SQL {
		t.Fatalf("executor got %q", d.exec.lastSQL)
	}
	if resp.RowCount != 1 || resp.Analysis == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.AnalysisModel != llm.DefaultModelSonnet {
		t.Fatalf("analysis model = %s", resp.AnalysisModel)
	}
	// email column masked before leaving the service
	if got := resp.Data[0]["customer_email"]; got == "jane.doe@example.com" {
		t.Fatal("sensitive column not masked")
	}
	// both calls accounted
	if len(resp.Cost.Calls) != 2 {
		t.Fatalf("cost summary: %+v", resp.Cost)
	}
	if diff := resp.Cost.TotalUSD - 0.031; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("total cost = %f", resp.Cost.TotalUSD)
	}
	// benchmark passed through to the analyzer
	if d.an.actx.Benchmark == nil || d.an.actx.Benchmark.Vertical != "fashion" {
		t.Fatalf("benchmark not forwarded: %+v", d.an.actx.Benchmark)
	}
	// usage persisted
	if len(d.usage.records) != 2 {
		t.Fatalf("usage records = %d", len(d.usage.records))
	}
}

func TestAskDryRunSkipsWarehouse(t *testing.T) {
	d := &deps{
		gen:  &fakeGenerator{result: genResult()},
		exec: &fakeExecutor{},
		an:   &fakeAnalyzer{},
	}
	h := newTestHandler(d)

	rr, resp := doAsk(t, h, map[string]interface{}{
		"question":    "top campaigns by revenue",
		"klaviyo_ids": []string{"a1"},
		"dry_run":     true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.exec.calls != 0 {
		t.Fatal("dry run must not touch the warehouse")
	}
	if d.an.calls != 0 {
		t.Fatal("dry run must not run analysis")
	}
	if !resp.DryRun || resp.SQL == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAskAmbiguousQuestion(t *testing.T) {
	d := &deps{
		gen:  &fakeGenerator{err: &sqlgen.AmbiguousQuestionError{Reason: "specify a time range for campaign revenue"}},
		exec: &fakeExecutor{},
		an:   &fakeAnalyzer{},
	}
	h := newTestHandler(d)

	rr, _ := doAsk(t, h, map[string]interface{}{
		"question":    "campaign revenue",
		"klaviyo_ids": []string{"a1"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	// The model's explanation is surfaced verbatim.
	if got := errorMessage(t, rr); got != "specify a time range for campaign revenue" {
		t.Fatalf("message = %q", got)
	}
}

func TestAskGenerationExhausted(t *testing.T) {
	d := &deps{
		gen: &fakeGenerator{err: &sqlgen.GenerationError{
			Attempts: 2,
			Err:      &sqlgen.ValidationError{Detail: "query references tenant id \"evil\" outside the authorized scope"},
		}},
		exec: &fakeExecutor{},
		an:   &fakeAnalyzer{},
	}
	h := newTestHandler(d)

	rr, _ := doAsk(t, h, map[string]interface{}{
		"question":    "campaign revenue last month",
		"klaviyo_ids": []string{"a1"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	msg := errorMessage(t, rr)
	if strings.Contains(msg, "evil") {
		t.Fatalf("internal validation detail leaked: %q", msg)
	}
}

func TestAskProviderUnavailable(t *testing.T) {
	d := &deps{
		gen: &fakeGenerator{err: &llm.AggregateProviderError{
			Primary: llm.DefaultModelSonnet, Fallback: llm.DefaultModelGemini,
			PrimaryErr: errors.New("x"), FallbackErr: errors.New("y"),
		}},
		exec: &fakeExecutor{},
		an:   &fakeAnalyzer{},
	}
	h := newTestHandler(d)

	rr, _ := doAsk(t, h, map[string]interface{}{
		"question":    "campaign revenue last month",
		"klaviyo_ids": []string{"a1"},
	})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestAskAnalysisFailureKeepsData(t *testing.T) {
	d := &deps{
		gen: &fakeGenerator{result: genResult()},
		exec: &fakeExecutor{result: &warehouse.Result{
			Columns: []string{"campaign_name"},
			Rows:    []map[string]interface{}{{"campaign_name": "Spring Sale"}},
		}},
		an: &fakeAnalyzer{err: &analysis.UnavailableError{Err: errors.New("models down")}},
	}
	h := newTestHandler(d)

	rr, resp := doAsk(t, h, map[string]interface{}{
		"question":    "top campaigns by revenue",
		"klaviyo_ids": []string{"a1"},
		"analyze":     true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp.RowCount != 1 {
		t.Fatal("data should survive analysis failure")
	}
	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "analysis unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected analysis warning, got %v", resp.Warnings)
	}
}

func TestAskRequestValidation(t *testing.T) {
	d := &deps{gen: &fakeGenerator{}, exec: &fakeExecutor{}, an: &fakeAnalyzer{}}
	h := newTestHandler(d)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing question", map[string]interface{}{"klaviyo_ids": []string{"a1"}}},
		{"missing tenant ids", map[string]interface{}{"question": "campaign revenue"}},
		{"off-topic question", map[string]interface{}{"question": "tell me a story", "klaviyo_ids": []string{"a1"}}},
		{"pii question", map[string]interface{}{"question": "list customer email address values", "klaviyo_ids": []string{"a1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := doAsk(t, h, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rr.Code)
			}
			if d.gen.calls != 0 {
				t.Fatal("generator must not run for rejected requests")
			}
		})
	}
}

func TestAskWarehouseFailure(t *testing.T) {
	d := &deps{
		gen:  &fakeGenerator{result: genResult()},
		exec: &fakeExecutor{err: errors.New("connection refused")},
		an:   &fakeAnalyzer{},
	}
	h := newTestHandler(d)

	rr, _ := doAsk(t, h, map[string]interface{}{
		"question":    "top campaigns by revenue",
		"klaviyo_ids": []string{"a1"},
	})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.Contains(errorMessage(t, rr), "connection refused") {
		t.Fatal("infrastructure detail leaked to client")
	}
}
