package llm

import (
	"math"
	"testing"
)

func TestCalculateCost(t *testing.T) {
	pricing := DefaultPricing()

	tests := []struct {
		model string
		usage Usage
		want  float64
	}{
		// haiku: $0.25 / $1.25 per 1M tokens
		{DefaultModelHaiku, Usage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}, 1.50},
		// sonnet: $3 / $15 per 1M tokens
		{DefaultModelSonnet, Usage{PromptTokens: 2000, CompletionTokens: 1000}, 2000.0/1e6*3 + 1000.0/1e6*15},
		// gemini: $1.25 / $5 per 1M tokens
		{DefaultModelGemini, Usage{PromptTokens: 400_000, CompletionTokens: 100_000}, 0.4*1.25 + 0.1*5},
		{DefaultModelHaiku, Usage{}, 0},
	}

	for _, tt := range tests {
		got := CalculateCost(pricing, tt.model, tt.usage)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("CalculateCost(%s, %+v) = %v, want %v", tt.model, tt.usage, got, tt.want)
		}
	}
}

func TestCalculateCostUnknownModel(t *testing.T) {
	got := CalculateCost(DefaultPricing(), "vendor/unknown-model", Usage{PromptTokens: 1000, CompletionTokens: 1000})
	if got != 0 {
		t.Fatalf("unknown model should cost zero, got %v", got)
	}
}

func TestCostTracker(t *testing.T) {
	tracker := NewCostTracker()
	tracker.Track(CostRecord{Model: DefaultModelHaiku, InputTokens: 1000, OutputTokens: 200, CostUSD: 0.0005, Operation: "sql_generation"})
	tracker.Track(CostRecord{Model: DefaultModelSonnet, InputTokens: 3000, OutputTokens: 1500, CostUSD: 0.0315, Operation: "analysis"})

	if got := tracker.TotalUSD(); math.Abs(got-0.032) > 1e-12 {
		t.Errorf("TotalUSD = %v", got)
	}
	in, out := tracker.TotalTokens()
	if in != 4000 || out != 1700 {
		t.Errorf("TotalTokens = %d, %d", in, out)
	}
	if len(tracker.Records()) != 2 {
		t.Errorf("Records = %d", len(tracker.Records()))
	}
}
