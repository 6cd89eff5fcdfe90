package llm

// Default model identifiers per tier, overridable via configuration.
const (
	DefaultModelHaiku  = "anthropic/claude-haiku-4.5"
	DefaultModelSonnet = "anthropic/claude-sonnet-4.5"
	DefaultModelGemini = "google/gemini-2.5-pro"
)

// ModelPrice is USD per million tokens, input and output priced separately.
type ModelPrice struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// DefaultPricing covers the models this service routes to by default.
// Unknown models price at zero; the gateway logs a warning for them.
func DefaultPricing() map[string]ModelPrice {
	return map[string]ModelPrice{
		DefaultModelHaiku:  {Input: 0.25, Output: 1.25},
		DefaultModelSonnet: {Input: 3.0, Output: 15.0},
		DefaultModelGemini: {Input: 1.25, Output: 5.0},
	}
}

// CostRecord is the append-only accounting entry for one successful call.
// Model names the model that answered the call, not the one requested.
type CostRecord struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	Tier         string  `json:"tier"`
	Operation    string  `json:"operation"`
	Fallback     bool    `json:"fallback,omitempty"`
}

// CalculateCost prices token usage against a per-million-token price table.
func CalculateCost(pricing map[string]ModelPrice, model string, usage Usage) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0
	}
	inputCost := float64(usage.PromptTokens) / 1_000_000 * p.Input
	outputCost := float64(usage.CompletionTokens) / 1_000_000 * p.Output
	return inputCost + outputCost
}

// CostTracker accumulates cost records for a single request. It is not
// shared across requests: create one per request and read it back after the
// pipeline completes.
type CostTracker struct {
	records []CostRecord
}

func NewCostTracker() *CostTracker {
	return &CostTracker{}
}

// Track appends one record.
func (t *CostTracker) Track(rec CostRecord) {
	t.records = append(t.records, rec)
}

// Records returns the accumulated records in call order.
func (t *CostTracker) Records() []CostRecord {
	return t.records
}

// TotalUSD sums the accumulated cost.
func (t *CostTracker) TotalUSD() float64 {
	var total float64
	for _, r := range t.records {
		total += r.CostUSD
	}
	return total
}

// TotalTokens sums input and output tokens across records.
func (t *CostTracker) TotalTokens() (input, output int) {
	for _, r := range t.records {
		input += r.InputTokens
		output += r.OutputTokens
	}
	return input, output
}
