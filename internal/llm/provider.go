// Package llm is the model gateway: a provider-agnostic chat-completion
// client with declarative one-hop fallback and per-call cost accounting.
// Model identifiers are opaque strings chosen by configuration.
package llm

import "context"

// Chat message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage carries token counters reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatRequest describes one chat-completion call. Tier and Operation are
// accounting tags only; EnableFallback and FallbackModel are interpreted by
// the Gateway, never by providers.
type ChatRequest struct {
	Model          string
	Messages       []Message
	Temperature    float32
	MaxTokens      int
	Tier           string
	Operation      string
	EnableFallback bool
	FallbackModel  string
}

// ChatResult is the outcome of a successful call. Model names the model that
// actually answered, which differs from the requested model after a fallback
// hop. Cost is priced against that answering model.
type ChatResult struct {
	Text  string
	Model string
	Usage Usage
	Cost  CostRecord
}

// StreamChunk is one increment of a streaming response.
type StreamChunk struct {
	Text string
	Err  error
}

// Provider dispatches exactly one chat-completion call per invocation.
// Retries and fallback belong to callers, not providers.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

// Streamer is implemented by providers that support streaming responses.
// The channel is closed when the stream ends; a chunk with Err != nil is
// terminal. Cost accounting is skipped for streams.
type Streamer interface {
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error)
}
