package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible chat-completion
// API. OpenRouter routes to Anthropic, Google and others by model prefix, so
// one provider covers every tier this service uses.
type OpenRouterProvider struct {
	client *openai.Client
}

// attribution headers OpenRouter uses for app ranking
type refererTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *refererTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewOpenRouterProvider creates a provider authenticated with apiKey.
// baseURL overrides the OpenRouter endpoint for proxies and tests.
func NewOpenRouterProvider(apiKey, baseURL, referer, title string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{
		Timeout:   120 * time.Second,
		Transport: &refererTransport{referer: referer, title: title},
	}
	return &OpenRouterProvider{client: openai.NewClientWithConfig(cfg)}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: empty response from %s", req.Model)
	}

	answered := resp.Model
	if answered == "" {
		answered = req.Model
	}
	return &ChatResult{
		Text:  resp.Choices[0].Message.Content,
		Model: answered,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// ChatStream opens a streaming completion. The returned channel is closed
// when the stream ends; the consumer owns draining it.
func (p *OpenRouterProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	oreq := p.buildRequest(req)
	oreq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, oreq)
	if err != nil {
		return nil, fmt.Errorf("openrouter stream: %w", err)
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				ch <- StreamChunk{Err: err}
				return
			}
			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				select {
				case ch <- StreamChunk{Text: resp.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func (p *OpenRouterProvider) buildRequest(req ChatRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}
