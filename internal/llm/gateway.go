package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Gateway routes chat-completion calls to a Provider and implements the
// single-hop fallback policy: on primary failure, if fallback is enabled,
// resolve a fallback model (explicit request field, else the static edge
// table) and issue exactly one additional call. The gateway itself never
// retries; retry loops belong to callers.
type Gateway struct {
	provider  Provider
	pricing   map[string]ModelPrice
	fallbacks map[string]string
}

// DefaultFallbacks is the static fallback edge table: primary -> fallback,
// consulted only when a request enables fallback without naming one.
func DefaultFallbacks(sonnet, gemini string) map[string]string {
	return map[string]string{
		sonnet: gemini,
		gemini: sonnet,
	}
}

func NewGateway(provider Provider, pricing map[string]ModelPrice, fallbacks map[string]string) *Gateway {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	if fallbacks == nil {
		fallbacks = map[string]string{}
	}
	return &Gateway{provider: provider, pricing: pricing, fallbacks: fallbacks}
}

// Chat dispatches one call, falling back at most once. The returned result
// carries a CostRecord priced against the model that answered.
func (g *Gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	start := time.Now()

	res, err := g.provider.Chat(ctx, req)
	if err == nil {
		g.record(res, req, false, time.Since(start))
		return res, nil
	}

	primaryErr := &ProviderError{Model: req.Model, Err: err}

	fallback := g.resolveFallback(req)
	if fallback == "" {
		return nil, primaryErr
	}

	log.Warn().
		Str("primary", req.Model).
		Str("fallback", fallback).
		Err(err).
		Msg("primary model failed, falling back")

	fbReq := req
	fbReq.Model = fallback
	res, fbErr := g.provider.Chat(ctx, fbReq)
	if fbErr != nil {
		return nil, &AggregateProviderError{
			Primary:     req.Model,
			Fallback:    fallback,
			PrimaryErr:  err,
			FallbackErr: fbErr,
		}
	}

	g.record(res, fbReq, true, time.Since(start))
	return res, nil
}

// ChatStream dispatches a streaming call with the same fallback policy.
// Fallback applies only to the initial dispatch; once a stream is open,
// mid-stream failures surface on the channel. Cost accounting is skipped.
func (g *Gateway) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	streamer, ok := g.provider.(Streamer)
	if !ok {
		return nil, &ProviderError{Model: req.Model, Err: ErrStreamingUnsupported}
	}

	ch, err := streamer.ChatStream(ctx, req)
	if err == nil {
		return ch, nil
	}

	fallback := g.resolveFallback(req)
	if fallback == "" {
		return nil, &ProviderError{Model: req.Model, Err: err}
	}

	fbReq := req
	fbReq.Model = fallback
	ch, fbErr := streamer.ChatStream(ctx, fbReq)
	if fbErr != nil {
		return nil, &AggregateProviderError{
			Primary:     req.Model,
			Fallback:    fallback,
			PrimaryErr:  err,
			FallbackErr: fbErr,
		}
	}
	return ch, nil
}

func (g *Gateway) resolveFallback(req ChatRequest) string {
	if !req.EnableFallback {
		return ""
	}
	if req.FallbackModel != "" {
		return req.FallbackModel
	}
	return g.fallbacks[req.Model]
}

func (g *Gateway) record(res *ChatResult, req ChatRequest, fallback bool, elapsed time.Duration) {
	cost := CalculateCost(g.pricing, res.Model, res.Usage)
	if _, known := g.pricing[res.Model]; !known {
		log.Warn().Str("model", res.Model).Msg("no pricing for model, cost recorded as zero")
	}
	res.Cost = CostRecord{
		Model:        res.Model,
		InputTokens:  res.Usage.PromptTokens,
		OutputTokens: res.Usage.CompletionTokens,
		CostUSD:      cost,
		Tier:         req.Tier,
		Operation:    req.Operation,
		Fallback:     fallback,
	}

	log.Debug().
		Str("model", res.Model).
		Bool("fallback", fallback).
		Int("prompt_tokens", res.Usage.PromptTokens).
		Int("completion_tokens", res.Usage.CompletionTokens).
		Float64("cost_usd", cost).
		Dur("duration", elapsed).
		Msg("model call")
}
