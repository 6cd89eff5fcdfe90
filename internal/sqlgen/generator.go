package sqlgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wizelai/insight-engine/internal/llm"
	"github.com/wizelai/insight-engine/internal/schema"
	"github.com/wizelai/insight-engine/internal/security"
)

// Generation parameters for the fast tier. Low temperature keeps SQL output
// deterministic across retries.
const (
	genTemperature = 0.1
	genMaxTokens   = 1000
)

// AmbiguousQuestionError is returned when the model declines to answer via
// the ERROR: sentinel. The reason is the model's own explanation and is safe
// to surface to the user verbatim.
type AmbiguousQuestionError struct {
	Reason string
}

func (e *AmbiguousQuestionError) Error() string { return e.Reason }

// ValidationError is returned when a generated candidate fails the query
// validator. It is retryable; a fresh generation may pass.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "generated SQL failed validation: " + e.Detail
}

// ChatClient is the slice of the gateway the generator needs.
type ChatClient interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
}

// Result is a validated generation outcome.
type Result struct {
	SQL      string
	Tables   []string
	Warnings []string
	Model    string
	Usage    llm.Usage
	Cost     llm.CostRecord
}

// Generator produces validated SQL for one question.
type Generator struct {
	chat      ChatClient
	validator *security.QueryValidator
	model     string
}

func NewGenerator(chat ChatClient, validator *security.QueryValidator, model string) *Generator {
	if model == "" {
		model = llm.DefaultModelHaiku
	}
	return &Generator{chat: chat, validator: validator, model: model}
}

var fenceRe = regexp.MustCompile("```(?:sql)?\n?")

// Generate runs one generation attempt: select tables, assemble prompts,
// call the fast tier, strip fencing, honor the ERROR: sentinel and validate.
// The candidate is discarded on validation failure; callers only ever see
// sanitized SQL.
func (g *Generator) Generate(ctx context.Context, question string, tenantIDs []string) (*Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	if len(tenantIDs) == 0 {
		return nil, fmt.Errorf("at least one tenant id is required")
	}

	tables := schema.RelevantTables(question)
	log.Debug().Strs("tables", tables).Msg("selected tables for generation")

	res, err := g.chat.Chat(ctx, llm.ChatRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: BuildSystemPrompt(tables, tenantIDs)},
			{Role: llm.RoleUser, Content: BuildUserPrompt(question, tenantIDs)},
		},
		Temperature: genTemperature,
		MaxTokens:   genMaxTokens,
		Tier:        "tier2",
		Operation:   "sql_generation",
	})
	if err != nil {
		return nil, err
	}

	sql := strings.TrimSpace(res.Text)
	if strings.HasPrefix(sql, "ERROR:") {
		return nil, &AmbiguousQuestionError{
			Reason: strings.TrimSpace(strings.TrimPrefix(sql, "ERROR:")),
		}
	}

	sql = strings.TrimSpace(fenceRe.ReplaceAllString(sql, ""))

	validation := g.validator.Validate(sql, tenantIDs)
	if !validation.Valid {
		return nil, &ValidationError{Detail: validation.Error}
	}

	resultTables := validation.Tables
	if len(resultTables) == 0 {
		resultTables = tables
	}

	return &Result{
		SQL:      validation.Sanitized,
		Tables:   resultTables,
		Warnings: validation.Warnings,
		Model:    res.Model,
		Usage:    res.Usage,
		Cost:     res.Cost,
	}, nil
}
