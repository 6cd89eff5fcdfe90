package security

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxQuestionLength bounds the natural-language question before it reaches
// any model.
const MaxQuestionLength = 2000

// dangerousPatterns covers prompt injection and attempts to smuggle
// command or code execution through the question text.
var dangerousPatterns = []*regexp.Regexp{
	// Command execution
	regexp.MustCompile(`(?i)\brm\s+-`),
	regexp.MustCompile(`(?i)\brm\s+/`),
	regexp.MustCompile(`(?i)\bcurl\s+`),
	regexp.MustCompile(`(?i)\bwget\s+`),
	regexp.MustCompile(`(?i)\bbash\s+-`),
	regexp.MustCompile(`(?i)\bsh\s+-`),
	regexp.MustCompile(`(?i)\bsudo\s+`),

	// File operations / path traversal
	regexp.MustCompile(`\.\.\/`),
	regexp.MustCompile(`/etc/passwd`),
	regexp.MustCompile(`/etc/shadow`),
	regexp.MustCompile(`/proc/`),
	regexp.MustCompile(`\.env\s`),
	regexp.MustCompile(`\.env$`),
	regexp.MustCompile(`id_rsa`),
	regexp.MustCompile(`\.ssh/`),

	// Code execution
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)system\s*\(`),
	regexp.MustCompile(`(?i)__import__\s*\(`),
	regexp.MustCompile(`(?i)subprocess`),
	regexp.MustCompile(`(?i)os\.system`),

	// Prompt injection
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)change\s+context\s*:`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+a`),
	regexp.MustCompile(`(?i)reveal\s+your\s+(system\s+)?prompt`),
}

// analyticsKeywords gate questions to the marketing-analytics domain. A
// question with none of these is almost certainly off-topic for the
// warehouse and not worth a model round trip.
var analyticsKeywords = []string{
	"campaign", "flow", "email", "sms", "push",
	"revenue", "sales", "order", "purchase", "spend",
	"customer", "buyer", "subscriber", "profile", "segment", "audience",
	"product", "item", "sku", "discount", "coupon", "promo",
	"open", "click", "conversion", "bounce", "unsubscribe", "delivered",
	"rate", "metric", "performance", "trend", "growth", "ltv",
	"show", "list", "compare", "top", "bottom", "best", "worst",
	"how many", "how much", "which", "what", "when", "average", "total",
	"count", "sum", "daily", "weekly", "monthly", "last", "this month",
	"this week", "this year", "report", "breakdown", "data",
}

// PromptValidator gates natural-language questions before generation.
type PromptValidator struct{}

func NewPromptValidator() *PromptValidator {
	return &PromptValidator{}
}

// PromptResult is the outcome of validating a question.
type PromptResult struct {
	Valid   bool
	Message string
}

// Validate checks length, injection patterns and domain relevance.
func (v *PromptValidator) Validate(question string) PromptResult {
	if len(question) > MaxQuestionLength {
		return PromptResult{
			Valid:   false,
			Message: fmt.Sprintf("question too long: %d chars (max %d)", len(question), MaxQuestionLength),
		}
	}

	if strings.TrimSpace(question) == "" {
		return PromptResult{Valid: false, Message: "question cannot be empty"}
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(question) {
			return PromptResult{
				Valid:   false,
				Message: fmt.Sprintf("dangerous pattern detected: %s", pattern.String()),
			}
		}
	}

	lower := strings.ToLower(question)
	hasKeyword := false
	for _, kw := range analyticsKeywords {
		if strings.Contains(lower, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return PromptResult{
			Valid:   false,
			Message: "question does not look like a marketing analytics question; try asking about campaigns, flows, customers, products or revenue",
		}
	}

	return PromptResult{Valid: true, Message: "ok"}
}
