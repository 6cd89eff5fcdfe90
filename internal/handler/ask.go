package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wizelai/insight-engine/internal/analysis"
	"github.com/wizelai/insight-engine/internal/benchmark"
	"github.com/wizelai/insight-engine/internal/llm"
	"github.com/wizelai/insight-engine/internal/middleware"
	"github.com/wizelai/insight-engine/internal/models"
	"github.com/wizelai/insight-engine/internal/security"
	"github.com/wizelai/insight-engine/internal/sqlgen"
	"github.com/wizelai/insight-engine/internal/warehouse"
)

// Generator produces validated SQL for a question.
type Generator interface {
	GenerateWithRetry(ctx context.Context, question string, tenantIDs []string, maxRetries int) (*sqlgen.Result, error)
}

// Analyzer writes a marketing analysis of result rows.
type Analyzer interface {
	Analyze(ctx context.Context, question, sqlQuery string, rows []map[string]interface{}, actx analysis.Context) (*analysis.Result, error)
}

// BenchmarkGetter loads industry benchmarks; lookups soft-fail.
type BenchmarkGetter interface {
	Get(ctx context.Context, vertical string) (*benchmark.Benchmark, error)
}

// UsageSaver persists a request's cost records.
type UsageSaver interface {
	SaveUsage(ctx context.Context, requestID string, tenantIDs []string, records []llm.CostRecord) error
}

// AskHandler handles POST /api/v1/ask: question to SQL to rows to analysis.
type AskHandler struct {
	promptValidator *security.PromptValidator
	piiDetector     *security.PIIDetector
	masker          *security.DataMasker
	audit           *security.AuditLogger

	generator  Generator
	executor   warehouse.Executor
	analyzer   Analyzer
	benchmarks BenchmarkGetter
	usage      UsageSaver

	maxRetries int
}

func NewAskHandler(
	promptValidator *security.PromptValidator,
	piiDetector *security.PIIDetector,
	masker *security.DataMasker,
	audit *security.AuditLogger,
	generator Generator,
	executor warehouse.Executor,
	analyzer Analyzer,
	benchmarks BenchmarkGetter,
	usage UsageSaver,
	maxRetries int,
) *AskHandler {
	return &AskHandler{
		promptValidator: promptValidator,
		piiDetector:     piiDetector,
		masker:          masker,
		audit:           audit,
		generator:       generator,
		executor:        executor,
		analyzer:        analyzer,
		benchmarks:      benchmarks,
		usage:           usage,
		maxRetries:      maxRetries,
	}
}

// Ask handles POST /api/v1/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.Question == "" {
		models.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.KlaviyoIDs) == 0 {
		models.WriteError(w, http.StatusBadRequest, "klaviyo_ids is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.TimeoutSec)*time.Second)
	defer cancel()

	// Pre-generation gates. Both are deterministic and cost nothing.
	if pv := h.promptValidator.Validate(req.Question); !pv.Valid {
		h.audit.LogRejection("prompt_validation", pv.Message, req.KlaviyoIDs)
		models.WriteError(w, http.StatusBadRequest, pv.Message)
		return
	}
	if h.piiDetector != nil {
		if found, kw := h.piiDetector.Detect(req.Question); found {
			msg := "questions requesting personal data (" + kw + ") cannot be answered; profile data is stored hashed"
			h.audit.LogRejection("pii_detection", msg, req.KlaviyoIDs)
			models.WriteError(w, http.StatusBadRequest, msg)
			return
		}
	}

	tracker := llm.NewCostTracker()

	genStart := time.Now()
	gen, err := h.generator.GenerateWithRetry(ctx, req.Question, req.KlaviyoIDs, h.maxRetries)
	if err != nil {
		h.writeGenerationError(w, err, req.KlaviyoIDs)
		return
	}
	tracker.Track(gen.Cost)
	h.audit.LogGeneration(req.Question, req.KlaviyoIDs, gen.SQL, gen.Model, h.maxRetries, true, time.Since(genStart).Milliseconds())

	resp := models.AskResponse{
		Status:   "success",
		SQL:      gen.SQL,
		Tables:   gen.Tables,
		Warnings: gen.Warnings,
		Model:    gen.Model,
		DryRun:   req.DryRun,
	}

	if req.DryRun {
		h.finish(w, r, &req, &resp, tracker, start)
		return
	}

	execStart := time.Now()
	result, err := h.executor.Query(ctx, gen.SQL)
	if err != nil {
		h.audit.LogExecution(gen.SQL, req.KlaviyoIDs, 0, time.Since(execStart).Milliseconds(), false, err.Error())
		log.Error().Err(err).Msg("warehouse query failed")
		models.WriteError(w, http.StatusBadGateway, "query execution failed")
		return
	}
	h.audit.LogExecution(gen.SQL, req.KlaviyoIDs, len(result.Rows), time.Since(execStart).Milliseconds(), true, "")

	rows := result.Rows
	if h.masker != nil {
		rows = h.masker.MaskRows(rows)
	}
	resp.Columns = result.Columns
	resp.Data = rows
	resp.RowCount = len(rows)

	if req.Analyze {
		actx := analysis.Context{
			StoreNames:      req.StoreNames,
			Industry:        req.Industry,
			BusinessGoals:   req.BusinessGoals,
			CurrentStrategy: req.CurrentStrategy,
			Constraints:     req.Constraints,
			UserExpertise:   req.UserExpertise,
			Benchmark:       h.lookupBenchmark(ctx, req.Vertical),
		}

		ares, err := h.analyzer.Analyze(ctx, req.Question, gen.SQL, rows, actx)
		if err != nil {
			// Analysis failure does not void the data the user asked for.
			log.Error().Err(err).Msg("analysis failed")
			resp.Warnings = append(resp.Warnings, "analysis unavailable: primary and fallback models failed")
		} else {
			tracker.Track(ares.Cost)
			resp.Analysis = ares.Text
			resp.AnalysisModel = ares.Model
		}
	}

	h.finish(w, r, &req, &resp, tracker, start)
}

// lookupBenchmark soft-fails: analysis without benchmarks beats no analysis.
func (h *AskHandler) lookupBenchmark(ctx context.Context, vertical string) *benchmark.Benchmark {
	if h.benchmarks == nil || vertical == "" {
		return nil
	}
	bench, err := h.benchmarks.Get(ctx, vertical)
	if err != nil {
		log.Warn().Err(err).Str("vertical", vertical).Msg("benchmark lookup failed")
		return nil
	}
	return bench
}

func (h *AskHandler) writeGenerationError(w http.ResponseWriter, err error, tenantIDs []string) {
	var ambiguous *sqlgen.AmbiguousQuestionError
	if errors.As(err, &ambiguous) {
		// The model's own explanation; written for the end user.
		models.WriteError(w, http.StatusUnprocessableEntity, ambiguous.Reason)
		return
	}

	var aggregate *llm.AggregateProviderError
	var provider *llm.ProviderError
	if errors.As(err, &aggregate) || errors.As(err, &provider) {
		log.Error().Err(err).Msg("model provider failed")
		models.WriteError(w, http.StatusBadGateway, "model provider unavailable")
		return
	}

	h.audit.LogRejection("sql_generation", err.Error(), tenantIDs)
	log.Warn().Err(err).Msg("SQL generation failed")
	models.WriteError(w, http.StatusBadRequest, "could not generate a safe query for this question; try rephrasing it")
}

func (h *AskHandler) finish(w http.ResponseWriter, r *http.Request, req *models.AskRequest, resp *models.AskResponse, tracker *llm.CostTracker, start time.Time) {
	in, out := tracker.TotalTokens()
	resp.Cost = models.CostSummary{
		TotalUSD:    tracker.TotalUSD(),
		TotalTokens: in + out,
		Calls:       tracker.Records(),
	}
	resp.ExecutionTimeMs = time.Since(start).Milliseconds()

	if h.usage != nil {
		requestID := middleware.GetReqID(r.Context())
		// Usage persistence is bookkeeping; it must not fail the request.
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.usage.SaveUsage(saveCtx, requestID, req.KlaviyoIDs, tracker.Records()); err != nil {
			log.Warn().Err(err).Msg("failed to persist usage records")
		}
	}

	models.WriteJSON(w, http.StatusOK, resp)
}
