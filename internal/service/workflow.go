package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nyaya-labs/sahayak/internal/domain"
	"github.com/nyaya-labs/sahayak/internal/telemetry"
)

// GenerationClient defines the interface for chat-completion calls
type GenerationClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Retriever defines the retrieval interface consumed by the workflow
type Retriever interface {
	RetrieveTopK(ctx context.Context, query string, topK int, filters domain.SearchFilters) (*domain.RetrievalResult, error)
}

// WorkflowStage is one state of the reasoning pipeline.
type WorkflowStage string

const (
	StageAnalyzing    WorkflowStage = "ANALYZING"
	StageRetrieving   WorkflowStage = "RETRIEVING"
	StageSummarizing  WorkflowStage = "SUMMARIZING"
	StageSynthesizing WorkflowStage = "SYNTHESIZING"
	StageDone         WorkflowStage = "DONE"
	StageFailed       WorkflowStage = "FAILED"
)

// WorkflowState is threaded through the stages of one query execution.
// Each execution owns its state; nothing here is shared across requests.
type WorkflowState struct {
	Query          string
	Stage          WorkflowStage
	Issues         []string
	Keywords       []string
	Retrieved      []domain.RankedCase
	Summaries      []string
	EvidenceEmpty  bool
	Answer         string
	FollowUps      []string
	ReasoningSteps []string
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeDegraded
	outcomeFatal
)

// stageOutcome is the tagged result of one stage: ok, degraded (fallback
// taken, pipeline continues), or fatal (pipeline stops).
type stageOutcome struct {
	kind   outcomeKind
	reason string
	err    error
}

func stageOK() stageOutcome { return stageOutcome{kind: outcomeOK} }

func stageDegraded(reason string) stageOutcome {
	return stageOutcome{kind: outcomeDegraded, reason: reason}
}

func stageFatal(reason string, err error) stageOutcome {
	return stageOutcome{kind: outcomeFatal, reason: reason, err: err}
}

// insufficientEvidenceMarker prefixes the answer whenever synthesis ran
// without any retrieved evidence.
const insufficientEvidenceMarker = "Insufficient evidence: no relevant cases were found in the indexed corpus."

// WorkflowConfig bounds one query execution.
type WorkflowConfig struct {
	TopKCases     int
	CasesAnalyzed int

	AnalysisTimeout  time.Duration
	RetrievalTimeout time.Duration
	SummaryTimeout   time.Duration
	SynthesisTimeout time.Duration
}

// DefaultWorkflowConfig provides the standard execution bounds.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		TopKCases:        5,
		CasesAnalyzed:    5,
		AnalysisTimeout:  20 * time.Second,
		RetrievalTimeout: 30 * time.Second,
		SummaryTimeout:   30 * time.Second,
		SynthesisTimeout: 60 * time.Second,
	}
}

// WorkflowService runs the multi-stage reasoning pipeline over retrieval
// output, plus the direct retrieve-then-synthesize path.
type WorkflowService struct {
	generation GenerationClient
	retriever  Retriever
	cfg        WorkflowConfig
}

// NewWorkflowService creates a new WorkflowService instance
func NewWorkflowService(generation GenerationClient, retriever Retriever, cfg WorkflowConfig) *WorkflowService {
	if cfg.TopKCases <= 0 {
		cfg.TopKCases = DefaultWorkflowConfig().TopKCases
	}
	if cfg.CasesAnalyzed <= 0 {
		cfg.CasesAnalyzed = DefaultWorkflowConfig().CasesAnalyzed
	}
	return &WorkflowService{
		generation: generation,
		retriever:  retriever,
		cfg:        cfg,
	}
}

// QueryOptions are per-request overrides for one execution.
type QueryOptions struct {
	UseAgentic    bool
	TopKCases     int
	CasesAnalyzed int
	Filters       domain.SearchFilters
}

// AnswerQuery is the end-to-end entry point. UseAgentic selects the full
// four-stage pipeline; otherwise the direct path runs one synthesis call
// over raw retrieved segment text.
func (s *WorkflowService) AnswerQuery(ctx context.Context, query string, opts QueryOptions) (*domain.StructuredAnswer, error) {
	ctx, span := telemetry.StartSpan(ctx, "WorkflowService.AnswerQuery", telemetry.SpanAttributes{
		Operation: "answer_query",
	})
	defer span.End()

	topK := opts.TopKCases
	if topK <= 0 {
		topK = s.cfg.TopKCases
	}

	state := WorkflowState{Query: query, Stage: StageAnalyzing}

	if !opts.UseAgentic {
		return s.runDirect(ctx, state, topK, opts.Filters)
	}

	state = s.analyzeStage(ctx, state)

	state, outcome := s.retrieveStage(ctx, state, topK, opts.Filters)
	if outcome.kind == outcomeFatal {
		state.Stage = StageFailed
		return nil, outcome.err
	}

	if !state.EvidenceEmpty {
		state = s.summarizeStage(ctx, state, opts.CasesAnalyzed)
	}

	state, outcome = s.synthesizeStage(ctx, state)
	if outcome.kind == outcomeFatal {
		state.Stage = StageFailed
		return nil, outcome.err
	}

	state.Stage = StageDone
	return FormatAnswer(state), nil
}

// analyzeStage extracts legal issues and keywords from the query. A
// generation failure degrades to using the raw query as the sole issue
// so retrieval still runs.
func (s *WorkflowService) analyzeStage(ctx context.Context, state WorkflowState) WorkflowState {
	state.Stage = StageAnalyzing
	state.ReasoningSteps = append(state.ReasoningSteps, "Analyzing query for legal issues and keywords")

	response, err := s.complete(ctx, s.cfg.AnalysisTimeout, analysisSystemPrompt, analysisUserPrompt(state.Query), analysisMaxTokens)
	if err != nil {
		state.Issues = []string{state.Query}
		state.Keywords = []string{state.Query}
		state.ReasoningSteps = append(state.ReasoningSteps, "Query analysis unavailable; continuing with the raw query")
		return state
	}

	issues, keywords := parseAnalysis(response)
	if len(issues) == 0 {
		issues = []string{state.Query}
	}
	if len(keywords) == 0 {
		keywords = []string{state.Query}
	}
	state.Issues = issues
	state.Keywords = keywords
	return state
}

// retrieveStage fetches ranked cases for the original query. Extracted
// issues are deliberately not used as the search text; paraphrase drift
// compounds when a rewritten query is embedded. A transient provider
// failure or an exhausted retrieval budget degrades to the empty-evidence
// path; only misconfiguration stops the pipeline.
func (s *WorkflowService) retrieveStage(ctx context.Context, state WorkflowState, topK int, filters domain.SearchFilters) (WorkflowState, stageOutcome) {
	state.Stage = StageRetrieving
	state.ReasoningSteps = append(state.ReasoningSteps, "Retrieving relevant legal cases from database")

	rctx := ctx
	if s.cfg.RetrievalTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, s.cfg.RetrievalTimeout)
		defer cancel()
	}

	result, err := s.retriever.RetrieveTopK(rctx, state.Query, topK, filters)
	if err != nil {
		if domain.IsConfiguration(err) {
			return state, stageFatal("retrieval misconfigured", err)
		}
		if domain.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			state.EvidenceEmpty = true
			state.ReasoningSteps = append(state.ReasoningSteps, "Case retrieval unavailable; answering with insufficient evidence")
			return state, stageDegraded("retrieval unavailable")
		}
		return state, stageFatal("retrieval failed", fmt.Errorf("failed to retrieve cases: %w", err))
	}

	state.Retrieved = result.Cases
	if len(result.Cases) == 0 {
		state.EvidenceEmpty = true
		state.ReasoningSteps = append(state.ReasoningSteps, "No relevant cases found; answering with insufficient evidence")
		return state, stageDegraded("no evidence")
	}
	return state, stageOK()
}

// summarizeStage produces one short summary per retrieved case, scoped to
// that case's retrieved segments. Calls run concurrently up to the
// cases-analyzed cap; results merge in case rank order so output is
// deterministic. A single case's failure excludes that case only.
func (s *WorkflowService) summarizeStage(ctx context.Context, state WorkflowState, casesAnalyzed int) WorkflowState {
	state.Stage = StageSummarizing
	state.ReasoningSteps = append(state.ReasoningSteps, "Summarizing key arguments from retrieved cases")

	limit := casesAnalyzed
	if limit <= 0 {
		limit = s.cfg.CasesAnalyzed
	}
	cases := state.Retrieved
	if len(cases) > limit {
		cases = cases[:limit]
	}

	type rankedSummary struct {
		rank    int
		summary string
	}

	results := make(chan rankedSummary, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	for i, ranked := range cases {
		g.Go(func() error {
			summary, err := s.complete(gctx, s.cfg.SummaryTimeout, summarySystemPrompt, summaryUserPrompt(ranked), summaryMaxTokens)
			if err != nil {
				// Recorded by omission; the batch continues.
				return nil
			}
			results <- rankedSummary{rank: i, summary: fmt.Sprintf("[%s]: %s", ranked.Meta.Title, summary)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	collected := make([]rankedSummary, 0, len(cases))
	for r := range results {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].rank < collected[j].rank })

	state.Summaries = make([]string, 0, len(collected))
	for _, r := range collected {
		state.Summaries = append(state.Summaries, r.summary)
	}
	if len(state.Summaries) < len(cases) {
		state.ReasoningSteps = append(state.ReasoningSteps,
			fmt.Sprintf("Summarized %d of %d cases; the rest were skipped after generation failures", len(state.Summaries), len(cases)))
	}
	return state
}

// synthesizeStage produces the final answer. Every execution that reaches
// this stage returns a response unless the provider is entirely
// unavailable.
func (s *WorkflowService) synthesizeStage(ctx context.Context, state WorkflowState) (WorkflowState, stageOutcome) {
	state.Stage = StageSynthesizing
	state.ReasoningSteps = append(state.ReasoningSteps, "Synthesizing legal analysis and generating final answer")

	prompt := synthesisUserPrompt(state.Query, state.Issues, state.Retrieved, state.Summaries)
	response, err := s.complete(ctx, s.cfg.SynthesisTimeout, synthesisSystemPrompt, prompt, synthesisMaxTokens)
	if err != nil {
		return state, stageFatal("synthesis failed", fmt.Errorf("failed to synthesize answer: %w", err))
	}

	state.Answer, state.FollowUps = parseSynthesis(response)
	if state.EvidenceEmpty {
		state.Answer = insufficientEvidenceMarker + "\n\n" + state.Answer
	}
	return state, stageOK()
}

// runDirect is the latency-sensitive path: retrieve, then one synthesis
// call over raw segment text. Same response shape as the full pipeline.
func (s *WorkflowService) runDirect(ctx context.Context, state WorkflowState, topK int, filters domain.SearchFilters) (*domain.StructuredAnswer, error) {
	state, outcome := s.retrieveStage(ctx, state, topK, filters)
	if outcome.kind == outcomeFatal {
		state.Stage = StageFailed
		return nil, outcome.err
	}

	state.Stage = StageSynthesizing
	state.ReasoningSteps = append(state.ReasoningSteps, "Generating answer directly from retrieved case text")

	response, err := s.complete(ctx, s.cfg.SynthesisTimeout, directSystemPrompt, directUserPrompt(state.Query, state.Retrieved), synthesisMaxTokens)
	if err != nil {
		state.Stage = StageFailed
		return nil, fmt.Errorf("failed to synthesize answer: %w", err)
	}

	state.Answer, state.FollowUps = parseSynthesis(response)
	if state.EvidenceEmpty {
		state.Answer = insufficientEvidenceMarker + "\n\n" + state.Answer
	}
	state.Stage = StageDone
	return FormatAnswer(state), nil
}

// complete runs one generation call under the given per-stage budget.
func (s *WorkflowService) complete(ctx context.Context, timeout time.Duration, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.generation.Complete(ctx, systemPrompt, userPrompt, maxTokens)
}
