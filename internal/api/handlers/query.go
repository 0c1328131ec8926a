package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nyaya-labs/sahayak/internal/api"
	"github.com/nyaya-labs/sahayak/internal/domain"
	"github.com/nyaya-labs/sahayak/internal/service"
)

type LegalQueryService interface {
	AnswerQuery(ctx context.Context, query string, opts service.QueryOptions) (*domain.StructuredAnswer, error)
}

type QueryHandler struct {
	svc LegalQueryService
}

func NewQueryHandler(svc LegalQueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// QueryFilters narrow retrieval by case metadata. Dates use YYYY-MM-DD.
type QueryFilters struct {
	Court    string `json:"court,omitempty"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
}

type LegalQueryRequest struct {
	Query string `json:"query"`
	// UseAgentic selects the multi-stage pipeline; omitted means true.
	UseAgentic *bool         `json:"use_agentic,omitempty"`
	TopK       int           `json:"top_k,omitempty"`
	Filters    *QueryFilters `json:"filters,omitempty"`
}

type RelatedCaseResponse struct {
	CaseID       string `json:"case_id"`
	Title        string `json:"title"`
	Citation     string `json:"citation"`
	Court        string `json:"court"`
	DecisionDate string `json:"decision_date"`
}

type ProcessingResponse struct {
	CasesRetrieved int `json:"cases_retrieved"`
	CasesAnalyzed  int `json:"cases_analyzed"`
}

type LegalQueryResponse struct {
	Query          string                `json:"query"`
	Answer         string                `json:"answer"`
	RelatedCases   []RelatedCaseResponse `json:"related_cases"`
	LegalIssues    []string              `json:"legal_issues"`
	FollowUps      []string              `json:"follow_up_questions"`
	ReasoningSteps []string              `json:"reasoning_steps"`
	Processing     ProcessingResponse    `json:"processing"`
}

func answerToResponse(a *domain.StructuredAnswer) *LegalQueryResponse {
	related := make([]RelatedCaseResponse, 0, len(a.RelatedCases))
	for _, c := range a.RelatedCases {
		related = append(related, RelatedCaseResponse{
			CaseID:       c.CaseID,
			Title:        c.Title,
			Citation:     c.Citation,
			Court:        c.Court,
			DecisionDate: formatDate(c.DecisionDate),
		})
	}
	return &LegalQueryResponse{
		Query:          a.Query,
		Answer:         a.Answer,
		RelatedCases:   related,
		LegalIssues:    a.LegalIssues,
		FollowUps:      a.FollowUps,
		ReasoningSteps: a.ReasoningSteps,
		Processing: ProcessingResponse{
			CasesRetrieved: a.Processing.CasesRetrieved,
			CasesAnalyzed:  a.Processing.CasesAnalyzed,
		},
	}
}

// formatDate renders a decision date for the API; the zero time means the
// corpus never carried one.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2006-01-02")
}

const dateLayout = "2006-01-02"

func parseFilters(f *QueryFilters) (domain.SearchFilters, error) {
	var filters domain.SearchFilters
	if f == nil {
		return filters, nil
	}
	filters.Court = strings.TrimSpace(f.Court)
	if f.DateFrom != "" {
		t, err := time.Parse(dateLayout, f.DateFrom)
		if err != nil {
			return filters, err
		}
		filters.DateFrom = t
	}
	if f.DateTo != "" {
		t, err := time.Parse(dateLayout, f.DateTo)
		if err != nil {
			return filters, err
		}
		filters.DateTo = t
	}
	return filters, nil
}

// Answer handles POST /api/v1/legal-query.
func (h *QueryHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req LegalQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK < 0 {
		api.Error(w, http.StatusBadRequest, "top_k cannot be negative")
		return
	}

	filters, err := parseFilters(req.Filters)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "filter dates must use YYYY-MM-DD")
		return
	}

	useAgentic := true
	if req.UseAgentic != nil {
		useAgentic = *req.UseAgentic
	}

	answer, err := h.svc.AnswerQuery(r.Context(), req.Query, service.QueryOptions{
		UseAgentic: useAgentic,
		TopKCases:  req.TopK,
		Filters:    filters,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answerToResponse(answer))
}
