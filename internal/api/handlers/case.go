package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyaya-labs/sahayak/internal/api"
	"github.com/nyaya-labs/sahayak/internal/domain"
)

type CaseReader interface {
	GetCase(ctx context.Context, caseID string) (*domain.CaseRecord, error)
}

type CaseHandler struct {
	cases CaseReader
}

func NewCaseHandler(cases CaseReader) *CaseHandler {
	return &CaseHandler{cases: cases}
}

type CaseResponse struct {
	CaseID       string   `json:"case_id"`
	Title        string   `json:"title"`
	Citation     string   `json:"citation"`
	Court        string   `json:"court"`
	DecisionDate string   `json:"decision_date"`
	Judges       []string `json:"judges"`
	Tags         []string `json:"tags"`
	Text         string   `json:"text"`
}

func caseToResponse(c *domain.CaseRecord) *CaseResponse {
	judges := c.Judges
	if judges == nil {
		judges = []string{}
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return &CaseResponse{
		CaseID:       c.CaseID,
		Title:        c.Title,
		Citation:     c.Citation,
		Court:        c.Court,
		DecisionDate: formatDate(c.DecisionDate),
		Judges:       judges,
		Tags:         tags,
		Text:         c.FullText,
	}
}

// Get handles GET /api/v1/case/{id}.
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "case id is required")
		return
	}

	record, err := h.cases.GetCase(r.Context(), caseID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, caseToResponse(record))
}
