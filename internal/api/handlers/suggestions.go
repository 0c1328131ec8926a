package handlers

import (
	"context"
	"net/http"

	"github.com/nyaya-labs/sahayak/internal/api"
)

type Suggester interface {
	Suggest(ctx context.Context, partial string) []string
}

type SuggestionHandler struct {
	svc Suggester
}

func NewSuggestionHandler(svc Suggester) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// Suggest handles GET /api/v1/suggestions?query=...
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("query")

	suggestions := h.svc.Suggest(r.Context(), partial)
	if suggestions == nil {
		suggestions = []string{}
	}

	api.Success(w, http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}
