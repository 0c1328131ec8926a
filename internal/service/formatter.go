package service

import (
	"time"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// FormatAnswer assembles the final structured answer from workflow state.
// Pure transform: missing fields default to empty values, never nil
// slices, so the API layer can serialize the result as-is.
func FormatAnswer(state WorkflowState) *domain.StructuredAnswer {
	related := make([]domain.RelatedCase, 0, len(state.Retrieved))
	for _, ranked := range state.Retrieved {
		related = append(related, domain.RelatedCase{
			CaseID:       ranked.Meta.CaseID,
			Title:        ranked.Meta.Title,
			Citation:     ranked.Meta.Citation,
			Court:        ranked.Meta.Court,
			DecisionDate: ranked.Meta.DecisionDate,
		})
	}

	issues := state.Issues
	if issues == nil {
		issues = []string{}
	}
	followUps := state.FollowUps
	if followUps == nil {
		followUps = []string{}
	}
	steps := state.ReasoningSteps
	if steps == nil {
		steps = []string{}
	}

	return &domain.StructuredAnswer{
		Query:          state.Query,
		Answer:         state.Answer,
		RelatedCases:   related,
		LegalIssues:    issues,
		FollowUps:      followUps,
		ReasoningSteps: steps,
		Processing: domain.ProcessingInfo{
			CasesRetrieved: len(state.Retrieved),
			CasesAnalyzed:  len(state.Summaries),
		},
	}
}

func formatDecisionDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2006-01-02")
}
