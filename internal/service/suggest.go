package service

import (
	"context"
	"fmt"
	"strings"
)

const (
	suggestionLimit = 3
	// suggestMinQueryLen is the shortest partial query worth filtering on.
	suggestMinQueryLen = 4
)

// seedSuggestions are shown before the index holds enough titles to
// derive suggestions from.
var seedSuggestions = []string{
	"Compare the reasoning in Kesavananda Bharati and Minerva Mills on the Basic Structure Doctrine",
	"Explain how the Supreme Court interpreted Article 21 in Puttaswamy",
	"List cases where sedition laws under IPC Section 124A were challenged",
	"Summarize how freedom of speech evolved under Article 19(1)(a)",
	"Identify the ratio decidendi in Maneka Gandhi vs Union of India",
}

// TitleSource yields indexed case titles for suggestion building.
type TitleSource interface {
	CaseTitles(ctx context.Context, limit int) ([]string, error)
}

// SuggestionService derives query suggestions from seeds and indexed case
// titles. It never calls the generation model; suggestions have to be
// cheap enough for per-keystroke use.
type SuggestionService struct {
	titles TitleSource
}

// NewSuggestionService creates a new SuggestionService instance. titles
// may be nil; seeds alone are used then.
func NewSuggestionService(titles TitleSource) *SuggestionService {
	return &SuggestionService{titles: titles}
}

// Suggest returns up to three suggestions for a partial query. Short
// partials get the unfiltered seed list.
func (s *SuggestionService) Suggest(ctx context.Context, partial string) []string {
	candidates := make([]string, 0, len(seedSuggestions)+suggestionLimit)
	candidates = append(candidates, seedSuggestions...)

	if s.titles != nil {
		titles, err := s.titles.CaseTitles(ctx, 50)
		if err == nil {
			for _, title := range titles {
				candidates = append(candidates, fmt.Sprintf("Summarize the judgment in %s", title))
			}
		}
	}

	partial = strings.TrimSpace(partial)
	if len(partial) >= suggestMinQueryLen {
		filtered := make([]string, 0, suggestionLimit)
		needle := strings.ToLower(partial)
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c), needle) {
				filtered = append(filtered, c)
				if len(filtered) == suggestionLimit {
					break
				}
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
	}

	return candidates[:suggestionLimit]
}
