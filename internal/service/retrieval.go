package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// VectorIndex defines the segment index interface consumed by retrieval
// and indexing. Implemented by the pgvector repository and by the
// in-memory store.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	Search(ctx context.Context, vector []float32, limit int, filters domain.SearchFilters) ([]domain.SegmentMatch, error)
	Count(ctx context.Context) (int, error)
}

// RetrievalConfig bounds how many segments are fetched and how many
// distinct cases are returned.
type RetrievalConfig struct {
	TopKCases     int
	SegmentFanout int
}

// DefaultRetrievalConfig provides the standard retrieval bounds.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopKCases:     5,
		SegmentFanout: 7,
	}
}

// RetrievalService turns a query into a ranked list of distinct cases.
type RetrievalService struct {
	embedding EmbeddingClient
	index     VectorIndex
	cfg       RetrievalConfig
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(embedding EmbeddingClient, index VectorIndex, cfg RetrievalConfig) *RetrievalService {
	if cfg.TopKCases <= 0 {
		cfg.TopKCases = DefaultRetrievalConfig().TopKCases
	}
	if cfg.SegmentFanout < cfg.TopKCases {
		cfg.SegmentFanout = cfg.TopKCases
	}
	return &RetrievalService{
		embedding: embedding,
		index:     index,
		cfg:       cfg,
	}
}

// Retrieve embeds the query once, fetches the nearest segments, and
// aggregates them into distinct cases. A case's score is the maximum of
// its segment scores: one on-point passage should surface a case even
// when the rest of the judgment is off-topic.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, filters domain.SearchFilters) (*domain.RetrievalResult, error) {
	return s.RetrieveTopK(ctx, query, s.cfg.TopKCases, filters)
}

// RetrieveTopK is Retrieve with a per-request case limit.
func (s *RetrievalService) RetrieveTopK(ctx context.Context, query string, topK int, filters domain.SearchFilters) (*domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = s.cfg.TopKCases
	}
	fanout := s.cfg.SegmentFanout
	if fanout < topK {
		fanout = topK
	}

	vector, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.index.Search(ctx, vector, fanout, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	cases := aggregateByCase(matches)
	if len(cases) > topK {
		cases = cases[:topK]
	}

	return &domain.RetrievalResult{
		Query: query,
		Cases: cases,
	}, nil
}

// aggregateByCase folds segment matches into one entry per case, scored by
// the best segment. Cases sort by score descending; ties go to the more
// recently decided case, then case id for determinism.
func aggregateByCase(matches []domain.SegmentMatch) []domain.RankedCase {
	byCase := make(map[string]*domain.RankedCase)
	order := make([]string, 0, len(matches))

	for _, m := range matches {
		caseID := m.Entry.CaseID
		ranked, ok := byCase[caseID]
		if !ok {
			byCase[caseID] = &domain.RankedCase{
				Meta:     m.Entry.Meta,
				Score:    m.Score,
				Segments: []domain.SegmentMatch{m},
			}
			order = append(order, caseID)
			continue
		}
		if m.Score > ranked.Score {
			ranked.Score = m.Score
		}
		ranked.Segments = append(ranked.Segments, m)
	}

	cases := make([]domain.RankedCase, 0, len(byCase))
	for _, caseID := range order {
		cases = append(cases, *byCase[caseID])
	}

	sort.Slice(cases, func(i, j int) bool {
		if cases[i].Score != cases[j].Score {
			return cases[i].Score > cases[j].Score
		}
		if !cases[i].Meta.DecisionDate.Equal(cases[j].Meta.DecisionDate) {
			return cases[i].Meta.DecisionDate.After(cases[j].Meta.DecisionDate)
		}
		return cases[i].Meta.CaseID < cases[j].Meta.CaseID
	})

	return cases
}
