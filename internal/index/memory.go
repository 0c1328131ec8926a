// Package index provides an in-memory vector index used when the server
// runs without Postgres. Scoring matches the pgvector-backed repository so
// the two backends are interchangeable.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// Store is a thread-safe in-memory segment index keyed by segment id.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]domain.IndexEntry
}

// NewStore creates an empty store expecting vectors of the given dimension.
func NewStore(dimensions int) *Store {
	return &Store{
		dimensions: dimensions,
		entries:    make(map[string]domain.IndexEntry),
	}
}

// Upsert inserts or replaces entries by segment id. Re-indexing the same
// segments leaves the store unchanged in size.
func (s *Store) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	for i := range entries {
		if err := domain.ValidateIndexEntry(&entries[i]); err != nil {
			return err
		}
		if len(entries[i].Embedding) != s.dimensions {
			return domain.NewDomainErrorWithCause(
				domain.ErrCodeConfiguration,
				"embedding dimension does not match index",
				fmt.Errorf("got %d, expected %d", len(entries[i].Embedding), s.dimensions),
			)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.SegmentID] = e
	}
	return nil
}

// Search returns up to limit segments nearest to the query vector, best
// first. Ties on score break on segment id so results are deterministic.
func (s *Store) Search(_ context.Context, vector []float32, limit int, filters domain.SearchFilters) ([]domain.SegmentMatch, error) {
	if len(vector) != s.dimensions {
		return nil, domain.NewDomainErrorWithCause(
			domain.ErrCodeConfiguration,
			"query vector dimension does not match index",
			fmt.Errorf("got %d, expected %d", len(vector), s.dimensions),
		)
	}
	if limit <= 0 {
		return []domain.SegmentMatch{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.SegmentMatch, 0, len(s.entries))
	for _, e := range s.entries {
		if !filters.Matches(e.Meta) {
			continue
		}
		matches = append(matches, domain.SegmentMatch{
			Entry: e,
			Score: similarityScore(vector, e.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Entry.SegmentID < matches[j].Entry.SegmentID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Count returns the number of indexed segments.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// similarityScore converts cosine distance into the 1/(1+distance) score
// used across both index backends.
func similarityScore(a, b []float32) float32 {
	distance := 1 - cosineSimilarity(a, b)
	return float32(1 / (1 + float64(distance)))
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
