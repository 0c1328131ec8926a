package index

import (
	"context"
	"sort"
	"sync"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// CaseStore holds case records in memory, keyed by case id. It backs the
// case lookup endpoint when no database is configured.
type CaseStore struct {
	mu    sync.RWMutex
	cases map[string]domain.CaseRecord
}

func NewCaseStore() *CaseStore {
	return &CaseStore{cases: make(map[string]domain.CaseRecord)}
}

// PutCase inserts or replaces a record by case id.
func (s *CaseStore) PutCase(_ context.Context, record *domain.CaseRecord) error {
	if err := domain.ValidateCaseRecord(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[record.CaseID] = *record
	return nil
}

// GetCase returns the record for the given id or ErrCaseNotFound.
func (s *CaseStore) GetCase(_ context.Context, caseID string) (*domain.CaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.cases[caseID]
	if !ok {
		return nil, domain.ErrCaseNotFound
	}
	return &record, nil
}

// CaseTitles returns up to limit stored case titles in case-id order, so
// repeated calls see a stable list.
func (s *CaseStore) CaseTitles(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	titles := make([]string, 0, limit)
	for _, id := range ids {
		if limit > 0 && len(titles) == limit {
			break
		}
		titles = append(titles, s.cases[id].Title)
	}
	return titles, nil
}

// CountCases returns the number of stored cases.
func (s *CaseStore) CountCases(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases), nil
}
