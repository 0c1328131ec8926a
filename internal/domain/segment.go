package domain

import (
	"fmt"
	"time"
)

// Segment is a bounded, overlapping slice of a case's full text. It is the
// atomic unit stored in the vector index. SegmentID is a deterministic
// function of the parent case id and the segment position, so re-indexing an
// unchanged case always produces the same ids.
type Segment struct {
	SegmentID     string
	CaseID        string
	Text          string
	StartOffset   int
	EndOffset     int
	SequenceIndex int
}

// SegmentID derives the stable id for a segment of a case.
func SegmentID(caseID string, sequenceIndex int) string {
	return fmt.Sprintf("case_%s_chunk_%06d", caseID, sequenceIndex)
}

// CaseMeta is the metadata snapshot of a case carried by each index entry.
type CaseMeta struct {
	CaseID       string
	Title        string
	Citation     string
	Court        string
	DecisionDate time.Time
}

// MetaFromRecord snapshots a case's metadata for its index entries.
func MetaFromRecord(c *CaseRecord) CaseMeta {
	return CaseMeta{
		CaseID:       c.CaseID,
		Title:        c.Title,
		Citation:     c.Citation,
		Court:        c.Court,
		DecisionDate: c.DecisionDate,
	}
}

// IndexEntry is the persisted unit of the vector index: one segment, its
// embedding, and the metadata snapshot of its case. Entries are upserted by
// SegmentID and never otherwise mutated.
type IndexEntry struct {
	SegmentID     string
	CaseID        string
	Text          string
	SequenceIndex int
	StartOffset   int
	EndOffset     int
	Embedding     []float32
	Meta          CaseMeta
}

// ValidateIndexEntry validates an IndexEntry before upsert.
func ValidateIndexEntry(e *IndexEntry) error {
	if e == nil {
		return fmt.Errorf("index entry cannot be nil")
	}
	if e.SegmentID == "" {
		return fmt.Errorf("index entry SegmentID is required")
	}
	if e.CaseID == "" {
		return fmt.Errorf("index entry CaseID is required")
	}
	if len(e.Embedding) == 0 {
		return fmt.Errorf("index entry Embedding is required")
	}
	return nil
}

// SegmentMatch is one scored segment returned by a vector index search.
type SegmentMatch struct {
	Entry IndexEntry
	Score float32
}

// SearchFilters restrict a vector index search by case metadata. Zero values
// mean "no restriction". Filters are applied before ranking so a filtered
// search still fills its requested top-k from matching entries.
type SearchFilters struct {
	Court    string
	DateFrom time.Time
	DateTo   time.Time
}

// Empty reports whether no filter is set.
func (f SearchFilters) Empty() bool {
	return f.Court == "" && f.DateFrom.IsZero() && f.DateTo.IsZero()
}

// Matches reports whether the given case metadata passes the filters.
func (f SearchFilters) Matches(meta CaseMeta) bool {
	if f.Court != "" && meta.Court != f.Court {
		return false
	}
	if !f.DateFrom.IsZero() && meta.DecisionDate.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && meta.DecisionDate.After(f.DateTo) {
		return false
	}
	return true
}
