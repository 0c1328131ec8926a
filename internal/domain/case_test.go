package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCaseRecord_Valid(t *testing.T) {
	c := NewCaseRecord("c-1", "Right to Privacy", "(2017) 10 SCC 1", "Supreme Court",
		time.Date(2017, 8, 24, 0, 0, 0, 0, time.UTC),
		"The right to privacy is protected as an intrinsic part of Article 21.")

	assert.NoError(t, ValidateCaseRecord(c))
}

func TestValidateCaseRecord_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		record *CaseRecord
	}{
		{"nil record", nil},
		{"missing case id", &CaseRecord{Title: "T", FullText: "text"}},
		{"missing full text", &CaseRecord{CaseID: "c-1", Title: "T"}},
		{"whitespace full text", &CaseRecord{CaseID: "c-1", Title: "T", FullText: "   "}},
		{"missing title", &CaseRecord{CaseID: "c-1", FullText: "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateCaseRecord(tt.record))
		})
	}
}

func TestNormalizeCaseRecord_FillsDefaults(t *testing.T) {
	c := &CaseRecord{CaseID: "c-1", Title: " Some Case ", FullText: "text"}

	NormalizeCaseRecord(c)

	assert.Equal(t, "Some Case", c.Title)
	assert.Equal(t, "No Citation", c.Citation)
	assert.Equal(t, "Unknown", c.Court)
}

func TestSegmentID_Deterministic(t *testing.T) {
	assert.Equal(t, SegmentID("abc", 0), SegmentID("abc", 0))
	assert.Equal(t, "case_abc_chunk_000003", SegmentID("abc", 3))
	assert.NotEqual(t, SegmentID("abc", 1), SegmentID("abc", 2))
}

func TestSearchFilters_Matches(t *testing.T) {
	meta := CaseMeta{
		CaseID:       "c-1",
		Court:        "Supreme Court",
		DecisionDate: time.Date(2017, 8, 24, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, SearchFilters{}.Matches(meta))
	assert.True(t, SearchFilters{Court: "Supreme Court"}.Matches(meta))
	assert.False(t, SearchFilters{Court: "High Court"}.Matches(meta))

	from := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, SearchFilters{DateFrom: from, DateTo: to}.Matches(meta))
	assert.False(t, SearchFilters{DateFrom: to}.Matches(meta))
	assert.False(t, SearchFilters{DateTo: from}.Matches(meta))
}
