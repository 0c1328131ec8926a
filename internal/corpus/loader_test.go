package corpus

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidLines(t *testing.T) {
	input := strings.Join([]string{
		`{"case_id":"c-1","title":"Right to Privacy","citation":"(2017) 10 SCC 1","court":"Supreme Court","decision_date":"2017-08-24","text":"judgment text"}`,
		`{"case_id":"c-2","title":"Contract Law","text":"another judgment"}`,
	}, "\n")

	records, skipped, err := Load(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, "c-1", records[0].CaseID)
	assert.Equal(t, time.Date(2017, 8, 24, 0, 0, 0, 0, time.UTC), records[0].DecisionDate)
	// Missing optional metadata is defaulted, not rejected.
	assert.Equal(t, "No Citation", records[1].Citation)
	assert.Equal(t, "Unknown", records[1].Court)
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"case_id":"c-1","title":"Valid","text":"text"}`,
		`not json at all`,
		`{"case_id":"c-3","title":"No Text"}`,
	}, "\n")

	records, skipped, err := Load(strings.NewReader(input))

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, skipped, 2)
	assert.Contains(t, skipped[0], "line 2")
	assert.Contains(t, skipped[1], "line 3")
}

func TestLoad_SkipsOversizedLine(t *testing.T) {
	oversized := `{"case_id":"big","title":"Big","text":"` + strings.Repeat("a", maxLineBytes) + `"}`
	input := strings.Join([]string{
		`{"case_id":"c-1","title":"Before","text":"text"}`,
		oversized,
		`{"case_id":"c-3","title":"After","text":"text"}`,
	}, "\n")

	records, skipped, err := Load(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c-1", records[0].CaseID)
	assert.Equal(t, "c-3", records[1].CaseID)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], "line 2")
	assert.Contains(t, skipped[0], "exceeds")
}

func TestLoad_MissingCaseIDFallsBackToPosition(t *testing.T) {
	input := `{"title":"Untitled Source","text":"text"}`

	records, skipped, err := Load(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "0", records[0].CaseID)
}

func TestLoad_EmptyInput(t *testing.T) {
	records, skipped, err := Load(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, skipped)
}

func TestParseDecisionDate(t *testing.T) {
	assert.Equal(t, time.Date(2017, 8, 24, 0, 0, 0, 0, time.UTC), parseDecisionDate("2017-08-24"))
	assert.Equal(t, time.Date(2017, 8, 24, 0, 0, 0, 0, time.UTC), parseDecisionDate("24-08-2017"))
	assert.True(t, parseDecisionDate("Unknown").IsZero())
	assert.True(t, parseDecisionDate("").IsZero())
}
