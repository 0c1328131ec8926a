package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

func TestSegmentCase_ShortTextSingleSegment(t *testing.T) {
	segments, err := SegmentCase("c-1", "short text", DefaultSegmentConfig())

	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "case_c-1_chunk_000000", segments[0].SegmentID)
	assert.Equal(t, "short text", segments[0].Text)
	assert.Equal(t, 0, segments[0].StartOffset)
	assert.Equal(t, 10, segments[0].EndOffset)
}

func TestSegmentCase_EmptyText(t *testing.T) {
	segments, err := SegmentCase("c-1", "", DefaultSegmentConfig())

	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSegmentCase_WindowsOverlapAndCoverEverything(t *testing.T) {
	cfg := SegmentConfig{ChunkSize: 10, Overlap: 3}
	text := strings.Repeat("abcdefghij", 5) // 50 runes

	segments, err := SegmentCase("c-1", text, cfg)
	require.NoError(t, err)

	// Windows advance by ChunkSize-Overlap.
	for i, seg := range segments {
		assert.Equal(t, i*7, seg.StartOffset)
		assert.Equal(t, i, seg.SequenceIndex)
		assert.LessOrEqual(t, seg.EndOffset-seg.StartOffset, cfg.ChunkSize)
	}

	// Every rune is covered by at least one segment and the last window
	// ends exactly at the text length.
	covered := make([]bool, len([]rune(text)))
	for _, seg := range segments {
		for i := seg.StartOffset; i < seg.EndOffset; i++ {
			covered[i] = true
		}
	}
	for i, ok := range covered {
		assert.True(t, ok, "rune %d not covered", i)
	}
	assert.Equal(t, len([]rune(text)), segments[len(segments)-1].EndOffset)
}

func TestSegmentCase_RuneOffsets(t *testing.T) {
	cfg := SegmentConfig{ChunkSize: 4, Overlap: 1}
	text := "न्याय सहायक" // multi-byte runes

	segments, err := SegmentCase("c-1", text, cfg)
	require.NoError(t, err)

	runes := []rune(text)
	for _, seg := range segments {
		assert.Equal(t, string(runes[seg.StartOffset:seg.EndOffset]), seg.Text)
	}
	assert.Equal(t, len(runes), segments[len(segments)-1].EndOffset)
}

func TestSegmentCase_Deterministic(t *testing.T) {
	cfg := SegmentConfig{ChunkSize: 16, Overlap: 4}
	text := strings.Repeat("the quick brown fox ", 10)

	first, err := SegmentCase("c-1", text, cfg)
	require.NoError(t, err)
	second, err := SegmentCase("c-1", text, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSegmentCase_InvalidConfig(t *testing.T) {
	_, err := SegmentCase("c-1", "text", SegmentConfig{ChunkSize: 10, Overlap: 10})
	assert.Equal(t, domain.ErrInvalidChunkConfig, err)

	_, err = SegmentCase("c-1", "text", SegmentConfig{ChunkSize: 0})
	assert.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
}

func TestSegmentPreview(t *testing.T) {
	assert.Equal(t, "a b c", segmentPreview("  a\n b\t c ", 100))
	long := strings.Repeat("x", 50)
	assert.Equal(t, long[:17]+"...", segmentPreview(long, 20))
}

func TestSegmentPreview_TruncatesOnRunes(t *testing.T) {
	devanagari := strings.Repeat("न", 30)

	preview := segmentPreview(devanagari, 10)

	assert.Equal(t, strings.Repeat("न", 7)+"...", preview)
	assert.True(t, utf8.ValidString(preview))
}
