package service

import (
	"strings"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// SegmentConfig controls the sliding window used to cut case text into
// index segments. Offsets are rune offsets, not byte offsets.
type SegmentConfig struct {
	ChunkSize int
	Overlap   int
}

// DefaultSegmentConfig provides sane defaults for segmenting judgments.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		ChunkSize: 1024,
		Overlap:   128,
	}
}

func (c SegmentConfig) validate() error {
	if c.ChunkSize <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "chunk size must be positive")
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return domain.ErrInvalidChunkConfig
	}
	return nil
}

// SegmentCase cuts a case's full text into overlapping segments. Every rune
// of the text is covered by at least one segment, windows advance by
// ChunkSize-Overlap, and the same input always yields the same segments
// with the same ids.
func SegmentCase(caseID, text string, cfg SegmentConfig) ([]domain.Segment, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return []domain.Segment{}, nil
	}

	step := cfg.ChunkSize - cfg.Overlap
	segments := make([]domain.Segment, 0, (len(runes)+step-1)/step)

	for start, seq := 0, 0; start < len(runes); start, seq = start+step, seq+1 {
		end := start + cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		segments = append(segments, domain.Segment{
			SegmentID:     domain.SegmentID(caseID, seq),
			CaseID:        caseID,
			Text:          string(runes[start:end]),
			StartOffset:   start,
			EndOffset:     end,
			SequenceIndex: seq,
		})

		if end == len(runes) {
			break
		}
	}

	return segments, nil
}

// segmentPreview returns a whitespace-collapsed prefix of segment text for
// prompts and API payloads. Truncation counts runes so multi-byte text is
// never cut mid-character.
func segmentPreview(text string, maxChars int) string {
	clean := strings.Join(strings.Fields(text), " ")
	runes := []rune(clean)
	if maxChars <= 3 || len(runes) <= maxChars {
		return clean
	}
	return string(runes[:maxChars-3]) + "..."
}
