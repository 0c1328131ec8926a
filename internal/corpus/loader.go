// Package corpus loads case records from a JSONL file, one case per line.
package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// rawCase is the on-disk shape of one corpus line.
type rawCase struct {
	CaseID       string   `json:"case_id"`
	Title        string   `json:"title"`
	Citation     string   `json:"citation"`
	Court        string   `json:"court"`
	DecisionDate string   `json:"decision_date"`
	Judges       []string `json:"judges"`
	Tags         []string `json:"tags"`
	Text         string   `json:"text"`
}

// maxLineBytes bounds a single corpus line; full judgment texts run long.
const maxLineBytes = 16 * 1024 * 1024

// LoadFile reads case records from a JSONL file. Lines that fail to parse
// are skipped and reported in the returned messages; the load continues.
func LoadFile(path string) ([]domain.CaseRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// FileSource is a reusable handle on a JSONL corpus file.
type FileSource struct {
	Path string
}

// LoadCorpus re-reads the file on every call so an updated corpus is
// picked up without a restart.
func (s FileSource) LoadCorpus(ctx context.Context) ([]domain.CaseRecord, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return LoadFile(s.Path)
}

// Load reads case records from JSONL input, one object per line. A line
// over maxLineBytes is skipped and reported like any other bad record;
// only a read failure aborts the load.
func Load(r io.Reader) ([]domain.CaseRecord, []string, error) {
	reader := bufio.NewReaderSize(r, 64*1024)

	var records []domain.CaseRecord
	var skipped []string

	lineNo := 0
	for {
		line, tooLong, err := readLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read corpus: %w", err)
		}

		lineNo++
		if tooLong {
			skipped = append(skipped, fmt.Sprintf("line %d: line exceeds %d bytes", lineNo, maxLineBytes))
			continue
		}
		if len(line) == 0 {
			continue
		}

		var raw rawCase
		if err := json.Unmarshal(line, &raw); err != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}

		record, err := toRecord(raw, lineNo)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		records = append(records, record)
	}

	return records, skipped, nil
}

// readLine accumulates one line regardless of the reader's buffer size.
// Once a line passes maxLineBytes it is drained and discarded rather than
// buffered, and reported as too long.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(chunk) > maxLineBytes {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

func toRecord(raw rawCase, lineNo int) (domain.CaseRecord, error) {
	caseID := raw.CaseID
	if caseID == "" {
		// Stable fallback: position in the file.
		caseID = strconv.Itoa(lineNo - 1)
	}

	record := domain.CaseRecord{
		CaseID:       caseID,
		Title:        raw.Title,
		Citation:     raw.Citation,
		Court:        raw.Court,
		Judges:       raw.Judges,
		Tags:         raw.Tags,
		FullText:     raw.Text,
		DecisionDate: parseDecisionDate(raw.DecisionDate),
	}

	if err := domain.ValidateCaseRecord(&record); err != nil {
		return domain.CaseRecord{}, err
	}
	domain.NormalizeCaseRecord(&record)
	return record, nil
}

// parseDecisionDate accepts the date layouts seen in the corpus exports.
// Unparseable dates become the zero time, which downstream treats as
// "unknown" rather than an error.
func parseDecisionDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "02-01-2006", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
