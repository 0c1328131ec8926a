package domain

import (
	"fmt"
	"strings"
	"time"
)

// CaseRecord represents a single court judgment in the corpus.
// Records are immutable once indexed; CaseID is the stable unique key.
type CaseRecord struct {
	CaseID       string
	Title        string
	Citation     string
	Court        string
	DecisionDate time.Time
	Judges       []string
	Tags         []string
	FullText     string
}

// NewCaseRecord creates a new CaseRecord instance.
func NewCaseRecord(
	caseID, title, citation, court string,
	decisionDate time.Time,
	fullText string,
) *CaseRecord {
	return &CaseRecord{
		CaseID:       caseID,
		Title:        title,
		Citation:     citation,
		Court:        court,
		DecisionDate: decisionDate,
		FullText:     fullText,
	}
}

// ValidateCaseRecord validates a CaseRecord before indexing.
func ValidateCaseRecord(c *CaseRecord) error {
	if c == nil {
		return fmt.Errorf("case record cannot be nil")
	}

	if strings.TrimSpace(c.CaseID) == "" {
		return fmt.Errorf("case record CaseID is required")
	}

	if strings.TrimSpace(c.FullText) == "" {
		return fmt.Errorf("case record FullText is required")
	}

	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("case record Title is required")
	}

	return nil
}

// NormalizeCaseRecord fills defaulted metadata on a record with missing
// optional fields. Required fields are left alone; validation catches those.
func NormalizeCaseRecord(c *CaseRecord) {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Citation) == "" {
		c.Citation = "No Citation"
	}
	if strings.TrimSpace(c.Court) == "" {
		c.Court = "Unknown"
	}
	c.Title = strings.TrimSpace(c.Title)
	c.Citation = strings.TrimSpace(c.Citation)
	c.Court = strings.TrimSpace(c.Court)
}

// RelatedCase is the case metadata attached to an answer.
type RelatedCase struct {
	CaseID       string
	Title        string
	Citation     string
	Court        string
	DecisionDate time.Time
}

// RelatedCaseFromRecord projects a CaseRecord onto its answer metadata.
func RelatedCaseFromRecord(c *CaseRecord) RelatedCase {
	return RelatedCase{
		CaseID:       c.CaseID,
		Title:        c.Title,
		Citation:     c.Citation,
		Court:        c.Court,
		DecisionDate: c.DecisionDate,
	}
}
