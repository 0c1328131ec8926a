package domain

// RankedCase is one case surfaced by retrieval, scored by its single best
// segment. Supporting segments are kept in descending score order.
type RankedCase struct {
	Meta     CaseMeta
	Score    float32
	Segments []SegmentMatch
}

// RetrievalResult is the ephemeral ranked output of the retrieval engine.
type RetrievalResult struct {
	Query string
	Cases []RankedCase
}

// ProcessingInfo carries the counters reported with every answer.
type ProcessingInfo struct {
	CasesRetrieved int
	CasesAnalyzed  int
}

// StructuredAnswer is the final response assembled from workflow state.
type StructuredAnswer struct {
	Query          string
	Answer         string
	RelatedCases   []RelatedCase
	LegalIssues    []string
	FollowUps      []string
	ReasoningSteps []string
	Processing     ProcessingInfo
}

// IndexingReport summarizes one corpus indexing run. Errors lists the
// records that were skipped, one message per record; a non-empty list does
// not mean the run failed.
type IndexingReport struct {
	CasesIndexed    int
	SegmentsIndexed int
	Errors          []string
}
