package domain

import (
	"time"

	"github.com/google/uuid"
)

// IndexJobStatus represents the lifecycle state of an index job.
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJob is a request to (re-)index one case in the background. Indexing
// is idempotent, so re-running a job is always safe.
type IndexJob struct {
	ID          string
	CaseID      string
	Status      IndexJobStatus
	Retries     int
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewIndexJob creates a pending index job for the given case.
func NewIndexJob(caseID string) *IndexJob {
	return &IndexJob{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Status:    IndexJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}
