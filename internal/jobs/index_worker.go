package jobs

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3
)

// IndexJobRepository defines the interface for index job persistence
type IndexJobRepository interface {
	// GetPendingJobs retrieves and claims pending index jobs
	GetPendingJobs(ctx context.Context) ([]*domain.IndexJob, error)

	// UpdateJobStatus updates the status of an index job
	UpdateJobStatus(ctx context.Context, jobID string, status domain.IndexJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// CaseSource loads the case a job refers to
type CaseSource interface {
	GetCase(ctx context.Context, caseID string) (*domain.CaseRecord, error)
}

// CaseIndexer runs the segment-embed-upsert pipeline over case records
type CaseIndexer interface {
	IndexCorpus(ctx context.Context, records []domain.CaseRecord) (*domain.IndexingReport, error)
}

// IndexWorker processes background re-index jobs one case at a time.
type IndexWorker struct {
	repo    IndexJobRepository
	cases   CaseSource
	indexer CaseIndexer
}

// NewIndexWorker creates a new IndexWorker instance
func NewIndexWorker(repo IndexJobRepository, cases CaseSource, indexer CaseIndexer) *IndexWorker {
	return &IndexWorker{
		repo:    repo,
		cases:   cases,
		indexer: indexer,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IndexWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending index jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IndexWorker) processJob(ctx context.Context, job *domain.IndexJob) error {
	if job.CaseID == "" {
		return fmt.Errorf("job %s has no case_id", job.ID)
	}

	log.Printf("Processing job %s for case %s", job.ID, job.CaseID)

	record, err := w.cases.GetCase(ctx, job.CaseID)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	report, err := w.indexer.IndexCorpus(ctx, []domain.CaseRecord{*record})
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}
	if len(report.Errors) > 0 {
		return w.handleJobFailure(ctx, job, fmt.Errorf("case rejected: %s", strings.Join(report.Errors, "; ")))
	}

	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IndexJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed: %d segments indexed", job.ID, report.SegmentsIndexed)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *IndexWorker) handleJobFailure(ctx context.Context, job *domain.IndexJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IndexJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IndexJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
