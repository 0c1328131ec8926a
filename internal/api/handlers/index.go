package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyaya-labs/sahayak/internal/api"
	"github.com/nyaya-labs/sahayak/internal/domain"
)

type CorpusIndexer interface {
	IndexCorpus(ctx context.Context, records []domain.CaseRecord) (*domain.IndexingReport, error)
}

// CorpusSource loads the configured corpus file.
type CorpusSource interface {
	LoadCorpus(ctx context.Context) ([]domain.CaseRecord, []string, error)
}

// IndexJobStore enqueues and reads background re-index jobs. Nil when the
// server runs without a database.
type IndexJobStore interface {
	Create(ctx context.Context, job *domain.IndexJob) error
	GetByID(ctx context.Context, id string) (*domain.IndexJob, error)
}

type IndexHandler struct {
	indexer CorpusIndexer
	source  CorpusSource
	jobs    IndexJobStore
}

func NewIndexHandler(indexer CorpusIndexer, source CorpusSource, jobs IndexJobStore) *IndexHandler {
	return &IndexHandler{indexer: indexer, source: source, jobs: jobs}
}

type IndexRequest struct {
	// CaseID enqueues a background re-index of one already-stored case.
	// When empty the whole corpus file is indexed synchronously.
	CaseID string `json:"case_id,omitempty"`
}

type IndexReportResponse struct {
	CasesIndexed    int      `json:"cases_indexed"`
	SegmentsIndexed int      `json:"segments_indexed"`
	Errors          []string `json:"errors"`
	SkippedRecords  []string `json:"skipped_records"`
}

type IndexJobResponse struct {
	JobID       string `json:"job_id"`
	CaseID      string `json:"case_id"`
	Status      string `json:"status"`
	Retries     int    `json:"retries"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

func jobToResponse(job *domain.IndexJob) *IndexJobResponse {
	resp := &IndexJobResponse{
		JobID:     job.ID,
		CaseID:    job.CaseID,
		Status:    string(job.Status),
		Retries:   job.Retries,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if job.ProcessedAt != nil {
		resp.ProcessedAt = job.ProcessedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// Index handles POST /api/v1/index.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CaseID != "" {
		h.enqueue(w, r, req.CaseID)
		return
	}

	records, skipped, err := h.source.LoadCorpus(r.Context())
	if err != nil {
		api.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := h.indexer.IndexCorpus(r.Context(), records)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if skipped == nil {
		skipped = []string{}
	}
	api.Success(w, http.StatusOK, IndexReportResponse{
		CasesIndexed:    report.CasesIndexed,
		SegmentsIndexed: report.SegmentsIndexed,
		Errors:          report.Errors,
		SkippedRecords:  skipped,
	})
}

func (h *IndexHandler) enqueue(w http.ResponseWriter, r *http.Request, caseID string) {
	if h.jobs == nil {
		api.Error(w, http.StatusBadRequest, "background indexing requires a database")
		return
	}

	job := domain.NewIndexJob(caseID)
	if err := h.jobs.Create(r.Context(), job); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, jobToResponse(job))
}

// GetJob handles GET /api/v1/index/jobs/{id}.
func (h *IndexHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		api.Error(w, http.StatusNotFound, "background indexing requires a database")
		return
	}

	jobID := chi.URLParam(r, "id")
	job, err := h.jobs.GetByID(r.Context(), jobID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, jobToResponse(job))
}
