package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIndexJobRepository is a mock implementation of IndexJobRepository
type MockIndexJobRepository struct {
	mock.Mock
}

func (m *MockIndexJobRepository) GetPendingJobs(ctx context.Context) ([]*domain.IndexJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IndexJob), args.Error(1)
}

func (m *MockIndexJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.IndexJobStatus, errMsg string) error {
	args := m.Called(ctx, jobID, status, errMsg)
	return args.Error(0)
}

func (m *MockIndexJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockCaseSource is a mock implementation of CaseSource
type MockCaseSource struct {
	mock.Mock
}

func (m *MockCaseSource) GetCase(ctx context.Context, caseID string) (*domain.CaseRecord, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaseRecord), args.Error(1)
}

// MockCaseIndexer is a mock implementation of CaseIndexer
type MockCaseIndexer struct {
	mock.Mock
}

func (m *MockCaseIndexer) IndexCorpus(ctx context.Context, records []domain.CaseRecord) (*domain.IndexingReport, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexingReport), args.Error(1)
}

func testCase(caseID string) *domain.CaseRecord {
	return &domain.CaseRecord{CaseID: caseID, Title: "Case " + caseID, FullText: "text"}
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_FirstPassRunsImmediately tests that a pass runs on Start
// without waiting out the first interval
func TestWorker_FirstPassRunsImmediately(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, time.Hour)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertNumberOfCalls(t, "ProcessJobs", 1)
}

// TestWorker_StopBeforeStart tests that stopping an unstarted worker is a no-op
func TestWorker_StopBeforeStart(t *testing.T) {
	worker := NewWorker(new(MockJobProcessor), time.Hour)
	worker.Stop()
}

// TestIndexWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestIndexWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockIndexJobRepository)
	mockCases := new(MockCaseSource)
	mockIndexer := new(MockCaseIndexer)

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IndexJob{}, nil)

	worker := NewIndexWorker(mockRepo, mockCases, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIndexer.AssertNotCalled(t, "IndexCorpus", mock.Anything, mock.Anything)
}

// TestIndexWorker_ProcessJobs_Success tests successful job processing
func TestIndexWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockIndexJobRepository)
	mockCases := new(MockCaseSource)
	mockIndexer := new(MockCaseIndexer)

	job := &domain.IndexJob{
		ID:     "job-1",
		CaseID: "case-1",
		Status: domain.IndexJobStatusPending,
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IndexJob{job}, nil)
	mockCases.On("GetCase", mock.Anything, "case-1").Return(testCase("case-1"), nil)
	mockIndexer.On("IndexCorpus", mock.Anything, mock.Anything).
		Return(&domain.IndexingReport{CasesIndexed: 1, SegmentsIndexed: 4, Errors: []string{}}, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IndexJobStatusCompleted, "").Return(nil)

	worker := NewIndexWorker(mockRepo, mockCases, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockCases.AssertExpectations(t)
	mockIndexer.AssertExpectations(t)
}

// TestIndexWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestIndexWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockIndexJobRepository)
	mockCases := new(MockCaseSource)
	mockIndexer := new(MockCaseIndexer)

	job := &domain.IndexJob{
		ID:     "job-1",
		CaseID: "case-1",
		Status: domain.IndexJobStatusPending,
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IndexJob{job}, nil)
	mockCases.On("GetCase", mock.Anything, "case-1").Return(nil, errors.New("case lookup failed"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IndexJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIndexWorker(mockRepo, mockCases, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestIndexWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestIndexWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockIndexJobRepository)
	mockCases := new(MockCaseSource)
	mockIndexer := new(MockCaseIndexer)

	job := &domain.IndexJob{
		ID:      "job-1",
		CaseID:  "case-1",
		Status:  domain.IndexJobStatusPending,
		Retries: 2, // Already retried twice
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IndexJob{job}, nil)
	mockCases.On("GetCase", mock.Anything, "case-1").Return(testCase("case-1"), nil)
	mockIndexer.On("IndexCorpus", mock.Anything, mock.Anything).Return(nil, errors.New("embedding provider down"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IndexJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIndexWorker(mockRepo, mockCases, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestIndexWorker_ProcessJobs_RejectedCaseFailsJob tests that a skipped
// record fails the job instead of silently completing
func TestIndexWorker_ProcessJobs_RejectedCaseFailsJob(t *testing.T) {
	mockRepo := new(MockIndexJobRepository)
	mockCases := new(MockCaseSource)
	mockIndexer := new(MockCaseIndexer)

	job := &domain.IndexJob{
		ID:     "job-1",
		CaseID: "case-1",
		Status: domain.IndexJobStatusPending,
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IndexJob{job}, nil)
	mockCases.On("GetCase", mock.Anything, "case-1").Return(testCase("case-1"), nil)
	mockIndexer.On("IndexCorpus", mock.Anything, mock.Anything).
		Return(&domain.IndexingReport{Errors: []string{`case "case-1": missing full text`}}, nil)
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IndexJobStatusPending, mock.Anything).Return(nil)

	worker := NewIndexWorker(mockRepo, mockCases, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestIndexWorker_ProcessJobs_RepositoryError tests repository error handling
func TestIndexWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockIndexJobRepository)
	mockCases := new(MockCaseSource)
	mockIndexer := new(MockCaseIndexer)

	mockRepo.On("GetPendingJobs", mock.Anything).Return(nil, errors.New("database error"))

	worker := NewIndexWorker(mockRepo, mockCases, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pending jobs")
	mockRepo.AssertExpectations(t)
}
