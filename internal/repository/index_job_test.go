//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyaya-labs/sahayak/internal/domain"
	"github.com/nyaya-labs/sahayak/internal/testutil"
)

func TestIndexJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIndexJobRepository(pool)

	job := domain.NewIndexJob("case-1")
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "case-1", got.CaseID)
	assert.Equal(t, domain.IndexJobStatusPending, got.Status)
	assert.Nil(t, got.ProcessedAt)
}

func TestIndexJobRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIndexJobRepository(pool)

	_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrIndexJobNotFound)
}

func TestIndexJobRepository_ClaimPendingMarksProcessing(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIndexJobRepository(pool)

	first := domain.NewIndexJob("case-1")
	second := domain.NewIndexJob("case-2")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, job := range claimed {
		assert.Equal(t, domain.IndexJobStatusProcessing, job.Status)
	}

	// Nothing left to claim.
	claimed, err = repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestIndexJobRepository_UpdateStatusSetsProcessedAt(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIndexJobRepository(pool)

	job := domain.NewIndexJob("case-1")
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusCompleted, ""))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexJobStatusCompleted, got.Status)
	assert.NotNil(t, got.ProcessedAt)
}

func TestIndexJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIndexJobRepository(pool)

	job := domain.NewIndexJob("case-1")
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.IncrementRetries(ctx, job.ID))
	require.NoError(t, repo.IncrementRetries(ctx, job.ID))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Retries)

	assert.ErrorIs(t, repo.IncrementRetries(ctx, "00000000-0000-0000-0000-000000000000"), ErrIndexJobNotFound)
}
