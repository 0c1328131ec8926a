package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// SegmentRepository is the pgvector-backed segment index. Each row carries
// the segment, its embedding, and a denormalized metadata snapshot of its
// case so search never joins.
type SegmentRepository struct {
	pool       *pgxpool.Pool
	dimensions int
}

func NewSegmentRepository(pool *pgxpool.Pool, dimensions int) *SegmentRepository {
	return &SegmentRepository{pool: pool, dimensions: dimensions}
}

// Upsert writes entries in one transaction, keyed by segment id. A reader
// either sees the whole batch or none of it.
func (r *SegmentRepository) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if err := domain.ValidateIndexEntry(&entries[i]); err != nil {
			return err
		}
		if err := r.checkDimension(entries[i].Embedding); err != nil {
			return err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO case_segments
				(segment_id, case_id, sequence_index, start_offset, end_offset, content, embedding,
				 title, citation, court, decision_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			 ON CONFLICT (segment_id) DO UPDATE SET
				case_id = EXCLUDED.case_id,
				sequence_index = EXCLUDED.sequence_index,
				start_offset = EXCLUDED.start_offset,
				end_offset = EXCLUDED.end_offset,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				title = EXCLUDED.title,
				citation = EXCLUDED.citation,
				court = EXCLUDED.court,
				decision_date = EXCLUDED.decision_date,
				updated_at = EXCLUDED.updated_at`,
			e.SegmentID, e.CaseID, e.SequenceIndex, e.StartOffset, e.EndOffset, e.Text,
			pgvector.NewVector(e.Embedding),
			e.Meta.Title, nullableString(e.Meta.Citation), nullableString(e.Meta.Court),
			nullableTime(e.Meta.DecisionDate), now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Search returns the limit nearest segments, filtered before ranking so a
// filtered search still fills its top-k. Ties break on segment id.
func (r *SegmentRepository) Search(ctx context.Context, vector []float32, limit int, filters domain.SearchFilters) ([]domain.SegmentMatch, error) {
	if err := r.checkDimension(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.SegmentMatch{}, nil
	}

	query := `
		SELECT segment_id, case_id, sequence_index, start_offset, end_offset, content,
		       title, citation, court, decision_date,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM case_segments
		WHERE embedding IS NOT NULL`
	args := []interface{}{pgvector.NewVector(vector)}

	if filters.Court != "" {
		args = append(args, filters.Court)
		query += fmt.Sprintf(" AND court = $%d", len(args))
	}
	if !filters.DateFrom.IsZero() {
		args = append(args, filters.DateFrom)
		query += fmt.Sprintf(" AND decision_date >= $%d", len(args))
	}
	if !filters.DateTo.IsZero() {
		args = append(args, filters.DateTo)
		query += fmt.Sprintf(" AND decision_date <= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY score DESC, segment_id ASC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.SegmentMatch, 0, limit)
	for rows.Next() {
		var m domain.SegmentMatch
		var citation, court *string
		var decisionDate *time.Time
		if err := rows.Scan(
			&m.Entry.SegmentID, &m.Entry.CaseID, &m.Entry.SequenceIndex,
			&m.Entry.StartOffset, &m.Entry.EndOffset, &m.Entry.Text,
			&m.Entry.Meta.Title, &citation, &court, &decisionDate, &m.Score,
		); err != nil {
			return nil, err
		}
		m.Entry.Meta.CaseID = m.Entry.CaseID
		if citation != nil {
			m.Entry.Meta.Citation = *citation
		}
		if court != nil {
			m.Entry.Meta.Court = *court
		}
		if decisionDate != nil {
			m.Entry.Meta.DecisionDate = *decisionDate
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// Count returns the number of indexed segments.
func (r *SegmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM case_segments`).Scan(&count)
	return count, err
}

func (r *SegmentRepository) checkDimension(embedding []float32) error {
	if r.dimensions > 0 && len(embedding) != r.dimensions {
		return domain.NewDomainErrorWithCause(
			domain.ErrCodeConfiguration,
			"embedding dimension does not match index",
			fmt.Errorf("got %d, expected %d", len(embedding), r.dimensions),
		)
	}
	return nil
}
