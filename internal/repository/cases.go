package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

// CaseRepository persists case records in Postgres.
type CaseRepository struct {
	db dbtx
}

func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: pool}
}

func NewCaseRepositoryWithTx(tx dbtx) *CaseRepository {
	return &CaseRepository{db: tx}
}

// PutCase inserts or replaces a case record by case id.
func (r *CaseRepository) PutCase(ctx context.Context, c *domain.CaseRecord) error {
	if err := domain.ValidateCaseRecord(c); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO cases (case_id, title, citation, court, decision_date, judges, tags, full_text, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (case_id) DO UPDATE SET
			title = EXCLUDED.title,
			citation = EXCLUDED.citation,
			court = EXCLUDED.court,
			decision_date = EXCLUDED.decision_date,
			judges = EXCLUDED.judges,
			tags = EXCLUDED.tags,
			full_text = EXCLUDED.full_text,
			updated_at = EXCLUDED.updated_at`,
		c.CaseID, c.Title, nullableString(c.Citation), nullableString(c.Court),
		nullableTime(c.DecisionDate), c.Judges, c.Tags, c.FullText, now,
	)
	return err
}

// GetCase returns the record for the given id or ErrCaseNotFound.
func (r *CaseRepository) GetCase(ctx context.Context, caseID string) (*domain.CaseRecord, error) {
	var c domain.CaseRecord
	var citation, court *string
	var decisionDate *time.Time

	err := r.db.QueryRow(ctx,
		`SELECT case_id, title, citation, court, decision_date, judges, tags, full_text
		 FROM cases WHERE case_id = $1`,
		caseID,
	).Scan(&c.CaseID, &c.Title, &citation, &court, &decisionDate, &c.Judges, &c.Tags, &c.FullText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCaseNotFound
		}
		return nil, err
	}

	if citation != nil {
		c.Citation = *citation
	}
	if court != nil {
		c.Court = *court
	}
	if decisionDate != nil {
		c.DecisionDate = *decisionDate
	}
	return &c, nil
}

// CaseTitles lists indexed case titles, most recently updated first.
func (r *CaseRepository) CaseTitles(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT title FROM cases ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := make([]string, 0, limit)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// CountCases returns the number of stored cases.
func (r *CaseRepository) CountCases(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cases`).Scan(&count)
	return count, err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
