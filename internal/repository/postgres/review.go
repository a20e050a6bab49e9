package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/service/review"
)

// ReviewRepo implements review.Repository against PostgreSQL.
type ReviewRepo struct{ db *sql.DB }

// NewReviewRepo creates a Postgres-backed review queue repository.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `
	id, email_log_id, publisher_id, priority, status, COALESCE(reason,''),
	auto_approve_at, suggested_actions, missing_fields, very_low_confidence,
	COALESCE(reviewed_by,''), reviewed_at, created_at`

func (r *ReviewRepo) Insert(ctx context.Context, e *domain.ReviewQueueEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO publisher_review_queue
			(id, email_log_id, publisher_id, priority, status, reason,
			 auto_approve_at, suggested_actions, missing_fields,
			 very_low_confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (email_log_id) DO NOTHING
	`, e.ID, e.EmailLogID, e.PublisherID, e.Priority, e.Status, e.Reason,
		e.AutoApproveAt, pq.Array(e.SuggestedActions), pq.Array(e.MissingFields),
		e.VeryLowConfidence)
	if err != nil {
		return fmt.Errorf("insert review entry: %w", err)
	}
	return nil
}

func (r *ReviewRepo) Get(ctx context.Context, id string) (*domain.ReviewQueueEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM publisher_review_queue
		WHERE id = $1
	`, id)
	return scanReviewEntry(row.Scan)
}

func (r *ReviewRepo) ListPending(ctx context.Context, limit int) ([]*domain.ReviewQueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM publisher_review_queue
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()
	return collectReviewEntries(rows)
}

func (r *ReviewRepo) ListDueForAutoApproval(ctx context.Context, now time.Time, limit int) ([]*domain.ReviewQueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM publisher_review_queue
		WHERE status = 'pending' AND auto_approve_at IS NOT NULL AND auto_approve_at <= $1
		ORDER BY auto_approve_at ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due entries: %w", err)
	}
	defer rows.Close()
	return collectReviewEntries(rows)
}

func (r *ReviewRepo) MarkDecided(ctx context.Context, id string, status domain.ReviewStatus, reviewedBy string, reviewedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE publisher_review_queue
		SET status = $1, reviewed_by = NULLIF($2,''), reviewed_at = $3
		WHERE id = $4 AND status = 'pending'
	`, status, reviewedBy, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("mark decided: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return review.ErrNotFound
	}
	return nil
}

func collectReviewEntries(rows *sql.Rows) ([]*domain.ReviewQueueEntry, error) {
	var out []*domain.ReviewQueueEntry
	for rows.Next() {
		e, err := scanReviewEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanReviewEntry(scan func(...interface{}) error) (*domain.ReviewQueueEntry, error) {
	e := &domain.ReviewQueueEntry{}
	err := scan(
		&e.ID, &e.EmailLogID, &e.PublisherID, &e.Priority, &e.Status, &e.Reason,
		&e.AutoApproveAt, pq.Array(&e.SuggestedActions), pq.Array(&e.MissingFields),
		&e.VeryLowConfidence, &e.ReviewedBy, &e.ReviewedAt, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, review.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan review entry: %w", err)
	}
	return e, nil
}
