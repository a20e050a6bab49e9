package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/publisher-inbox/internal/domain"
)

// LogRepo persists email processing logs and the append-only automation
// log. It backs pipeline.LogRepository and the Auditor interfaces the
// services consume.
type LogRepo struct{ db *sql.DB }

// NewLogRepo creates a Postgres-backed log repository.
func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{db: db} }

func (r *LogRepo) Create(ctx context.Context, e *domain.EmailProcessingLog) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = domain.ProcessingReceived
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_processing_logs
			(id, sender_email, subject, campaign_type, status, received_at)
		VALUES ($1, LOWER($2), $3, $4, $5, NOW())
	`, e.ID, e.SenderEmail, e.Subject, e.CampaignType, e.Status)
	if err != nil {
		return "", fmt.Errorf("create processing log: %w", err)
	}
	return e.ID, nil
}

func (r *LogRepo) Get(ctx context.Context, id string) (*domain.EmailProcessingLog, error) {
	e := &domain.EmailProcessingLog{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sender_email, COALESCE(subject,''), COALESCE(campaign_type,''),
		       status, COALESCE(reason,''), COALESCE(publisher_id::text,''),
		       COALESCE(parsed_data,'{}'), received_at, processed_at
		FROM email_processing_logs
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.SenderEmail, &e.Subject, &e.CampaignType,
		&e.Status, &e.Reason, &e.PublisherID,
		&e.ParsedData, &e.ReceivedAt, &e.ProcessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get processing log: %w", err)
	}
	return e, nil
}

func (r *LogRepo) UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_processing_logs
		SET status = $1, reason = $2,
		    processed_at = CASE WHEN $1 IN ('completed','disqualified','failed') THEN NOW() ELSE processed_at END
		WHERE id = $3
	`, status, reason, id)
	if err != nil {
		return fmt.Errorf("update processing log status: %w", err)
	}
	return nil
}

func (r *LogRepo) SetParsed(ctx context.Context, id string, parsed []byte) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_processing_logs SET parsed_data = $1 WHERE id = $2
	`, parsed, id)
	if err != nil {
		return fmt.Errorf("store parsed data: %w", err)
	}
	return nil
}

func (r *LogRepo) SetPublisher(ctx context.Context, id, publisherID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_processing_logs SET publisher_id = $1 WHERE id = $2
	`, publisherID, id)
	if err != nil {
		return fmt.Errorf("link publisher: %w", err)
	}
	return nil
}

// Append writes one automation log row. Rows are insert-only; there is no
// update path anywhere in the codebase.
func (r *LogRepo) Append(ctx context.Context, e *domain.AutomationLog) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO publisher_automation_logs
			(id, email_log_id, publisher_id, action, action_status, confidence, metadata, created_at)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, $7, NOW())
	`, e.ID, e.EmailLogID, e.PublisherID, e.Action, e.ActionStatus, e.Confidence, meta)
	if err != nil {
		return fmt.Errorf("append automation log: %w", err)
	}
	return nil
}

// ListAutomationLogs returns the audit trail for one email, oldest first.
func (r *LogRepo) ListAutomationLogs(ctx context.Context, emailLogID string) ([]*domain.AutomationLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email_log_id, COALESCE(publisher_id::text,''), action, action_status,
		       confidence, COALESCE(metadata,'{}'), created_at
		FROM publisher_automation_logs
		WHERE email_log_id = $1
		ORDER BY created_at ASC
	`, emailLogID)
	if err != nil {
		return nil, fmt.Errorf("list automation logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.AutomationLog
	for rows.Next() {
		e := &domain.AutomationLog{}
		var meta []byte
		if err := rows.Scan(
			&e.ID, &e.EmailLogID, &e.PublisherID, &e.Action, &e.ActionStatus,
			&e.Confidence, &meta, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan automation log: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
