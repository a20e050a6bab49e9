package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the idempotent DDL for every table the system writes. Each
// natural key carries a unique constraint so concurrent duplicate inserts
// degrade to no-ops at the database level, not just in application code.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS publishers (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		contact_name TEXT,
		company_name TEXT,
		account_status TEXT NOT NULL DEFAULT 'shadow',
		email_verified BOOLEAN NOT NULL DEFAULT false,
		confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		source TEXT,
		invitation_token TEXT,
		invitation_expires TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publishers_email ON publishers (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS websites (
		id UUID PRIMARY KEY,
		domain TEXT NOT NULL UNIQUE,
		status TEXT,
		source TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS publisher_websites (
		id UUID PRIMARY KEY,
		publisher_id UUID NOT NULL REFERENCES publishers(id),
		website_id UUID NOT NULL REFERENCES websites(id),
		relationship TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (publisher_id, website_id)
	)`,

	`CREATE TABLE IF NOT EXISTS shadow_publisher_websites (
		id UUID PRIMARY KEY,
		publisher_id UUID NOT NULL REFERENCES publishers(id),
		website_id UUID NOT NULL REFERENCES websites(id),
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		extraction_method TEXT,
		verified BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (publisher_id, website_id)
	)`,

	`CREATE TABLE IF NOT EXISTS publisher_offerings (
		id UUID PRIMARY KEY,
		publisher_id UUID NOT NULL REFERENCES publishers(id),
		offering_type TEXT NOT NULL,
		offering_name TEXT NOT NULL DEFAULT '',
		base_price BIGINT NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		turnaround_days INTEGER NOT NULL DEFAULT 0,
		availability TEXT NOT NULL DEFAULT 'pending_verification',
		express_available BOOLEAN NOT NULL DEFAULT false,
		express_price BIGINT NOT NULL DEFAULT 0,
		express_days INTEGER NOT NULL DEFAULT 0,
		min_word_count INTEGER NOT NULL DEFAULT 0,
		max_word_count INTEGER NOT NULL DEFAULT 0,
		niches TEXT[] NOT NULL DEFAULT '{}',
		languages TEXT[] NOT NULL DEFAULT '{}',
		attributes JSONB NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (publisher_id, offering_type, offering_name)
	)`,

	`CREATE TABLE IF NOT EXISTS offering_websites (
		id UUID PRIMARY KEY,
		offering_id UUID NOT NULL REFERENCES publisher_offerings(id),
		website_id UUID NOT NULL REFERENCES websites(id),
		is_primary BOOLEAN NOT NULL DEFAULT false,
		is_active BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (offering_id, website_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pricing_rules (
		id UUID PRIMARY KEY,
		offering_id UUID NOT NULL REFERENCES publisher_offerings(id),
		rule_type TEXT NOT NULL,
		rule_name TEXT NOT NULL,
		description TEXT,
		conditions JSONB NOT NULL DEFAULT '{}',
		actions JSONB NOT NULL DEFAULT '{}',
		priority INTEGER NOT NULL DEFAULT 10,
		is_cumulative BOOLEAN NOT NULL DEFAULT false,
		auto_apply BOOLEAN NOT NULL DEFAULT true,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (offering_id, rule_type, rule_name)
	)`,

	`CREATE TABLE IF NOT EXISTS email_processing_logs (
		id UUID PRIMARY KEY,
		sender_email TEXT NOT NULL,
		subject TEXT,
		campaign_type TEXT,
		status TEXT NOT NULL DEFAULT 'received',
		reason TEXT,
		publisher_id UUID,
		parsed_data JSONB,
		received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_email_logs_status ON email_processing_logs (status)`,

	`CREATE TABLE IF NOT EXISTS publisher_review_queue (
		id UUID PRIMARY KEY,
		email_log_id UUID NOT NULL UNIQUE REFERENCES email_processing_logs(id),
		publisher_id UUID NOT NULL REFERENCES publishers(id),
		priority INTEGER NOT NULL DEFAULT 5,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT,
		auto_approve_at TIMESTAMPTZ,
		suggested_actions TEXT[] NOT NULL DEFAULT '{}',
		missing_fields TEXT[] NOT NULL DEFAULT '{}',
		very_low_confidence BOOLEAN NOT NULL DEFAULT false,
		reviewed_by TEXT,
		reviewed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_queue_pending
		ON publisher_review_queue (status, auto_approve_at)`,

	`CREATE TABLE IF NOT EXISTS publisher_automation_logs (
		id UUID PRIMARY KEY,
		email_log_id UUID NOT NULL,
		publisher_id UUID,
		action TEXT NOT NULL,
		action_status TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_automation_logs_email
		ON publisher_automation_logs (email_log_id)`,
}

// EnsureSchema creates every table and index if it does not already exist.
// Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
