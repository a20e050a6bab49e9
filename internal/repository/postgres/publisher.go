package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/service/publisher"
)

// PublisherRepo implements publisher.Repository against PostgreSQL.
type PublisherRepo struct{ db *sql.DB }

// NewPublisherRepo creates a Postgres-backed publisher repository.
func NewPublisherRepo(db *sql.DB) *PublisherRepo { return &PublisherRepo{db: db} }

const publisherColumns = `
	id, email, COALESCE(contact_name,''), COALESCE(company_name,''),
	account_status, email_verified, confidence_score, COALESCE(source,''),
	COALESCE(invitation_token,''), invitation_expires, created_at, updated_at`

func (r *PublisherRepo) Get(ctx context.Context, id string) (*domain.Publisher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+publisherColumns+`
		FROM publishers
		WHERE id = $1
	`, id)
	return scanPublisher(row)
}

func (r *PublisherRepo) FindVerifiedActiveByEmail(ctx context.Context, email string) (*domain.Publisher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+publisherColumns+`
		FROM publishers
		WHERE LOWER(email) = LOWER($1) AND account_status = 'active' AND email_verified = true
		ORDER BY created_at ASC
		LIMIT 1
	`, email)
	return scanPublisher(row)
}

func (r *PublisherRepo) FindBestByEmail(ctx context.Context, email string) (*domain.Publisher, error) {
	// Active before shadow, verified before unverified, oldest as tiebreak.
	row := r.db.QueryRowContext(ctx, `
		SELECT `+publisherColumns+`
		FROM publishers
		WHERE LOWER(email) = LOWER($1)
		ORDER BY (account_status = 'active') DESC, email_verified DESC, created_at ASC
		LIMIT 1
	`, email)
	return scanPublisher(row)
}

func (r *PublisherRepo) Create(ctx context.Context, p *domain.Publisher) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO publishers
			(id, email, contact_name, company_name, account_status, email_verified,
			 confidence_score, source, invitation_token, invitation_expires,
			 created_at, updated_at)
		VALUES ($1, LOWER($2), $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`, p.ID, p.Email, p.ContactName, p.CompanyName, p.AccountStatus, p.EmailVerified,
		p.ConfidenceScore, p.Source, p.InvitationToken, p.InvitationExpires)
	if err != nil {
		return "", fmt.Errorf("create publisher: %w", err)
	}
	return p.ID, nil
}

func (r *PublisherRepo) UpdateContact(ctx context.Context, id, contactName, companyName string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE publishers
		SET contact_name = COALESCE(NULLIF($1,''), contact_name),
		    company_name = COALESCE(NULLIF($2,''), company_name),
		    updated_at = NOW()
		WHERE id = $3
	`, contactName, companyName, id)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

// ActivatePublisher flips a publisher and its pending offerings live. It
// backs review.Activator: approval is the single place a shadow record
// becomes a working one.
func (r *PublisherRepo) ActivatePublisher(ctx context.Context, publisherID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE publishers
		SET account_status = 'active', updated_at = NOW()
		WHERE id = $1
	`, publisherID)
	if err != nil {
		return fmt.Errorf("activate publisher: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return publisher.ErrNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE publisher_offerings
		SET is_active = true, availability = 'available', updated_at = NOW()
		WHERE publisher_id = $1 AND availability = 'pending_verification'
	`, publisherID)
	if err != nil {
		return fmt.Errorf("activate offerings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE offering_websites ow
		SET is_active = true
		FROM publisher_offerings po
		WHERE ow.offering_id = po.id AND po.publisher_id = $1
	`, publisherID)
	if err != nil {
		return fmt.Errorf("activate offering websites: %w", err)
	}
	return nil
}

func scanPublisher(row *sql.Row) (*domain.Publisher, error) {
	p := &domain.Publisher{}
	err := row.Scan(
		&p.ID, &p.Email, &p.ContactName, &p.CompanyName,
		&p.AccountStatus, &p.EmailVerified, &p.ConfidenceScore, &p.Source,
		&p.InvitationToken, &p.InvitationExpires, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, publisher.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan publisher: %w", err)
	}
	return p, nil
}
