package domain

import "time"

// AccountStatus enumerates the states a publisher account can be in.
type AccountStatus string

const (
	// PublisherShadow is an unverified record created from an inbound email.
	// Shadow publishers have no login and are invisible to the outside world
	// until promoted.
	PublisherShadow AccountStatus = "shadow"
	// PublisherActive is a confirmed, real account.
	PublisherActive AccountStatus = "active"
	// PublisherSuspended is an account locked out by operations.
	PublisherSuspended AccountStatus = "suspended"
)

// Publisher is a contact who may offer paid placements on one or more
// websites. Email is always stored lowercased; identity matching is exact
// email only — fuzzy or domain-based matching is never allowed because a
// false merge corrupts another user's data.
type Publisher struct {
	ID            string        `json:"id" db:"id"`
	Email         string        `json:"email" db:"email"`
	ContactName   string        `json:"contact_name" db:"contact_name"`
	CompanyName   string        `json:"company_name" db:"company_name"`
	AccountStatus AccountStatus `json:"account_status" db:"account_status"`
	EmailVerified bool          `json:"email_verified" db:"email_verified"`

	// ConfidenceScore is the extraction confidence recorded at creation,
	// in [0,1]. Meaningful for shadow publishers only.
	ConfidenceScore float64 `json:"confidence_score" db:"confidence_score"`
	Source          string  `json:"source" db:"source"`

	InvitationToken   string     `json:"-" db:"invitation_token"`
	InvitationExpires *time.Time `json:"invitation_expires" db:"invitation_expires"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsShadow reports whether the publisher is an unconfirmed shadow record.
func (p *Publisher) IsShadow() bool { return p.AccountStatus == PublisherShadow }
