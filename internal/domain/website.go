package domain

import "time"

// Website is a domain a publisher can place content on. The normalized
// domain is the unique key; a website is created lazily the first time any
// email references it and never duplicated for the same normalized domain.
type Website struct {
	ID        string    `json:"id" db:"id"`
	Domain    string    `json:"domain" db:"domain"`
	Status    string    `json:"status" db:"status"`
	Source    string    `json:"source" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublisherWebsite links a confirmed publisher to a website. A given
// (publisher_id, website_id) pair appears at most once.
type PublisherWebsite struct {
	ID          string    `json:"id" db:"id"`
	PublisherID string    `json:"publisher_id" db:"publisher_id"`
	WebsiteID   string    `json:"website_id" db:"website_id"`
	Relationship string   `json:"relationship" db:"relationship"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ShadowPublisherWebsite is the unverified variant of PublisherWebsite,
// carrying the extraction confidence and method so reviewers can tell an
// AI-extracted link from a confirmed one.
type ShadowPublisherWebsite struct {
	ID               string    `json:"id" db:"id"`
	PublisherID      string    `json:"publisher_id" db:"publisher_id"`
	WebsiteID        string    `json:"website_id" db:"website_id"`
	Confidence       float64   `json:"confidence" db:"confidence"`
	ExtractionMethod string    `json:"extraction_method" db:"extraction_method"`
	Verified         bool      `json:"verified" db:"verified"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
