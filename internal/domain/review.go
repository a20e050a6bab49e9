package domain

import "time"

// ReviewStatus enumerates review queue entry states.
type ReviewStatus string

const (
	ReviewPending      ReviewStatus = "pending"
	ReviewApproved     ReviewStatus = "approved"
	ReviewRejected     ReviewStatus = "rejected"
	ReviewAutoApproved ReviewStatus = "auto_approved"
)

// ReviewQueueEntry is one unit of human (or delayed-automatic) review for a
// single email-processing event.
type ReviewQueueEntry struct {
	ID          string       `json:"id" db:"id"`
	EmailLogID  string       `json:"email_log_id" db:"email_log_id"`
	PublisherID string       `json:"publisher_id" db:"publisher_id"`
	Priority    int          `json:"priority" db:"priority"`
	Status      ReviewStatus `json:"status" db:"status"`
	Reason      string       `json:"reason" db:"reason"`

	// AutoApproveAt, when set, lets the sweeper promote the entry to
	// auto_approved without human action.
	AutoApproveAt *time.Time `json:"auto_approve_at" db:"auto_approve_at"`

	SuggestedActions []string `json:"suggested_actions" db:"suggested_actions"`
	MissingFields    []string `json:"missing_fields" db:"missing_fields"`

	VeryLowConfidence bool `json:"very_low_confidence" db:"very_low_confidence"`

	ReviewedBy string     `json:"reviewed_by" db:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at" db:"reviewed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// AutomationAction enumerates the audited pipeline decisions.
type AutomationAction string

const (
	ActionPublisherCreated  AutomationAction = "publisher_created"
	ActionPublisherUpdated  AutomationAction = "publisher_updated"
	ActionOfferingCreated   AutomationAction = "offering_created"
	ActionOfferingUpdated   AutomationAction = "offering_updated"
	ActionAutoApproved      AutomationAction = "auto_approved"
	ActionQueuedForReview   AutomationAction = "queued_for_review"
	ActionDisqualified      AutomationAction = "disqualified"
	ActionError             AutomationAction = "error"
)

// AutomationLog is one append-only audit record. Rows are never mutated
// after insert.
type AutomationLog struct {
	ID          string           `json:"id" db:"id"`
	EmailLogID  string           `json:"email_log_id" db:"email_log_id"`
	PublisherID string           `json:"publisher_id" db:"publisher_id"`
	Action      AutomationAction `json:"action" db:"action"`

	// ActionStatus is "success" or "failed".
	ActionStatus string         `json:"action_status" db:"action_status"`
	Confidence   float64        `json:"confidence" db:"confidence"`
	Metadata     map[string]any `json:"metadata" db:"metadata"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// ProcessingStatus enumerates email processing log states.
type ProcessingStatus string

const (
	ProcessingReceived     ProcessingStatus = "received"
	ProcessingParsed       ProcessingStatus = "parsed"
	ProcessingQualified    ProcessingStatus = "qualified"
	ProcessingDisqualified ProcessingStatus = "disqualified"
	ProcessingCompleted    ProcessingStatus = "completed"
	ProcessingFailed       ProcessingStatus = "failed"
)

// EmailProcessingLog records one inbound email end to end. The serialized
// ParsedEmail is stored on this row rather than in its own table.
type EmailProcessingLog struct {
	ID           string           `json:"id" db:"id"`
	SenderEmail  string           `json:"sender_email" db:"sender_email"`
	Subject      string           `json:"subject" db:"subject"`
	CampaignType string           `json:"campaign_type" db:"campaign_type"`
	Status       ProcessingStatus `json:"status" db:"status"`
	Reason       string           `json:"reason" db:"reason"`
	PublisherID  string           `json:"publisher_id" db:"publisher_id"`
	ParsedData   []byte           `json:"-" db:"parsed_data"`
	ReceivedAt   time.Time        `json:"received_at" db:"received_at"`
	ProcessedAt  *time.Time       `json:"processed_at" db:"processed_at"`
}
