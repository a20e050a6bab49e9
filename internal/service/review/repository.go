package review

import (
	"context"
	"time"

	"github.com/ignite/publisher-inbox/internal/domain"
)

// Repository defines the review queue data access contract.
type Repository interface {
	Insert(ctx context.Context, e *domain.ReviewQueueEntry) error
	Get(ctx context.Context, id string) (*domain.ReviewQueueEntry, error)

	// ListPending returns pending entries ordered by priority descending,
	// then oldest first.
	ListPending(ctx context.Context, limit int) ([]*domain.ReviewQueueEntry, error)

	// ListDueForAutoApproval returns pending entries whose AutoApproveAt is
	// at or before now, oldest first, capped at limit.
	ListDueForAutoApproval(ctx context.Context, now time.Time, limit int) ([]*domain.ReviewQueueEntry, error)

	// MarkDecided transitions the entry out of pending. reviewedBy is empty
	// for sweeper-driven auto-approvals.
	MarkDecided(ctx context.Context, id string, status domain.ReviewStatus, reviewedBy string, reviewedAt time.Time) error
}

// Activator flips a publisher and its pending offerings live. The review
// service calls it on approval; implementations live in the postgres layer.
type Activator interface {
	ActivatePublisher(ctx context.Context, publisherID string) error
}

// Auditor appends append-only automation log entries.
type Auditor interface {
	Append(ctx context.Context, e *domain.AutomationLog) error
}
