package publisher

import (
	"context"

	"github.com/ignite/publisher-inbox/internal/domain"
)

// Repository defines the data access contract for publishers.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a publisher by id. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Publisher, error)

	// FindVerifiedActiveByEmail is the strict lookup: exact lowercased
	// email match restricted to account_status='active' AND
	// email_verified=true. Returns ErrNotFound on a miss.
	FindVerifiedActiveByEmail(ctx context.Context, email string) (*domain.Publisher, error)

	// FindBestByEmail is the loose lookup: exact email match regardless of
	// status/verification, best candidate first (active before shadow,
	// verified before unverified, oldest first as a tiebreak). Returns
	// ErrNotFound on a miss.
	FindBestByEmail(ctx context.Context, email string) (*domain.Publisher, error)

	// Create inserts a new publisher and returns its id.
	Create(ctx context.Context, p *domain.Publisher) (string, error)

	// UpdateContact refreshes contact/company names on an existing shadow
	// publisher when a later email supplies them.
	UpdateContact(ctx context.Context, id, contactName, companyName string) error
}
