package reconcile

import (
	"context"

	"github.com/ignite/publisher-inbox/internal/domain"
)

// Repository defines the data access contract for the reconciliation graph.
// Implementations must be safe for concurrent use. Lookups return
// ErrNotFound on a miss; Has* checks exist for relations whose only content
// is the key itself.
type Repository interface {
	// FindWebsiteByDomain looks a website up by its normalized domain.
	FindWebsiteByDomain(ctx context.Context, domain string) (*domain.Website, error)

	// CreateWebsite inserts a website and returns its id. The normalized
	// domain is the natural key; implementations guard it with
	// ON CONFLICT DO NOTHING.
	CreateWebsite(ctx context.Context, w *domain.Website) (string, error)

	HasPublisherWebsite(ctx context.Context, publisherID, websiteID string) (bool, error)
	CreatePublisherWebsite(ctx context.Context, link *domain.PublisherWebsite) error

	HasShadowPublisherWebsite(ctx context.Context, publisherID, websiteID string) (bool, error)
	CreateShadowPublisherWebsite(ctx context.Context, link *domain.ShadowPublisherWebsite) error

	// FindOffering matches on (publisherID, offeringType) and, when
	// offeringName is non-empty, also on the name.
	FindOffering(ctx context.Context, publisherID string, offeringType domain.OfferingType, offeringName string) (*domain.Offering, error)
	CreateOffering(ctx context.Context, o *domain.Offering) (string, error)

	// UpdateOfferingFields applies the non-nil fields of u.
	UpdateOfferingFields(ctx context.Context, id string, u OfferingUpdate) error

	HasOfferingWebsite(ctx context.Context, offeringID, websiteID string) (bool, error)
	CreateOfferingWebsite(ctx context.Context, rel *domain.OfferingWebsite) error

	HasPricingRule(ctx context.Context, offeringID string, ruleType domain.PricingRuleType, ruleName string) (bool, error)
	CreatePricingRule(ctx context.Context, r *domain.PricingRule) error
}

// OfferingUpdate holds the mutable offering fields for a confidence-gated
// update. Nil fields are not applied.
type OfferingUpdate struct {
	BasePrice      *int64
	Currency       *string
	TurnaroundDays *int
	MinWordCount   *int
	MaxWordCount   *int
	Niches         []string
	Attributes     map[string]any
}

// IsEmpty reports whether the update would change nothing.
func (u OfferingUpdate) IsEmpty() bool {
	return u.BasePrice == nil && u.Currency == nil && u.TurnaroundDays == nil &&
		u.MinWordCount == nil && u.MaxWordCount == nil && u.Niches == nil && u.Attributes == nil
}

// Auditor appends append-only automation log entries. Append failures are
// logged by callers but never fail the reconciliation itself.
type Auditor interface {
	Append(ctx context.Context, e *domain.AutomationLog) error
}
