package domain

import "time"

// OfferingType enumerates the priced services a publisher can provide.
type OfferingType string

const (
	OfferingGuestPost          OfferingType = "guest_post"
	OfferingLinkInsertion      OfferingType = "link_insertion"
	OfferingListiclePlacement  OfferingType = "listicle_placement"
	OfferingSponsoredReview    OfferingType = "sponsored_review"
)

// ValidOfferingType reports whether t is one of the known offering types.
func ValidOfferingType(t OfferingType) bool {
	switch t {
	case OfferingGuestPost, OfferingLinkInsertion, OfferingListiclePlacement, OfferingSponsoredReview:
		return true
	}
	return false
}

// Availability enumerates offering availability states.
type Availability string

const (
	AvailabilityPendingVerification Availability = "pending_verification"
	AvailabilityAvailable           Availability = "available"
	AvailabilityLimited             Availability = "limited"
	AvailabilityUnavailable         Availability = "unavailable"
)

// Offering is a priced service a publisher provides on a website.
//
// BasePrice is always integer cents. Money never persists as a float
// anywhere in the system.
type Offering struct {
	ID           string       `json:"id" db:"id"`
	PublisherID  string       `json:"publisher_id" db:"publisher_id"`
	OfferingType OfferingType `json:"offering_type" db:"offering_type"`
	OfferingName string       `json:"offering_name" db:"offering_name"`

	BasePrice      int64  `json:"base_price" db:"base_price"`
	Currency       string `json:"currency" db:"currency"`
	TurnaroundDays int    `json:"turnaround_days" db:"turnaround_days"`

	Availability Availability `json:"availability" db:"availability"`

	ExpressAvailable bool  `json:"express_available" db:"express_available"`
	ExpressPrice     int64 `json:"express_price" db:"express_price"`
	ExpressDays      int   `json:"express_days" db:"express_days"`

	MinWordCount int `json:"min_word_count" db:"min_word_count"`
	MaxWordCount int `json:"max_word_count" db:"max_word_count"`

	Niches    []string `json:"niches" db:"niches"`
	Languages []string `json:"languages" db:"languages"`

	// Attributes holds free-form extraction metadata: content restrictions,
	// included link counts, the raw pricing text the price was read from.
	Attributes map[string]any `json:"attributes" db:"attributes"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OfferingWebsite links an offering to the website it applies to. IsActive
// mirrors the offering's activation state at creation time.
type OfferingWebsite struct {
	ID         string    `json:"id" db:"id"`
	OfferingID string    `json:"offering_id" db:"offering_id"`
	WebsiteID  string    `json:"website_id" db:"website_id"`
	IsPrimary  bool      `json:"is_primary" db:"is_primary"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// PricingRuleType enumerates conditional price adjustments.
type PricingRuleType string

const (
	RuleBulkDiscount    PricingRuleType = "bulk_discount"
	RuleNicheSurcharge  PricingRuleType = "niche_surcharge"
	RulePositionPricing PricingRuleType = "position_pricing"
	RulePackageDeal     PricingRuleType = "package_deal"
	RuleSeasonal        PricingRuleType = "seasonal"
)

// PricingRule is a conditional price adjustment attached to one offering.
// Rules are deduplicated by (offering_id, rule_type, rule_name) so
// reprocessing the same email never creates duplicates.
type PricingRule struct {
	ID          string          `json:"id" db:"id"`
	OfferingID  string          `json:"offering_id" db:"offering_id"`
	RuleType    PricingRuleType `json:"rule_type" db:"rule_type"`
	RuleName    string          `json:"rule_name" db:"rule_name"`
	Description string          `json:"description" db:"description"`

	// Conditions is a JSON predicate (e.g. {"min_quantity": 5}); Actions is
	// a JSON adjustment (percentage/fixed/override, amounts in cents).
	Conditions map[string]any `json:"conditions" db:"conditions"`
	Actions    map[string]any `json:"actions" db:"actions"`

	Priority     int  `json:"priority" db:"priority"`
	IsCumulative bool `json:"is_cumulative" db:"is_cumulative"`
	AutoApply    bool `json:"auto_apply" db:"auto_apply"`
	IsActive     bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
