package domain

// ParsedEmail is the transient extraction result for one inbound email. It
// is never persisted as its own row; the pipeline serializes it into the
// email processing log.
type ParsedEmail struct {
	Sender            SenderInfo          `json:"sender"`
	Websites          []ExtractedWebsite  `json:"websites"`
	Offerings         []ExtractedOffering `json:"offerings"`
	OverallConfidence float64             `json:"overall_confidence"`
	MissingFields     []string            `json:"missing_fields"`
	ExtractionMethod  string              `json:"extraction_method"`
}

// SenderInfo is the contact identity extracted from an email.
type SenderInfo struct {
	Email       string  `json:"email"`
	ContactName string  `json:"contact_name"`
	CompanyName string  `json:"company_name"`
	Confidence  float64 `json:"confidence"`
}

// ExtractedWebsite is one website mention with its own confidence.
// Domain is already normalized by the extractor's post-processing step
// (best effort: the raw string survives when normalization fails).
type ExtractedWebsite struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
}

// ExtractedOffering is one offer extracted from the email. Every field is
// fully defaulted by post-processing so downstream code never sees a
// missing value. BasePrice is integer cents.
type ExtractedOffering struct {
	OfferingType   OfferingType `json:"offering_type"`
	OfferingName   string       `json:"offering_name"`
	BasePrice      int64        `json:"base_price"`
	Currency       string       `json:"currency"`
	TurnaroundDays int          `json:"turnaround_days"`

	ExpressAvailable bool  `json:"express_available"`
	ExpressPrice     int64 `json:"express_price"`
	ExpressDays      int   `json:"express_days"`

	MinWordCount int `json:"min_word_count"`
	MaxWordCount int `json:"max_word_count"`

	Niches    []string `json:"niches"`
	Languages []string `json:"languages"`

	Attributes map[string]any `json:"attributes"`

	PricingRules []ExtractedPricingRule `json:"pricing_rules"`

	Confidence float64 `json:"confidence"`
}

// ExtractedPricingRule is a conditional price adjustment read from the
// email, defaulted by post-processing (priority 10, not cumulative,
// auto-apply).
type ExtractedPricingRule struct {
	RuleType     PricingRuleType `json:"rule_type"`
	RuleName     string          `json:"rule_name"`
	Description  string          `json:"description"`
	Conditions   map[string]any  `json:"conditions"`
	Actions      map[string]any  `json:"actions"`
	Priority     int             `json:"priority"`
	IsCumulative bool            `json:"is_cumulative"`
	AutoApply    bool            `json:"auto_apply"`
}

// HasPricedOffering reports whether any extracted offering carries a
// positive base price.
func (p *ParsedEmail) HasPricedOffering() bool {
	for _, o := range p.Offerings {
		if o.BasePrice > 0 {
			return true
		}
	}
	return false
}
