package extraction

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/domnorm"
)

// rawParsedEmail mirrors the completion JSON schema. Everything here is
// untrusted model output and goes through coerce() before any downstream
// code touches it.
type rawParsedEmail struct {
	Sender            rawSender     `json:"sender"`
	Websites          []rawWebsite  `json:"websites"`
	Offerings         []rawOffering `json:"offerings"`
	OverallConfidence float64       `json:"overall_confidence"`
	MissingFields     []string      `json:"missing_fields"`
}

type rawSender struct {
	Email       string  `json:"email"`
	ContactName string  `json:"contact_name"`
	CompanyName string  `json:"company_name"`
	Confidence  float64 `json:"confidence"`
}

type rawWebsite struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
}

type rawOffering struct {
	OfferingType     string           `json:"offering_type"`
	OfferingName     string           `json:"offering_name"`
	BasePrice        int64            `json:"base_price"`
	Currency         string           `json:"currency"`
	TurnaroundDays   int              `json:"turnaround_days"`
	ExpressAvailable bool             `json:"express_available"`
	ExpressPrice     int64            `json:"express_price"`
	ExpressDays      int              `json:"express_days"`
	MinWordCount     int              `json:"min_word_count"`
	MaxWordCount     int              `json:"max_word_count"`
	Niches           []string         `json:"niches"`
	Languages        []string         `json:"languages"`
	Attributes       map[string]any   `json:"attributes"`
	PricingRules     []rawPricingRule `json:"pricing_rules"`
	Confidence       float64          `json:"confidence"`
}

type rawPricingRule struct {
	RuleType     string         `json:"rule_type"`
	RuleName     string         `json:"rule_name"`
	Description  string         `json:"description"`
	Conditions   map[string]any `json:"conditions"`
	Actions      map[string]any `json:"actions"`
	Priority     *int           `json:"priority"`
	IsCumulative *bool          `json:"is_cumulative"`
	AutoApply    *bool          `json:"auto_apply"`
}

// parseCompletion decodes the model's text output, tolerating markdown
// fences, and coerces it into a fully-defaulted ParsedEmail.
func parseCompletion(text, senderEmail, method string) (*domain.ParsedEmail, error) {
	cleaned := stripJSONFences(text)

	var raw rawParsedEmail
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("completion is not valid JSON: %w", err)
	}
	return coerce(&raw, senderEmail, method), nil
}

// coerce fills every field with defaults so downstream code never sees a
// missing value. Prices are passed through untouched: cents correctness is
// the prompt's responsibility, and rescaling here would silently corrupt
// values the model got right.
func coerce(raw *rawParsedEmail, senderEmail, method string) *domain.ParsedEmail {
	parsed := &domain.ParsedEmail{
		Sender: domain.SenderInfo{
			Email:       strings.ToLower(strings.TrimSpace(firstNonEmpty(raw.Sender.Email, senderEmail))),
			ContactName: strings.TrimSpace(raw.Sender.ContactName),
			CompanyName: strings.TrimSpace(raw.Sender.CompanyName),
			Confidence:  clamp01(raw.Sender.Confidence),
		},
		OverallConfidence: clamp01(raw.OverallConfidence),
		MissingFields:     raw.MissingFields,
		ExtractionMethod:  method,
	}
	if parsed.MissingFields == nil {
		parsed.MissingFields = []string{}
	}

	seen := map[string]bool{}
	for _, w := range raw.Websites {
		d := strings.TrimSpace(w.Domain)
		if d == "" {
			continue
		}
		normalized, err := domnorm.Normalize(d)
		if err != nil {
			// Keep the raw string rather than losing the mention.
			log.Printf("[extraction] domain %q did not normalize: %v", d, err)
			normalized = strings.ToLower(d)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		parsed.Websites = append(parsed.Websites, domain.ExtractedWebsite{
			Domain:     normalized,
			Confidence: clamp01(w.Confidence),
		})
	}

	// An email that names no site still identifies one: the sender's own
	// domain. Without this a priced offer from an unknown sender would
	// persist offerings with no website to attach them to.
	if len(parsed.Websites) == 0 {
		if d, err := domnorm.FromEmail(parsed.Sender.Email); err == nil {
			parsed.Websites = append(parsed.Websites, domain.ExtractedWebsite{
				Domain:     d,
				Confidence: parsed.Sender.Confidence,
			})
		}
	}

	for _, o := range raw.Offerings {
		offering := coerceOffering(o)
		if offering == nil {
			continue
		}
		parsed.Offerings = append(parsed.Offerings, *offering)
	}

	return parsed
}

func coerceOffering(o rawOffering) *domain.ExtractedOffering {
	offeringType := domain.OfferingType(strings.ToLower(strings.TrimSpace(o.OfferingType)))
	if !domain.ValidOfferingType(offeringType) {
		log.Printf("[extraction] dropping offering with unknown type %q", o.OfferingType)
		return nil
	}

	out := &domain.ExtractedOffering{
		OfferingType:     offeringType,
		OfferingName:     strings.TrimSpace(o.OfferingName),
		BasePrice:        o.BasePrice,
		Currency:         strings.ToUpper(strings.TrimSpace(o.Currency)),
		TurnaroundDays:   o.TurnaroundDays,
		ExpressAvailable: o.ExpressAvailable,
		ExpressPrice:     o.ExpressPrice,
		ExpressDays:      o.ExpressDays,
		MinWordCount:     o.MinWordCount,
		MaxWordCount:     o.MaxWordCount,
		Niches:           o.Niches,
		Languages:        o.Languages,
		Attributes:       o.Attributes,
		Confidence:       clamp01(o.Confidence),
	}

	if out.BasePrice < 0 {
		out.BasePrice = 0
	}
	if out.ExpressPrice < 0 {
		out.ExpressPrice = 0
	}
	if out.Currency == "" {
		out.Currency = "USD"
	}
	if out.Niches == nil {
		out.Niches = []string{}
	}
	if out.Languages == nil {
		out.Languages = []string{}
	}
	if out.Attributes == nil {
		out.Attributes = map[string]any{}
	}

	for _, r := range o.PricingRules {
		rule := coercePricingRule(r)
		if rule == nil {
			continue
		}
		out.PricingRules = append(out.PricingRules, *rule)
	}

	return out
}

func coercePricingRule(r rawPricingRule) *domain.ExtractedPricingRule {
	name := strings.TrimSpace(r.RuleName)
	if name == "" {
		return nil
	}

	rule := &domain.ExtractedPricingRule{
		RuleType:     domain.PricingRuleType(strings.ToLower(strings.TrimSpace(r.RuleType))),
		RuleName:     name,
		Description:  strings.TrimSpace(r.Description),
		Conditions:   r.Conditions,
		Actions:      r.Actions,
		Priority:     10,
		IsCumulative: false,
		AutoApply:    true,
	}
	if rule.RuleType == "" {
		rule.RuleType = domain.RulePackageDeal
	}
	if r.Priority != nil {
		rule.Priority = *r.Priority
	}
	if r.IsCumulative != nil {
		rule.IsCumulative = *r.IsCumulative
	}
	if r.AutoApply != nil {
		rule.AutoApply = *r.AutoApply
	}
	if rule.Conditions == nil {
		rule.Conditions = map[string]any{}
	}
	if rule.Actions == nil {
		rule.Actions = map[string]any{}
	}
	return rule
}

// stripJSONFences removes a leading/trailing markdown code fence if the
// model wrapped its JSON despite instructions.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
