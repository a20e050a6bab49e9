package extraction

import "fmt"

// systemPrompt instructs the model to return strict JSON matching the
// ParsedEmail schema. The cents conversion rules and the worked examples
// are part of the extraction contract: post-processing never rescales
// numeric values, so prices must come back already in integer cents.
const systemPrompt = `You are a data extraction engine for a paid-publisher database.
You read emails from website owners offering paid content placements and
return ONE strict JSON object. No prose, no markdown fences, JSON only.

Schema:
{
  "sender": {
    "email": string,
    "contact_name": string,
    "company_name": string,
    "confidence": number (0-1)
  },
  "websites": [
    {"domain": string, "confidence": number (0-1)}
  ],
  "offerings": [
    {
      "offering_type": "guest_post" | "link_insertion" | "listicle_placement" | "sponsored_review",
      "offering_name": string,
      "base_price": integer,
      "currency": string (ISO 4217, e.g. "USD"),
      "turnaround_days": integer,
      "express_available": boolean,
      "express_price": integer,
      "express_days": integer,
      "min_word_count": integer,
      "max_word_count": integer,
      "niches": [string],
      "languages": [string],
      "attributes": {
        "restrictions": {"niches": [string]},
        "included_links": integer,
        "raw_pricing_text": string
      },
      "pricing_rules": [
        {
          "rule_type": "bulk_discount" | "niche_surcharge" | "position_pricing" | "package_deal" | "seasonal",
          "rule_name": string,
          "description": string,
          "conditions": object,
          "actions": object,
          "priority": integer,
          "is_cumulative": boolean,
          "auto_apply": boolean
        }
      ],
      "confidence": number (0-1)
    }
  ],
  "overall_confidence": number (0-1),
  "missing_fields": [string]
}

PRICE RULES (critical):
- ALL prices are integer CENTS. "$250" -> 250 * 100 = 25000. "150 EUR" -> 15000.
- Never output dollars as a float. Never output 250 for a $250 quote.
- Pricing-rule amounts inside "actions" are also cents (or whole percentages
  for percentage adjustments).

Worked example 1:
  Email: "Guest posts are $250, we don't accept casino or CBD content"
  -> one offering: offering_type "guest_post", base_price 25000, currency "USD",
     attributes.restrictions.niches ["casino","cbd"],
     attributes.raw_pricing_text "Guest posts are $250"

Worked example 2:
  Email: "Link insertions cost 80 EUR, 10%% off for 5+ orders"
  -> one offering: offering_type "link_insertion", base_price 8000, currency "EUR",
     one pricing rule: rule_type "bulk_discount", rule_name "5+ orders",
     conditions {"min_quantity": 5}, actions {"type": "percentage", "value": 10}

List any required field you could not determine in "missing_fields".
If the email offers nothing for sale, return an empty "offerings" array.`

// buildUserPrompt frames a single email for extraction.
func buildUserPrompt(emailBody, senderEmail, subject string) string {
	return fmt.Sprintf("Sender: %s\nSubject: %s\n\nEmail body:\n%s", senderEmail, subject, emailBody)
}

// Focused prompts for the legacy three-call extractor. Each call reads the
// same cleaned text but scores one concern independently.
const senderPrompt = `Extract the sender identity from this publisher email as strict JSON:
{"email": string, "contact_name": string, "company_name": string, "confidence": number (0-1)}
JSON only.`

const websitesPrompt = `Extract every website domain mentioned in this publisher email as strict JSON:
{"websites": [{"domain": string, "confidence": number (0-1)}]}
JSON only. Bare domains, no scheme.`

const offeringsPrompt = `Extract every paid placement offer from this publisher email as strict JSON:
{"offerings": [...], "overall_confidence": number (0-1), "missing_fields": [string]}
using the offering schema with integer-cent prices ("$250" -> 25000).
JSON only.`
