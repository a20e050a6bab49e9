package qualify

import (
	"testing"

	"github.com/ignite/publisher-inbox/internal/domain"
)

func pricedParsed(price int64) *domain.ParsedEmail {
	return &domain.ParsedEmail{
		Offerings: []domain.ExtractedOffering{
			{OfferingType: domain.OfferingGuestPost, BasePrice: price, Confidence: 0.8},
		},
		OverallConfidence: 0.8,
	}
}

func TestQualifyNoOfferings(t *testing.T) {
	r := Qualify("Thanks, not interested, please remove me", &domain.ParsedEmail{})
	if r.Qualified {
		t.Fatal("expected disqualification")
	}
	if r.Reason != ReasonNoOfferings {
		t.Fatalf("reason = %q", r.Reason)
	}
}

func TestQualifyNoPricing(t *testing.T) {
	r := Qualify("We do guest posts", pricedParsed(0))
	if r.Qualified || r.Reason != ReasonNoPricing {
		t.Fatalf("got %+v", r)
	}
}

func TestQualifyPricingToken(t *testing.T) {
	for _, body := range []string{
		"Guest posts are $250",
		"The fee is 200 euros, payment via PayPal",
		"Our rate card is attached",
		"We will send an invoice",
	} {
		r := Qualify(body, pricedParsed(25000))
		if !r.Qualified {
			t.Errorf("body %q: expected qualified, got %+v", body, r)
		}
	}
}

// A pricing mention overrides rejection and link-swap signals in the same
// reply: explicit monetization intent always routes onward for review.
func TestQualifyPricingOverridesRejection(t *testing.T) {
	r := Qualify("Not interested in free posts, but sponsored content costs $300. Otherwise please remove me.", pricedParsed(30000))
	if !r.Qualified {
		t.Fatalf("pricing mention must override rejection: %+v", r)
	}
}

func TestQualifyPricingOverridesLinkSwap(t *testing.T) {
	r := Qualify("We usually do link swaps in exchange, but for $150 we can post directly", pricedParsed(15000))
	if !r.Qualified {
		t.Fatalf("pricing mention must override link swap: %+v", r)
	}
}

func TestQualifyRejection(t *testing.T) {
	r := Qualify("No thanks, pass on this one", pricedParsed(10000))
	if r.Qualified || r.Reason != ReasonRejection {
		t.Fatalf("got %+v", r)
	}
}

func TestQualifyLinkSwap(t *testing.T) {
	r := Qualify("We could do a reciprocal link instead, no need to pay", pricedParsed(10000))
	if r.Qualified || r.Reason != ReasonLinkSwap {
		t.Fatalf("got %+v", r)
	}
}

func TestQualifyVagueResponse(t *testing.T) {
	r := Qualify("Sounds good, let me know", pricedParsed(10000))
	if r.Qualified || r.Reason != ReasonVagueResponse {
		t.Fatalf("got %+v", r)
	}
}

func TestQualifyDefault(t *testing.T) {
	r := Qualify("We accept guest posts on our marketing blog", pricedParsed(20000))
	if !r.Qualified {
		t.Fatalf("got %+v", r)
	}
}

// Qualification inspects only the reply portion: a pricing token buried in
// the quoted original must not qualify a rejection reply.
func TestQualifyIgnoresQuotedText(t *testing.T) {
	body := "Not interested, remove me.\n\nOn Mon, Jan 5 buyer@agency.com wrote:\n> Our budget is $500 per price placement"
	r := Qualify(body, pricedParsed(50000))
	if r.Qualified {
		t.Fatalf("quoted pricing token must not qualify: %+v", r)
	}
	if r.Reason != ReasonRejection {
		t.Fatalf("reason = %q", r.Reason)
	}
}
