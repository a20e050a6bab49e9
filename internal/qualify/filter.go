// Package qualify decides whether an inbound publisher email represents a
// genuine paid offer. It is a deterministic text-classification pass — no
// AI call — and intentionally conservative: an explicit pricing mention
// always routes the email onward for review rather than dropping it.
package qualify

import (
	"strings"

	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/emailclean"
)

// Reason codes recorded on the processing log for disqualified emails.
const (
	ReasonNoOfferings   = "no_offerings"
	ReasonNoPricing     = "no_pricing"
	ReasonRejection     = "rejection"
	ReasonLinkSwap      = "link_swap"
	ReasonVagueResponse = "vague_response"
)

// Result is the qualification outcome for one email.
type Result struct {
	Qualified bool
	Reason    string
	Notes     string
}

var pricingTokens = []string{
	"price", "pricing", "cost", "fee", "charge", "rate",
	"$", "€", "£", "usd", "eur", "gbp",
	"payment", "invoice", "paypal",
}

var rejectionPhrases = []string{
	"no thanks", "no thank you", "not interested", "pass on this",
	"remove", "unsubscribe", "stop emailing", "do not contact",
}

var linkSwapPhrases = []string{
	"in return", "in exchange", "reciprocal", "link swap", "link exchange",
	"free link", "no cost", "free of charge", "mutual link",
}

var vaguePhrases = []string{
	"sounds good", "let me know", "tell me more", "more details",
	"more information", "interested in hearing", "get back to you",
}

// Qualify applies the decision rules in order to the reply-only portion of
// emailBody. It works on uncleaned input: the reply extraction runs here
// independently of the cleaner.
func Qualify(emailBody string, parsed *domain.ParsedEmail) Result {
	reply := strings.ToLower(emailclean.Clean(emailBody))

	if len(parsed.Offerings) == 0 {
		return Result{Qualified: false, Reason: ReasonNoOfferings, Notes: "no offerings extracted"}
	}
	if !parsed.HasPricedOffering() {
		return Result{Qualified: false, Reason: ReasonNoPricing, Notes: "no offering has a positive price"}
	}

	// A pricing mention always wins over rejection/link-swap/vague signals:
	// explicit monetization intent goes to review, never silently dropped.
	if token, ok := containsAny(reply, pricingTokens); ok {
		return Result{Qualified: true, Notes: "pricing mention: " + token}
	}

	if phrase, ok := containsAny(reply, rejectionPhrases); ok {
		return Result{Qualified: false, Reason: ReasonRejection, Notes: "rejection language: " + phrase}
	}

	if phrase, ok := containsAny(reply, linkSwapPhrases); ok {
		return Result{Qualified: false, Reason: ReasonLinkSwap, Notes: "link exchange language: " + phrase}
	}

	if phrase, ok := containsAny(reply, vaguePhrases); ok {
		return Result{Qualified: false, Reason: ReasonVagueResponse, Notes: "vague interest only: " + phrase}
	}

	return Result{Qualified: true}
}

func containsAny(text string, needles []string) (string, bool) {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return n, true
		}
	}
	return "", false
}
