// Package emailclean strips signatures, quoted-reply chains, and excess
// whitespace from raw email text before extraction or qualification.
package emailclean

import (
	"regexp"
	"strings"
)

// Signature and quoted-reply markers. Matched case-insensitively at the
// start of a line; everything from the first match onward is dropped.
var signatureMarkers = []string{
	"--",
	"best regards,",
	"best regards",
	"kind regards,",
	"kind regards",
	"sincerely,",
	"sincerely",
	"regards,",
	"thanks,",
	"thank you,",
	"cheers,",
	"sent from my",
}

var quoteMarkers = []string{
	"-----original message-----",
	"wrote:",
}

// "On Mon, Jan 2 ... wrote:" reply headers, possibly wrapped across the line.
var onWroteRe = regexp.MustCompile(`(?i)^on .{0,200}wrote:`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Clean returns the reply-only portion of a raw email with whitespace
// collapsed. It is a pure function and never fails: malformed input yields
// best-effort output.
func Clean(raw string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(ReplyOnly(raw)), " ")
}

// ReplyOnly truncates raw at the first signature or quoted-reply marker,
// preserving the original line structure. Quoted lines (starting with ">")
// also end the reply portion.
func ReplyOnly(raw string) string {
	lines := strings.Split(raw, "\n")
	var kept []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if strings.HasPrefix(trimmed, ">") {
			break
		}
		if isSignatureLine(lower) || isQuoteLine(lower) {
			break
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

func isSignatureLine(lower string) bool {
	for _, m := range signatureMarkers {
		if m == "--" {
			// Exact delimiter line only; "--" inside prose doesn't count.
			if lower == "--" || lower == "---" {
				return true
			}
			continue
		}
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	return false
}

func isQuoteLine(lower string) bool {
	for _, m := range quoteMarkers {
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	return onWroteRe.MatchString(lower)
}
