// Package domnorm canonicalizes raw domain and URL strings to a single
// comparable key. The normalized form is the unique key for the websites
// table, so every code path that touches a domain must route through
// Normalize first.
package domnorm

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes input to a bare lowercase hostname: scheme,
// "www." prefix, path, query, port, and trailing dot are stripped.
// Normalize is idempotent. It returns an error on input that cannot
// possibly be a hostname; callers are expected to catch the error and fall
// back to the raw string.
func Normalize(input string) (string, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return "", fmt.Errorf("empty domain")
	}

	// url.Parse needs a scheme to populate Host.
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse domain %q: %w", input, err)
	}

	host := u.Hostname() // strips port and brackets
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")

	if host == "" || !strings.Contains(host, ".") {
		return "", fmt.Errorf("not a domain: %q", input)
	}
	if strings.ContainsAny(host, " \t") {
		return "", fmt.Errorf("not a domain: %q", input)
	}

	return host, nil
}

// FromEmail extracts and normalizes the domain portion of an email address.
func FromEmail(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", fmt.Errorf("not an email address: %q", email)
	}
	return Normalize(email[at+1:])
}
