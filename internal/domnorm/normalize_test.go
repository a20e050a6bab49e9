package domnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"https://www.Example.com/path?x=1", "example.com"},
		{"http://example.com:8080", "example.com"},
		{"WWW.EXAMPLE.COM", "example.com"},
		{"example.com.", "example.com"},
		{"  blog.example.co.uk/about  ", "blog.example.co.uk"},
		{"https://site.io", "site.io"},
	}

	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"example.com", "https://www.example.com/x", "Blog.Site.ORG:443"} {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)): %v", in, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not a domain", "localhost", "@@@"} {
		if got, err := Normalize(in); err == nil {
			t.Errorf("Normalize(%q) = %q, want error", in, got)
		}
	}
}

func TestFromEmail(t *testing.T) {
	got, err := FromEmail("editor@Publisher.com")
	if err != nil {
		t.Fatalf("FromEmail: %v", err)
	}
	if got != "publisher.com" {
		t.Fatalf("FromEmail = %q", got)
	}

	if _, err := FromEmail("no-at-sign"); err == nil {
		t.Fatal("expected error for non-email input")
	}
}
