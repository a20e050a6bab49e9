package emailclean

import (
	"strings"
	"testing"
)

func TestCleanSignatureTruncation(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "best regards",
			in:   "Guest posts are $250.\nBest regards,\nJohn Smith\nACME Media",
			want: "Guest posts are $250.",
		},
		{
			name: "dash delimiter",
			in:   "We charge $100 per link.\n--\nJane\njane@site.com",
			want: "We charge $100 per link.",
		},
		{
			name: "thanks",
			in:   "Sure, $300 for a sponsored review.\nThanks,\nMike",
			want: "Sure, $300 for a sponsored review.",
		},
		{
			name: "sent from mobile",
			in:   "Price is 150 EUR.\nSent from my iPhone",
			want: "Price is 150 EUR.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Clean(tc.in)
			if got != tc.want {
				t.Fatalf("Clean() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanQuotedReplyTruncation(t *testing.T) {
	in := "Yes, we can do $200.\n\nOn Mon, Jan 5, 2026 at 10:00 AM Sarah <sarah@agency.com> wrote:\n> Hi, would you accept guest posts?"
	got := Clean(in)
	if got != "Yes, we can do $200." {
		t.Fatalf("Clean() = %q", got)
	}
}

func TestCleanOriginalMessageMarker(t *testing.T) {
	in := "Our rate card is attached.\n-----Original Message-----\nFrom: buyer@agency.com"
	got := Clean(in)
	if got != "Our rate card is attached." {
		t.Fatalf("Clean() = %q", got)
	}
}

func TestCleanQuotedLines(t *testing.T) {
	in := "Works for us.\n> earlier message\n> more quoted text"
	if got := Clean(in); got != "Works for us." {
		t.Fatalf("Clean() = %q", got)
	}
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	in := "Guest   posts\n\n\nare   $250"
	if got := Clean(in); got != "Guest posts are $250" {
		t.Fatalf("Clean() = %q", got)
	}
}

func TestCleanNeverFails(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\n", ">", "--"} {
		got := Clean(in)
		if strings.TrimSpace(got) != got {
			t.Fatalf("Clean(%q) returned untrimmed output %q", in, got)
		}
	}
}

func TestCleanDashInsideProseSurvives(t *testing.T) {
	in := "The price -- as discussed -- is $400"
	if got := Clean(in); got != in {
		t.Fatalf("Clean() = %q, want unchanged", got)
	}
}
