package invite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/domain"
)

type fakeMailer struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeMailer) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

func testConfig() config.InvitationConfig {
	return config.InvitationConfig{
		Enabled:     true,
		FromAddress: "invites@ignite.io",
		FromName:    "Publisher Team",
		SignupURL:   "https://publishers.ignite.io/claim",
	}
}

func shadowPublisher() *domain.Publisher {
	expires := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	return &domain.Publisher{
		ID:                "pub-1",
		Email:             "jane@techblog.com",
		ContactName:       "Jane",
		CompanyName:       "TechBlog Media",
		AccountStatus:     domain.PublisherShadow,
		InvitationToken:   "tok-abc123",
		InvitationExpires: &expires,
	}
}

func TestSendInvitationRendersTokenLink(t *testing.T) {
	m := &fakeMailer{}
	s, err := newSender(m, testConfig())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	if err := s.SendInvitation(context.Background(), shadowPublisher()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(m.inputs) != 1 {
		t.Fatalf("sent %d emails", len(m.inputs))
	}

	in := m.inputs[0]
	if got := *in.FromEmailAddress; got != "Publisher Team <invites@ignite.io>" {
		t.Fatalf("from = %q", got)
	}
	if in.Destination.ToAddresses[0] != "jane@techblog.com" {
		t.Fatalf("to = %v", in.Destination.ToAddresses)
	}
	html := *in.Content.Simple.Body.Html.Data
	if !strings.Contains(html, "https://publishers.ignite.io/claim?token=tok-abc123") {
		t.Fatalf("claim link missing: %s", html)
	}
	if !strings.Contains(html, "Jane") || !strings.Contains(html, "TechBlog Media") {
		t.Fatalf("contact details missing: %s", html)
	}
}

func TestSendInvitationDefaultsMissingName(t *testing.T) {
	m := &fakeMailer{}
	s, err := newSender(m, testConfig())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	pub := shadowPublisher()
	pub.ContactName = ""
	pub.CompanyName = ""
	if err := s.SendInvitation(context.Background(), pub); err != nil {
		t.Fatalf("send: %v", err)
	}
	html := *m.inputs[0].Content.Simple.Body.Html.Data
	if !strings.Contains(html, "Hi there,") {
		t.Fatalf("missing-name fallback not applied: %s", html)
	}
}

func TestSendInvitationRequiresToken(t *testing.T) {
	s, err := newSender(&fakeMailer{}, testConfig())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	pub := shadowPublisher()
	pub.InvitationToken = ""
	if err := s.SendInvitation(context.Background(), pub); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestSendInvitationSurfacesSESError(t *testing.T) {
	m := &fakeMailer{err: errors.New("throttled")}
	s, err := newSender(m, testConfig())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	if err := s.SendInvitation(context.Background(), shadowPublisher()); err == nil {
		t.Fatal("expected SES error to surface")
	}
}
