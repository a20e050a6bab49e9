package publisher_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/service/publisher"
)

// memRepo is an in-memory publisher repository for unit testing.
type memRepo struct {
	mu         sync.Mutex
	publishers map[string]*domain.Publisher // keyed by id
}

func newMemRepo() *memRepo {
	return &memRepo{publishers: make(map[string]*domain.Publisher)}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Publisher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.publishers[id]
	if !ok {
		return nil, publisher.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) FindVerifiedActiveByEmail(_ context.Context, email string) (*domain.Publisher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.publishers {
		if p.Email == email && p.AccountStatus == domain.PublisherActive && p.EmailVerified {
			cp := *p
			return &cp, nil
		}
	}
	return nil, publisher.ErrNotFound
}

func (m *memRepo) FindBestByEmail(_ context.Context, email string) (*domain.Publisher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.Publisher
	for _, p := range m.publishers {
		if p.Email != email {
			continue
		}
		if best == nil || rank(p) > rank(best) {
			best = p
		}
	}
	if best == nil {
		return nil, publisher.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func rank(p *domain.Publisher) int {
	r := 0
	if p.AccountStatus == domain.PublisherActive {
		r += 2
	}
	if p.EmailVerified {
		r++
	}
	return r
}

func (m *memRepo) Create(_ context.Context, p *domain.Publisher) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.publishers[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) UpdateContact(_ context.Context, id, contactName, companyName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.publishers[id]
	if !ok {
		return publisher.ErrNotFound
	}
	if contactName != "" {
		p.ContactName = contactName
	}
	if companyName != "" {
		p.CompanyName = companyName
	}
	return nil
}

func parsedFrom(email string) *domain.ParsedEmail {
	return &domain.ParsedEmail{
		Sender:            domain.SenderInfo{Email: email, ContactName: "Jane", CompanyName: "ACME"},
		OverallConfidence: 0.8,
	}
}

func TestResolveCreatesShadow(t *testing.T) {
	repo := newMemRepo()
	svc := publisher.NewService(repo, publisher.PolicyStrict, 7*24*time.Hour)

	p, existing, err := svc.Resolve(context.Background(), parsedFrom("new@publisher.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if existing {
		t.Fatal("expected new publisher")
	}
	if p.AccountStatus != domain.PublisherShadow || p.EmailVerified {
		t.Fatalf("expected unverified shadow, got %+v", p)
	}
	if p.InvitationToken == "" || p.InvitationExpires == nil {
		t.Fatal("expected invitation token with expiry")
	}
	if !p.InvitationExpires.After(time.Now().Add(6 * 24 * time.Hour)) {
		t.Fatalf("expiry too soon: %v", p.InvitationExpires)
	}
}

func TestResolveStrictIgnoresUnverified(t *testing.T) {
	repo := newMemRepo()
	repo.Create(context.Background(), &domain.Publisher{
		ID: "shadow-1", Email: "seen@publisher.com",
		AccountStatus: domain.PublisherShadow, EmailVerified: false,
	})
	svc := publisher.NewService(repo, publisher.PolicyStrict, time.Hour)

	p, existing, err := svc.Resolve(context.Background(), parsedFrom("seen@publisher.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Strict policy treats an unverified record as a miss: a second shadow
	// is preferable to claiming an unconfirmed identity.
	if existing {
		t.Fatal("strict policy must not match an unverified shadow")
	}
	if p.ID == "shadow-1" {
		t.Fatal("must not reuse the unverified record")
	}
}

func TestResolveStrictMatchesVerifiedActive(t *testing.T) {
	repo := newMemRepo()
	repo.Create(context.Background(), &domain.Publisher{
		ID: "active-1", Email: "known@publisher.com",
		AccountStatus: domain.PublisherActive, EmailVerified: true,
	})
	svc := publisher.NewService(repo, publisher.PolicyStrict, time.Hour)

	p, existing, err := svc.Resolve(context.Background(), parsedFrom("known@publisher.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !existing || p.ID != "active-1" {
		t.Fatalf("expected match on active-1, got %+v existing=%v", p, existing)
	}
}

func TestResolveLoosePrefersActive(t *testing.T) {
	repo := newMemRepo()
	repo.Create(context.Background(), &domain.Publisher{
		ID: "shadow-1", Email: "both@publisher.com", AccountStatus: domain.PublisherShadow,
	})
	repo.Create(context.Background(), &domain.Publisher{
		ID: "active-1", Email: "both@publisher.com",
		AccountStatus: domain.PublisherActive, EmailVerified: true,
	})
	svc := publisher.NewService(repo, publisher.PolicyLoose, time.Hour)

	p, existing, err := svc.Resolve(context.Background(), parsedFrom("both@publisher.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !existing || p.ID != "active-1" {
		t.Fatalf("loose policy must prefer the active record, got %+v", p)
	}
}

// Two different unverified addresses sharing a company name must never
// merge into one record.
func TestResolveNoFalseMerge(t *testing.T) {
	repo := newMemRepo()
	svc := publisher.NewService(repo, publisher.PolicyStrict, time.Hour)

	a, _, err := svc.Resolve(context.Background(), parsedFrom("alice@acme-media.com"))
	if err != nil {
		t.Fatalf("resolve a: %v", err)
	}
	b, _, err := svc.Resolve(context.Background(), parsedFrom("bob@acme-media.com"))
	if err != nil {
		t.Fatalf("resolve b: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("different emails merged into one publisher")
	}
}

func TestResolveNormalizesEmailCase(t *testing.T) {
	repo := newMemRepo()
	svc := publisher.NewService(repo, publisher.PolicyLoose, time.Hour)

	a, _, _ := svc.Resolve(context.Background(), parsedFrom("Mixed@Publisher.com"))
	b, existing, _ := svc.Resolve(context.Background(), parsedFrom("mixed@publisher.com"))
	if !existing || a.ID != b.ID {
		t.Fatal("case-differing emails must resolve to the same publisher under loose policy")
	}
}

func TestResolveRejectsUnusableSender(t *testing.T) {
	svc := publisher.NewService(newMemRepo(), publisher.PolicyStrict, time.Hour)
	if _, _, err := svc.Resolve(context.Background(), parsedFrom("")); err == nil {
		t.Fatal("expected error for empty sender email")
	}
	if _, _, err := svc.Resolve(context.Background(), parsedFrom("not-an-email")); err == nil {
		t.Fatal("expected error for non-email sender")
	}
}

func TestGenerateInvitationTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := publisher.GenerateInvitationToken()
		if len(tok) != 64 {
			t.Fatalf("token length = %d", len(tok))
		}
		if seen[tok] {
			t.Fatal("duplicate token")
		}
		seen[tok] = true
	}
}
