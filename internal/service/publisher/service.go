package publisher

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/publisher-inbox/internal/domain"
)

// MatchPolicy selects how the resolver looks up existing publishers.
// A deployment uses exactly one policy; the two are never blended within a
// single email-processing run.
type MatchPolicy string

const (
	// PolicyStrict matches only active, email-verified publishers. A miss
	// means a new shadow record even if an unverified record with the same
	// email exists.
	PolicyStrict MatchPolicy = "strict"
	// PolicyLoose matches any publisher by email, taking the best
	// candidate (active before shadow, verified before unverified).
	PolicyLoose MatchPolicy = "loose"
)

// Service resolves inbound email senders to publisher records.
type Service struct {
	repo   Repository
	policy MatchPolicy

	// invitationTTL is the validity window stamped on new shadow
	// publishers for any future invitation flow.
	invitationTTL time.Duration
}

// NewService creates a resolver with the given match policy.
func NewService(repo Repository, policy MatchPolicy, invitationTTL time.Duration) *Service {
	if policy != PolicyStrict && policy != PolicyLoose {
		policy = PolicyStrict
	}
	if invitationTTL <= 0 {
		invitationTTL = 7 * 24 * time.Hour
	}
	return &Service{repo: repo, policy: policy, invitationTTL: invitationTTL}
}

// Resolve finds an existing publisher for the parsed email's sender or
// creates a new shadow record. The second return value reports whether the
// publisher pre-existed this email.
func (s *Service) Resolve(ctx context.Context, parsed *domain.ParsedEmail) (*domain.Publisher, bool, error) {
	email := strings.ToLower(strings.TrimSpace(parsed.Sender.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, fmt.Errorf("sender email %q is not usable", parsed.Sender.Email)
	}

	existing, err := s.lookup(ctx, email)
	if err != nil && err != ErrNotFound {
		return nil, false, fmt.Errorf("lookup publisher: %w", err)
	}

	if existing != nil {
		// A later email may fill in names the first one lacked; only shadow
		// records are touched — confirmed accounts own their own profile.
		if existing.IsShadow() && (parsed.Sender.ContactName != "" || parsed.Sender.CompanyName != "") {
			if err := s.repo.UpdateContact(ctx, existing.ID, parsed.Sender.ContactName, parsed.Sender.CompanyName); err != nil {
				log.Printf("[publisher.Service] update contact for %s: %v", existing.ID, err)
			}
		}
		return existing, true, nil
	}

	expires := time.Now().Add(s.invitationTTL)
	p := &domain.Publisher{
		ID:                uuid.New().String(),
		Email:             email,
		ContactName:       parsed.Sender.ContactName,
		CompanyName:       parsed.Sender.CompanyName,
		AccountStatus:     domain.PublisherShadow,
		EmailVerified:     false,
		ConfidenceScore:   parsed.OverallConfidence,
		Source:            "email_extraction",
		InvitationToken:   GenerateInvitationToken(),
		InvitationExpires: &expires,
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, false, fmt.Errorf("create shadow publisher: %w", err)
	}
	p.ID = id

	log.Printf("[publisher.Service] created shadow publisher %s for %s (confidence %.2f)",
		p.ID, email, parsed.OverallConfidence)
	return p, false, nil
}

func (s *Service) lookup(ctx context.Context, email string) (*domain.Publisher, error) {
	if s.policy == PolicyLoose {
		return s.repo.FindBestByEmail(ctx, email)
	}
	return s.repo.FindVerifiedActiveByEmail(ctx, email)
}

// GenerateInvitationToken produces an unguessable invitation token from
// secure random bytes mixed with the timestamp and process id, hashed so
// the stored value leaks nothing about its inputs.
func GenerateInvitationToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; the timestamp
		// and pid below still make the token unique, just not unguessable.
		log.Printf("[publisher.Service] crypto/rand failed: %v", err)
	}

	h := sha256.New()
	h.Write(buf)
	fmt.Fprintf(h, "%d:%d", time.Now().UnixNano(), os.Getpid())
	return hex.EncodeToString(h.Sum(nil))
}
