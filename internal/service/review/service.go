package review

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/domain"
)

// Decision is the scheduling outcome for one processed email.
type Decision struct {
	AutoApproved bool
	Queued       bool
	EntryID      string
	Priority     int
}

// Service routes processed emails by confidence and handles reviewer and
// sweeper decisions.
type Service struct {
	repo       Repository
	activator  Activator
	audit      Auditor
	thresholds config.ThresholdConfig

	now func() time.Time
}

func NewService(repo Repository, activator Activator, audit Auditor, thresholds config.ThresholdConfig) *Service {
	return &Service{
		repo:       repo,
		activator:  activator,
		audit:      audit,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Schedule decides what review treatment a processed email gets. A queue
// insert failure is logged and reported in the Decision but does not return
// an error: the entity graph is already persisted and an operator can
// re-queue from the processing log.
func (s *Service) Schedule(ctx context.Context, emailLogID, publisherID string, confidence float64, missingFields []string) Decision {
	if confidence >= s.thresholds.AutoApprove {
		if err := s.activator.ActivatePublisher(ctx, publisherID); err != nil {
			log.Printf("[review.Service] activate publisher %s: %v", publisherID, err)
			s.log(ctx, emailLogID, publisherID, domain.ActionError, "failed", confidence, map[string]any{"error": err.Error()})
			// Fall through to a queue entry so the email isn't lost.
		} else {
			s.log(ctx, emailLogID, publisherID, domain.ActionAutoApproved, "success", confidence, nil)
			return Decision{AutoApproved: true}
		}
	}

	entry := &domain.ReviewQueueEntry{
		ID:            uuid.New().String(),
		EmailLogID:    emailLogID,
		PublisherID:   publisherID,
		Priority:      priorityFor(confidence),
		Status:        domain.ReviewPending,
		MissingFields: missingFields,
	}

	switch {
	case confidence >= s.thresholds.MediumReview:
		entry.Reason = "medium_confidence"
		due := s.now().Add(time.Duration(s.thresholds.AutoApproveDelayHours) * time.Hour)
		entry.AutoApproveAt = &due
		entry.SuggestedActions = []string{"verify_pricing"}
	case confidence >= s.thresholds.LowReview:
		entry.Reason = "low_confidence"
		entry.SuggestedActions = []string{"verify_pricing", "verify_websites"}
	default:
		entry.Reason = "very_low_confidence"
		entry.VeryLowConfidence = true
		entry.SuggestedActions = []string{"manual_extraction"}
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		log.Printf("[review.Service] queue insert for %s: %v", emailLogID, err)
		s.log(ctx, emailLogID, publisherID, domain.ActionError, "failed", confidence, map[string]any{"error": err.Error()})
		return Decision{Priority: entry.Priority}
	}

	s.log(ctx, emailLogID, publisherID, domain.ActionQueuedForReview, "success", confidence, map[string]any{
		"entry_id": entry.ID,
		"reason":   entry.Reason,
		"priority": entry.Priority,
	})
	return Decision{Queued: true, EntryID: entry.ID, Priority: entry.Priority}
}

// Approve marks a pending entry approved and activates the publisher.
func (s *Service) Approve(ctx context.Context, entryID, reviewedBy string) error {
	entry, err := s.pending(ctx, entryID)
	if err != nil {
		return err
	}

	if err := s.activator.ActivatePublisher(ctx, entry.PublisherID); err != nil {
		return fmt.Errorf("activate publisher: %w", err)
	}
	if err := s.repo.MarkDecided(ctx, entryID, domain.ReviewApproved, reviewedBy, s.now()); err != nil {
		return fmt.Errorf("mark approved: %w", err)
	}
	s.log(ctx, entry.EmailLogID, entry.PublisherID, domain.ActionPublisherUpdated, "success", 0, map[string]any{
		"entry_id":    entryID,
		"reviewed_by": reviewedBy,
		"decision":    "approved",
	})
	return nil
}

// Reject marks a pending entry rejected. The persisted entities stay as
// they are (inactive for shadow publishers); nothing is deleted.
func (s *Service) Reject(ctx context.Context, entryID, reviewedBy string) error {
	entry, err := s.pending(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.repo.MarkDecided(ctx, entryID, domain.ReviewRejected, reviewedBy, s.now()); err != nil {
		return fmt.Errorf("mark rejected: %w", err)
	}
	s.log(ctx, entry.EmailLogID, entry.PublisherID, domain.ActionDisqualified, "success", 0, map[string]any{
		"entry_id":    entryID,
		"reviewed_by": reviewedBy,
	})
	return nil
}

// ListPending returns the manual review backlog.
func (s *Service) ListPending(ctx context.Context, limit int) ([]*domain.ReviewQueueEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListPending(ctx, limit)
}

// PromoteDue auto-approves every pending entry whose timer has elapsed and
// returns how many were promoted. One failing entry doesn't stop the batch.
func (s *Service) PromoteDue(ctx context.Context, batchSize int) (int, error) {
	due, err := s.repo.ListDueForAutoApproval(ctx, s.now(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("list due entries: %w", err)
	}

	promoted := 0
	for _, entry := range due {
		if err := s.activator.ActivatePublisher(ctx, entry.PublisherID); err != nil {
			log.Printf("[review.Service] auto-approve %s: activate publisher: %v", entry.ID, err)
			s.log(ctx, entry.EmailLogID, entry.PublisherID, domain.ActionError, "failed", 0, map[string]any{"error": err.Error()})
			continue
		}
		if err := s.repo.MarkDecided(ctx, entry.ID, domain.ReviewAutoApproved, "", s.now()); err != nil {
			log.Printf("[review.Service] auto-approve %s: mark decided: %v", entry.ID, err)
			continue
		}
		s.log(ctx, entry.EmailLogID, entry.PublisherID, domain.ActionAutoApproved, "success", 0, map[string]any{
			"entry_id": entry.ID,
			"timer":    true,
		})
		promoted++
	}
	return promoted, nil
}

func (s *Service) pending(ctx context.Context, entryID string) (*domain.ReviewQueueEntry, error) {
	entry, err := s.repo.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.ReviewPending {
		return nil, ErrAlreadyDecided
	}
	return entry, nil
}

// priorityFor maps confidence to a 1..10 review priority, low confidence
// first.
func priorityFor(confidence float64) int {
	p := int(math.Round((1 - confidence) * 10))
	if p < 1 {
		p = 1
	}
	if p > 10 {
		p = 10
	}
	return p
}

func (s *Service) log(ctx context.Context, emailLogID, publisherID string, action domain.AutomationAction, status string, confidence float64, meta map[string]any) {
	err := s.audit.Append(ctx, &domain.AutomationLog{
		EmailLogID:   emailLogID,
		PublisherID:  publisherID,
		Action:       action,
		ActionStatus: status,
		Confidence:   confidence,
		Metadata:     meta,
	})
	if err != nil {
		log.Printf("[review.Service] append automation log: %v", err)
	}
}
