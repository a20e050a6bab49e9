package reconcile

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/domain"
)

// Service reconciles extracted offers against the store.
type Service struct {
	repo       Repository
	audit      Auditor
	thresholds config.ThresholdConfig
}

// NewService creates a reconciler. Thresholds come from configuration so
// the confidence cutoffs are tunable without touching control flow.
func NewService(repo Repository, audit Auditor, thresholds config.ThresholdConfig) *Service {
	return &Service{repo: repo, audit: audit, thresholds: thresholds}
}

// Reconcile upserts every website and offering of a qualified parsed email.
// Sub-step failures are logged and skipped; the returned error is non-nil
// only when nothing at all could be reconciled.
func (s *Service) Reconcile(ctx context.Context, pub *domain.Publisher, isExisting bool, parsed *domain.ParsedEmail, emailLogID string) error {
	websiteIDs := make(map[string]string) // normalized domain -> website id
	var failures int

	for _, w := range parsed.Websites {
		id, err := s.upsertWebsite(ctx, pub, isExisting, w, parsed.ExtractionMethod)
		if err != nil {
			failures++
			log.Printf("[reconcile.Service] website %s: %v", w.Domain, err)
			s.logFailure(ctx, emailLogID, pub.ID, domain.ActionError, err, map[string]any{"domain": w.Domain})
			continue
		}
		websiteIDs[w.Domain] = id
	}

	// Offerings attach to the first successfully upserted website; an email
	// that mentioned no usable domain still gets its offerings recorded.
	primaryWebsiteID := ""
	if len(parsed.Websites) > 0 {
		primaryWebsiteID = websiteIDs[parsed.Websites[0].Domain]
	}

	for _, o := range parsed.Offerings {
		if err := s.upsertOffering(ctx, pub, isExisting, o, primaryWebsiteID, emailLogID); err != nil {
			failures++
			log.Printf("[reconcile.Service] offering %s/%s: %v", o.OfferingType, o.OfferingName, err)
			s.logFailure(ctx, emailLogID, pub.ID, domain.ActionError, err, map[string]any{
				"offering_type": string(o.OfferingType),
			})
		}
	}

	total := len(parsed.Websites) + len(parsed.Offerings)
	if total > 0 && failures == total {
		return fmt.Errorf("all %d reconciliation steps failed", total)
	}
	return nil
}

// upsertWebsite creates the website row (once per normalized domain) and
// the publisher link appropriate for the publisher's standing.
func (s *Service) upsertWebsite(ctx context.Context, pub *domain.Publisher, isExisting bool, w domain.ExtractedWebsite, method string) (string, error) {
	site, err := s.repo.FindWebsiteByDomain(ctx, w.Domain)
	if err != nil && err != ErrNotFound {
		return "", fmt.Errorf("find website: %w", err)
	}

	var websiteID string
	if site != nil {
		websiteID = site.ID
	} else {
		websiteID, err = s.repo.CreateWebsite(ctx, &domain.Website{
			ID:     uuid.New().String(),
			Domain: w.Domain,
			Status: "unverified",
			Source: "email_extraction",
		})
		if err != nil {
			return "", fmt.Errorf("create website: %w", err)
		}
	}

	if isExisting {
		has, err := s.repo.HasPublisherWebsite(ctx, pub.ID, websiteID)
		if err != nil {
			return "", fmt.Errorf("check publisher website: %w", err)
		}
		if !has {
			err = s.repo.CreatePublisherWebsite(ctx, &domain.PublisherWebsite{
				ID:           uuid.New().String(),
				PublisherID:  pub.ID,
				WebsiteID:    websiteID,
				Relationship: "owner",
			})
			if err != nil {
				return "", fmt.Errorf("create publisher website: %w", err)
			}
		}
		return websiteID, nil
	}

	has, err := s.repo.HasShadowPublisherWebsite(ctx, pub.ID, websiteID)
	if err != nil {
		return "", fmt.Errorf("check shadow publisher website: %w", err)
	}
	if !has {
		err = s.repo.CreateShadowPublisherWebsite(ctx, &domain.ShadowPublisherWebsite{
			ID:               uuid.New().String(),
			PublisherID:      pub.ID,
			WebsiteID:        websiteID,
			Confidence:       w.Confidence,
			ExtractionMethod: method,
			Verified:         false,
		})
		if err != nil {
			return "", fmt.Errorf("create shadow publisher website: %w", err)
		}
	}
	return websiteID, nil
}

func (s *Service) upsertOffering(ctx context.Context, pub *domain.Publisher, isExisting bool, o domain.ExtractedOffering, websiteID, emailLogID string) error {
	if isExisting {
		return s.upsertOfferingExisting(ctx, pub, o, websiteID, emailLogID)
	}
	return s.upsertOfferingShadow(ctx, pub, o, websiteID, emailLogID)
}

// upsertOfferingShadow is first-write-wins: a later, possibly
// lower-confidence email must not clobber what the first email recorded on
// a never-yet-approved publisher. New offerings start inactive and pending
// verification.
func (s *Service) upsertOfferingShadow(ctx context.Context, pub *domain.Publisher, o domain.ExtractedOffering, websiteID, emailLogID string) error {
	existing, err := s.repo.FindOffering(ctx, pub.ID, o.OfferingType, o.OfferingName)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("find offering: %w", err)
	}

	var offeringID string
	if existing != nil {
		offeringID = existing.ID
	} else {
		offeringID, err = s.createOffering(ctx, pub.ID, o, false, domain.AvailabilityPendingVerification, emailLogID)
		if err != nil {
			return err
		}
	}

	if err := s.linkOfferingWebsite(ctx, offeringID, websiteID, false); err != nil {
		return err
	}
	return s.mergePricingRules(ctx, offeringID, o.PricingRules)
}

// upsertOfferingExisting trusts the publisher but not the extraction:
// stored fields are only overwritten when the new extraction clears the
// field-update threshold, and matching against an existing offering at all
// requires clearing the (lower) match threshold.
func (s *Service) upsertOfferingExisting(ctx context.Context, pub *domain.Publisher, o domain.ExtractedOffering, websiteID, emailLogID string) error {
	var existing *domain.Offering
	if o.Confidence >= s.thresholds.OfferingMatch {
		var err error
		existing, err = s.repo.FindOffering(ctx, pub.ID, o.OfferingType, o.OfferingName)
		if err != nil && err != ErrNotFound {
			return fmt.Errorf("find offering: %w", err)
		}
	}

	var offeringID string
	if existing != nil {
		offeringID = existing.ID
		u := s.gatedUpdate(existing, o)
		if !u.IsEmpty() {
			if err := s.repo.UpdateOfferingFields(ctx, offeringID, u); err != nil {
				return fmt.Errorf("update offering: %w", err)
			}
			s.logSuccess(ctx, emailLogID, pub.ID, domain.ActionOfferingUpdated, o.Confidence, map[string]any{
				"offering_id": offeringID,
			})
		}
	} else {
		var err error
		offeringID, err = s.createOffering(ctx, pub.ID, o, true, domain.AvailabilityAvailable, emailLogID)
		if err != nil {
			return err
		}
	}

	if err := s.linkOfferingWebsite(ctx, offeringID, websiteID, true); err != nil {
		return err
	}
	return s.mergePricingRules(ctx, offeringID, o.PricingRules)
}

// gatedUpdate builds the field update an extraction is allowed to make.
// Base price, currency, and turnaround only move above the field-update
// threshold; descriptive fields (word counts, niches, attributes) follow
// the same gate so a weak extraction can't erode a strong record.
func (s *Service) gatedUpdate(existing *domain.Offering, o domain.ExtractedOffering) OfferingUpdate {
	var u OfferingUpdate
	if o.Confidence < s.thresholds.FieldUpdate {
		return u
	}

	if o.BasePrice > 0 && o.BasePrice != existing.BasePrice {
		u.BasePrice = &o.BasePrice
	}
	if o.Currency != "" && o.Currency != existing.Currency {
		u.Currency = &o.Currency
	}
	if o.TurnaroundDays > 0 && o.TurnaroundDays != existing.TurnaroundDays {
		u.TurnaroundDays = &o.TurnaroundDays
	}
	if o.MinWordCount > 0 && o.MinWordCount != existing.MinWordCount {
		u.MinWordCount = &o.MinWordCount
	}
	if o.MaxWordCount > 0 && o.MaxWordCount != existing.MaxWordCount {
		u.MaxWordCount = &o.MaxWordCount
	}
	if len(o.Niches) > 0 {
		u.Niches = o.Niches
	}
	if len(o.Attributes) > 0 {
		u.Attributes = o.Attributes
	}
	return u
}

func (s *Service) createOffering(ctx context.Context, publisherID string, o domain.ExtractedOffering, active bool, availability domain.Availability, emailLogID string) (string, error) {
	id, err := s.repo.CreateOffering(ctx, &domain.Offering{
		ID:               uuid.New().String(),
		PublisherID:      publisherID,
		OfferingType:     o.OfferingType,
		OfferingName:     o.OfferingName,
		BasePrice:        o.BasePrice,
		Currency:         o.Currency,
		TurnaroundDays:   o.TurnaroundDays,
		Availability:     availability,
		ExpressAvailable: o.ExpressAvailable,
		ExpressPrice:     o.ExpressPrice,
		ExpressDays:      o.ExpressDays,
		MinWordCount:     o.MinWordCount,
		MaxWordCount:     o.MaxWordCount,
		Niches:           o.Niches,
		Languages:        o.Languages,
		Attributes:       o.Attributes,
		IsActive:         active,
	})
	if err != nil {
		return "", fmt.Errorf("create offering: %w", err)
	}

	s.logSuccess(ctx, emailLogID, publisherID, domain.ActionOfferingCreated, o.Confidence, map[string]any{
		"offering_id":   id,
		"offering_type": string(o.OfferingType),
		"is_active":     active,
	})
	return id, nil
}

func (s *Service) linkOfferingWebsite(ctx context.Context, offeringID, websiteID string, active bool) error {
	if websiteID == "" {
		return nil
	}
	has, err := s.repo.HasOfferingWebsite(ctx, offeringID, websiteID)
	if err != nil {
		return fmt.Errorf("check offering website: %w", err)
	}
	if has {
		return nil
	}
	err = s.repo.CreateOfferingWebsite(ctx, &domain.OfferingWebsite{
		ID:         uuid.New().String(),
		OfferingID: offeringID,
		WebsiteID:  websiteID,
		IsPrimary:  true,
		IsActive:   active,
	})
	if err != nil {
		return fmt.Errorf("create offering website: %w", err)
	}
	return nil
}

// mergePricingRules creates rules that don't exist yet for the offering.
// A failure on one rule doesn't block the rest.
func (s *Service) mergePricingRules(ctx context.Context, offeringID string, rules []domain.ExtractedPricingRule) error {
	var lastErr error
	for _, r := range rules {
		has, err := s.repo.HasPricingRule(ctx, offeringID, r.RuleType, r.RuleName)
		if err != nil {
			lastErr = err
			log.Printf("[reconcile.Service] check pricing rule %s/%s: %v", r.RuleType, r.RuleName, err)
			continue
		}
		if has {
			continue
		}
		err = s.repo.CreatePricingRule(ctx, &domain.PricingRule{
			ID:           uuid.New().String(),
			OfferingID:   offeringID,
			RuleType:     r.RuleType,
			RuleName:     r.RuleName,
			Description:  r.Description,
			Conditions:   r.Conditions,
			Actions:      r.Actions,
			Priority:     r.Priority,
			IsCumulative: r.IsCumulative,
			AutoApply:    r.AutoApply,
			IsActive:     true,
		})
		if err != nil {
			lastErr = err
			log.Printf("[reconcile.Service] create pricing rule %s/%s: %v", r.RuleType, r.RuleName, err)
		}
	}
	return lastErr
}

func (s *Service) logSuccess(ctx context.Context, emailLogID, publisherID string, action domain.AutomationAction, confidence float64, meta map[string]any) {
	err := s.audit.Append(ctx, &domain.AutomationLog{
		EmailLogID:   emailLogID,
		PublisherID:  publisherID,
		Action:       action,
		ActionStatus: "success",
		Confidence:   confidence,
		Metadata:     meta,
	})
	if err != nil {
		log.Printf("[reconcile.Service] append automation log: %v", err)
	}
}

func (s *Service) logFailure(ctx context.Context, emailLogID, publisherID string, action domain.AutomationAction, cause error, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["error"] = cause.Error()
	err := s.audit.Append(ctx, &domain.AutomationLog{
		EmailLogID:   emailLogID,
		PublisherID:  publisherID,
		Action:       action,
		ActionStatus: "failed",
		Metadata:     meta,
	})
	if err != nil {
		log.Printf("[reconcile.Service] append automation log: %v", err)
	}
}
