// Package pipeline orchestrates one inbound email end to end: clean,
// extract, qualify, resolve the sender to a publisher, reconcile the entity
// graph, and route the outcome through the review scheduler. Each run is
// tracked on an email processing log row.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/emailclean"
	"github.com/ignite/publisher-inbox/internal/qualify"
	"github.com/ignite/publisher-inbox/internal/service/review"
)

// ProcessInput is one inbound email. LogID is set when the API layer
// already created the processing log row; otherwise the pipeline creates
// one.
type ProcessInput struct {
	LogID       string
	SenderEmail string
	Subject     string
	Body        string
	RawPayload  []byte
}

// Extractor turns a cleaned email into structured data.
type Extractor interface {
	Extract(ctx context.Context, emailBody, senderEmail, subject string) (*domain.ParsedEmail, error)
}

// Resolver maps a parsed sender to a publisher record.
type Resolver interface {
	Resolve(ctx context.Context, parsed *domain.ParsedEmail) (*domain.Publisher, bool, error)
}

// Reconciler upserts the extracted entity graph.
type Reconciler interface {
	Reconcile(ctx context.Context, pub *domain.Publisher, isExisting bool, parsed *domain.ParsedEmail, emailLogID string) error
}

// Scheduler routes the processed email into the review state machine.
type Scheduler interface {
	Schedule(ctx context.Context, emailLogID, publisherID string, confidence float64, missingFields []string) review.Decision
}

// Inviter sends the signup invitation to a newly created shadow publisher.
type Inviter interface {
	SendInvitation(ctx context.Context, pub *domain.Publisher) error
}

// Archiver stores the raw inbound payload before processing.
type Archiver interface {
	Archive(ctx context.Context, logID string, payload []byte) error
}

// LogRepository tracks email processing log rows.
type LogRepository interface {
	Create(ctx context.Context, e *domain.EmailProcessingLog) (string, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, reason string) error
	SetParsed(ctx context.Context, id string, parsed []byte) error
	SetPublisher(ctx context.Context, id, publisherID string) error
}

// Auditor appends automation log entries.
type Auditor interface {
	Append(ctx context.Context, e *domain.AutomationLog) error
}

// Pipeline wires the processing stages together. Inviter and Archiver are
// optional; a nil value disables the stage.
type Pipeline struct {
	extractor  Extractor
	resolver   Resolver
	reconciler Reconciler
	scheduler  Scheduler
	logs       LogRepository
	audit      Auditor

	inviter  Inviter
	archiver Archiver
}

func New(extractor Extractor, resolver Resolver, reconciler Reconciler, scheduler Scheduler, logs LogRepository, audit Auditor) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		resolver:   resolver,
		reconciler: reconciler,
		scheduler:  scheduler,
		logs:       logs,
		audit:      audit,
	}
}

// WithInviter enables invitation emails for new shadow publishers.
func (p *Pipeline) WithInviter(i Inviter) *Pipeline {
	p.inviter = i
	return p
}

// WithArchiver enables raw payload archival.
func (p *Pipeline) WithArchiver(a Archiver) *Pipeline {
	p.archiver = a
	return p
}

// ProcessInboundEmail runs one email through the full pipeline and returns
// the resolved publisher id. Disqualified emails return an empty id and nil
// error: they are recorded, not failed. Extraction and publisher resolution
// failures propagate after being recorded on the processing log.
func (p *Pipeline) ProcessInboundEmail(ctx context.Context, in ProcessInput) (string, error) {
	logID := in.LogID
	if logID == "" {
		var err error
		logID, err = p.logs.Create(ctx, &domain.EmailProcessingLog{
			ID:          uuid.New().String(),
			SenderEmail: in.SenderEmail,
			Subject:     in.Subject,
			Status:      domain.ProcessingReceived,
		})
		if err != nil {
			return "", fmt.Errorf("create processing log: %w", err)
		}
	}

	if p.archiver != nil && len(in.RawPayload) > 0 {
		if err := p.archiver.Archive(ctx, logID, in.RawPayload); err != nil {
			log.Printf("[pipeline] archive %s: %v", logID, err)
		}
	}

	cleaned := emailclean.Clean(in.Body)
	parsed, err := p.extractor.Extract(ctx, cleaned, in.SenderEmail, in.Subject)
	if err != nil {
		p.markStatus(ctx, logID, domain.ProcessingFailed, "extraction: "+err.Error())
		return "", fmt.Errorf("extract: %w", err)
	}

	if raw, err := json.Marshal(parsed); err == nil {
		if err := p.logs.SetParsed(ctx, logID, raw); err != nil {
			log.Printf("[pipeline] store parsed data for %s: %v", logID, err)
		}
	}
	p.markStatus(ctx, logID, domain.ProcessingParsed, "")

	q := qualify.Qualify(in.Body, parsed)
	if !q.Qualified {
		p.markStatus(ctx, logID, domain.ProcessingDisqualified, q.Reason)
		p.log(ctx, logID, "", domain.ActionDisqualified, "success", parsed.OverallConfidence, map[string]any{
			"reason": q.Reason,
			"notes":  q.Notes,
		})
		log.Printf("[pipeline] %s disqualified: %s (%s)", logID, q.Reason, q.Notes)
		return "", nil
	}
	p.markStatus(ctx, logID, domain.ProcessingQualified, "")

	pub, isExisting, err := p.resolver.Resolve(ctx, parsed)
	if err != nil {
		p.markStatus(ctx, logID, domain.ProcessingFailed, "resolve: "+err.Error())
		p.log(ctx, logID, "", domain.ActionError, "failed", parsed.OverallConfidence, map[string]any{
			"error": err.Error(),
		})
		return "", fmt.Errorf("resolve publisher: %w", err)
	}

	if err := p.logs.SetPublisher(ctx, logID, pub.ID); err != nil {
		log.Printf("[pipeline] link publisher on %s: %v", logID, err)
	}

	if !isExisting {
		p.log(ctx, logID, pub.ID, domain.ActionPublisherCreated, "success", parsed.OverallConfidence, map[string]any{
			"email": pub.Email,
		})
		if p.inviter != nil {
			if err := p.inviter.SendInvitation(ctx, pub); err != nil {
				log.Printf("[pipeline] invitation for %s: %v", pub.ID, err)
			}
		}
	}

	// Sub-step failures are already logged and audited inside the
	// reconciler; a total failure still proceeds to scheduling so the email
	// ends up in front of a reviewer instead of vanishing.
	if err := p.reconciler.Reconcile(ctx, pub, isExisting, parsed, logID); err != nil {
		log.Printf("[pipeline] reconcile %s: %v", logID, err)
	}

	p.scheduler.Schedule(ctx, logID, pub.ID, parsed.OverallConfidence, parsed.MissingFields)

	p.markStatus(ctx, logID, domain.ProcessingCompleted, "")
	return pub.ID, nil
}

func (p *Pipeline) markStatus(ctx context.Context, logID string, status domain.ProcessingStatus, reason string) {
	if err := p.logs.UpdateStatus(ctx, logID, status, reason); err != nil {
		log.Printf("[pipeline] update status %s -> %s: %v", logID, status, err)
	}
}

func (p *Pipeline) log(ctx context.Context, emailLogID, publisherID string, action domain.AutomationAction, status string, confidence float64, meta map[string]any) {
	err := p.audit.Append(ctx, &domain.AutomationLog{
		EmailLogID:   emailLogID,
		PublisherID:  publisherID,
		Action:       action,
		ActionStatus: status,
		Confidence:   confidence,
		Metadata:     meta,
	})
	if err != nil {
		log.Printf("[pipeline] append automation log: %v", err)
	}
}
