// Package api exposes the operational HTTP surface: inbound email intake,
// review queue actions, and publisher lookups.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/service/publisher"
	"github.com/ignite/publisher-inbox/internal/service/review"
	"github.com/ignite/publisher-inbox/internal/worker"
)

// PublisherReader is the read side of publisher storage the API needs.
type PublisherReader interface {
	Get(ctx context.Context, id string) (*domain.Publisher, error)
}

// LogStore creates email processing log rows at intake time and loads
// them, with their audit trail, for the review UI.
type LogStore interface {
	Create(ctx context.Context, e *domain.EmailProcessingLog) (string, error)
	Get(ctx context.Context, id string) (*domain.EmailProcessingLog, error)
	ListAutomationLogs(ctx context.Context, emailLogID string) ([]*domain.AutomationLog, error)
}

// Reviewer is the slice of the review service the API needs.
type Reviewer interface {
	ListPending(ctx context.Context, limit int) ([]*domain.ReviewQueueEntry, error)
	Approve(ctx context.Context, entryID, reviewedBy string) error
	Reject(ctx context.Context, entryID, reviewedBy string) error
}

// Handlers holds the API dependencies.
type Handlers struct {
	logs       LogStore
	publishers PublisherReader
	reviews    Reviewer
	redis      *redis.Client
	queueKey   string
}

// NewHandlers creates the API handler set.
func NewHandlers(logs LogStore, publishers PublisherReader, reviews Reviewer, rdb *redis.Client, queueKey string) *Handlers {
	return &Handlers{logs: logs, publishers: publishers, reviews: reviews, redis: rdb, queueKey: queueKey}
}

// inboundEmailRequest is the POST /api/inbound/email payload.
type inboundEmailRequest struct {
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// InboundEmail accepts an inbound email, records it, and queues it for
// asynchronous processing. Returns 202 with the processing log id.
func (h *Handlers) InboundEmail(w http.ResponseWriter, r *http.Request) {
	var req inboundEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.SenderEmail == "" || req.Body == "" {
		respondError(w, http.StatusBadRequest, "sender_email and body are required")
		return
	}

	logID, err := h.logs.Create(r.Context(), &domain.EmailProcessingLog{
		ID:          uuid.New().String(),
		SenderEmail: req.SenderEmail,
		Subject:     req.Subject,
		Status:      domain.ProcessingReceived,
	})
	if err != nil {
		log.Printf("[api] create processing log: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to record email")
		return
	}

	raw, _ := json.Marshal(req)
	err = worker.EnqueueIngest(r.Context(), h.redis, h.queueKey, worker.IngestMessage{
		LogID:       logID,
		SenderEmail: req.SenderEmail,
		Subject:     req.Subject,
		Body:        req.Body,
		RawPayload:  raw,
	})
	if err != nil {
		log.Printf("[api] enqueue %s: %v", logID, err)
		respondError(w, http.StatusInternalServerError, "failed to queue email")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"log_id": logID,
		"status": string(domain.ProcessingReceived),
	})
}

// ListReviewQueue returns the pending review backlog.
func (h *Handlers) ListReviewQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reviews.ListPending(r.Context(), 100)
	if err != nil {
		log.Printf("[api] list review queue: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list review queue")
		return
	}
	if entries == nil {
		entries = []*domain.ReviewQueueEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// reviewActionRequest carries the reviewer identity for approve/reject.
type reviewActionRequest struct {
	ReviewedBy string `json:"reviewed_by"`
}

// ApproveReview approves one pending entry.
func (h *Handlers) ApproveReview(w http.ResponseWriter, r *http.Request) {
	h.decideReview(w, r, h.reviews.Approve)
}

// RejectReview rejects one pending entry.
func (h *Handlers) RejectReview(w http.ResponseWriter, r *http.Request) {
	h.decideReview(w, r, h.reviews.Reject)
}

func (h *Handlers) decideReview(w http.ResponseWriter, r *http.Request, decide func(context.Context, string, string) error) {
	entryID := chi.URLParam(r, "id")

	var req reviewActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReviewedBy == "" {
		respondError(w, http.StatusBadRequest, "reviewed_by is required")
		return
	}

	err := decide(r.Context(), entryID, req.ReviewedBy)
	switch {
	case errors.Is(err, review.ErrNotFound):
		respondError(w, http.StatusNotFound, "review entry not found")
	case errors.Is(err, review.ErrAlreadyDecided):
		respondError(w, http.StatusConflict, "review entry already decided")
	case err != nil:
		log.Printf("[api] review decision on %s: %v", entryID, err)
		respondError(w, http.StatusInternalServerError, "failed to apply decision")
	default:
		respondJSON(w, http.StatusOK, map[string]string{"id": entryID, "status": "ok"})
	}
}

// GetEmailLog returns one processing log with its automation audit trail.
func (h *Handlers) GetEmailLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	logRow, err := h.logs.Get(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "email log not found")
		return
	}
	if err != nil {
		log.Printf("[api] get email log %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load email log")
		return
	}

	trail, err := h.logs.ListAutomationLogs(r.Context(), id)
	if err != nil {
		log.Printf("[api] list automation logs for %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load audit trail")
		return
	}
	if trail == nil {
		trail = []*domain.AutomationLog{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"log":             logRow,
		"automation_logs": trail,
	})
}

// GetPublisher returns one publisher by id.
func (h *Handlers) GetPublisher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.publishers.Get(r.Context(), id)
	if errors.Is(err, publisher.ErrNotFound) {
		respondError(w, http.StatusNotFound, "publisher not found")
		return
	}
	if err != nil {
		log.Printf("[api] get publisher %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load publisher")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
