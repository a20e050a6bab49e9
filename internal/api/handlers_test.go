package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/service/publisher"
	"github.com/ignite/publisher-inbox/internal/service/review"
)

type fakeLogStore struct {
	created []*domain.EmailProcessingLog
	trail   []*domain.AutomationLog
}

func (f *fakeLogStore) Create(_ context.Context, e *domain.EmailProcessingLog) (string, error) {
	f.created = append(f.created, e)
	return e.ID, nil
}

func (f *fakeLogStore) Get(_ context.Context, id string) (*domain.EmailProcessingLog, error) {
	for _, e := range f.created {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLogStore) ListAutomationLogs(_ context.Context, emailLogID string) ([]*domain.AutomationLog, error) {
	var out []*domain.AutomationLog
	for _, e := range f.trail {
		if e.EmailLogID == emailLogID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePublisherReader struct {
	pub *domain.Publisher
}

func (f *fakePublisherReader) Get(_ context.Context, id string) (*domain.Publisher, error) {
	if f.pub == nil || f.pub.ID != id {
		return nil, publisher.ErrNotFound
	}
	return f.pub, nil
}

type fakeReviewer struct {
	pending  []*domain.ReviewQueueEntry
	approved []string
	rejected []string
	err      error
}

func (f *fakeReviewer) ListPending(_ context.Context, _ int) ([]*domain.ReviewQueueEntry, error) {
	return f.pending, f.err
}

func (f *fakeReviewer) Approve(_ context.Context, entryID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.approved = append(f.approved, entryID)
	return nil
}

func (f *fakeReviewer) Reject(_ context.Context, entryID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.rejected = append(f.rejected, entryID)
	return nil
}

func setupServer(t *testing.T, logs *fakeLogStore, pubs *fakePublisherReader, reviews *fakeReviewer) (*httptest.Server, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := NewHandlers(logs, pubs, reviews, rdb, "test:ingest")
	srv := httptest.NewServer(SetupRoutes(h))
	t.Cleanup(srv.Close)
	return srv, rdb
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestInboundEmailAcceptsAndQueues(t *testing.T) {
	logs := &fakeLogStore{}
	srv, rdb := setupServer(t, logs, &fakePublisherReader{}, &fakeReviewer{})

	resp := postJSON(t, srv.URL+"/api/inbound/email", map[string]string{
		"sender_email": "jane@techblog.com",
		"subject":      "Re: guest post",
		"body":         "we charge $250 per post",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	if out["log_id"] == "" {
		t.Fatal("response missing log_id")
	}
	if len(logs.created) != 1 {
		t.Fatalf("created %d log rows", len(logs.created))
	}

	n, err := rdb.LLen(context.Background(), "test:ingest").Result()
	if err != nil || n != 1 {
		t.Fatalf("queue length = %d err=%v, want 1", n, err)
	}
}

func TestInboundEmailRejectsMissingFields(t *testing.T) {
	srv, _ := setupServer(t, &fakeLogStore{}, &fakePublisherReader{}, &fakeReviewer{})

	resp := postJSON(t, srv.URL+"/api/inbound/email", map[string]string{"subject": "hi"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListReviewQueue(t *testing.T) {
	reviews := &fakeReviewer{pending: []*domain.ReviewQueueEntry{
		{ID: "entry-1", Status: domain.ReviewPending, Priority: 5},
	}}
	srv, _ := setupServer(t, &fakeLogStore{}, &fakePublisherReader{}, reviews)

	resp, err := http.Get(srv.URL + "/api/review-queue/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Count   int                       `json:"count"`
		Entries []*domain.ReviewQueueEntry `json:"entries"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Count != 1 || out.Entries[0].ID != "entry-1" {
		t.Fatalf("got %+v", out)
	}
}

func TestApproveReview(t *testing.T) {
	reviews := &fakeReviewer{}
	srv, _ := setupServer(t, &fakeLogStore{}, &fakePublisherReader{}, reviews)

	resp := postJSON(t, srv.URL+"/api/review-queue/entry-1/approve", map[string]string{
		"reviewed_by": "ops@ignite.io",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(reviews.approved) != 1 || reviews.approved[0] != "entry-1" {
		t.Fatalf("approved = %v", reviews.approved)
	}
}

func TestApproveReviewRequiresReviewer(t *testing.T) {
	srv, _ := setupServer(t, &fakeLogStore{}, &fakePublisherReader{}, &fakeReviewer{})

	resp := postJSON(t, srv.URL+"/api/review-queue/entry-1/approve", map[string]string{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRejectReviewAlreadyDecided(t *testing.T) {
	reviews := &fakeReviewer{err: review.ErrAlreadyDecided}
	srv, _ := setupServer(t, &fakeLogStore{}, &fakePublisherReader{}, reviews)

	resp := postJSON(t, srv.URL+"/api/review-queue/entry-1/reject", map[string]string{
		"reviewed_by": "ops",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestGetPublisher(t *testing.T) {
	pubs := &fakePublisherReader{pub: &domain.Publisher{ID: "pub-1", Email: "jane@techblog.com"}}
	srv, _ := setupServer(t, &fakeLogStore{}, pubs, &fakeReviewer{})

	resp, err := http.Get(srv.URL + "/api/publishers/pub-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp2, err := http.Get(srv.URL + "/api/publishers/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp2.StatusCode)
	}
}

func TestGetEmailLogWithAuditTrail(t *testing.T) {
	logs := &fakeLogStore{
		created: []*domain.EmailProcessingLog{
			{ID: "log-1", SenderEmail: "jane@techblog.com", Status: domain.ProcessingCompleted},
		},
		trail: []*domain.AutomationLog{
			{ID: "audit-1", EmailLogID: "log-1", Action: domain.ActionOfferingCreated, ActionStatus: "success"},
			{ID: "audit-2", EmailLogID: "other-log", Action: domain.ActionError, ActionStatus: "failed"},
		},
	}
	srv, _ := setupServer(t, logs, &fakePublisherReader{}, &fakeReviewer{})

	resp, err := http.Get(srv.URL + "/api/email-logs/log-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		Log            *domain.EmailProcessingLog `json:"log"`
		AutomationLogs []*domain.AutomationLog    `json:"automation_logs"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Log == nil || out.Log.ID != "log-1" {
		t.Fatalf("log = %+v", out.Log)
	}
	if len(out.AutomationLogs) != 1 || out.AutomationLogs[0].ID != "audit-1" {
		t.Fatalf("trail = %+v", out.AutomationLogs)
	}
}

func TestGetEmailLogNotFound(t *testing.T) {
	srv, _ := setupServer(t, &fakeLogStore{}, &fakePublisherReader{}, &fakeReviewer{})

	resp, err := http.Get(srv.URL + "/api/email-logs/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupServer(t, &fakeLogStore{}, &fakePublisherReader{}, &fakeReviewer{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
