package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/publisher-inbox/internal/pipeline"
)

type fakeProcessor struct {
	mu     sync.Mutex
	logIDs []string
	done   chan string
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{done: make(chan string, 16)}
}

func (f *fakeProcessor) ProcessInboundEmail(_ context.Context, in pipeline.ProcessInput) (string, error) {
	f.mu.Lock()
	f.logIDs = append(f.logIDs, in.LogID)
	f.mu.Unlock()
	f.done <- in.LogID
	return "pub-1", nil
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logIDs)
}

func setupConsumer(t *testing.T, proc Processor) (*redis.Client, *IngestConsumer) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c := NewIngestConsumer(rdb, proc, IngestConsumerConfig{
		QueueKey:    "test:ingest",
		DedupTTL:    time.Minute,
		Concurrency: 2,
	})
	return rdb, c
}

func waitFor(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("processed %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestIngestConsumerProcessesMessage(t *testing.T) {
	proc := newFakeProcessor()
	rdb, c := setupConsumer(t, proc)

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	err := EnqueueIngest(context.Background(), rdb, "test:ingest", IngestMessage{
		LogID:       "log-1",
		SenderEmail: "jane@techblog.com",
		Body:        "we charge $250",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, proc.done, "log-1")
}

func TestIngestConsumerSkipsDuplicateLogIDs(t *testing.T) {
	proc := newFakeProcessor()
	rdb, c := setupConsumer(t, proc)

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	for i := 0; i < 3; i++ {
		if err := EnqueueIngest(context.Background(), rdb, "test:ingest", IngestMessage{LogID: "dup-1"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if err := EnqueueIngest(context.Background(), rdb, "test:ingest", IngestMessage{LogID: "other-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, proc.done, "dup-1")
	waitFor(t, proc.done, "other-1")

	if n := proc.count(); n != 2 {
		t.Fatalf("processed %d messages, want 2 (duplicates skipped)", n)
	}
	if s := c.Stats(); s["skipped"] != 2 {
		t.Fatalf("skipped = %d, want 2", s["skipped"])
	}
}

func TestIngestConsumerDropsMalformedMessage(t *testing.T) {
	proc := newFakeProcessor()
	rdb, c := setupConsumer(t, proc)

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	if err := rdb.LPush(context.Background(), "test:ingest", "not json").Err(); err != nil {
		t.Fatalf("lpush: %v", err)
	}
	if err := EnqueueIngest(context.Background(), rdb, "test:ingest", IngestMessage{LogID: "good-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, proc.done, "good-1")
	if n := proc.count(); n != 1 {
		t.Fatalf("processed %d, want 1", n)
	}
}

func TestIngestConsumerDoubleStart(t *testing.T) {
	proc := newFakeProcessor()
	_, c := setupConsumer(t, proc)

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	if err := c.Start(); err == nil {
		t.Fatal("double start must error")
	}
}
