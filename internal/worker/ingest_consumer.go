package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/publisher-inbox/internal/pipeline"
)

// IngestMessage is the payload pushed to the redis ingest queue for one
// inbound email. LogID doubles as the deduplication key.
type IngestMessage struct {
	LogID       string `json:"log_id"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	RawPayload  []byte `json:"raw_payload,omitempty"`
}

// EnqueueIngest pushes one message onto the ingest queue.
func EnqueueIngest(ctx context.Context, rdb *redis.Client, queueKey string, msg IngestMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode ingest message: %w", err)
	}
	if err := rdb.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue ingest message: %w", err)
	}
	return nil
}

// Processor runs one inbound email through the pipeline.
type Processor interface {
	ProcessInboundEmail(ctx context.Context, in pipeline.ProcessInput) (string, error)
}

// IngestConsumerConfig holds consumer configuration.
type IngestConsumerConfig struct {
	QueueKey    string
	DedupTTL    time.Duration
	Concurrency int
}

// IngestConsumer drains the redis ingest queue and feeds the pipeline.
// Duplicate log ids within the dedup window are dropped via SETNX.
type IngestConsumer struct {
	redis     *redis.Client
	processor Processor
	cfg       IngestConsumerConfig

	processed int64
	skipped   int64
	failed    int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewIngestConsumer creates an ingest consumer.
func NewIngestConsumer(rdb *redis.Client, processor Processor, cfg IngestConsumerConfig) *IngestConsumer {
	if cfg.QueueKey == "" {
		cfg.QueueKey = "inbox:ingest"
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 30 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &IngestConsumer{redis: rdb, processor: processor, cfg: cfg}
}

// Start launches the consumer loop.
func (c *IngestConsumer) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("ingest consumer already running")
	}
	c.running = true
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()

	log.Printf("[IngestConsumer] Starting (queue=%s concurrency=%d)", c.cfg.QueueKey, c.cfg.Concurrency)

	c.wg.Add(1)
	go c.loop()
	return nil
}

// Stop drains in-flight work and stops the consumer.
func (c *IngestConsumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
	log.Printf("[IngestConsumer] Stopped. processed=%d skipped=%d failed=%d",
		atomic.LoadInt64(&c.processed), atomic.LoadInt64(&c.skipped), atomic.LoadInt64(&c.failed))
}

// Stats returns counters for the health endpoint.
func (c *IngestConsumer) Stats() map[string]int64 {
	return map[string]int64{
		"processed": atomic.LoadInt64(&c.processed),
		"skipped":   atomic.LoadInt64(&c.skipped),
		"failed":    atomic.LoadInt64(&c.failed),
	}
}

func (c *IngestConsumer) loop() {
	defer c.wg.Done()

	sem := make(chan struct{}, c.cfg.Concurrency)
	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		res, err := c.redis.BRPop(c.ctx, 2*time.Second, c.cfg.QueueKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			log.Printf("[IngestConsumer] brpop: %v", err)
			time.Sleep(time.Second)
			continue
		}
		// BRPOP returns [key, value].
		if len(res) != 2 {
			continue
		}

		var msg IngestMessage
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			log.Printf("[IngestConsumer] bad message dropped: %v", err)
			atomic.AddInt64(&c.failed, 1)
			continue
		}

		if msg.LogID != "" {
			set, err := c.redis.SetNX(c.ctx, "inbox:seen:"+msg.LogID, 1, c.cfg.DedupTTL).Result()
			if err != nil && c.ctx.Err() == nil {
				log.Printf("[IngestConsumer] dedup check for %s: %v", msg.LogID, err)
			}
			if err == nil && !set {
				log.Printf("[IngestConsumer] duplicate %s skipped", msg.LogID)
				atomic.AddInt64(&c.skipped, 1)
				continue
			}
		}

		sem <- struct{}{}
		inflight.Add(1)
		go func(m IngestMessage) {
			defer func() {
				<-sem
				inflight.Done()
			}()
			c.process(m)
		}(msg)
	}
}

func (c *IngestConsumer) process(msg IngestMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, err := c.processor.ProcessInboundEmail(ctx, pipeline.ProcessInput{
		LogID:       msg.LogID,
		SenderEmail: msg.SenderEmail,
		Subject:     msg.Subject,
		Body:        msg.Body,
		RawPayload:  msg.RawPayload,
	})
	if err != nil {
		log.Printf("[IngestConsumer] process %s: %v", msg.LogID, err)
		atomic.AddInt64(&c.failed, 1)
		return
	}
	atomic.AddInt64(&c.processed, 1)
}
