package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Promoter auto-approves review queue entries whose timer has elapsed.
type Promoter interface {
	PromoteDue(ctx context.Context, batchSize int) (int, error)
}

// ReviewSweeperConfig holds sweeper configuration.
type ReviewSweeperConfig struct {
	TickInterval time.Duration
	BatchSize    int
}

// ReviewSweeper periodically promotes due review-queue entries.
type ReviewSweeper struct {
	promoter Promoter
	cfg      ReviewSweeperConfig

	promoted int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewReviewSweeper creates a review sweeper.
func NewReviewSweeper(promoter Promoter, cfg ReviewSweeperConfig) *ReviewSweeper {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &ReviewSweeper{promoter: promoter, cfg: cfg}
}

// Start launches the sweep loop.
func (s *ReviewSweeper) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("review sweeper already running")
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	log.Printf("[ReviewSweeper] Starting (interval=%s batch=%d)", s.cfg.TickInterval, s.cfg.BatchSize)

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop stops the sweep loop.
func (s *ReviewSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("[ReviewSweeper] Stopped. promoted=%d", atomic.LoadInt64(&s.promoted))
}

// Promoted returns the total number of entries promoted since start.
func (s *ReviewSweeper) Promoted() int64 { return atomic.LoadInt64(&s.promoted) }

func (s *ReviewSweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *ReviewSweeper) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	n, err := s.promoter.PromoteDue(ctx, s.cfg.BatchSize)
	if err != nil {
		log.Printf("[ReviewSweeper] sweep: %v", err)
		return
	}
	if n > 0 {
		atomic.AddInt64(&s.promoted, int64(n))
		log.Printf("[ReviewSweeper] promoted %d entries", n)
	}
}
