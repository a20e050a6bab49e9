package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/publisher-inbox/internal/api"
	"github.com/ignite/publisher-inbox/internal/archive"
	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/extraction"
	"github.com/ignite/publisher-inbox/internal/invite"
	"github.com/ignite/publisher-inbox/internal/pipeline"
	"github.com/ignite/publisher-inbox/internal/repository/postgres"
	"github.com/ignite/publisher-inbox/internal/service/publisher"
	"github.com/ignite/publisher-inbox/internal/service/reconcile"
	"github.com/ignite/publisher-inbox/internal/service/review"
	"github.com/ignite/publisher-inbox/internal/storage"
	"github.com/ignite/publisher-inbox/internal/worker"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	var cfg *config.Config
	var err error
	if _, statErr := os.Stat(configPath); statErr == nil {
		cfg, err = config.Load(configPath)
	} else {
		log.Printf("[server] no config file at %s, using environment", configPath)
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	rdb, err := storage.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	extractor, err := extraction.New(cfg.Extraction)
	if err != nil {
		log.Fatalf("init extractor: %v", err)
	}
	log.Printf("[server] extraction strategy: %s", cfg.Extraction.Strategy)

	publisherRepo := postgres.NewPublisherRepo(db)
	reconcileRepo := postgres.NewReconcileRepo(db)
	reviewRepo := postgres.NewReviewRepo(db)
	logRepo := postgres.NewLogRepo(db)

	resolver := publisher.NewService(publisherRepo,
		publisher.MatchPolicy(cfg.Resolver.Policy),
		time.Duration(cfg.Resolver.InvitationTTLHours)*time.Hour)
	reconciler := reconcile.NewService(reconcileRepo, logRepo, cfg.Thresholds)
	reviewer := review.NewService(reviewRepo, publisherRepo, logRepo, cfg.Thresholds)

	pipe := pipeline.New(extractor, resolver, reconciler, reviewer, logRepo, logRepo)

	if cfg.Invitation.Enabled {
		inviter, err := invite.NewSender(ctx, cfg.Invitation)
		if err != nil {
			log.Printf("[server] invitations disabled: %v", err)
		} else {
			pipe.WithInviter(inviter)
		}
	}
	if cfg.Archive.Enabled {
		archiver, err := archive.New(ctx, cfg.Archive)
		if err != nil {
			log.Printf("[server] archival disabled: %v", err)
		} else {
			pipe.WithArchiver(archiver)
		}
	}

	consumer := worker.NewIngestConsumer(rdb, pipe, worker.IngestConsumerConfig{
		QueueKey:    cfg.Ingest.QueueKey,
		DedupTTL:    time.Duration(cfg.Ingest.DedupTTLMin) * time.Minute,
		Concurrency: cfg.Ingest.Concurrency,
	})
	if err := consumer.Start(); err != nil {
		log.Fatalf("start ingest consumer: %v", err)
	}
	defer consumer.Stop()

	if cfg.Sweeper.Enabled {
		sweeper := worker.NewReviewSweeper(reviewer, worker.ReviewSweeperConfig{
			TickInterval: time.Duration(cfg.Sweeper.TickIntervalSeconds) * time.Second,
			BatchSize:    cfg.Sweeper.BatchSize,
		})
		if err := sweeper.Start(); err != nil {
			log.Fatalf("start review sweeper: %v", err)
		}
		defer sweeper.Stop()
	}

	handlers := api.NewHandlers(logRepo, publisherRepo, reviewer, rdb, cfg.Ingest.QueueKey)
	router := api.SetupRoutes(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
