package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"checkin/internal/activity"
	"checkin/internal/backend"
	"checkin/internal/config"
	"checkin/internal/store"
)

// Worker consumes roster changes and records them in the activity feed.
func main() {
	cfg := config.Load()
	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory: the api process drains its own queue, nothing to do")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	set, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backend init failed: %v", err)
	}
	defer set.Close()

	if !set.Redis.Healthy(ctx) {
		log.Println("WARNING: redis not reachable, worker will keep retrying")
	}

	messages, err := set.Queue.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	cache := store.NewStatsCache(set.Redis.Client, cfg.StatsCacheTTL)
	log.Println("worker started, waiting for messages...")
	activity.NewWorker(set.Activity, cache).Run(ctx, messages)
	log.Println("worker stopped")
}
