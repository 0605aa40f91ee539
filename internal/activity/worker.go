package activity

import (
	"context"
	"log"
	"strings"

	"checkin/internal/queue"
)

// Invalidator drops derived data after a roster change.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Worker turns queued lifecycle changes into feed entries and invalidates
// the cached dashboard stats.
type Worker struct {
	log   Log
	cache Invalidator
}

// NewWorker creates a worker; cache may be nil.
func NewWorker(l Log, cache Invalidator) *Worker {
	return &Worker{log: l, cache: cache}
}

// Handle processes one message. Messages that are not student changes are
// ignored.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	if !strings.HasPrefix(msg.Type, "student.") {
		return nil
	}
	c, err := queue.DecodeChange(msg)
	if err != nil {
		return err
	}
	if w.cache != nil {
		if err := w.cache.Invalidate(ctx); err != nil {
			log.Printf("stats cache invalidate failed: %v", err)
		}
	}
	_, err = w.log.Append(ctx, FromChange(c))
	return err
}

// Run consumes until the channel closes.
func (w *Worker) Run(ctx context.Context, messages <-chan queue.Message) {
	for msg := range messages {
		if err := w.Handle(ctx, msg); err != nil {
			log.Printf("activity %s failed: %v", msg.Type, err)
		}
	}
}
