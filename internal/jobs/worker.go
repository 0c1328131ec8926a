package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobProcessor runs one pass over whatever work is pending.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor on a fixed poll interval. One pass runs
// immediately on Start so a restarted server drains its job backlog
// without waiting out the first interval.
type Worker struct {
	processor JobProcessor
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a worker polling at the given interval.
func NewWorker(processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		processor: processor,
		interval:  interval,
	}
}

// Start blocks in the poll loop until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()
	defer close(done)
	defer cancel()

	log.Printf("index job worker polling every %v", w.interval)

	w.pass(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("index job worker stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *Worker) pass(ctx context.Context) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("index job pass failed: %v", err)
	}
}

// Stop cancels the loop and waits for any in-flight pass to finish. Safe
// to call when the worker never started.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
