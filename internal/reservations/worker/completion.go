// Package worker runs background maintenance over reservations.
package worker

import (
	"context"
	"sync"
	"time"

	"staybook/pkg/logger"
)

type completer interface {
	CompleteElapsed(ctx context.Context) (int, error)
}

// CompletionSweeper periodically marks confirmed stays whose end date has
// passed as completed.
type CompletionSweeper struct {
	service  completer
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCompletionSweeper(service completer, interval, timeout time.Duration, log *logger.Logger) *CompletionSweeper {
	return &CompletionSweeper{
		service:  service,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

// Start launches the sweep loop. A zero interval disables the sweeper.
func (w *CompletionSweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.interval <= 0 {
		w.log.Info("Completion sweeper disabled")
		return
	}
	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done)

	w.log.Info("Completion sweeper started", "interval", w.interval)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (w *CompletionSweeper) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.log.Info("Completion sweeper stopped")
}

func (w *CompletionSweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *CompletionSweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	n, err := w.service.CompleteElapsed(ctx)
	if err != nil {
		w.log.Error("Completion sweep failed", "completed", n, "error", err)
		return
	}
	if n > 0 {
		w.log.Info("Completion sweep finished", "completed", n)
	}
}
