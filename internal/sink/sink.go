// Package sink persists ledger transactions outside the process.
package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Async.Write when the buffer has no room.
var ErrQueueFull = errors.New("sink queue full")

const defaultBuffer = 1024

// Sink stores one finished transaction.
type Sink interface {
	Write(ctx context.Context, txn models.Transaction) error
}

// Nop discards every transaction.
type Nop struct{}

func (Nop) Write(context.Context, models.Transaction) error { return nil }

// Async decouples callers from a slow backend. Write only enqueues; a single
// goroutine started by Run forwards entries in append order.
type Async struct {
	next     Sink
	queue    chan models.Transaction
	logger   *zap.Logger
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewAsync wraps next with a queue of the given size.
func NewAsync(next Sink, buffer int, logger *zap.Logger) *Async {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Async{
		next:   next,
		queue:  make(chan models.Transaction, buffer),
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Write enqueues txn without blocking.
func (a *Async) Write(_ context.Context, txn models.Transaction) error {
	select {
	case a.queue <- txn:
		observability.IncrementSinkEvent("queued")
		return nil
	default:
		observability.IncrementSinkEvent("dropped")
		return ErrQueueFull
	}
}

// Pending returns the number of queued entries.
func (a *Async) Pending() int {
	return len(a.queue)
}

// Start blocks, forwarding queued entries until ctx is done or Stop is called.
// Whatever is still queued at that point is flushed before returning.
func (a *Async) Start(ctx context.Context) {
	defer close(a.done)
	a.logger.Info("ledger sink starting", zap.Int("buffer", cap(a.queue)))

	for {
		select {
		case <-ctx.Done():
			a.flush(context.WithoutCancel(ctx))
			return
		case <-a.stopCh:
			a.flush(ctx)
			return
		case txn := <-a.queue:
			a.forward(ctx, txn)
		}
	}
}

// Stop ends the loop and waits for the flush to finish.
func (a *Async) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
	})
	<-a.done
}

// Run starts the loop in a goroutine and returns a stop function.
func (a *Async) Run(ctx context.Context) func() {
	go a.Start(ctx)
	return a.Stop
}

func (a *Async) flush(ctx context.Context) {
	for {
		select {
		case txn := <-a.queue:
			a.forward(ctx, txn)
		default:
			return
		}
	}
}

func (a *Async) forward(ctx context.Context, txn models.Transaction) {
	if err := a.next.Write(ctx, txn); err != nil {
		observability.IncrementSinkEvent("write_failed")
		a.logger.Warn("ledger sink write failed",
			zap.String("transaction_id", txn.ID),
			zap.Error(err),
		)
		return
	}
	observability.IncrementSinkEvent("written")
}
