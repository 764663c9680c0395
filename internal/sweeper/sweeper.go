// Package sweeper cancels pending reservations whose booking date has
// fully passed without an approval decision. It only ever performs the
// legal PENDING -> CANCELLED transition through the ledger, so it can
// never corrupt lifecycle state.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"facility-reservation-backend/internal/model"
	"facility-reservation-backend/internal/store"
)

// LapsedReason is recorded on reservations the sweeper cancels.
const LapsedReason = "booking date passed without an approval decision"

// Sweeper periodically scans the ledger for lapsed pending reservations
// and dispatches each to a worker pool for cancellation.
type Sweeper struct {
	ledger   store.Ledger
	clock    clockwork.Clock
	interval time.Duration
	pool     *WorkerPool
}

// New creates a sweeper with a worker pool of the given size.
func New(ledger store.Ledger, clock clockwork.Clock, interval time.Duration, poolSize int) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		clock:    clock,
		interval: interval,
		pool:     NewWorkerPool(poolSize, ledger),
	}
}

// Run starts the worker pool and sweeps on a fixed interval until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.pool.Start(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweep failed: %v", err)
			}
		}
	}
}

// SweepOnce finds lapsed pending reservations and dispatches them,
// returning how many were queued.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	today := s.clock.Now().Format(model.DateLayout)
	ids, err := s.ledger.LapsedPendingIDs(ctx, today)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.pool.Dispatch(id)
	}
	return len(ids), nil
}

// WorkerPool fans cancellation work out over a fixed set of goroutines.
type WorkerPool struct {
	size   int
	jobs   chan string
	ledger store.Ledger
}

// NewWorkerPool creates a pool; jobs are reservation IDs.
func NewWorkerPool(size int, ledger store.Ledger) *WorkerPool {
	return &WorkerPool{
		size:   size,
		jobs:   make(chan string, size),
		ledger: ledger,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Dispatch queues a reservation for cancellation.
func (wp *WorkerPool) Dispatch(reservationID string) {
	wp.jobs <- reservationID
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("sweeper worker %d started", id)
	for {
		select {
		case reservationID := <-wp.jobs:
			wp.cancelLapsed(ctx, reservationID)
		case <-ctx.Done():
			log.Printf("sweeper worker %d shutting down", id)
			return
		}
	}
}

func (wp *WorkerPool) cancelLapsed(ctx context.Context, reservationID string) {
	actor := store.Actor{Role: store.RoleSystem}
	if _, err := wp.ledger.Transition(ctx, reservationID, model.StateCancelled, actor, LapsedReason); err != nil {
		// Another actor may have transitioned it between scan and
		// cancel; that is fine, the job is simply obsolete.
		log.Printf("could not cancel lapsed reservation %s: %v", reservationID, err)
	}
}
