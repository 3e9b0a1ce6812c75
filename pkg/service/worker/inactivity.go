package worker

import (
	"context"
	"time"

	"github.com/lunar-city/ticketbot/pkg/usecase"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

// InactivityWorker periodically closes open tickets that have seen no
// activity for longer than the threshold.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - The sweep is idempotent: re-running after a partial failure picks
//   up exactly the remaining tickets, since each run re-queries by
//   current state
type InactivityWorker struct {
	uc        *usecase.UseCases
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewInactivityWorker creates the auto-close worker. interval is how
// often the sweep runs; threshold is how long a ticket may stay idle.
func NewInactivityWorker(uc *usecase.UseCases, interval, threshold time.Duration) *InactivityWorker {
	return &InactivityWorker{
		uc:        uc,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background sweep loop without blocking startup.
func (w *InactivityWorker) Start(ctx context.Context) error {
	logging.Default().Info("inactivity worker starting",
		"interval", w.interval.String(), "threshold", w.threshold.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion.
func (w *InactivityWorker) Stop() {
	logging.Default().Info("inactivity worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("inactivity worker stopped")
}

func (w *InactivityWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// First sweep right away so a long downtime does not delay
	// overdue closes by another interval.
	if err := w.RunOnce(ctx); err != nil {
		logging.Default().Error("inactivity sweep failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				logging.Default().Error("inactivity sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("inactivity worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("inactivity worker context cancelled")
			return
		}
	}
}

// RunOnce performs a single sweep. Exposed so operators and tests can
// trigger a sweep outside the schedule.
func (w *InactivityWorker) RunOnce(ctx context.Context) error {
	start := time.Now()

	closed, err := w.uc.CloseInactiveTickets(ctx, w.threshold)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("inactivity sweep finished",
		"closed", closed, "duration", time.Since(start).String())
	return nil
}
