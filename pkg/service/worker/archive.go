package worker

import (
	"context"
	"time"

	"github.com/lunar-city/ticketbot/pkg/usecase"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

// ArchiveWorker periodically deletes channels of archived tickets whose
// retention has expired, along with their ticket and schedule rows.
type ArchiveWorker struct {
	uc       *usecase.UseCases
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewArchiveWorker(uc *usecase.UseCases, interval time.Duration) *ArchiveWorker {
	return &ArchiveWorker{
		uc:       uc,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop without blocking startup.
func (w *ArchiveWorker) Start(ctx context.Context) error {
	logging.Default().Info("archive deletion worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion.
func (w *ArchiveWorker) Stop() {
	logging.Default().Info("archive deletion worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("archive deletion worker stopped")
}

func (w *ArchiveWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.RunOnce(ctx); err != nil {
		logging.Default().Error("archive sweep failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				logging.Default().Error("archive sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("archive deletion worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("archive deletion worker context cancelled")
			return
		}
	}
}

// RunOnce performs a single sweep. Exposed so operators and tests can
// trigger a sweep outside the schedule.
func (w *ArchiveWorker) RunOnce(ctx context.Context) error {
	start := time.Now()

	deleted, err := w.uc.DeleteExpiredArchives(ctx)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("archive sweep finished",
		"deleted", deleted, "duration", time.Since(start).String())
	return nil
}
