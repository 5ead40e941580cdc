package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type bookingJobs interface {
	ExpireAbandoned(ctx context.Context, olderThan time.Duration) (int, error)
	ReconcileRefunds(ctx context.Context) (int, error)
	CompleteCheckedOut(ctx context.Context) (int, error)
}

// MaintenanceWorker periodically expires unpaid bookings, retries pending refunds and
// completes stays whose check-out has passed.
type MaintenanceWorker struct {
	bookings bookingJobs
	interval time.Duration
	holdTTL  time.Duration
	log      logrus.FieldLogger
}

func NewMaintenanceWorker(bookings bookingJobs, interval, holdTTL time.Duration, log logrus.FieldLogger) *MaintenanceWorker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MaintenanceWorker{
		bookings: bookings,
		interval: interval,
		holdTTL:  holdTTL,
		log:      log.WithField("worker", "booking_maintenance"),
	}
}

func (w *MaintenanceWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval.String()).Info("booking maintenance worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("booking maintenance worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs every job once. A failing job does not skip the others.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) {
	w.run(ctx, "expire_abandoned", func(ctx context.Context) (int, error) {
		return w.bookings.ExpireAbandoned(ctx, w.holdTTL)
	})
	w.run(ctx, "reconcile_refunds", w.bookings.ReconcileRefunds)
	w.run(ctx, "complete_checked_out", w.bookings.CompleteCheckedOut)
}

func (w *MaintenanceWorker) run(ctx context.Context, job string, fn func(context.Context) (int, error)) {
	if ctx.Err() != nil {
		return
	}

	n, err := fn(ctx)
	entry := w.log.WithFields(logrus.Fields{"job": job, "processed": n})
	if err != nil {
		entry.WithError(err).Error("maintenance job failed")
		return
	}
	if n > 0 {
		entry.Info("maintenance job done")
		return
	}
	entry.Debug("maintenance job done")
}
