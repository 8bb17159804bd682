package worker

import (
	"context"
	"errors"
	"time"

	"github.com/esengulov/mysqlq/internal/domain"
	"github.com/esengulov/mysqlq/internal/metrics"
)

const (
	locusScheduler = "scheduler"
	locusRecovery  = "recovery"
)

// sourceFunc performs one poll-and-publish cycle. It returns the number of
// values published, and whether the pipeline refused them because it is
// shutting down.
type sourceFunc func(ctx context.Context) (int, bool)

func (w *Worker) publishLoop(locus string, minSleep, maxSleep time.Duration, src sourceFunc) {
	defer w.wg.Done()
	defer w.pubWG.Done()

	logger := w.logger.With("locus", locus)
	logger.Info("publisher started", "min_sleep", minSleep, "max_sleep", maxSleep)

	for {
		select {
		case <-w.stopCh:
			logger.Info("publisher stopped")
			return
		default:
		}

		start := time.Now()
		n, stopped := src(w.pollCtx)
		if stopped {
			logger.Info("publisher stopped")
			return
		}
		if n > 0 {
			metrics.JobsPublished.WithLabelValues(locus).Add(float64(n))
			logger.Debug("published", "count", n)
			continue
		}

		select {
		case <-time.After(backoff(time.Since(start), minSleep, maxSleep)):
		case <-w.stopCh:
			logger.Info("publisher stopped")
			return
		}
	}
}

// backoff yields fast-drain behavior under load and near-max sleeps when
// idle: an empty cycle sleeps out the remainder of maxSleep, floored at
// minSleep.
func backoff(elapsed, minSleep, maxSleep time.Duration) time.Duration {
	d := maxSleep - elapsed
	if d < minSleep {
		d = minSleep
	}
	return d
}

func (w *Worker) pollScheduled(ctx context.Context) (int, bool) {
	exclude := append([]int64{0}, w.sieve.Snapshot(domain.KindScheduledJob)...)
	rows, err := w.scheduled.SelectReady(ctx, w.names, exclude, w.opts.Prefetch)
	if err != nil {
		return w.pollFailed(locusScheduler, err), false
	}

	items := make([]domain.Runnable, len(rows))
	for i, r := range rows {
		items[i] = r
	}
	return w.batchPublish(items)
}

func (w *Worker) pollStuck(ctx context.Context) (int, bool) {
	exclude := append([]int64{0}, w.sieve.Snapshot(domain.KindStuckJob)...)
	rows, err := w.jobs.SelectStuck(ctx, w.names, exclude, w.opts.RecoveryThreshold, w.opts.Prefetch)
	if err != nil {
		return w.pollFailed(locusRecovery, err), false
	}

	items := make([]domain.Runnable, len(rows))
	for i, r := range rows {
		items[i] = r
	}
	return w.batchPublish(items)
}

// pollFailed logs and reports a database error and counts the cycle as
// having published nothing, so the loop continues with backoff.
func (w *Worker) pollFailed(locus string, err error) int {
	if errors.Is(err, context.Canceled) {
		return 0
	}
	w.logger.Error("poll failed", "locus", locus, "error", err)
	metrics.PublisherErrors.WithLabelValues(locus).Inc()
	w.report(err)
	return 0
}

// batchPublish pushes values one at a time onto the pipeline input, stopping
// at the first refusal. It signals "stopped" only when nothing at all could
// be published.
func (w *Worker) batchPublish(items []domain.Runnable) (int, bool) {
	n := 0
	for _, it := range items {
		select {
		case w.input <- it:
			n++
		case <-w.stopCh:
			return n, n == 0
		}
	}
	return n, false
}
