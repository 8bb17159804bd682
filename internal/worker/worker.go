// Package worker implements the concurrent pipeline at the heart of the
// queue: two polling publishers feed a deduplicating gate, which fans out to
// a fixed pool of consumers executing jobs against user handlers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/esengulov/mysqlq/internal/domain"
	ctxlog "github.com/esengulov/mysqlq/internal/log"
	"github.com/esengulov/mysqlq/internal/metrics"
	"github.com/esengulov/mysqlq/internal/repository"
)

type Worker struct {
	opts  Options
	names []string

	jobs      repository.JobRepository
	scheduled repository.ScheduledJobRepository
	executor  *Executor
	sieve     *sieve

	// input feeds the dedup gate; stream is the bounded channel between the
	// gate and the consumers. input is closed only after both publishers
	// have exited, which cascades the shutdown through the pipeline.
	input  chan domain.Runnable
	stream chan domain.Runnable
	stopCh chan struct{}

	// pollCtx cancels in-flight publisher queries on Stop. execCtx stays
	// live so consumers can persist continuations while draining.
	pollCtx  context.Context
	stopPoll context.CancelFunc
	execCtx  context.Context

	running atomic.Bool
	wg      sync.WaitGroup
	pubWG   sync.WaitGroup

	logger *slog.Logger
	errFn  func(error)
}

// New wires the pipeline and starts all loops. The returned worker is
// running until Stop is called.
func New(jobs repository.JobRepository, scheduled repository.ScheduledJobRepository, handlers map[string]Handler, opts Options) (*Worker, error) {
	if len(handlers) == 0 {
		return nil, errors.New("at least one handler is required")
	}

	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	names := make([]string, 0, len(handlers))
	for name, h := range handlers {
		if name == "" || h == nil {
			return nil, errors.New("handler names must be non-empty and handlers non-nil")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	logger := slog.New(ctxlog.NewSafeHandler(ctxlog.NewContextHandler(opts.Logger.Handler()))).
		With("component", "mysqlq.worker", "worker_id", uuid.NewString()[:8])

	pollCtx, stopPoll := context.WithCancel(context.Background())

	w := &Worker{
		opts:      opts,
		names:     names,
		jobs:      jobs,
		scheduled: scheduled,
		sieve:     newSieve(),
		input:     make(chan domain.Runnable),
		stream:    make(chan domain.Runnable, opts.BufferSize),
		stopCh:    make(chan struct{}),
		pollCtx:   pollCtx,
		stopPoll:  stopPoll,
		execCtx:   context.Background(),
		logger:    logger,
		errFn:     opts.ErrFn,
	}
	w.executor = NewExecutor(jobs, scheduled, handlers, logger, w.report)
	w.running.Store(true)

	w.pubWG.Add(2)
	w.wg.Add(2)
	go w.publishLoop(locusScheduler, opts.MinSchedulerSleep, opts.MaxSchedulerSleep, w.pollScheduled)
	go w.publishLoop(locusRecovery, opts.MinRecoverySleep, opts.MaxRecoverySleep, w.pollStuck)

	go func() {
		w.pubWG.Wait()
		close(w.input)
	}()

	w.wg.Add(1)
	go w.forward()

	for i := 0; i < opts.NumConsumers; i++ {
		w.wg.Add(1)
		go w.consume(i)
	}

	logger.Info("worker started",
		"handlers", names,
		"consumers", opts.NumConsumers,
		"prefetch", opts.Prefetch,
		"recovery_threshold", opts.RecoveryThreshold,
	)
	return w, nil
}

// forward is the dedup gate: values whose (kind, id) is already in flight
// are dropped; the rest enter the bounded stream.
func (w *Worker) forward() {
	defer w.wg.Done()
	defer close(w.stream)

	for it := range w.input {
		key := keyOf(it)
		if !w.sieve.Add(key) {
			metrics.DedupDropped.Inc()
			w.logger.Debug("duplicate dropped", "kind", key.kind.String(), "id", key.id)
			continue
		}
		w.stream <- it
	}
}

// Stop shuts the pipeline down cooperatively and waits up to timeout for
// every loop to drain. It reports whether they all did. Stopping an already
// stopped worker is a no-op returning true. In-flight handler invocations
// are not interrupted.
func (w *Worker) Stop(timeout time.Duration) bool {
	if !w.running.CompareAndSwap(true, false) {
		return true
	}

	w.logger.Info("stopping", "timeout", timeout)
	close(w.stopCh)
	w.stopPoll()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("stopped")
		return true
	case <-time.After(timeout):
		w.logger.Warn("stop timed out")
		return false
	}
}

// Running reports whether Stop has not yet been called.
func (w *Worker) Running() bool { return w.running.Load() }

// report delivers an error to the user sink, swallowing any panic it raises.
func (w *Worker) report(err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "mysqlq: error sink panic: %v\n", r)
		}
	}()
	w.errFn(err)
}
