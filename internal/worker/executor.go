package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/esengulov/mysqlq/internal/domain"
	ctxlog "github.com/esengulov/mysqlq/internal/log"
	"github.com/esengulov/mysqlq/internal/metrics"
	"github.com/esengulov/mysqlq/internal/repository"
)

// Handler advances a job one step. It receives the current status and
// parameters and returns the next ones. Returning an empty status means
// (done, nil). Handlers must be idempotent at the granularity of
// (status, params): delivery is at-least-once.
type Handler func(ctx context.Context, status domain.Status, params any) (domain.Status, any, error)

// Executor advances a single pipeline value exactly one step and persists
// the resulting continuation.
type Executor struct {
	jobs      repository.JobRepository
	scheduled repository.ScheduledJobRepository
	handlers  map[string]Handler
	logger    *slog.Logger
	report    func(error)
}

func NewExecutor(jobs repository.JobRepository, scheduled repository.ScheduledJobRepository, handlers map[string]Handler, logger *slog.Logger, report func(error)) *Executor {
	return &Executor{
		jobs:      jobs,
		scheduled: scheduled,
		handlers:  handlers,
		logger:    logger.With("component", "executor"),
		report:    report,
	}
}

// Execute returns the next Job in the chain, or nil when the chain ends:
// after terminal cleanup, or after losing a continuation race to another
// worker.
func (e *Executor) Execute(ctx context.Context, r domain.Runnable) (*domain.Job, error) {
	switch v := r.(type) {
	case *domain.Job:
		return e.executeJob(ctx, v)
	case *domain.StuckJob:
		ctx = ctxlog.WithJob(ctx, v.ID, v.Name)
		e.logger.InfoContext(ctx, "recovering stuck job", "status", string(v.Status), "attempt", v.Attempt)
		metrics.JobsExecuted.WithLabelValues("recovered").Inc()
		return e.persist(ctx, v.Beget())
	case *domain.ScheduledJob:
		ctx = ctxlog.WithJob(ctx, v.ID, v.Name)
		e.logger.InfoContext(ctx, "starting scheduled job", "status", string(v.Status))
		return e.persist(ctx, v.Beget())
	default:
		return nil, fmt.Errorf("unsupported runnable kind %s", r.RunnableKind())
	}
}

func (e *Executor) executeJob(ctx context.Context, j *domain.Job) (*domain.Job, error) {
	ctx = ctxlog.WithJob(ctx, j.ID, j.Name)

	if j.Finished() {
		if j.ScheduledJobID != 0 {
			if err := e.scheduled.DeleteByID(ctx, j.ScheduledJobID); err != nil {
				return nil, err
			}
		}
		e.logger.InfoContext(ctx, "job finished", "status", string(j.Status))
		metrics.JobsExecuted.WithLabelValues(string(j.Status)).Inc()
		return nil, nil
	}

	h, ok := e.handlers[j.Name]
	if !ok {
		// Only bound names are polled; a miss means the row was inserted by
		// a deployment with a wider binding map.
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownHandler, j.Name)
	}

	next, params, err := e.invoke(ctx, h, j)
	if err != nil {
		metrics.HandlerErrors.Inc()
		e.logger.ErrorContext(ctx, "handler error", "status", string(j.Status), "attempt", j.Attempt, "error", err)
		e.report(err)
		if j.Attempt < domain.MaxRetries {
			metrics.JobsExecuted.WithLabelValues("retried").Inc()
			return e.persist(ctx, j.Beget(j.Status, j.Params))
		}
		metrics.JobsExecuted.WithLabelValues("exhausted").Inc()
		return e.persist(ctx, j.Beget(domain.StatusFailed, j.Params))
	}

	if next == "" {
		next, params = domain.StatusDone, nil
	}
	metrics.JobsExecuted.WithLabelValues("advanced").Inc()
	return e.persist(ctx, j.Beget(next, params))
}

// invoke runs the handler with panic containment. A panicking handler is a
// handler error, not a dead consumer.
func (e *Executor) invoke(ctx context.Context, h Handler, j *domain.Job) (next domain.Status, params any, err error) {
	start := time.Now()
	defer func() {
		metrics.HandlerDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, j.Status, j.Params)
}

func (e *Executor) persist(ctx context.Context, child *domain.Job) (*domain.Job, error) {
	id, err := e.jobs.Insert(ctx, child)
	if errors.Is(err, domain.ErrDuplicateJob) {
		// Another worker beat us to this continuation.
		metrics.DuplicateContinuations.Inc()
		e.logger.DebugContext(ctx, "continuation lost to another worker", "parent_id", child.ParentID, "status", string(child.Status))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	child.ID = id
	return child, nil
}
