// Package mysqlq is a durable, MySQL-backed job queue with scheduled jobs,
// multi-stage continuations, crash recovery of stuck jobs and bounded
// concurrent execution.
//
// Clients register named handlers, schedule work with Schedule, and run a
// Worker that polls the database, executes handlers and persists every
// transition. Delivery is at-least-once; handlers are expected to be
// idempotent at the granularity of (status, params).
package mysqlq

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/esengulov/mysqlq/internal/domain"
	"github.com/esengulov/mysqlq/internal/infrastructure/mysql"
	"github.com/esengulov/mysqlq/internal/worker"
)

// Re-exported pipeline types. Handlers receive the current status and
// parameters and return the next ones; an empty next status means
// (StatusDone, nil).
type (
	Handler = worker.Handler
	Options = worker.Options
	Worker  = worker.Worker
	Status  = domain.Status
)

const (
	StatusDone     = domain.StatusDone
	StatusFailed   = domain.StatusFailed
	StatusCanceled = domain.StatusCanceled

	// MaxRetries bounds consecutive same-status attempts before a job is
	// persisted as failed.
	MaxRetries = domain.MaxRetries
)

// Initialize idempotently creates the scheduled_jobs and jobs tables.
func Initialize(ctx context.Context, db *sql.DB) error {
	return mysql.CreateSchemas(ctx, db)
}

// Schedule persists a job to become runnable at or after dueAt and returns
// its id. name must match a handler bound in some worker; status is the
// initial status handed to that handler.
func Schedule(ctx context.Context, db *sql.DB, name string, status Status, params any, dueAt time.Time) (int64, error) {
	if name == "" {
		return 0, errors.New("job name is required")
	}
	if status == "" {
		return 0, errors.New("initial status is required")
	}
	repo := mysql.NewScheduledJobRepository(db)
	return repo.Insert(ctx, &domain.ScheduledJob{
		Name:         name,
		Status:       status,
		Params:       params,
		ScheduledFor: dueAt,
	})
}

// CancelScheduled removes a pending scheduled job. Deleting an id that was
// already consumed or never existed is not an error.
func CancelScheduled(ctx context.Context, db *sql.DB, id int64) error {
	return mysql.NewScheduledJobRepository(db).DeleteByID(ctx, id)
}

// NewWorker starts the polling pipeline against db with the given handler
// bindings. The zero Options value selects the defaults.
func NewWorker(db *sql.DB, handlers map[string]Handler, opts Options) (*Worker, error) {
	return worker.New(mysql.NewJobRepository(db), mysql.NewScheduledJobRepository(db), handlers, opts)
}

// NewDB opens a connection pool from a go-sql-driver DSN with sane pool
// limits and parseTime enabled. Callers may instead supply any *sql.DB.
func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	return mysql.NewDB(ctx, dsn)
}
