// Package periodic turns cron expressions into recurring scheduled jobs.
// Each firing inserts one scheduled_jobs row due immediately; the worker
// pipeline picks it up like any other scheduled job.
package periodic

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/esengulov/mysqlq"
)

type scheduleFunc func(ctx context.Context, db *sql.DB, name string, status mysqlq.Status, params any, dueAt time.Time) (int64, error)

type Enqueuer struct {
	db       *sql.DB
	cron     *cron.Cron
	logger   *slog.Logger
	schedule scheduleFunc
}

func New(db *sql.DB, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{
		db:       db,
		cron:     cron.New(),
		logger:   logger.With("component", "periodic"),
		schedule: mysqlq.Schedule,
	}
}

// Add registers a recurring job using a standard 5-field cron spec. The
// returned id can be passed to Remove.
func (e *Enqueuer) Add(spec, name string, status mysqlq.Status, params any) (cron.EntryID, error) {
	return e.cron.AddFunc(spec, func() { e.fire(name, status, params) })
}

func (e *Enqueuer) Remove(id cron.EntryID) {
	e.cron.Remove(id)
}

func (e *Enqueuer) Start() {
	e.cron.Start()
	e.logger.Info("periodic enqueuer started", "entries", len(e.cron.Entries()))
}

// Stop halts firing and waits for in-flight inserts to finish.
func (e *Enqueuer) Stop() {
	<-e.cron.Stop().Done()
	e.logger.Info("periodic enqueuer stopped")
}

// fire inserts one due-now scheduled job. Failures are logged, never
// propagated: the next firing tries again.
func (e *Enqueuer) fire(name string, status mysqlq.Status, params any) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := e.schedule(ctx, e.db, name, status, params, time.Now())
	if err != nil {
		e.logger.Error("enqueue recurring job", "name", name, "error", err)
		return
	}
	e.logger.Debug("recurring job enqueued", "name", name, "scheduled_job_id", id)
}
