package repository

import (
	"context"
	"time"

	"github.com/esengulov/mysqlq/internal/domain"
)

// The worker depends on interfaces, not the concrete MySQL implementation,
// so tests can substitute in-memory fakes.

type JobRepository interface {
	// Insert persists one job row and returns its primary key. Returns
	// domain.ErrDuplicateJob when another worker already persisted a
	// continuation for the same parent.
	Insert(ctx context.Context, job *domain.Job) (int64, error)

	// SelectStuck returns up to limit non-terminal rows whose updated_at is
	// older than threshold, restricted to the given handler names and
	// excluding ids currently in flight. exclude always carries a leading
	// sentinel 0.
	SelectStuck(ctx context.Context, names []string, exclude []int64, threshold time.Duration, limit int) ([]*domain.StuckJob, error)
}

type ScheduledJobRepository interface {
	Insert(ctx context.Context, s *domain.ScheduledJob) (int64, error)

	// DeleteByID is idempotent; deleting an absent row is not an error.
	DeleteByID(ctx context.Context, id int64) error

	// SelectReady returns up to limit rows due now, restricted to the given
	// handler names and excluding ids currently in flight.
	SelectReady(ctx context.Context, names []string, exclude []int64, limit int) ([]*domain.ScheduledJob, error)
}
