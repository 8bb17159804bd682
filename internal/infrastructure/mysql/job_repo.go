package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/esengulov/mysqlq/internal/codec"
	"github.com/esengulov/mysqlq/internal/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Insert(ctx context.Context, job *domain.Job) (int64, error) {
	raw, err := codec.Encode(job.Params)
	if err != nil {
		return 0, err
	}

	var parent sql.NullInt64
	if job.ParentID != 0 {
		parent = sql.NullInt64{Int64: job.ParentID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (scheduled_job_id, parent_id, name, status, parameters, attempt)
		VALUES (?, ?, ?, ?, ?, ?)`,
		job.ScheduledJobID, parent, job.Name, string(job.Status), raw, job.Attempt,
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, domain.ErrDuplicateJob
		}
		return 0, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert job id: %w", err)
	}
	return id, nil
}

func (r *JobRepository) SelectStuck(ctx context.Context, names []string, exclude []int64, threshold time.Duration, limit int) ([]*domain.StuckJob, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, scheduled_job_id, parent_id, name, status, parameters, attempt
		FROM jobs
		WHERE status NOT IN (%s)
		  AND name IN (%s)
		  AND id NOT IN (%s)
		  AND updated_at < NOW() - INTERVAL ? SECOND
		ORDER BY updated_at ASC
		LIMIT ?`,
		placeholders(len(domain.UltimateStatuses())),
		placeholders(len(names)),
		placeholders(len(exclude)),
	)

	var args []any
	for _, s := range domain.UltimateStatuses() {
		args = append(args, string(s))
	}
	args = append(args, stringArgs(names)...)
	args = append(args, int64Args(exclude)...)
	args = append(args, int(threshold.Seconds()), limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select stuck jobs: %w", err)
	}
	defer rows.Close()

	var stuck []*domain.StuckJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		stuck = append(stuck, &domain.StuckJob{Job: *j})
	}
	return stuck, rows.Err()
}

// sql.Row and sql.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		j      domain.Job
		parent sql.NullInt64
		status string
		raw    []byte
	)
	if err := row.Scan(&j.ID, &j.ScheduledJobID, &parent, &j.Name, &status, &raw, &j.Attempt); err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	j.ParentID = parent.Int64
	j.Status = domain.Status(status)

	params, err := codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	j.Params = params
	return &j, nil
}
