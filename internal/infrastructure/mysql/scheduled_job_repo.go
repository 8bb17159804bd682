package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/esengulov/mysqlq/internal/codec"
	"github.com/esengulov/mysqlq/internal/domain"
)

type ScheduledJobRepository struct {
	db *sql.DB
}

func NewScheduledJobRepository(db *sql.DB) *ScheduledJobRepository {
	return &ScheduledJobRepository{db: db}
}

func (r *ScheduledJobRepository) Insert(ctx context.Context, s *domain.ScheduledJob) (int64, error) {
	raw, err := codec.Encode(s.Params)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduled_jobs (name, status, parameters, scheduled_for)
		VALUES (?, ?, ?, ?)`,
		s.Name, string(s.Status), raw, s.ScheduledFor,
	)
	if err != nil {
		return 0, fmt.Errorf("insert scheduled job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert scheduled job id: %w", err)
	}
	return id, nil
}

func (r *ScheduledJobRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete scheduled job %d: %w", id, err)
	}
	return nil
}

func (r *ScheduledJobRepository) SelectReady(ctx context.Context, names []string, exclude []int64, limit int) ([]*domain.ScheduledJob, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, name, status, parameters
		FROM scheduled_jobs
		WHERE scheduled_for <= NOW()
		  AND name IN (%s)
		  AND id NOT IN (%s)
		ORDER BY scheduled_for ASC
		LIMIT ?`,
		placeholders(len(names)),
		placeholders(len(exclude)),
	)

	args := stringArgs(names)
	args = append(args, int64Args(exclude)...)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select ready scheduled jobs: %w", err)
	}
	defer rows.Close()

	var ready []*domain.ScheduledJob
	for rows.Next() {
		var (
			s      domain.ScheduledJob
			status string
			raw    []byte
		)
		if err := rows.Scan(&s.ID, &s.Name, &status, &raw); err != nil {
			return nil, fmt.Errorf("scan scheduled job: %w", err)
		}
		s.Status = domain.Status(status)

		params, err := codec.Decode(raw)
		if err != nil {
			return nil, err
		}
		s.Params = params
		ready = append(ready, &s)
	}
	return ready, rows.Err()
}
