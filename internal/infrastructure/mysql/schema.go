package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// parent_id is NULL for roots so the unique key only binds continuations:
// MySQL unique indexes admit any number of NULLs, and at most one child per
// persisted parent. Concurrent workers racing to beget the same continuation
// collide here and take the benign-conflict path.
const createScheduledJobs = `
CREATE TABLE IF NOT EXISTS scheduled_jobs (
	id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	name          VARCHAR(191)    NOT NULL,
	status        VARCHAR(191)    NOT NULL,
	parameters    BLOB,
	scheduled_for TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_scheduled_jobs_scheduled_for (scheduled_for)
) ENGINE=InnoDB`

const createJobs = `
CREATE TABLE IF NOT EXISTS jobs (
	id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	scheduled_job_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
	parent_id        BIGINT UNSIGNED NULL,
	name             VARCHAR(191)    NOT NULL,
	status           VARCHAR(191)    NOT NULL,
	parameters       BLOB,
	attempt          INT UNSIGNED    NOT NULL DEFAULT 1,
	updated_at       TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_jobs_parent (parent_id),
	KEY idx_jobs_updated_at (updated_at)
) ENGINE=InnoDB`

// CreateSchemas idempotently creates both tables.
func CreateSchemas(ctx context.Context, db *sql.DB) error {
	for _, ddl := range []string{createScheduledJobs, createJobs} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
