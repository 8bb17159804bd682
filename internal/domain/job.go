package domain

import (
	"errors"
)

var (
	ErrDuplicateJob   = errors.New("job with this parent already exists")
	ErrUnknownHandler = errors.New("no handler bound for job name")
)

// MaxRetries bounds the number of consecutive same-status attempts before a
// job is persisted as failed.
const MaxRetries = 5

type Status string

const (
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Ultimate reports whether the status is terminal. No continuation is
// persisted past an ultimate status.
func (s Status) Ultimate() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// UltimateStatuses returns the terminal statuses, used as an SQL exclusion
// list by the recovery poll.
func UltimateStatuses() []Status {
	return []Status{StatusCanceled, StatusFailed, StatusDone}
}

// Kind tags the concrete pipeline value so deduplication can tell a
// scheduled_jobs id from a jobs id.
type Kind uint8

const (
	KindJob Kind = iota
	KindScheduledJob
	KindStuckJob
)

func (k Kind) String() string {
	switch k {
	case KindJob:
		return "job"
	case KindScheduledJob:
		return "scheduled_job"
	case KindStuckJob:
		return "stuck_job"
	default:
		return "unknown"
	}
}

// Runnable is the pipeline currency: anything the executor can advance one
// step. Implemented by Job, ScheduledJob and StuckJob.
type Runnable interface {
	RunnableKind() Kind
	RunnableID() int64
}

// Job is one persisted execution step. Values are immutable; transitions
// produce new values via Beget.
type Job struct {
	ID             int64
	ScheduledJobID int64 // 0 for synthetic roots
	ParentID       int64 // 0 for roots
	Name           string
	Status         Status
	Params         any
	Attempt        int
}

func (j *Job) RunnableKind() Kind { return KindJob }
func (j *Job) RunnableID() int64  { return j.ID }

// Finished reports whether the job reached an ultimate status.
func (j *Job) Finished() bool { return j.Status.Ultimate() }

// Beget produces the continuation persisted after one handler step. A
// continuation that re-yields its parent's status counts as a retry and
// increments the attempt counter; advancing to a new status resets it.
func (j *Job) Beget(status Status, params any) *Job {
	attempt := 1
	if status == j.Status {
		attempt = j.Attempt + 1
	}
	return &Job{
		ScheduledJobID: j.ScheduledJobID,
		ParentID:       j.ID,
		Name:           j.Name,
		Status:         status,
		Params:         params,
		Attempt:        attempt,
	}
}

// StuckJob is a jobs row abandoned by a crashed worker: non-terminal status,
// updated_at older than the recovery threshold.
type StuckJob struct {
	Job
}

func (s *StuckJob) RunnableKind() Kind { return KindStuckJob }
func (s *StuckJob) RunnableID() int64  { return s.ID }

// Beget produces the recovery continuation. The attempt ladder is capped: a
// row already at the retry budget begets a failed continuation instead of
// another same-status attempt.
func (s *StuckJob) Beget() *Job {
	if s.Attempt >= MaxRetries {
		return s.Job.Beget(StatusFailed, s.Params)
	}
	return s.Job.Beget(s.Status, s.Params)
}
