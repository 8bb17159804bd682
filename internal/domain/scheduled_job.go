package domain

import "time"

// ScheduledJob is a scheduled_jobs row: work that becomes runnable at or
// after ScheduledFor. It is deleted once a descendant Job reaches an
// ultimate status, or when explicitly canceled.
type ScheduledJob struct {
	ID           int64
	Name         string
	Status       Status
	Params       any
	ScheduledFor time.Time
}

func (s *ScheduledJob) RunnableKind() Kind { return KindScheduledJob }
func (s *ScheduledJob) RunnableID() int64  { return s.ID }

// Beget produces the root Job of this scheduled item's execution chain.
func (s *ScheduledJob) Beget() *Job {
	return &Job{
		ScheduledJobID: s.ID,
		ParentID:       0,
		Name:           s.Name,
		Status:         s.Status,
		Params:         s.Params,
		Attempt:        1,
	}
}
