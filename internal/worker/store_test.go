package worker

import (
	"context"
	"sync"
	"time"

	"github.com/esengulov/mysqlq/internal/domain"
)

// memStore is an in-memory stand-in for both gateway tables. It enforces the
// same one-child-per-parent uniqueness the schema does.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	jobs      []*domain.Job
	jobTimes  map[int64]time.Time
	parents   map[int64]bool
	scheduled map[int64]*domain.ScheduledJob

	insertJobErr error // injected failure for the next job insert
}

func newMemStore() *memStore {
	return &memStore{
		jobTimes:  make(map[int64]time.Time),
		parents:   make(map[int64]bool),
		scheduled: make(map[int64]*domain.ScheduledJob),
	}
}

func (m *memStore) addScheduled(name string, status domain.Status, params any, due time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.scheduled[m.nextID] = &domain.ScheduledJob{
		ID: m.nextID, Name: name, Status: status, Params: params, ScheduledFor: due,
	}
	return m.nextID
}

// addJob pre-inserts a jobs row with a chosen updated_at, for stuck-job
// setups.
func (m *memStore) addJob(j domain.Job, updatedAt time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	j.ID = m.nextID
	m.jobs = append(m.jobs, &j)
	m.jobTimes[j.ID] = updatedAt
	if j.ParentID != 0 {
		m.parents[j.ParentID] = true
	}
	return j.ID
}

func (m *memStore) snapshotJobs() []domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Job, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = *j
	}
	return out
}

func (m *memStore) scheduledCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scheduled)
}

// ---- repository.JobRepository ----

type memJobs struct{ s *memStore }

func (r *memJobs) Insert(_ context.Context, job *domain.Job) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertJobErr != nil {
		err := r.s.insertJobErr
		r.s.insertJobErr = nil
		return 0, err
	}
	if job.ParentID != 0 && r.s.parents[job.ParentID] {
		return 0, domain.ErrDuplicateJob
	}
	r.s.nextID++
	stored := *job
	stored.ID = r.s.nextID
	r.s.jobs = append(r.s.jobs, &stored)
	r.s.jobTimes[stored.ID] = time.Now()
	if job.ParentID != 0 {
		r.s.parents[job.ParentID] = true
	}
	return stored.ID, nil
}

func (r *memJobs) SelectStuck(_ context.Context, names []string, exclude []int64, threshold time.Duration, limit int) ([]*domain.StuckJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cutoff := time.Now().Add(-threshold)
	var out []*domain.StuckJob
	for _, j := range r.s.jobs {
		if len(out) >= limit {
			break
		}
		if j.Status.Ultimate() || !contains(names, j.Name) || containsID(exclude, j.ID) {
			continue
		}
		if !r.s.jobTimes[j.ID].Before(cutoff) {
			continue
		}
		out = append(out, &domain.StuckJob{Job: *j})
	}
	return out, nil
}

// ---- repository.ScheduledJobRepository ----

type memScheduled struct{ s *memStore }

func (r *memScheduled) Insert(_ context.Context, sj *domain.ScheduledJob) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	stored := *sj
	stored.ID = r.s.nextID
	r.s.scheduled[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memScheduled) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.scheduled, id)
	return nil
}

func (r *memScheduled) SelectReady(_ context.Context, names []string, exclude []int64, limit int) ([]*domain.ScheduledJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var out []*domain.ScheduledJob
	for _, sj := range r.s.scheduled {
		if len(out) >= limit {
			break
		}
		if sj.ScheduledFor.After(now) || !contains(names, sj.Name) || containsID(exclude, sj.ID) {
			continue
		}
		copied := *sj
		out = append(out, &copied)
	}
	return out, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
