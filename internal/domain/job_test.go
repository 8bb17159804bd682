package domain_test

import (
	"testing"

	"github.com/esengulov/mysqlq/internal/domain"
)

func TestStatusUltimate(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusDone, domain.StatusFailed, domain.StatusCanceled} {
		if !s.Ultimate() {
			t.Fatalf("expected %s to be ultimate", s)
		}
	}
	for _, s := range []domain.Status{"start", "phase2", ""} {
		if s.Ultimate() {
			t.Fatalf("expected %s not to be ultimate", s)
		}
	}
}

func TestJobBeget_NewStatusResetsAttempt(t *testing.T) {
	parent := &domain.Job{ID: 10, ScheduledJobID: 3, Name: "pipeline", Status: "start", Attempt: 4}

	child := parent.Beget("phase2", map[string]any{"n": 1})

	if child.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", child.Attempt)
	}
	if child.ParentID != 10 {
		t.Fatalf("expected parent id 10, got %d", child.ParentID)
	}
	if child.ScheduledJobID != 3 {
		t.Fatalf("expected scheduled job id 3, got %d", child.ScheduledJobID)
	}
	if child.Name != "pipeline" {
		t.Fatalf("expected name pipeline, got %s", child.Name)
	}
}

func TestJobBeget_SameStatusIncrementsAttempt(t *testing.T) {
	parent := &domain.Job{ID: 10, Name: "retry", Status: "start", Attempt: 2}

	child := parent.Beget("start", nil)

	if child.Attempt != 3 {
		t.Fatalf("expected attempt 3, got %d", child.Attempt)
	}
}

func TestScheduledJobBeget_Root(t *testing.T) {
	s := &domain.ScheduledJob{ID: 7, Name: "greet", Status: "start", Params: map[string]any{"name": "world"}}

	root := s.Beget()

	if root.ScheduledJobID != 7 {
		t.Fatalf("expected scheduled job id 7, got %d", root.ScheduledJobID)
	}
	if root.ParentID != 0 {
		t.Fatalf("expected root parent id 0, got %d", root.ParentID)
	}
	if root.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", root.Attempt)
	}
	if root.Status != "start" {
		t.Fatalf("expected status start, got %s", root.Status)
	}
}

func TestStuckJobBeget_IncrementsAttempt(t *testing.T) {
	stuck := &domain.StuckJob{Job: domain.Job{ID: 42, ScheduledJobID: 9, Name: "slow", Status: "start", Attempt: 1}}

	child := stuck.Beget()

	if child.Status != "start" {
		t.Fatalf("expected status start, got %s", child.Status)
	}
	if child.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", child.Attempt)
	}
	if child.ParentID != 42 {
		t.Fatalf("expected parent id 42, got %d", child.ParentID)
	}
	if child.ScheduledJobID != 9 {
		t.Fatalf("expected scheduled job id 9, got %d", child.ScheduledJobID)
	}
}

func TestStuckJobBeget_AtRetryBudgetFails(t *testing.T) {
	stuck := &domain.StuckJob{Job: domain.Job{ID: 42, Name: "slow", Status: "start", Attempt: domain.MaxRetries}}

	child := stuck.Beget()

	if child.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", child.Status)
	}
	if child.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", child.Attempt)
	}
}

func TestKindsAreDistinct(t *testing.T) {
	j := &domain.Job{ID: 7}
	s := &domain.ScheduledJob{ID: 7}
	st := &domain.StuckJob{Job: domain.Job{ID: 7}}

	if j.RunnableKind() == s.RunnableKind() || s.RunnableKind() == st.RunnableKind() || j.RunnableKind() == st.RunnableKind() {
		t.Fatal("expected distinct kinds for job, scheduled job and stuck job")
	}
}
