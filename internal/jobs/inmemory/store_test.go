package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []jobs.AdvisoryJob{
		{JobID: "c", SessionID: "s1", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(2 * time.Minute)},
		{JobID: "a", SessionID: "s1", Status: jobs.JobStatusPending, CreatedAt: base},
		{JobID: "b", SessionID: "s2", Status: jobs.JobStatusPending, CreatedAt: base.Add(time.Minute)},
	} {
		if err := s.SaveJob(ctx, &j); err != nil {
			t.Fatalf("SaveJob(%d) error = %v", i, err)
		}
	}

	if err := s.SaveJob(ctx, &jobs.AdvisoryJob{}); err == nil {
		t.Error("Expected error for job without id")
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{name: "all oldest first", want: []string{"a", "b", "c"}},
		{name: "by session", filter: jobs.JobFilter{SessionID: "s1"}, want: []string{"a", "c"}},
		{name: "by status", filter: jobs.JobFilter{Status: jobs.JobStatusPending}, want: []string{"a", "b"}},
		{name: "limit and offset", filter: jobs.JobFilter{Offset: 1, Limit: 1}, want: []string{"b"}},
		{name: "offset past end", filter: jobs.JobFilter{Offset: 5}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			ids := []string{}
			for _, j := range got {
				ids = append(ids, j.JobID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ListJobs() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ListJobs() = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}

	if err := s.UpdateJobStatus(ctx, "a", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetJob(ctx, "a")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("after update: %+v", got)
	}

	got.Status = jobs.JobStatusCompleted
	again, _ := s.GetJob(ctx, "a")
	if again.Status != jobs.JobStatusFailed {
		t.Error("GetJob must return a copy")
	}

	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("GetJob(missing) error = %v", err)
	}
	if err := s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("UpdateJobStatus(missing) error = %v", err)
	}

	updated := *got
	updated.RetryCount = 1
	if err := s.UpdateJob(ctx, &updated); err != nil {
		t.Fatalf("UpdateJob() error = %v", err)
	}
	if again, _ := s.GetJob(ctx, "a"); again.RetryCount != 1 || again.Status != jobs.JobStatusCompleted {
		t.Errorf("after UpdateJob: %+v", again)
	}
	if err := s.UpdateJob(ctx, &jobs.AdvisoryJob{JobID: "missing"}); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("UpdateJob(missing) error = %v", err)
	}
	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Error("UpdateJob must not create a job")
	}

	if n := s.DeleteSession("s1"); n != 2 {
		t.Errorf("DeleteSession() = %d, want 2", n)
	}
	if all, _ := s.ListJobs(ctx, jobs.JobFilter{}); len(all) != 1 {
		t.Errorf("remaining jobs = %d, want 1", len(all))
	}
}
