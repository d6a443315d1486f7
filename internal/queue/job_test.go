package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	job := NewJob(JobTypeNudgeRefresh, userID)

	if job.Type != JobTypeNudgeRefresh {
		t.Errorf("Type = %q, want nudge_refresh", job.Type)
	}
	if job.UserID != userID {
		t.Errorf("UserID = %s, want %s", job.UserID, userID)
	}
	if job.MaxRetries != 3 || job.RetryCount != 0 {
		t.Errorf("retries = %d/%d, want 0/3", job.RetryCount, job.MaxRetries)
	}
	if !job.ShouldProcess() {
		t.Error("fresh job with no window should process immediately")
	}
}

func TestJob_ShouldProcess(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	tests := []struct {
		name      string
		notBefore *time.Time
		notAfter  *time.Time
		want      bool
	}{
		{"no window", nil, nil, true},
		{"not before passed", &past, nil, true},
		{"not before pending", &future, nil, false},
		{"not after pending", nil, &future, true},
		{"expired", nil, &past, false},
		{"inside window", &past, &future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := NewJob(JobTypeNudgeRefresh, uuid.New())
			job.NotBefore = tt.notBefore
			job.NotAfter = tt.notAfter
			if got := job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_IsExpired(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeNudgeRefresh, uuid.New())
	if job.IsExpired() {
		t.Error("job without NotAfter reported expired")
	}

	past := time.Now().Add(-time.Second)
	job.NotAfter = &past
	if !job.IsExpired() {
		t.Error("job past NotAfter not reported expired")
	}
}

func TestJob_Retries(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeNudgeRefresh, uuid.New())
	for i := 0; i < 3; i++ {
		if !job.CanRetry() {
			t.Fatalf("CanRetry = false at attempt %d of 3", i)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Error("CanRetry = true after exhausting MaxRetries")
	}
}
