package worker

import (
	"testing"
	"time"
)

func TestUntilNextNightly(t *testing.T) {
	cases := []struct {
		now  time.Time
		wait time.Duration
	}{
		// Before 02:00: wait until today's run.
		{time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), 2 * time.Hour},
		// After 02:00: wait until tomorrow's run.
		{time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC), 23 * time.Hour},
		// Exactly at 02:00: next run is tomorrow.
		{time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC), 24 * time.Hour},
	}

	for _, tc := range cases {
		if got := untilNextNightly(tc.now); got != tc.wait {
			t.Errorf("at %s: expected %v, got %v", tc.now, tc.wait, got)
		}
	}
}

func TestEnqueueWithoutConnectionIsBestEffort(t *testing.T) {
	var queue *Queue
	if err := queue.Enqueue(SubjectVectorizeEntry, VectorizeEntryTask{UserID: "u1"}); err != nil {
		t.Errorf("nil queue must drop best-effort, got %v", err)
	}
	queue.TryEnqueue(SubjectWarmUserCache, WarmUserCacheTask{UserID: "u1"})
}
