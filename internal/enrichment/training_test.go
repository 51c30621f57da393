package enrichment

import "testing"

func TestOverloadStatus(t *testing.T) {
	recent := []float64{10000, 10000, 10000}

	cases := []struct {
		current float64
		status  string
	}{
		{10600, OverloadImproving},   // >5% above mean
		{9300, OverloadDeclining},    // >5% below mean
		{10200, OverloadMaintaining}, // within 5%
		{9800, OverloadMaintaining},
	}
	for _, tc := range cases {
		if got := OverloadStatus(tc.current, recent); got != tc.status {
			t.Errorf("volume %v: expected %s, got %s", tc.current, tc.status, got)
		}
	}
}

func TestOverloadStatusAbsentWithThinHistory(t *testing.T) {
	if got := OverloadStatus(10000, []float64{9000}); got != "" {
		t.Errorf("expected absent status with <2 history points, got %q", got)
	}
	if got := OverloadStatus(0, []float64{9000, 9500}); got != "" {
		t.Errorf("expected absent status with zero current volume, got %q", got)
	}
}

func TestWorkoutRecoveryHours(t *testing.T) {
	cases := []struct {
		name         string
		volume       float64
		rpe          int
		muscleGroups int
		hours        int
	}{
		{"base", 5000, 5, 1, 24},
		{"hard rpe", 5000, 9, 1, 48},
		{"moderate rpe", 5000, 7, 1, 36},
		{"big volume", 25000, 5, 1, 36},
		{"medium volume", 15000, 5, 1, 30},
		{"full body grinder", 25000, 9, 3, 72}, // 24+24+12+12
	}
	for _, tc := range cases {
		if got := WorkoutRecoveryHours(tc.volume, tc.rpe, tc.muscleGroups); got != tc.hours {
			t.Errorf("%s: expected %dh, got %dh", tc.name, tc.hours, got)
		}
	}
}

func TestActivityRecoveryHours(t *testing.T) {
	if got := ActivityRecoveryHours(45, 5); got != 12 {
		t.Errorf("easy session: expected 12h, got %d", got)
	}
	if got := ActivityRecoveryHours(100, 9); got != 36 {
		t.Errorf("long hard session: expected 36h, got %d", got)
	}
	if got := ActivityRecoveryHours(70, 7); got != 24 {
		t.Errorf("moderate session: expected 24h, got %d", got)
	}
}

func TestActivityPerformanceScoreBuckets(t *testing.T) {
	recent := []float64{6.0, 6.0} // min/km

	cases := []struct {
		pace  float64
		score float64
	}{
		{5.3, 9.0},  // >10% faster
		{5.65, 8.0}, // >5% faster
		{5.95, 7.0}, // faster
		{6.2, 5.0},  // within 5% slower
		{6.6, 3.0},  // much slower
	}
	for _, tc := range cases {
		if got := ActivityPerformanceScore(tc.pace, recent); got != tc.score {
			t.Errorf("pace %v: expected %v, got %v", tc.pace, tc.score, got)
		}
	}
}

func TestActivityPerformanceScoreNeutralWithoutHistory(t *testing.T) {
	if got := ActivityPerformanceScore(6.0, []float64{5.5}); got != 5.0 {
		t.Errorf("expected neutral 5.0 with insufficient history, got %v", got)
	}
}

func TestWorkoutTags(t *testing.T) {
	tags := WorkoutTags([]string{"chest", "shoulders"}, 18000, 9, 7)
	expectTags(t, tags, "chest", "shoulders", "high-intensity", "high-volume", "full-workout")

	tags = WorkoutTags(nil, 3000, 5, 2)
	expectTags(t, tags, "light-intensity", "low-volume", "quick-workout")
}

func TestActivityTags(t *testing.T) {
	tags := ActivityTags("running", 95, 16, 8)
	expectTags(t, tags, "running", "long-duration", "long-distance", "high-effort", "cardio")

	tags = ActivityTags("walking", 25, 2, 3)
	expectTags(t, tags, "walking", "short-duration", "short-distance", "easy", "cardio")
}
