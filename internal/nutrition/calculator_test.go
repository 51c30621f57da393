package nutrition

import "testing"

func TestBMRMifflinStJeor(t *testing.T) {
	bmr, err := BMR(80, 180, 30, "male")
	if err != nil {
		t.Fatalf("BMR failed: %v", err)
	}
	if bmr != 1780 {
		t.Errorf("expected BMR 1780, got %d", bmr)
	}

	bmr, err = BMR(80, 180, 30, "female")
	if err != nil {
		t.Fatalf("BMR failed: %v", err)
	}
	if bmr != 1614 {
		t.Errorf("expected female BMR 1614, got %d", bmr)
	}
}

func TestBMRRejectsOutOfDomainInputs(t *testing.T) {
	cases := []struct {
		name   string
		weight float64
		height float64
		age    int
		sex    string
	}{
		{"zero weight", 0, 180, 30, "male"},
		{"overweight bound", 501, 180, 30, "male"},
		{"zero height", 80, 0, 30, "male"},
		{"over height bound", 80, 301, 30, "male"},
		{"age 12", 80, 180, 12, "male"},
		{"age 121", 80, 180, 121, "male"},
		{"bad sex", 80, 180, 30, "unknown"},
	}

	for _, tc := range cases {
		if _, err := BMR(tc.weight, tc.height, tc.age, tc.sex); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}

	// Boundary values inside the domain pass.
	if _, err := BMR(80, 180, 13, "male"); err != nil {
		t.Errorf("age 13 should be valid: %v", err)
	}
	if _, err := BMR(80, 180, 120, "female"); err != nil {
		t.Errorf("age 120 should be valid: %v", err)
	}
}

func TestTDEEFromTrainingFrequency(t *testing.T) {
	cases := []struct {
		frequency int
		level     ActivityLevel
	}{
		{7, VeryActive},
		{6, VeryActive},
		{5, ModeratelyActive},
		{4, ModeratelyActive},
		{3, LightlyActive},
		{2, LightlyActive},
		{1, Sedentary},
		{0, Sedentary},
	}
	for _, tc := range cases {
		if got := ActivityFromFrequency(tc.frequency); got != tc.level {
			t.Errorf("frequency %d: expected %s, got %s", tc.frequency, tc.level, got)
		}
	}

	if tdee := TDEE(1780, ModeratelyActive); tdee != 2759 {
		t.Errorf("expected TDEE 2759, got %d", tdee)
	}
}

func TestCutMacros(t *testing.T) {
	calories := CaloriesForGoal(2759, "cut")
	if calories != 2207 {
		t.Errorf("expected cut calories 2207, got %d", calories)
	}

	proteinG, carbsG, fatG := Macros(calories, 80, "cut")
	if proteinG != 176 {
		t.Errorf("expected protein 176g, got %d", proteinG)
	}
	if fatG != 69 {
		t.Errorf("expected fat 69g, got %d", fatG)
	}
	if carbsG != 220 {
		t.Errorf("expected carbs 220g, got %d", carbsG)
	}
}

func TestUnknownGoalDefaultsToMaintenance(t *testing.T) {
	if calories := CaloriesForGoal(2500, "get swole somehow"); calories != 2500 {
		t.Errorf("unknown goal should keep maintenance calories, got %d", calories)
	}
}

func TestCarbsClampAtZero(t *testing.T) {
	// Heavy athlete on very low calories: protein + fat exceed budget.
	_, carbsG, _ := Macros(800, 150, "cut")
	if carbsG != 0 {
		t.Errorf("expected carbs clamped to 0, got %d", carbsG)
	}
}

func TestFullPlanIsDeterministic(t *testing.T) {
	first, err := FullPlan(80, 180, 30, "male", "cut", 4)
	if err != nil {
		t.Fatalf("FullPlan failed: %v", err)
	}
	second, err := FullPlan(80, 180, 30, "male", "cut", 4)
	if err != nil {
		t.Fatalf("FullPlan failed: %v", err)
	}
	if *first != *second {
		t.Errorf("same inputs must yield identical plans: %+v vs %+v", first, second)
	}

	if first.BMR != 1780 || first.TDEE != 2759 || first.DailyCalories != 2207 ||
		first.DailyProteinG != 176 || first.DailyFatG != 69 || first.DailyCarbsG != 220 {
		t.Errorf("unexpected plan: %+v", first)
	}
}

func TestProteinTargetsByGoal(t *testing.T) {
	cases := []struct {
		goal    string
		protein int
	}{
		{"cut", 176},      // 2.2 g/kg
		{"bulk", 160},     // 2.0 g/kg
		{"maintain", 144}, // 1.8 g/kg
		{"performance", 128}, // 1.6 g/kg
	}
	for _, tc := range cases {
		if got := ProteinTarget(80, tc.goal); got != tc.protein {
			t.Errorf("goal %s: expected %dg, got %dg", tc.goal, tc.protein, got)
		}
	}
}
