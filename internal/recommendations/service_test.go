package recommendations

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/events"
	"github.com/renatodap/fitness-backend/internal/programs"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/storage/memory"
)

func newTestService(store *memory.MemoryStorage, now time.Time) *Service {
	mock := ai.NewMockClient()
	router := ai.NewRouter(mock, mock)
	clock := func() time.Time { return now }
	return NewServiceWithClock(store, router,
		events.NewServiceWithClock(store, clock),
		programs.NewService(store, router),
		clock)
}

func seedProfile(t *testing.T, store *memory.MemoryStorage, userID string) {
	t.Helper()
	calories, protein, carbs, fat := 2000, 150, 200, 65
	frequency := 3
	if err := store.UpsertProfile(context.Background(), &storage.Profile{
		UserID:              userID,
		DailyCalorieTarget:  &calories,
		DailyProteinTargetG: &protein,
		DailyCarbsTargetG:   &carbs,
		DailyFatTargetG:     &fat,
		TrainingFrequency:   &frequency,
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestGenerateDailyPlanCoversMissingMeals(t *testing.T) {
	store := memory.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday
	service := newTestService(store, day.Add(8*time.Hour))
	seedProfile(t, store, "u1")

	recs, err := service.GenerateDailyPlan(context.Background(), "u1", day)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	mealTypes := map[string]bool{}
	for _, rec := range recs {
		if rec.Type == storage.RecTypeMeal {
			mealType, _ := rec.Content["meal_type"].(string)
			mealTypes[mealType] = true
		}
		if rec.ExpiresAt.Before(rec.RecommendationDate.Add(23*time.Hour + 59*time.Minute)) {
			t.Errorf("recommendation expires before end of day: %v", rec.ExpiresAt)
		}
	}
	for _, want := range []string{"breakfast", "lunch", "dinner", "snack"} {
		if !mealTypes[want] {
			t.Errorf("expected a %s recommendation", want)
		}
	}
}

func TestGenerateDailyPlanSkipsLoggedMealTypes(t *testing.T) {
	store := memory.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, day.Add(13*time.Hour))
	seedProfile(t, store, "u1")

	calories := 600.0
	if err := store.InsertMeal(context.Background(), &storage.Meal{
		UserID:        "u1",
		Name:          "Oatmeal",
		Category:      "breakfast",
		TotalCalories: &calories,
		LoggedAt:      day.Add(8 * time.Hour),
	}); err != nil {
		t.Fatalf("seed meal: %v", err)
	}

	recs, err := service.GenerateDailyPlan(context.Background(), "u1", day)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	for _, rec := range recs {
		if rec.Type == storage.RecTypeMeal && rec.Content["meal_type"] == "breakfast" {
			t.Error("breakfast was already logged; no recommendation expected")
		}
	}
}

func TestWorkoutRecOnTrainingDayRestOtherwise(t *testing.T) {
	store := memory.New()
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, monday.Add(8*time.Hour))
	seedProfile(t, store, "u1") // 3x/week

	recs, err := service.GenerateDailyPlan(context.Background(), "u1", monday)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !hasRecType(recs, storage.RecTypeWorkout) {
		t.Error("expected a workout recommendation on Monday with 3x/week frequency")
	}

	saturday := monday.AddDate(0, 0, 5)
	recs, err = service.GenerateDailyPlan(context.Background(), "u1", saturday)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !hasRecType(recs, storage.RecTypeRest) {
		t.Error("expected a rest recommendation on Saturday with 3x/week frequency")
	}
}

func TestAdjustMacrosForEvent(t *testing.T) {
	cases := []struct {
		name       string
		eventType  string
		phase      string
		daysUntil  int
		wantCal    int
		wantCarbs  float64
	}{
		{"endurance build", "marathon", events.PhaseBuild, 40, 2000, 220},
		{"endurance peak", "marathon", events.PhasePeak, 20, 2000, 240},
		{"endurance taper early", "marathon", events.PhaseTaper, 10, 1800, 200},
		{"endurance carb load", "marathon", events.PhaseTaper, 2, 2200, 300},
		{"strength taper", "powerlifting_meet", events.PhaseTaper, 5, 1900, 200},
		{"physique build", "bodybuilding_show", events.PhaseBuild, 60, 2200, 200},
		{"physique peak", "bodybuilding_show", events.PhasePeak, 30, 1700, 160},
		{"physique depletion", "bodybuilding_show", events.PhaseTaper, 5, 2000, 100},
		{"physique carb load", "bodybuilding_show", events.PhaseTaper, 2, 2000, 300},
		{"no event adjustments for other types", "wedding", events.PhaseTaper, 2, 2000, 200},
	}

	for _, tc := range cases {
		calories, carbs := AdjustMacrosForEvent(tc.eventType, tc.phase, tc.daysUntil, 2000, 200)
		// Carbs are float products (200*1.1 is 220.00000000000003), so they
		// are compared within a rounding tolerance.
		if calories != tc.wantCal || math.Abs(carbs-tc.wantCarbs) > 1e-9 {
			t.Errorf("%s: got (%d cal, %v carbs), want (%d, %v)", tc.name, calories, carbs, tc.wantCal, tc.wantCarbs)
		}
	}
}

func TestEventReminderOnMilestoneDaysOnly(t *testing.T) {
	store := memory.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, day.Add(8*time.Hour))
	seedProfile(t, store, "u1")

	eventService := events.NewServiceWithClock(store, func() time.Time { return day })
	if _, err := eventService.Create(context.Background(), "u1", events.CreateParams{
		Name:          "City Marathon",
		Type:          "marathon",
		Date:          day.AddDate(0, 0, 30),
		IsPrimaryGoal: true,
	}); err != nil {
		t.Fatalf("create event: %v", err)
	}

	recs, err := service.GenerateDailyPlan(context.Background(), "u1", day)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !hasRecType(recs, storage.RecTypeEventReminder) {
		t.Error("expected an event reminder 30 days out (milestone)")
	}

	// 29 days out is not a milestone.
	recs, err = service.GenerateDailyPlan(context.Background(), "u1", day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if hasRecType(recs, storage.RecTypeEventReminder) {
		t.Error("no reminder expected 29 days out")
	}
}

func TestSuggestNextActionPicksClosestUpcoming(t *testing.T) {
	store := memory.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(11 * time.Hour) // 11:00
	service := newTestService(store, now)
	seedProfile(t, store, "u1")

	if _, err := service.GenerateDailyPlan(context.Background(), "u1", day); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	next, err := service.SuggestNextAction(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("next action failed: %v", err)
	}
	if next == nil {
		t.Fatal("expected a next action")
	}
	// Lunch at 12:00 is the closest future recommendation at 11:00.
	if mealType, _ := next.Content["meal_type"].(string); mealType != "lunch" {
		t.Errorf("expected lunch next, got %v (type %s)", next.Content["meal_type"], next.Type)
	}
}

func TestLoggedLunchCompletesMatchingRecommendation(t *testing.T) {
	store := memory.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, day.Add(12*time.Hour+30*time.Minute))
	seedProfile(t, store, "u1")

	if _, err := service.GenerateDailyPlan(context.Background(), "u1", day); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	service.HandleLoggedEntry(context.Background(), "u1", "meal", map[string]any{"category": "lunch"})

	recs, err := store.ListRecommendations(context.Background(), "u1", day, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	completedLunch := false
	for _, rec := range recs {
		if rec.Type == storage.RecTypeMeal && rec.Content["meal_type"] == "lunch" && rec.Status == storage.RecCompleted {
			completedLunch = true
		}
	}
	if !completedLunch {
		t.Error("expected the lunch recommendation to transition to completed")
	}
}

func TestTerminalStatusIsImmutable(t *testing.T) {
	store := memory.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, day.Add(9*time.Hour))
	seedProfile(t, store, "u1")

	recs, err := service.GenerateDailyPlan(context.Background(), "u1", day)
	if err != nil || len(recs) == 0 {
		t.Fatalf("generate failed: %v", err)
	}

	recID := recs[0].ID
	if err := service.Feedback(context.Background(), "u1", recID, storage.RecRejected, nil, nil); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	if err := service.Feedback(context.Background(), "u1", recID, storage.RecCompleted, nil, nil); err == nil {
		t.Fatal("updating a rejected recommendation must fail")
	}
}

func hasRecType(recs []storage.Recommendation, recType string) bool {
	for _, rec := range recs {
		if rec.Type == recType {
			return true
		}
	}
	return false
}
