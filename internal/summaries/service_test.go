package summaries

import (
	"context"
	"testing"
	"time"

	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/storage/memory"
)

func TestAggregateNutritionAveragesPerLoggedDay(t *testing.T) {
	calories := func(v float64) *float64 { return &v }
	day1 := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	meals := []storage.Meal{
		{LoggedAt: day1, TotalCalories: calories(600)},
		{LoggedAt: day1, TotalCalories: calories(800)},
		{LoggedAt: day2, TotalCalories: calories(1000)},
	}

	agg := AggregateNutrition(meals)
	if agg["total_meals_logged"] != 3 {
		t.Errorf("expected 3 meals, got %v", agg["total_meals_logged"])
	}
	if agg["days_logged"] != 2 {
		t.Errorf("expected 2 days, got %v", agg["days_logged"])
	}
	if agg["avg_calories_per_day"] != 1200.0 {
		t.Errorf("expected 1200 avg calories/day, got %v", agg["avg_calories_per_day"])
	}
}

func TestAggregateEmptyInputs(t *testing.T) {
	if agg := AggregateNutrition(nil); agg["total_meals_logged"] != 0 {
		t.Error("expected zeroed nutrition aggregate")
	}
	if agg := AggregateWorkouts(nil); agg["total_workouts"] != 0 {
		t.Error("expected zeroed workout aggregate")
	}
	if agg := AggregateActivities(nil); agg["total_activities"] != 0 {
		t.Error("expected zeroed activity aggregate")
	}
}

func TestGenerateForUserWritesWeeklySummary(t *testing.T) {
	store := memory.New()
	now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC) // not a month/quarter start
	service := NewServiceWithClock(store, func() time.Time { return now })

	ctx := context.Background()
	store.UpsertProfile(ctx, &storage.Profile{UserID: "u1"})

	calories := 700.0
	store.InsertMeal(ctx, &storage.Meal{
		UserID:        "u1",
		Category:      "dinner",
		TotalCalories: &calories,
		LoggedAt:      now.AddDate(0, 0, -2),
	})

	generated, err := service.GenerateForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if generated != 1 {
		t.Errorf("expected only the weekly summary mid-month, got %d", generated)
	}

	rows, _ := store.ListSummaries(ctx, "u1", 10)
	if len(rows) != 1 || rows[0].PeriodType != PeriodWeekly {
		t.Fatalf("expected one weekly summary, got %+v", rows)
	}
	nutrition, ok := rows[0].Data["nutrition"].(map[string]any)
	if !ok || nutrition["total_meals_logged"] != 1 {
		t.Errorf("unexpected nutrition aggregate: %v", rows[0].Data["nutrition"])
	}
}

func TestGenerateAllRunsMonthlyOnFirstOfQuarter(t *testing.T) {
	store := memory.New()
	now := time.Date(2025, 7, 1, 3, 0, 0, 0, time.UTC) // quarter start
	service := NewServiceWithClock(store, func() time.Time { return now })

	ctx := context.Background()
	store.UpsertProfile(ctx, &storage.Profile{UserID: "u1"})

	generated, err := service.GenerateAll(ctx)
	if err != nil {
		t.Fatalf("generate all failed: %v", err)
	}
	// weekly + monthly + quarterly
	if generated != 3 {
		t.Errorf("expected 3 summaries on a quarter start, got %d", generated)
	}
}

func TestUpsertOverwritesSamePeriod(t *testing.T) {
	store := memory.New()
	now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
	service := NewServiceWithClock(store, func() time.Time { return now })

	ctx := context.Background()
	store.UpsertProfile(ctx, &storage.Profile{UserID: "u1"})

	if _, err := service.GenerateForUser(ctx, "u1"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := service.GenerateForUser(ctx, "u1"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	rows, _ := store.ListSummaries(ctx, "u1", 10)
	if len(rows) != 1 {
		t.Errorf("re-running the same period must upsert, got %d rows", len(rows))
	}
}
