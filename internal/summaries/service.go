// Package summaries aggregates a user's logs into weekly, monthly, and
// quarterly rollups. The nightly worker job drives it.
package summaries

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/renatodap/fitness-backend/internal/storage"
)

// Period types.
const (
	PeriodWeekly    = "weekly"
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
)

type Service struct {
	store storage.Store
	now   func() time.Time
}

func NewService(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceWithClock injects a clock for tests.
func NewServiceWithClock(store storage.Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// GenerateAll runs the nightly pass over every known user. Weekly
// summaries run daily; monthly on the 1st; quarterly on quarter starts.
func (s *Service) GenerateAll(ctx context.Context) (int, error) {
	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, userID := range userIDs {
		n, err := s.GenerateForUser(ctx, userID)
		if err != nil {
			log.Printf("[Summaries] user %s failed: %v", userID, err)
			continue
		}
		generated += n
	}
	return generated, nil
}

// GenerateForUser produces the summaries due today for one user.
func (s *Service) GenerateForUser(ctx context.Context, userID string) (int, error) {
	today := s.now().UTC()
	generated := 0

	if err := s.generateWeekly(ctx, userID, today); err != nil {
		return generated, err
	}
	generated++

	if today.Day() == 1 {
		if err := s.generateMonthly(ctx, userID, today); err != nil {
			return generated, err
		}
		generated++
	}

	if today.Day() == 1 && (today.Month() == time.January || today.Month() == time.April || today.Month() == time.July || today.Month() == time.October) {
		if err := s.generateQuarterly(ctx, userID, today); err != nil {
			return generated, err
		}
		generated++
	}

	return generated, nil
}

func (s *Service) generateWeekly(ctx context.Context, userID string, today time.Time) error {
	end := midnight(today)
	start := end.AddDate(0, 0, -7)
	return s.generate(ctx, userID, PeriodWeekly, start, end)
}

func (s *Service) generateMonthly(ctx context.Context, userID string, today time.Time) error {
	end := midnight(today)
	start := end.AddDate(0, -1, 0)
	return s.generate(ctx, userID, PeriodMonthly, start, end)
}

func (s *Service) generateQuarterly(ctx context.Context, userID string, today time.Time) error {
	end := midnight(today)
	start := end.AddDate(0, -3, 0)
	return s.generate(ctx, userID, PeriodQuarterly, start, end)
}

func (s *Service) generate(ctx context.Context, userID, periodType string, start, end time.Time) error {
	workouts, err := s.store.ListWorkoutsSince(ctx, userID, start, 0)
	if err != nil {
		return fmt.Errorf("fetch workouts: %w", err)
	}
	meals, err := s.store.ListMealsBetween(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("fetch meals: %w", err)
	}
	activities, err := s.store.ListActivitiesBetween(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("fetch activities: %w", err)
	}

	// ListWorkoutsSince has no upper bound; trim to the period.
	inPeriod := workouts[:0]
	for _, workout := range workouts {
		if workout.StartedAt.Before(end) {
			inPeriod = append(inPeriod, workout)
		}
	}

	data := map[string]any{
		"period_type":  periodType,
		"period_start": start.Format("2006-01-02"),
		"period_end":   end.Format("2006-01-02"),
		"training":     AggregateWorkouts(inPeriod),
		"nutrition":    AggregateNutrition(meals),
		"activity":     AggregateActivities(activities),
	}

	return s.store.UpsertSummary(ctx, &storage.Summary{
		UserID:      userID,
		PeriodType:  periodType,
		PeriodStart: start,
		PeriodEnd:   end,
		Data:        data,
	})
}

// AggregateWorkouts reduces workouts to period statistics.
func AggregateWorkouts(workouts []storage.Workout) map[string]any {
	if len(workouts) == 0 {
		return map[string]any{
			"total_workouts":         0,
			"total_duration_minutes": 0,
			"total_volume_load":      0.0,
			"avg_duration_minutes":   0.0,
		}
	}

	var totalDuration int
	var totalVolume float64
	for _, workout := range workouts {
		if workout.DurationMinutes != nil {
			totalDuration += *workout.DurationMinutes
		}
		if workout.VolumeLoad != nil {
			totalVolume += *workout.VolumeLoad
		}
	}

	return map[string]any{
		"total_workouts":         len(workouts),
		"total_duration_minutes": totalDuration,
		"total_volume_load":      totalVolume,
		"avg_duration_minutes":   float64(totalDuration) / float64(len(workouts)),
	}
}

// AggregateNutrition reduces meals to per-day averages over the days
// that actually have logs.
func AggregateNutrition(meals []storage.Meal) map[string]any {
	if len(meals) == 0 {
		return map[string]any{
			"total_meals_logged":    0,
			"days_logged":           0,
			"avg_calories_per_day":  0.0,
			"avg_protein_g_per_day": 0.0,
		}
	}

	days := map[string]bool{}
	var totalCalories, totalProtein, totalCarbs, totalFat float64
	for _, meal := range meals {
		days[meal.LoggedAt.Format("2006-01-02")] = true
		totalCalories += floatOr(meal.TotalCalories)
		totalProtein += floatOr(meal.TotalProteinG)
		totalCarbs += floatOr(meal.TotalCarbsG)
		totalFat += floatOr(meal.TotalFatG)
	}

	daysLogged := float64(len(days))
	return map[string]any{
		"total_meals_logged":    len(meals),
		"days_logged":           len(days),
		"avg_calories_per_day":  totalCalories / daysLogged,
		"avg_protein_g_per_day": totalProtein / daysLogged,
		"avg_carbs_g_per_day":   totalCarbs / daysLogged,
		"avg_fat_g_per_day":     totalFat / daysLogged,
	}
}

// AggregateActivities reduces cardio activities to period statistics.
func AggregateActivities(activities []storage.Activity) map[string]any {
	if len(activities) == 0 {
		return map[string]any{
			"total_activities":      0,
			"total_distance_km":     0.0,
			"total_duration_minutes": 0,
			"activity_types":        map[string]int{},
		}
	}

	var totalMeters, totalSeconds int
	types := map[string]int{}
	for _, activity := range activities {
		if activity.DistanceMeters != nil {
			totalMeters += *activity.DistanceMeters
		}
		totalSeconds += activity.ElapsedTimeSeconds
		types[activity.ActivityType]++
	}

	return map[string]any{
		"total_activities":       len(activities),
		"total_distance_km":      float64(totalMeters) / 1000,
		"total_duration_minutes": totalSeconds / 60,
		"activity_types":         types,
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func floatOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
