package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) InsertMeal(ctx context.Context, meal *storage.Meal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = time.Now().UTC()
	}
	m.meals = append(m.meals, *meal)
	return nil
}

func (m *MemoryStorage) ListMealsBetween(ctx context.Context, userID string, from, to time.Time) ([]storage.Meal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.Meal{}
	for _, meal := range m.meals {
		if meal.UserID == userID && !meal.LoggedAt.Before(from) && meal.LoggedAt.Before(to) {
			out = append(out, meal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.Before(out[j].LoggedAt) })
	return out, nil
}

func (m *MemoryStorage) InsertActivity(ctx context.Context, activity *storage.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *MemoryStorage) ListActivitiesBetween(ctx context.Context, userID string, from, to time.Time) ([]storage.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.Activity{}
	for _, activity := range m.activities {
		if activity.UserID == userID && !activity.StartDate.Before(from) && activity.StartDate.Before(to) {
			out = append(out, activity)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *MemoryStorage) ListActivitiesSince(ctx context.Context, userID, activityType string, since time.Time, limit int) ([]storage.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.Activity{}
	for _, activity := range m.activities {
		if activity.UserID != userID || activity.StartDate.Before(since) {
			continue
		}
		if activityType != "" && activity.ActivityType != activityType {
			continue
		}
		out = append(out, activity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStorage) InsertWorkout(ctx context.Context, workout *storage.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if workout.ID == uuid.Nil {
		workout.ID = uuid.New()
	}
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = time.Now().UTC()
	}
	m.workouts = append(m.workouts, *workout)
	return nil
}

func (m *MemoryStorage) ListWorkoutsSince(ctx context.Context, userID string, since time.Time, limit int) ([]storage.Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.Workout{}
	for _, workout := range m.workouts {
		if workout.UserID == userID && !workout.StartedAt.Before(since) {
			out = append(out, workout)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStorage) InsertNote(ctx context.Context, note *storage.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	m.notes = append(m.notes, *note)
	return nil
}

func (m *MemoryStorage) InsertMeasurement(ctx context.Context, measurement *storage.Measurement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if measurement.ID == uuid.Nil {
		measurement.ID = uuid.New()
	}
	if measurement.CreatedAt.IsZero() {
		measurement.CreatedAt = time.Now().UTC()
	}
	m.measurements = append(m.measurements, *measurement)
	return nil
}
