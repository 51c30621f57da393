package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) InsertProgram(ctx context.Context, program *storage.Program, days []storage.ProgramDay, meals []storage.PlannedMeal, workouts []storage.PlannedWorkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if program.ID == uuid.Nil {
		program.ID = uuid.New()
	}
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}

	copied := *program
	m.programs[program.ID] = &copied

	for i := range days {
		if days[i].ID == uuid.Nil {
			days[i].ID = uuid.New()
		}
		days[i].ProgramID = program.ID
		m.programDays = append(m.programDays, days[i])
	}
	for i := range meals {
		if meals[i].ID == uuid.Nil {
			meals[i].ID = uuid.New()
		}
		meal := meals[i]
		m.plannedMeals[meal.ID] = &meal
	}
	for i := range workouts {
		if workouts[i].ID == uuid.Nil {
			workouts[i].ID = uuid.New()
		}
		workout := workouts[i]
		m.plannedWorkouts[workout.ID] = &workout
	}
	return nil
}

func (m *MemoryStorage) GetActiveProgram(ctx context.Context, userID string) (*storage.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *storage.Program
	for _, program := range m.programs {
		if program.UserID != userID || program.Status != "active" {
			continue
		}
		if latest == nil || program.CreatedAt.After(latest.CreatedAt) {
			latest = program
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryStorage) GetProgramDayByDate(ctx context.Context, programID uuid.UUID, date time.Time) (*storage.ProgramDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	day := date.UTC().Truncate(24 * time.Hour)
	for _, programDay := range m.programDays {
		if programDay.ProgramID == programID && programDay.DayDate.UTC().Truncate(24*time.Hour).Equal(day) {
			copied := programDay
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MemoryStorage) GetProgramDayByNumber(ctx context.Context, programID uuid.UUID, dayNumber int) (*storage.ProgramDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, programDay := range m.programDays {
		if programDay.ProgramID == programID && programDay.DayNumber == dayNumber {
			copied := programDay
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MemoryStorage) ListProgramDays(ctx context.Context, programID uuid.UUID) ([]storage.ProgramDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.ProgramDay{}
	for _, programDay := range m.programDays {
		if programDay.ProgramID == programID {
			out = append(out, programDay)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

func (m *MemoryStorage) ListPlannedMeals(ctx context.Context, dayID uuid.UUID) ([]storage.PlannedMeal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.PlannedMeal{}
	for _, meal := range m.plannedMeals {
		if meal.DayID == dayID {
			out = append(out, *meal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MealType < out[j].MealType })
	return out, nil
}

func (m *MemoryStorage) ListPlannedWorkouts(ctx context.Context, dayID uuid.UUID) ([]storage.PlannedWorkout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.PlannedWorkout{}
	for _, workout := range m.plannedWorkouts {
		if workout.DayID == dayID {
			out = append(out, *workout)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStorage) SetPlannedMealCompleted(ctx context.Context, mealID uuid.UUID, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meal, ok := m.plannedMeals[mealID]
	if !ok {
		return storage.ErrNotFound
	}
	meal.IsCompleted = completed
	return nil
}

func (m *MemoryStorage) SetPlannedWorkoutCompleted(ctx context.Context, workoutID uuid.UUID, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	workout, ok := m.plannedWorkouts[workoutID]
	if !ok {
		return storage.ErrNotFound
	}
	workout.IsCompleted = completed
	return nil
}

func (m *MemoryStorage) UpdateProgramStatus(ctx context.Context, programID uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	program, ok := m.programs[programID]
	if !ok {
		return storage.ErrNotFound
	}
	program.Status = status
	return nil
}
