// Package programs generates and serves periodized training/nutrition
// programs, usually seeded from a completed consultation.
package programs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/storage"
)

type Service struct {
	store  storage.Store
	router *ai.Router
	now    func() time.Time
}

func NewService(store storage.Store, router *ai.Router) *Service {
	return &Service{store: store, router: router, now: time.Now}
}

// generatedProgram is the JSON shape the program-generation model call
// must return.
type generatedProgram struct {
	Name          string `json:"name"`
	DurationWeeks int    `json:"duration_weeks"`
	Days          []struct {
		DayNumber int    `json:"day_number"`
		Focus     string `json:"focus"`
		Meals     []struct {
			MealType string   `json:"meal_type"`
			Name     string   `json:"name"`
			Foods    []string `json:"foods"`
			Calories int      `json:"calories"`
			ProteinG int      `json:"protein_g"`
		} `json:"meals"`
		Workouts []struct {
			Name            string             `json:"name"`
			WorkoutType     string             `json:"workout_type"`
			DurationMinutes int                `json:"duration_minutes"`
			Exercises       []storage.Exercise `json:"exercises"`
			Note            string             `json:"note"`
		} `json:"workouts"`
	} `json:"days"`
}

// GenerateFromConsultation builds a program from a consultation summary
// via the program-generation task and persists it as the user's active
// program.
func (s *Service) GenerateFromConsultation(ctx context.Context, userID string, summary map[string]any) (uuid.UUID, error) {
	summaryJSON, _ := json.Marshal(summary)

	prompt := fmt.Sprintf(`Create a personalized 4-week training and nutrition program from this consultation summary:

%s

Return ONLY valid JSON:
{
  "name": "program name",
  "duration_weeks": 4,
  "days": [
    {
      "day_number": 1,
      "focus": "e.g. Upper body strength",
      "meals": [
        {"meal_type": "breakfast|lunch|dinner|snack", "name": "...", "foods": ["..."], "calories": 500, "protein_g": 35}
      ],
      "workouts": [
        {"name": "...", "workout_type": "strength|cardio|rest", "duration_minutes": 60, "exercises": [{"name": "...", "sets": 4, "reps": 8, "weight_lbs": 135}], "note": "..."}
      ]
    }
  ]
}

Cover every day of the program (28 days). Rest days get an empty workouts array.
Respect the user's equipment access, dietary restrictions, and training frequency.`, string(summaryJSON))

	completion, err := s.router.Complete(ctx, ai.TaskConfig{
		Type:         ai.TaskProgramGeneration,
		RequiresJSON: true,
	}, []ai.ChatMessage{
		ai.TextMessage("system", "You are an expert coach designing periodized training and nutrition programs."),
		ai.TextMessage("user", prompt),
	}, ai.JSONResponse)
	if err != nil {
		return uuid.Nil, apierr.Wrap(apierr.UpstreamUnavailable, "program generation failed", err)
	}

	var generated generatedProgram
	if err := json.Unmarshal([]byte(completion.Content), &generated); err != nil {
		return uuid.Nil, apierr.Wrap(apierr.Internal, "program generation returned invalid JSON", err)
	}
	if len(generated.Days) == 0 {
		return uuid.Nil, apierr.New(apierr.Internal, "program generation returned no days")
	}

	if generated.DurationWeeks <= 0 {
		generated.DurationWeeks = (len(generated.Days) + 6) / 7
	}
	if generated.Name == "" {
		generated.Name = "Personalized Program"
	}

	startDate := midnightUTC(s.now().UTC())
	program := &storage.Program{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          generated.Name,
		TotalDays:     len(generated.Days),
		StartDate:     startDate,
		EndDate:       startDate.AddDate(0, 0, len(generated.Days)-1),
		DurationWeeks: generated.DurationWeeks,
		Status:        "active",
		GenerationContext: map[string]any{
			"source":               "consultation",
			"consultation_summary": summary,
		},
	}

	var days []storage.ProgramDay
	var meals []storage.PlannedMeal
	var workouts []storage.PlannedWorkout
	for _, day := range generated.Days {
		programDay := storage.ProgramDay{
			ID:        uuid.New(),
			ProgramID: program.ID,
			UserID:    userID,
			DayNumber: day.DayNumber,
			DayDate:   startDate.AddDate(0, 0, day.DayNumber-1),
			Focus:     day.Focus,
		}
		days = append(days, programDay)

		for _, meal := range day.Meals {
			meals = append(meals, storage.PlannedMeal{
				ID:       uuid.New(),
				DayID:    programDay.ID,
				UserID:   userID,
				MealType: meal.MealType,
				Name:     meal.Name,
				Foods:    meal.Foods,
				Calories: meal.Calories,
				ProteinG: meal.ProteinG,
			})
		}
		for _, workout := range day.Workouts {
			workouts = append(workouts, storage.PlannedWorkout{
				ID:              uuid.New(),
				DayID:           programDay.ID,
				UserID:          userID,
				Name:            workout.Name,
				WorkoutType:     workout.WorkoutType,
				DurationMinutes: workout.DurationMinutes,
				Exercises:       workout.Exercises,
				Note:            workout.Note,
			})
		}
	}

	// A new program supersedes the previous active one.
	if previous, err := s.store.GetActiveProgram(ctx, userID); err == nil {
		if err := s.store.UpdateProgramStatus(ctx, previous.ID, "superseded"); err != nil {
			log.Printf("[Programs] supersede previous program failed: %v", err)
		}
	}

	if err := s.store.InsertProgram(ctx, program, days, meals, workouts); err != nil {
		return uuid.Nil, err
	}

	log.Printf("[Programs] generated program %s (%d days) for user %s", program.ID, program.TotalDays, userID)
	return program.ID, nil
}

// DayView is one program day with its plan rows.
type DayView struct {
	Day      storage.ProgramDay       `json:"day"`
	Meals    []storage.PlannedMeal    `json:"meals"`
	Workouts []storage.PlannedWorkout `json:"workouts"`
}

// Active returns the user's active program.
func (s *Service) Active(ctx context.Context, userID string) (*storage.Program, error) {
	program, err := s.store.GetActiveProgram(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.New(apierr.NotFound, "no active program")
	}
	return program, err
}

// Day returns one day of the active program by number.
func (s *Service) Day(ctx context.Context, userID string, dayNumber int) (*DayView, error) {
	program, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	day, err := s.store.GetProgramDayByNumber(ctx, program.ID, dayNumber)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.New(apierr.NotFound, fmt.Sprintf("program day %d not found", dayNumber))
	}
	if err != nil {
		return nil, err
	}

	return s.dayView(ctx, day)
}

// DayByDate returns the program day scheduled for a date, if any.
func (s *Service) DayByDate(ctx context.Context, programID uuid.UUID, date time.Time) (*DayView, error) {
	day, err := s.store.GetProgramDayByDate(ctx, programID, midnightUTC(date))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.dayView(ctx, day)
}

// Calendar lists every day of the active program.
func (s *Service) Calendar(ctx context.Context, userID string) ([]storage.ProgramDay, error) {
	program, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListProgramDays(ctx, program.ID)
}

// CompleteMeal toggles the completion bit on a planned meal.
func (s *Service) CompleteMeal(ctx context.Context, mealID uuid.UUID, completed bool) error {
	err := s.store.SetPlannedMealCompleted(ctx, mealID, completed)
	if errors.Is(err, storage.ErrNotFound) {
		return apierr.New(apierr.NotFound, "planned meal not found")
	}
	return err
}

// CompleteWorkout toggles the completion bit on a planned workout.
func (s *Service) CompleteWorkout(ctx context.Context, workoutID uuid.UUID, completed bool) error {
	err := s.store.SetPlannedWorkoutCompleted(ctx, workoutID, completed)
	if errors.Is(err, storage.ErrNotFound) {
		return apierr.New(apierr.NotFound, "planned workout not found")
	}
	return err
}

func (s *Service) dayView(ctx context.Context, day *storage.ProgramDay) (*DayView, error) {
	meals, err := s.store.ListPlannedMeals(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.store.ListPlannedWorkouts(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	return &DayView{Day: *day, Meals: meals, Workouts: workouts}, nil
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
