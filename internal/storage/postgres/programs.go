package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (p *PostgresStorage) InsertProgram(ctx context.Context, program *storage.Program, days []storage.ProgramDay, meals []storage.PlannedMeal, workouts []storage.PlannedWorkout) error {
	if program.ID == uuid.Nil {
		program.ID = uuid.New()
	}

	generationContext, err := marshalJSON(program.GenerationContext)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO ai_programs (
			id, user_id, name, total_days, start_date, end_date, duration_weeks,
			status, generation_context, linked_event_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		program.ID, program.UserID, program.Name, program.TotalDays, program.StartDate, program.EndDate,
		program.DurationWeeks, program.Status, generationContext, program.LinkedEventID,
	)
	if err != nil {
		return err
	}

	for i := range days {
		if days[i].ID == uuid.Nil {
			days[i].ID = uuid.New()
		}
		days[i].ProgramID = program.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO ai_program_days (id, program_id, user_id, day_number, day_date, focus)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			days[i].ID, days[i].ProgramID, days[i].UserID, days[i].DayNumber, days[i].DayDate, days[i].Focus,
		)
		if err != nil {
			return err
		}
	}

	for i := range meals {
		if meals[i].ID == uuid.Nil {
			meals[i].ID = uuid.New()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO ai_program_meals (id, day_id, user_id, meal_type, name, foods, calories, protein_g, is_completed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			meals[i].ID, meals[i].DayID, meals[i].UserID, meals[i].MealType, meals[i].Name,
			meals[i].Foods, meals[i].Calories, meals[i].ProteinG, meals[i].IsCompleted,
		)
		if err != nil {
			return err
		}
	}

	for i := range workouts {
		if workouts[i].ID == uuid.Nil {
			workouts[i].ID = uuid.New()
		}
		exercises, err := marshalJSON(workouts[i].Exercises)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO ai_program_workouts (id, day_id, user_id, name, workout_type, duration_minutes, exercises, note, is_completed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			workouts[i].ID, workouts[i].DayID, workouts[i].UserID, workouts[i].Name, workouts[i].WorkoutType,
			workouts[i].DurationMinutes, exercises, workouts[i].Note, workouts[i].IsCompleted,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *PostgresStorage) GetActiveProgram(ctx context.Context, userID string) (*storage.Program, error) {
	query := `
		SELECT id, user_id, name, total_days, start_date, end_date, duration_weeks,
		       status, generation_context, linked_event_id, created_at
		FROM ai_programs
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var program storage.Program
	var generationContext []byte
	err := p.pool.QueryRow(ctx, query, userID).Scan(
		&program.ID, &program.UserID, &program.Name, &program.TotalDays, &program.StartDate, &program.EndDate,
		&program.DurationWeeks, &program.Status, &generationContext, &program.LinkedEventID, &program.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(generationContext, &program.GenerationContext); err != nil {
		return nil, err
	}
	return &program, nil
}

func (p *PostgresStorage) GetProgramDayByDate(ctx context.Context, programID uuid.UUID, date time.Time) (*storage.ProgramDay, error) {
	return p.getProgramDay(ctx,
		`SELECT id, program_id, user_id, day_number, day_date, focus
		 FROM ai_program_days WHERE program_id = $1 AND day_date = $2::date`,
		programID, date)
}

func (p *PostgresStorage) GetProgramDayByNumber(ctx context.Context, programID uuid.UUID, dayNumber int) (*storage.ProgramDay, error) {
	return p.getProgramDay(ctx,
		`SELECT id, program_id, user_id, day_number, day_date, focus
		 FROM ai_program_days WHERE program_id = $1 AND day_number = $2`,
		programID, dayNumber)
}

func (p *PostgresStorage) getProgramDay(ctx context.Context, query string, args ...any) (*storage.ProgramDay, error) {
	var day storage.ProgramDay
	err := p.pool.QueryRow(ctx, query, args...).Scan(
		&day.ID, &day.ProgramID, &day.UserID, &day.DayNumber, &day.DayDate, &day.Focus,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func (p *PostgresStorage) ListProgramDays(ctx context.Context, programID uuid.UUID) ([]storage.ProgramDay, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, program_id, user_id, day_number, day_date, focus
		 FROM ai_program_days WHERE program_id = $1 ORDER BY day_number ASC`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []storage.ProgramDay{}
	for rows.Next() {
		var day storage.ProgramDay
		if err := rows.Scan(&day.ID, &day.ProgramID, &day.UserID, &day.DayNumber, &day.DayDate, &day.Focus); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (p *PostgresStorage) ListPlannedMeals(ctx context.Context, dayID uuid.UUID) ([]storage.PlannedMeal, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, day_id, user_id, meal_type, name, foods, calories, protein_g, is_completed
		 FROM ai_program_meals WHERE day_id = $1 ORDER BY meal_type ASC`, dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []storage.PlannedMeal{}
	for rows.Next() {
		var meal storage.PlannedMeal
		if err := rows.Scan(&meal.ID, &meal.DayID, &meal.UserID, &meal.MealType, &meal.Name, &meal.Foods, &meal.Calories, &meal.ProteinG, &meal.IsCompleted); err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}
	return meals, rows.Err()
}

func (p *PostgresStorage) ListPlannedWorkouts(ctx context.Context, dayID uuid.UUID) ([]storage.PlannedWorkout, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, day_id, user_id, name, workout_type, duration_minutes, exercises, note, is_completed
		 FROM ai_program_workouts WHERE day_id = $1 ORDER BY name ASC`, dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := []storage.PlannedWorkout{}
	for rows.Next() {
		var workout storage.PlannedWorkout
		var exercises []byte
		if err := rows.Scan(&workout.ID, &workout.DayID, &workout.UserID, &workout.Name, &workout.WorkoutType, &workout.DurationMinutes, &exercises, &workout.Note, &workout.IsCompleted); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(exercises, &workout.Exercises); err != nil {
			return nil, err
		}
		workouts = append(workouts, workout)
	}
	return workouts, rows.Err()
}

func (p *PostgresStorage) SetPlannedMealCompleted(ctx context.Context, mealID uuid.UUID, completed bool) error {
	tag, err := p.pool.Exec(ctx, `UPDATE ai_program_meals SET is_completed = $2 WHERE id = $1`, mealID, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) SetPlannedWorkoutCompleted(ctx context.Context, workoutID uuid.UUID, completed bool) error {
	tag, err := p.pool.Exec(ctx, `UPDATE ai_program_workouts SET is_completed = $2 WHERE id = $1`, workoutID, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) UpdateProgramStatus(ctx context.Context, programID uuid.UUID, status string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE ai_programs SET status = $2 WHERE id = $1`, programID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
