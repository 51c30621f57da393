package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (p *PostgresStorage) InsertMeal(ctx context.Context, meal *storage.Meal) error {
	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}

	foods, err := marshalJSON(meal.Foods)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO meal_logs (
			id, user_id, name, category, total_calories, total_protein_g,
			total_carbs_g, total_fat_g, total_fiber_g, total_sugar_g, total_sodium_mg,
			foods, image_url, source, estimated, confidence_score,
			meal_quality_score, macro_balance_score, adherence_to_goals, tags,
			notes, logged_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, NOW(), NOW())
	`

	_, err = p.pool.Exec(ctx, query,
		meal.ID, meal.UserID, meal.Name, meal.Category, meal.TotalCalories, meal.TotalProteinG,
		meal.TotalCarbsG, meal.TotalFatG, meal.TotalFiberG, meal.TotalSugarG, meal.TotalSodiumMg,
		foods, meal.ImageURL, meal.Source, meal.Estimated, meal.ConfidenceScore,
		meal.MealQualityScore, meal.MacroBalanceScore, meal.AdherenceToGoals, meal.Tags,
		meal.Notes, meal.LoggedAt,
	)
	return err
}

func (p *PostgresStorage) ListMealsBetween(ctx context.Context, userID string, from, to time.Time) ([]storage.Meal, error) {
	query := `
		SELECT id, user_id, name, category, total_calories, total_protein_g,
		       total_carbs_g, total_fat_g, total_fiber_g, total_sugar_g, total_sodium_mg,
		       foods, image_url, source, estimated, confidence_score,
		       meal_quality_score, macro_balance_score, adherence_to_goals, tags,
		       notes, logged_at, created_at, updated_at
		FROM meal_logs
		WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3
		ORDER BY logged_at ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []storage.Meal{}
	for rows.Next() {
		var meal storage.Meal
		var foods []byte
		if err := rows.Scan(
			&meal.ID, &meal.UserID, &meal.Name, &meal.Category, &meal.TotalCalories, &meal.TotalProteinG,
			&meal.TotalCarbsG, &meal.TotalFatG, &meal.TotalFiberG, &meal.TotalSugarG, &meal.TotalSodiumMg,
			&foods, &meal.ImageURL, &meal.Source, &meal.Estimated, &meal.ConfidenceScore,
			&meal.MealQualityScore, &meal.MacroBalanceScore, &meal.AdherenceToGoals, &meal.Tags,
			&meal.Notes, &meal.LoggedAt, &meal.CreatedAt, &meal.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(foods, &meal.Foods); err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}
	return meals, rows.Err()
}

func (p *PostgresStorage) InsertActivity(ctx context.Context, activity *storage.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}

	query := `
		INSERT INTO activities (
			id, user_id, name, activity_type, sport_type, elapsed_time_seconds,
			moving_time_seconds, distance_meters, calories, perceived_exertion,
			mood, energy_level, source, confidence_score, performance_score,
			recovery_needed_hours, tags, notes, start_date, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW())
	`

	_, err := p.pool.Exec(ctx, query,
		activity.ID, activity.UserID, activity.Name, activity.ActivityType, activity.SportType, activity.ElapsedTimeSeconds,
		activity.MovingTimeSeconds, activity.DistanceMeters, activity.Calories, activity.PerceivedExertion,
		activity.Mood, activity.EnergyLevel, activity.Source, activity.ConfidenceScore, activity.PerformanceScore,
		activity.RecoveryNeededHours, activity.Tags, activity.Notes, activity.StartDate,
	)
	return err
}

const activityColumns = `
	id, user_id, name, activity_type, sport_type, elapsed_time_seconds,
	moving_time_seconds, distance_meters, calories, perceived_exertion,
	mood, energy_level, source, confidence_score, performance_score,
	recovery_needed_hours, tags, notes, start_date, created_at
`

func scanActivity(row interface{ Scan(...any) error }) (storage.Activity, error) {
	var activity storage.Activity
	err := row.Scan(
		&activity.ID, &activity.UserID, &activity.Name, &activity.ActivityType, &activity.SportType, &activity.ElapsedTimeSeconds,
		&activity.MovingTimeSeconds, &activity.DistanceMeters, &activity.Calories, &activity.PerceivedExertion,
		&activity.Mood, &activity.EnergyLevel, &activity.Source, &activity.ConfidenceScore, &activity.PerformanceScore,
		&activity.RecoveryNeededHours, &activity.Tags, &activity.Notes, &activity.StartDate, &activity.CreatedAt,
	)
	return activity, err
}

func (p *PostgresStorage) ListActivitiesBetween(ctx context.Context, userID string, from, to time.Time) ([]storage.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE user_id = $1 AND start_date >= $2 AND start_date < $3
		ORDER BY start_date ASC`

	rows, err := p.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []storage.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (p *PostgresStorage) ListActivitiesSince(ctx context.Context, userID, activityType string, since time.Time, limit int) ([]storage.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE user_id = $1 AND start_date >= $2 AND ($3 = '' OR activity_type = $3)
		ORDER BY start_date DESC
		LIMIT $4`

	rows, err := p.pool.Query(ctx, query, userID, since, activityType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []storage.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (p *PostgresStorage) InsertWorkout(ctx context.Context, workout *storage.Workout) error {
	if workout.ID == uuid.Nil {
		workout.ID = uuid.New()
	}

	exercises, err := marshalJSON(workout.Exercises)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workout_completions (
			id, user_id, notes, duration_minutes, exercises, volume_load,
			estimated_calories, muscle_groups, rpe, mood, energy_level,
			progressive_overload_status, recovery_needed_hours, source,
			confidence_score, tags, started_at, completed_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
	`

	_, err = p.pool.Exec(ctx, query,
		workout.ID, workout.UserID, workout.Notes, workout.DurationMinutes, exercises, workout.VolumeLoad,
		workout.EstimatedCalories, workout.MuscleGroups, workout.RPE, workout.Mood, workout.EnergyLevel,
		workout.ProgressiveOverloadStatus, workout.RecoveryNeededHours, workout.Source,
		workout.ConfidenceScore, workout.Tags, workout.StartedAt, workout.CompletedAt,
	)
	return err
}

func (p *PostgresStorage) ListWorkoutsSince(ctx context.Context, userID string, since time.Time, limit int) ([]storage.Workout, error) {
	query := `
		SELECT id, user_id, notes, duration_minutes, exercises, volume_load,
		       estimated_calories, muscle_groups, rpe, mood, energy_level,
		       progressive_overload_status, recovery_needed_hours, source,
		       confidence_score, tags, started_at, completed_at, created_at
		FROM workout_completions
		WHERE user_id = $1 AND started_at >= $2
		ORDER BY started_at DESC
		LIMIT $3
	`

	rows, err := p.pool.Query(ctx, query, userID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := []storage.Workout{}
	for rows.Next() {
		var workout storage.Workout
		var exercises []byte
		if err := rows.Scan(
			&workout.ID, &workout.UserID, &workout.Notes, &workout.DurationMinutes, &exercises, &workout.VolumeLoad,
			&workout.EstimatedCalories, &workout.MuscleGroups, &workout.RPE, &workout.Mood, &workout.EnergyLevel,
			&workout.ProgressiveOverloadStatus, &workout.RecoveryNeededHours, &workout.Source,
			&workout.ConfidenceScore, &workout.Tags, &workout.StartedAt, &workout.CompletedAt, &workout.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(exercises, &workout.Exercises); err != nil {
			return nil, err
		}
		workouts = append(workouts, workout)
	}
	return workouts, rows.Err()
}

func (p *PostgresStorage) InsertNote(ctx context.Context, note *storage.Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	query := `
		INSERT INTO user_notes (
			id, user_id, title, content, category, sentiment, sentiment_score,
			detected_themes, related_goals, action_items, tags, source,
			confidence_score, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	`

	_, err := p.pool.Exec(ctx, query,
		note.ID, note.UserID, note.Title, note.Content, note.Category, note.Sentiment, note.SentimentScore,
		note.DetectedThemes, note.RelatedGoals, note.ActionItems, note.Tags, note.Source,
		note.ConfidenceScore,
	)
	return err
}

func (p *PostgresStorage) InsertMeasurement(ctx context.Context, measurement *storage.Measurement) error {
	if measurement.ID == uuid.Nil {
		measurement.ID = uuid.New()
	}

	values, err := marshalJSON(measurement.Measurements)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO body_measurements (
			id, user_id, weight_kg, body_fat_pct, measurements, notes,
			source, confidence_score, measured_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`

	_, err = p.pool.Exec(ctx, query,
		measurement.ID, measurement.UserID, measurement.WeightKg, measurement.BodyFatPct, values, measurement.Notes,
		measurement.Source, measurement.ConfidenceScore, measurement.MeasuredAt,
	)
	return err
}
