package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (p *PostgresStorage) GetProfile(ctx context.Context, userID string) (*storage.Profile, error) {
	query := `
		SELECT user_id, current_weight_kg, height_cm, age, biological_sex,
		       primary_goal, goal_weight_kg, equipment_access, dietary_preferences,
		       training_frequency, bmr, estimated_tdee, daily_calorie_target,
		       daily_protein_target_g, daily_carbs_target_g, daily_fat_target_g,
		       consultation_onboarding_completed, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var profile storage.Profile
	err := p.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &profile.CurrentWeightKg, &profile.HeightCm, &profile.Age, &profile.BiologicalSex,
		&profile.PrimaryGoal, &profile.GoalWeightKg, &profile.EquipmentAccess, &profile.DietaryPreferences,
		&profile.TrainingFrequency, &profile.BMR, &profile.EstimatedTDEE, &profile.DailyCalorieTarget,
		&profile.DailyProteinTargetG, &profile.DailyCarbsTargetG, &profile.DailyFatTargetG,
		&profile.ConsultationOnboardingCompleted, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *PostgresStorage) UpsertProfile(ctx context.Context, profile *storage.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, current_weight_kg, height_cm, age, biological_sex,
			primary_goal, goal_weight_kg, equipment_access, dietary_preferences,
			training_frequency, bmr, estimated_tdee, daily_calorie_target,
			daily_protein_target_g, daily_carbs_target_g, daily_fat_target_g,
			consultation_onboarding_completed, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			current_weight_kg = EXCLUDED.current_weight_kg,
			height_cm = EXCLUDED.height_cm,
			age = EXCLUDED.age,
			biological_sex = EXCLUDED.biological_sex,
			primary_goal = EXCLUDED.primary_goal,
			goal_weight_kg = EXCLUDED.goal_weight_kg,
			equipment_access = EXCLUDED.equipment_access,
			dietary_preferences = EXCLUDED.dietary_preferences,
			training_frequency = EXCLUDED.training_frequency,
			bmr = EXCLUDED.bmr,
			estimated_tdee = EXCLUDED.estimated_tdee,
			daily_calorie_target = EXCLUDED.daily_calorie_target,
			daily_protein_target_g = EXCLUDED.daily_protein_target_g,
			daily_carbs_target_g = EXCLUDED.daily_carbs_target_g,
			daily_fat_target_g = EXCLUDED.daily_fat_target_g,
			consultation_onboarding_completed = EXCLUDED.consultation_onboarding_completed,
			updated_at = NOW()
	`

	_, err := p.pool.Exec(ctx, query,
		profile.UserID, profile.CurrentWeightKg, profile.HeightCm, profile.Age, profile.BiologicalSex,
		profile.PrimaryGoal, profile.GoalWeightKg, profile.EquipmentAccess, profile.DietaryPreferences,
		profile.TrainingFrequency, profile.BMR, profile.EstimatedTDEE, profile.DailyCalorieTarget,
		profile.DailyProteinTargetG, profile.DailyCarbsTargetG, profile.DailyFatTargetG,
		profile.ConsultationOnboardingCompleted,
	)
	return err
}

func (p *PostgresStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
