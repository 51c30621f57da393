package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/renatodap/fitness-backend/internal/storage"
)

// Read-only tools the coach chat layer can call. Every tool returns a
// self-describing map and a defined empty state instead of an error.

// GetUserProfileSummary assembles targets, measurements, goals, and
// preferences plus the latest completed consultation.
func (s *Service) GetUserProfileSummary(ctx context.Context, userID string) map[string]any {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]any{"error": "User profile not found"}
	}
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	result := map[string]any{
		"nutrition_targets": map[string]any{
			"bmr":             profile.BMR,
			"tdee":            profile.EstimatedTDEE,
			"daily_calories":  profile.DailyCalorieTarget,
			"daily_protein_g": profile.DailyProteinTargetG,
			"daily_carbs_g":   profile.DailyCarbsTargetG,
			"daily_fat_g":     profile.DailyFatTargetG,
		},
		"measurements": map[string]any{
			"current_weight_kg": profile.CurrentWeightKg,
			"height_cm":         profile.HeightCm,
			"age":               profile.Age,
			"biological_sex":    profile.BiologicalSex,
		},
		"goals": map[string]any{
			"primary_goal":   profile.PrimaryGoal,
			"goal_weight_kg": profile.GoalWeightKg,
		},
		"preferences": map[string]any{
			"equipment_access":     profile.EquipmentAccess,
			"dietary_preferences":  profile.DietaryPreferences,
			"training_frequency":   profile.TrainingFrequency,
		},
	}

	sessions, err := s.store.ListCompletedSessions(ctx, userID, 1)
	if err == nil && len(sessions) > 0 {
		latest := sessions[0]
		result["last_consultation"] = map[string]any{
			"session_id":      latest.ID.String(),
			"specialist_type": latest.SpecialistType,
			"completed_at":    latest.CompletedAt,
		}
		if summary, err := s.Summary(ctx, latest.ID); err == nil {
			if goals, ok := summary["goals"]; ok {
				result["goals"] = goals
			}
			if preferences, ok := summary["preferences"]; ok {
				result["preferences"] = preferences
			}
		}
	}

	return result
}

// GetUserGoals returns the latest extracted goals across consultations.
func (s *Service) GetUserGoals(ctx context.Context, userID string) map[string]any {
	extractions, err := s.store.ListUserExtractions(ctx, userID, "goals")
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if len(extractions) == 0 {
		return map[string]any{"goals": map[string]any{}, "message": "No goals recorded yet"}
	}
	latest := extractions[len(extractions)-1]
	return map[string]any{
		"goals":       latest.Data,
		"recorded_at": latest.CreatedAt,
		"confidence":  latest.ConfidenceScore,
	}
}

// GetUserPreferences returns the latest extracted preferences.
func (s *Service) GetUserPreferences(ctx context.Context, userID string) map[string]any {
	extractions, err := s.store.ListUserExtractions(ctx, userID, "preferences")
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if len(extractions) == 0 {
		return map[string]any{"preferences": map[string]any{}, "message": "No preferences recorded yet"}
	}
	latest := extractions[len(extractions)-1]
	return map[string]any{
		"preferences": latest.Data,
		"recorded_at": latest.CreatedAt,
	}
}

// GetNutritionTargetsWithProgress compares today's logged meals against
// the daily targets.
func (s *Service) GetNutritionTargetsWithProgress(ctx context.Context, userID string, date time.Time) map[string]any {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && profile.DailyCalorieTarget == nil) {
		return map[string]any{"message": "No nutrition targets set. Complete a consultation first."}
	}
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	meals, err := s.store.ListMealsBetween(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	var calories, protein, carbs, fat float64
	for _, meal := range meals {
		calories += floatValue(meal.TotalCalories)
		protein += floatValue(meal.TotalProteinG)
		carbs += floatValue(meal.TotalCarbsG)
		fat += floatValue(meal.TotalFatG)
	}

	return map[string]any{
		"date": dayStart.Format("2006-01-02"),
		"targets": map[string]any{
			"calories":  profile.DailyCalorieTarget,
			"protein_g": profile.DailyProteinTargetG,
			"carbs_g":   profile.DailyCarbsTargetG,
			"fat_g":     profile.DailyFatTargetG,
		},
		"logged": map[string]any{
			"calories":  calories,
			"protein_g": protein,
			"carbs_g":   carbs,
			"fat_g":     fat,
			"meals":     len(meals),
		},
		"remaining": map[string]any{
			"calories":  float64(intValue(profile.DailyCalorieTarget)) - calories,
			"protein_g": float64(intValue(profile.DailyProteinTargetG)) - protein,
		},
	}
}

// GetTodaysRecommendationsForCoach lists today's open recommendations.
func (s *Service) GetTodaysRecommendationsForCoach(ctx context.Context, userID string) map[string]any {
	recs, err := s.store.ListRecommendations(ctx, userID, time.Now().UTC(), []string{storage.RecPending, storage.RecAccepted})
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if len(recs) == 0 {
		return map[string]any{"recommendations": []any{}, "message": "No recommendations generated for today"}
	}

	items := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		items = append(items, map[string]any{
			"type":      rec.Type,
			"content":   rec.Content,
			"reasoning": rec.Reasoning,
			"priority":  rec.Priority,
			"status":    rec.Status,
		})
	}
	return map[string]any{"recommendations": items}
}

// GetConsultationHistory lists completed consultations newest first.
func (s *Service) GetConsultationHistory(ctx context.Context, userID string, limit int) map[string]any {
	if limit <= 0 {
		limit = 10
	}
	sessions, err := s.store.ListCompletedSessions(ctx, userID, limit)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if len(sessions) == 0 {
		return map[string]any{"consultations": []any{}, "message": "No completed consultations"}
	}

	items := make([]map[string]any, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, map[string]any{
			"session_id":      session.ID.String(),
			"specialist_type": session.SpecialistType,
			"total_messages":  session.TotalMessages,
			"completed_at":    session.CompletedAt,
		})
	}
	return map[string]any{"consultations": items}
}

// CompareConsultations diffs the extraction categories of the two most
// recent completed consultations.
func (s *Service) CompareConsultations(ctx context.Context, userID string) map[string]any {
	sessions, err := s.store.ListCompletedSessions(ctx, userID, 2)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if len(sessions) < 2 {
		return map[string]any{"message": "Need at least two completed consultations to compare"}
	}

	newer, err := s.Summary(ctx, sessions[0].ID)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	older, err := s.Summary(ctx, sessions[1].ID)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	changes := map[string]any{}
	for category, newerData := range newer {
		if category == "_metadata" {
			continue
		}
		olderData, existed := older[category]
		if !existed {
			changes[category] = map[string]any{"status": "new", "current": newerData}
			continue
		}
		changes[category] = map[string]any{
			"status":   "updated",
			"previous": olderData,
			"current":  newerData,
		}
	}

	return map[string]any{
		"newer_session": sessions[0].ID.String(),
		"older_session": sessions[1].ID.String(),
		"changes":       changes,
	}
}

// GetGoalEvolution tracks one extraction category across consultations.
func (s *Service) GetGoalEvolution(ctx context.Context, userID, category string) map[string]any {
	if category == "" {
		category = "goals"
	}
	extractions, err := s.store.ListUserExtractions(ctx, userID, category)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if len(extractions) == 0 {
		return map[string]any{"category": category, "evolution": []any{}, "message": "No history for this category"}
	}

	timeline := make([]map[string]any, 0, len(extractions))
	for _, extraction := range extractions {
		timeline = append(timeline, map[string]any{
			"recorded_at": extraction.CreatedAt,
			"data":        extraction.Data,
		})
	}
	return map[string]any{"category": category, "evolution": timeline}
}

// FormatConsultationTimeline renders a human-readable history.
func (s *Service) FormatConsultationTimeline(ctx context.Context, userID string, limit int) map[string]any {
	if limit <= 0 {
		limit = 5
	}
	sessions, err := s.store.ListCompletedSessions(ctx, userID, limit)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if len(sessions) == 0 {
		return map[string]any{"timeline": "", "message": "No completed consultations"}
	}

	timeline := ""
	for _, session := range sessions {
		when := "unknown"
		if session.CompletedAt != nil {
			when = session.CompletedAt.Format("Jan 2, 2006")
		}
		timeline += fmt.Sprintf("- %s consultation on %s (%d messages)\n",
			session.SpecialistType, when, session.TotalMessages)
	}
	return map[string]any{"timeline": timeline, "count": len(sessions)}
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
