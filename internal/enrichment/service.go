package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/storage"
)

const historyWindow = 14 * 24 * time.Hour

// Service wires the pure scorers to user history and targets, and runs
// the model-backed note sentiment with its lexicon fallback.
type Service struct {
	store  storage.Store
	router *ai.Router
}

func NewService(store storage.Store, router *ai.Router) *Service {
	return &Service{store: store, router: router}
}

// EnrichMeal sets quality, balance, adherence, and tags on the meal.
func (s *Service) EnrichMeal(ctx context.Context, meal *storage.Meal) {
	macros := MealMacros{
		Calories: deref(meal.TotalCalories),
		ProteinG: deref(meal.TotalProteinG),
		CarbsG:   deref(meal.TotalCarbsG),
		FatG:     deref(meal.TotalFatG),
		FiberG:   deref(meal.TotalFiberG),
		SugarG:   deref(meal.TotalSugarG),
		SodiumMg: deref(meal.TotalSodiumMg),
	}

	quality := MealQualityScore(macros)
	balance := MacroBalanceScore(macros)
	meal.MealQualityScore = &quality
	meal.MacroBalanceScore = &balance
	meal.Tags = MealTags(macros, meal.Category)

	profile, err := s.store.GetProfile(ctx, meal.UserID)
	if err == nil && profile.DailyCalorieTarget != nil {
		adherence := GoalAdherence(macros, DailyTargets{
			Calories: derefInt(profile.DailyCalorieTarget),
			ProteinG: derefInt(profile.DailyProteinTargetG),
			CarbsG:   derefInt(profile.DailyCarbsTargetG),
			FatG:     derefInt(profile.DailyFatTargetG),
		})
		meal.AdherenceToGoals = &adherence
	}
}

// EnrichWorkout sets overload status, recovery hours, and tags.
func (s *Service) EnrichWorkout(ctx context.Context, workout *storage.Workout) {
	rpe := derefInt(workout.RPE)
	volume := deref(workout.VolumeLoad)

	recovery := WorkoutRecoveryHours(volume, rpe, len(workout.MuscleGroups))
	workout.RecoveryNeededHours = &recovery
	workout.Tags = WorkoutTags(workout.MuscleGroups, volume, rpe, len(workout.Exercises))

	since := time.Now().UTC().Add(-historyWindow)
	recent, err := s.store.ListWorkoutsSince(ctx, workout.UserID, since, 10)
	if err != nil {
		log.Printf("[Enrichment] workout history fetch failed: %v", err)
		return
	}

	volumes := []float64{}
	for _, w := range recent {
		if w.VolumeLoad != nil && *w.VolumeLoad > 0 {
			volumes = append(volumes, *w.VolumeLoad)
		}
	}
	if status := OverloadStatus(volume, volumes); status != "" {
		workout.ProgressiveOverloadStatus = &status
	}
}

// EnrichActivity sets performance score, recovery hours, and tags.
func (s *Service) EnrichActivity(ctx context.Context, activity *storage.Activity) {
	rpe := derefInt(activity.PerceivedExertion)
	durationMin := activity.ElapsedTimeSeconds / 60
	distanceKm := float64(derefInt(activity.DistanceMeters)) / 1000

	recovery := ActivityRecoveryHours(durationMin, rpe)
	activity.RecoveryNeededHours = &recovery
	activity.Tags = ActivityTags(activity.ActivityType, durationMin, distanceKm, rpe)

	since := time.Now().UTC().Add(-historyWindow)
	recent, err := s.store.ListActivitiesSince(ctx, activity.UserID, activity.ActivityType, since, 10)
	if err != nil {
		log.Printf("[Enrichment] activity history fetch failed: %v", err)
		return
	}

	paces := []float64{}
	for _, a := range recent {
		km := float64(derefInt(a.DistanceMeters)) / 1000
		minutes := float64(a.ElapsedTimeSeconds) / 60
		if km > 0 && minutes > 0 {
			paces = append(paces, minutes/km)
		}
	}

	var currentPace float64
	if distanceKm > 0 && durationMin > 0 {
		currentPace = float64(durationMin) / distanceKm
	}
	score := ActivityPerformanceScore(currentPace, paces)
	activity.PerformanceScore = &score
}

// EnrichNote runs the model sentiment call; on any failure it falls back
// to the deterministic lexicon with the same schema.
func (s *Service) EnrichNote(ctx context.Context, note *storage.Note) {
	sentiment, err := s.analyzeSentiment(ctx, note.Content)
	if err != nil {
		log.Printf("[Enrichment] sentiment model failed, using lexicon: %v", err)
		fallback := LexiconSentiment(note.Content)
		sentiment = &fallback
	}

	note.Sentiment = &sentiment.Sentiment
	note.SentimentScore = &sentiment.SentimentScore
	note.DetectedThemes = sentiment.DetectedThemes
	note.RelatedGoals = sentiment.RelatedGoals
	note.ActionItems = sentiment.ActionItems
	note.Tags = NoteTags(note.Title, note.Content)
}

func (s *Service) analyzeSentiment(ctx context.Context, content string) (*NoteSentiment, error) {
	if content == "" {
		return nil, fmt.Errorf("empty note content")
	}

	prompt := fmt.Sprintf(`Analyze the sentiment and themes in this user's fitness journal entry.

Entry:
%s

Return JSON with:
{
  "sentiment": "positive|neutral|negative",
  "sentiment_score": -1.0 to 1.0 (negative to positive),
  "detected_themes": ["motivation", "struggle", "progress", "injury", "goal-setting", etc.],
  "related_goals": ["lose weight", "build muscle", "improve endurance", etc.],
  "action_items": ["specific actions user mentioned or implied"]
}

Focus on fitness-related themes. Keep action_items concise.
Return ONLY valid JSON.`, content)

	completion, err := s.router.Complete(ctx, ai.TaskConfig{
		Type:         ai.TaskQuickCategorization,
		RequiresJSON: true,
	}, []ai.ChatMessage{
		ai.TextMessage("system", "You are a fitness journal analyst. Extract sentiment and themes from user notes."),
		ai.TextMessage("user", prompt),
	}, ai.JSONResponse)
	if err != nil {
		return nil, err
	}

	var result NoteSentiment
	if err := json.Unmarshal([]byte(completion.Content), &result); err != nil {
		return nil, fmt.Errorf("parse sentiment response: %w", err)
	}
	if result.Sentiment == "" {
		result.Sentiment = SentimentNeutral
	}
	return &result, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
