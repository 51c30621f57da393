package quickentry

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/worker"
)

const lbsPerKg = 2.2046226218

// persist writes the classified entry to its typed table and returns
// the new row id. Low-confidence auto-classifications land in the note
// store tagged unclassified.
func (s *Service) persist(ctx context.Context, userID string, classification Classification, originalText, imageBase64 string, manual bool) (uuid.UUID, error) {
	entryType := classification.Type
	if !manual && classification.Confidence < minConfidence {
		entryType = TypeUnknown
	}

	data := classification.Data
	if data == nil {
		data = map[string]any{}
	}
	now := time.Now().UTC()

	switch entryType {
	case TypeMeal:
		meal := &storage.Meal{
			ID:              uuid.New(),
			UserID:          userID,
			Name:            stringOr(data, "meal_name", truncate(originalText, 200)),
			Category:        stringOr(data, "meal_type", "snack"),
			TotalCalories:   floatField(data, "calories"),
			TotalProteinG:   floatField(data, "protein_g"),
			TotalCarbsG:     floatField(data, "carbs_g"),
			TotalFatG:       floatField(data, "fat_g"),
			TotalFiberG:     floatField(data, "fiber_g"),
			TotalSugarG:     floatField(data, "sugar_g"),
			TotalSodiumMg:   floatField(data, "sodium_mg"),
			Foods:           foodItems(data),
			Source:          storage.SourceQuickEntry,
			Estimated:       boolField(data, "estimated"),
			ConfidenceScore: classification.Confidence,
			Notes:           stringOr(data, "notes", truncate(originalText, 500)),
			LoggedAt:        now,
		}

		if imageBase64 != "" {
			if url := s.uploadImage(ctx, userID, imageBase64); url != "" {
				meal.ImageURL = &url
			}
		}

		s.enricher.EnrichMeal(ctx, meal)
		if err := s.store.InsertMeal(ctx, meal); err != nil {
			return uuid.Nil, err
		}
		return meal.ID, nil

	case TypeActivity:
		durationMin := floatOr(data, 0, "duration_minutes")
		distanceKm := floatOr(data, 0, "distance_km")

		activity := &storage.Activity{
			ID:                 uuid.New(),
			UserID:             userID,
			Name:               stringOr(data, "activity_name", truncate(originalText, 200)),
			ActivityType:       stringOr(data, "activity_type", "workout"),
			SportType:          stringOr(data, "sport_type", stringOr(data, "activity_type", "workout")),
			ElapsedTimeSeconds: int(durationMin * 60),
			Calories:           floatField(data, "calories_burned", "calories"),
			PerceivedExertion:  intField(data, "rpe", "perceived_exertion"),
			Mood:               strPtr(stringOr(data, "mood", "")),
			EnergyLevel:        intField(data, "energy_level"),
			Source:             storage.SourceQuickEntry,
			ConfidenceScore:    classification.Confidence,
			Notes:              stringOr(data, "notes", truncate(originalText, 500)),
			StartDate:          now,
		}
		if durationMin > 0 {
			moving := int(durationMin * 60)
			activity.MovingTimeSeconds = &moving
		}
		if distanceKm > 0 {
			meters := int(distanceKm * 1000)
			activity.DistanceMeters = &meters
		}

		s.enricher.EnrichActivity(ctx, activity)
		if err := s.store.InsertActivity(ctx, activity); err != nil {
			return uuid.Nil, err
		}
		return activity.ID, nil

	case TypeWorkout:
		exercises := exerciseList(data)
		volumeLoad := VolumeLoad(exercises)
		muscleGroups := MuscleGroups(exercises)

		// Expose derived fields to vectorization metadata.
		data["volume_load"] = volumeLoad
		data["muscle_groups"] = muscleGroups

		workout := &storage.Workout{
			ID:              uuid.New(),
			UserID:          userID,
			Notes:           stringOr(data, "notes", "Workout: "+stringOr(data, "workout_name", "Quick Workout")),
			DurationMinutes: intField(data, "duration_minutes"),
			Exercises:       exercises,
			MuscleGroups:    muscleGroups,
			RPE:             intField(data, "rpe", "perceived_exertion"),
			Mood:            strPtr(stringOr(data, "mood", "")),
			EnergyLevel:     intField(data, "energy_level"),
			EstimatedCalories: intField(data, "estimated_calories"),
			Source:          storage.SourceQuickEntry,
			ConfidenceScore: classification.Confidence,
			StartedAt:       now,
			CompletedAt:     now,
		}
		if volumeLoad > 0 {
			workout.VolumeLoad = &volumeLoad
		}

		s.enricher.EnrichWorkout(ctx, workout)
		if err := s.store.InsertWorkout(ctx, workout); err != nil {
			return uuid.Nil, err
		}
		return workout.ID, nil

	case TypeNote:
		note := &storage.Note{
			ID:              uuid.New(),
			UserID:          userID,
			Title:           stringOr(data, "title", "Quick Note"),
			Content:         stringOr(data, "content", originalText),
			Category:        stringOr(data, "category", "general"),
			Source:          storage.SourceQuickEntry,
			ConfidenceScore: classification.Confidence,
			CreatedAt:       now,
		}

		s.enricher.EnrichNote(ctx, note)
		if err := s.store.InsertNote(ctx, note); err != nil {
			return uuid.Nil, err
		}
		return note.ID, nil

	case TypeMeasurement:
		measurement := &storage.Measurement{
			ID:              uuid.New(),
			UserID:          userID,
			WeightKg:        weightKg(data),
			BodyFatPct:      floatField(data, "body_fat_pct"),
			Measurements:    measurementMap(data),
			Notes:           truncate(originalText, 500),
			Source:          storage.SourceQuickEntry,
			ConfidenceScore: classification.Confidence,
			MeasuredAt:      now,
			CreatedAt:       now,
		}
		if err := s.store.InsertMeasurement(ctx, measurement); err != nil {
			return uuid.Nil, err
		}
		return measurement.ID, nil

	default:
		note := &storage.Note{
			ID:              uuid.New(),
			UserID:          userID,
			Title:           "Unclassified Entry",
			Content:         originalText,
			Category:        "general",
			Tags:            []string{"unclassified"},
			Source:          storage.SourceQuickEntry,
			ConfidenceScore: classification.Confidence,
			CreatedAt:       now,
		}
		if err := s.store.InsertNote(ctx, note); err != nil {
			return uuid.Nil, err
		}
		return note.ID, nil
	}
}

// uploadImage stores the image and spawns the image-embedding task.
// Upload failure degrades to a missing URL, never a failed entry.
func (s *Service) uploadImage(ctx context.Context, userID, imageBase64 string) string {
	imageBytes, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		log.Printf("[QuickEntry] image decode failed: %v", err)
		return ""
	}

	fileName := fmt.Sprintf("%s/meals/%s_meal.jpg", userID, time.Now().UTC().Format("20060102_150405"))
	url, err := s.blobStore.Upload(ctx, fileName, imageBytes, "image/jpeg")
	if err != nil {
		log.Printf("[QuickEntry] image upload failed: %v", err)
		return ""
	}

	s.queue.TryEnqueue(worker.SubjectVectorizeImage, worker.VectorizeImageTask{
		UserID:        userID,
		ImageBase64:   imageBase64,
		StorageURL:    url,
		StorageBucket: s.blobStore.Bucket(),
		FileName:      fileName,
		MimeType:      "image/jpeg",
	})

	return url
}

// VolumeLoad is the sum of sets*reps*weight across all exercises.
func VolumeLoad(exercises []storage.Exercise) float64 {
	var total float64
	for _, exercise := range exercises {
		total += float64(exercise.Sets) * float64(exercise.Reps) * exercise.WeightLbs
	}
	return total
}

var muscleGroupRules = []struct {
	group    string
	keywords []string
}{
	{"chest", []string{"bench", "chest", "push"}},
	{"legs", []string{"squat", "leg", "quad"}},
	{"back", []string{"deadlift", "row", "back"}},
	{"shoulders", []string{"shoulder", "press", "overhead"}},
	{"arms", []string{"curl", "bicep", "arm"}},
}

// MuscleGroups infers trained muscle groups from exercise names via the
// fixed substring rules.
func MuscleGroups(exercises []storage.Exercise) []string {
	seen := map[string]bool{}
	groups := []string{}
	for _, exercise := range exercises {
		name := strings.ToLower(exercise.Name)
		for _, rule := range muscleGroupRules {
			if seen[rule.group] {
				continue
			}
			for _, keyword := range rule.keywords {
				if strings.Contains(name, keyword) {
					seen[rule.group] = true
					groups = append(groups, rule.group)
					break
				}
			}
		}
	}
	return groups
}

// ---- data map helpers ----

func stringOr(data map[string]any, key, fallback string) string {
	if v, ok := data[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func floatField(data map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		if v, ok := numeric(data[key]); ok {
			return &v
		}
	}
	return nil
}

func floatOr(data map[string]any, fallback float64, keys ...string) float64 {
	if v := floatField(data, keys...); v != nil {
		return *v
	}
	return fallback
}

func intField(data map[string]any, keys ...string) *int {
	for _, key := range keys {
		if v, ok := numeric(data[key]); ok {
			n := int(v)
			return &n
		}
	}
	return nil
}

func boolField(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func foodItems(data map[string]any) []storage.FoodItem {
	rawList, ok := data["foods"].([]any)
	if !ok {
		return nil
	}

	items := make([]storage.FoodItem, 0, len(rawList))
	for _, raw := range rawList {
		food, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		item := storage.FoodItem{
			Name:     stringOr(food, "name", ""),
			Quantity: stringOr(food, "quantity", ""),
			Calories: floatField(food, "calories"),
			ProteinG: floatField(food, "protein_g"),
			CarbsG:   floatField(food, "carbs_g"),
			FatG:     floatField(food, "fat_g"),
		}
		if item.Name != "" {
			items = append(items, item)
		}
	}
	return items
}

func exerciseList(data map[string]any) []storage.Exercise {
	rawList, ok := data["exercises"].([]any)
	if !ok {
		return nil
	}

	exercises := make([]storage.Exercise, 0, len(rawList))
	for _, raw := range rawList {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		exercise := storage.Exercise{
			Name:      stringOr(entry, "name", ""),
			Sets:      int(floatOr(entry, 0, "sets")),
			WeightLbs: floatOr(entry, 0, "weight_lbs"),
		}
		// Reps may arrive as a range string ("8-10"); only plain numbers
		// contribute to volume load.
		if reps, ok := numeric(entry["reps"]); ok {
			exercise.Reps = int(reps)
		}
		if rest, ok := numeric(entry["rest_seconds"]); ok {
			exercise.RestSeconds = int(rest)
		}
		if exercise.Name != "" {
			exercises = append(exercises, exercise)
		}
	}
	return exercises
}

func weightKg(data map[string]any) *float64 {
	if v := floatField(data, "weight_kg"); v != nil {
		return v
	}
	if v := floatField(data, "weight_lbs"); v != nil {
		kg := *v / lbsPerKg
		return &kg
	}
	return nil
}

func measurementMap(data map[string]any) map[string]float64 {
	raw, ok := data["measurements"].(map[string]any)
	if !ok {
		return nil
	}
	out := map[string]float64{}
	for key, value := range raw {
		if v, ok := numeric(value); ok {
			out[key] = v
		}
	}
	return out
}
