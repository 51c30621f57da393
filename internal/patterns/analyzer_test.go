package patterns

import (
	"math"
	"testing"
	"time"

	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/storage"
)

func matchWithMetadata(metadata map[string]any) embeddings.Match {
	return embeddings.Match{
		EmbeddingMatch: storage.EmbeddingMatch{
			Embedding: storage.Embedding{
				Metadata:  metadata,
				CreatedAt: time.Now().UTC(),
			},
			Similarity: 0.8,
		},
	}
}

func TestAnalyzeAbsentBelowMinimumSamples(t *testing.T) {
	matches := []embeddings.Match{
		matchWithMetadata(map[string]any{"duration_minutes": 40.0}),
		matchWithMetadata(map[string]any{"duration_minutes": 50.0}),
	}
	if pattern := Analyze(matches, "activity"); pattern != nil {
		t.Errorf("expected nil pattern with 2 samples, got %+v", pattern)
	}
}

func TestAnalyzeConfidenceAtMinimumSamples(t *testing.T) {
	matches := []embeddings.Match{
		matchWithMetadata(map[string]any{"duration_minutes": 40.0}),
		matchWithMetadata(map[string]any{"duration_minutes": 50.0}),
		matchWithMetadata(map[string]any{"duration_minutes": 60.0}),
	}
	pattern := Analyze(matches, "activity")
	if pattern == nil {
		t.Fatal("expected pattern with 3 samples")
	}
	// 0.5 + 3/20*0.45
	if math.Abs(pattern.Confidence-0.5675) > 1e-9 {
		t.Errorf("expected confidence 0.5675, got %v", pattern.Confidence)
	}
}

func TestAnalyzeConfidenceCaps(t *testing.T) {
	matches := make([]embeddings.Match, 30)
	for i := range matches {
		matches[i] = matchWithMetadata(map[string]any{"calories": 500.0})
	}
	pattern := Analyze(matches, "meal")
	if pattern.Confidence != 0.95 {
		t.Errorf("expected capped confidence 0.95, got %v", pattern.Confidence)
	}
}

func TestAnalyzeActivityAverages(t *testing.T) {
	matches := []embeddings.Match{
		matchWithMetadata(map[string]any{"duration_minutes": 40.0, "distance_km": 8.0, "calories_burned": 400.0}),
		matchWithMetadata(map[string]any{"duration_minutes": 50.0, "distance_km": 10.0, "calories_burned": 500.0}),
		matchWithMetadata(map[string]any{"duration_minutes": 60.0, "distance_km": 12.0, "calories_burned": 600.0}),
		matchWithMetadata(map[string]any{}), // row without metrics
	}

	pattern := Analyze(matches, "activity")
	if pattern == nil {
		t.Fatal("expected pattern")
	}
	if pattern.DurationAvg == nil || *pattern.DurationAvg != 50 {
		t.Errorf("expected duration avg 50, got %v", pattern.DurationAvg)
	}
	if pattern.DistanceAvg == nil || *pattern.DistanceAvg != 10 {
		t.Errorf("expected distance avg 10, got %v", pattern.DistanceAvg)
	}
	if pattern.CaloriesAvg == nil || *pattern.CaloriesAvg != 500 {
		t.Errorf("expected calories avg 500, got %v", pattern.CaloriesAvg)
	}
	if pattern.Consistency != 0.75 {
		t.Errorf("expected consistency 0.75 (3 of 4 usable), got %v", pattern.Consistency)
	}
}

func TestAnalyzeMealAverages(t *testing.T) {
	matches := []embeddings.Match{
		matchWithMetadata(map[string]any{"calories": 400.0, "protein_g": 30.0}),
		matchWithMetadata(map[string]any{"calories": 500.0, "protein_g": 40.0}),
		matchWithMetadata(map[string]any{"calories": 600.0, "protein_g": 50.0}),
	}

	pattern := Analyze(matches, "meal")
	if pattern.CaloriesAvg == nil || *pattern.CaloriesAvg != 500 {
		t.Errorf("expected calories avg 500, got %v", pattern.CaloriesAvg)
	}
	if pattern.ProteinAvg == nil || *pattern.ProteinAvg != 40 {
		t.Errorf("expected protein avg 40, got %v", pattern.ProteinAvg)
	}
}

func TestAnalyzeWorkoutCommonExercises(t *testing.T) {
	bench := map[string]any{"name": "Bench Press"}
	squat := map[string]any{"name": "Squat"}
	curl := map[string]any{"name": "Curl"}

	matches := []embeddings.Match{
		matchWithMetadata(map[string]any{"duration_minutes": 60.0, "exercises": []any{bench, squat}}),
		matchWithMetadata(map[string]any{"duration_minutes": 55.0, "exercises": []any{bench, curl}}),
		matchWithMetadata(map[string]any{"duration_minutes": 65.0, "exercises": []any{bench}}),
	}

	pattern := Analyze(matches, "workout")
	if len(pattern.CommonExercises) == 0 || pattern.CommonExercises[0] != "Bench Press" {
		t.Errorf("expected Bench Press as the most common exercise, got %v", pattern.CommonExercises)
	}
}
