// Package patterns derives statistical priors from a user's own past
// entries. The priors feed the quick-entry classification prompt so
// estimates converge toward the user's real behavior.
package patterns

import (
	"sort"

	"github.com/renatodap/fitness-backend/internal/embeddings"
)

// MinSamples is the smallest history that yields a pattern.
const MinSamples = 3

// Pattern is a statistical prior for one entry type. Averages are nil
// when no retrieved row carried the field.
type Pattern struct {
	SampleSize int      `json:"sample_size"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Consistency float64 `json:"consistency"`

	// activity
	DurationAvg *float64 `json:"duration_avg,omitempty"`
	DistanceAvg *float64 `json:"distance_avg,omitempty"`
	CaloriesAvg *float64 `json:"calories_avg,omitempty"`

	// workout
	CommonExercises []string `json:"common_exercises,omitempty"`

	// meal
	ProteinAvg *float64 `json:"protein_avg,omitempty"`
}

// Analyze is a pure function of retrieved rows. It returns nil when
// fewer than MinSamples usable samples exist.
func Analyze(matches []embeddings.Match, entryType string) *Pattern {
	if len(matches) < MinSamples {
		return nil
	}

	pattern := &Pattern{
		SampleSize: len(matches),
		Type:       entryType,
		Confidence: confidence(len(matches)),
	}

	switch entryType {
	case "activity":
		durations := collectFloats(matches, "duration_minutes")
		distances := collectFloats(matches, "distance_km")
		calories := collectFloats(matches, "calories_burned")
		pattern.DurationAvg = average(durations)
		pattern.DistanceAvg = average(distances)
		pattern.CaloriesAvg = average(calories)
		pattern.Consistency = consistency(len(durations), len(matches))

	case "workout":
		durations := collectFloats(matches, "duration_minutes")
		pattern.DurationAvg = average(durations)
		pattern.CommonExercises = commonExercises(matches, 5)
		pattern.Consistency = consistency(len(durations), len(matches))

	case "meal":
		calories := collectFloats(matches, "calories")
		proteins := collectFloats(matches, "protein_g")
		pattern.CaloriesAvg = average(calories)
		pattern.ProteinAvg = average(proteins)
		pattern.Consistency = consistency(len(calories), len(matches))
	}

	return pattern
}

// confidence grows with sample size, capped at 0.95.
func confidence(sampleSize int) float64 {
	c := 0.5 + float64(sampleSize)/20.0*0.45
	if c > 0.95 {
		c = 0.95
	}
	return c
}

func consistency(usable, total int) float64 {
	if total == 0 || usable == 0 {
		return 0
	}
	return float64(usable) / float64(total)
}

func collectFloats(matches []embeddings.Match, key string) []float64 {
	out := []float64{}
	for _, match := range matches {
		if v, ok := asFloat(match.Metadata[key]); ok && v != 0 {
			out = append(out, v)
		}
	}
	return out
}

func average(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}

func commonExercises(matches []embeddings.Match, top int) []string {
	counts := map[string]int{}
	for _, match := range matches {
		rawList, ok := match.Metadata["exercises"].([]any)
		if !ok {
			continue
		}
		for _, raw := range rawList {
			exercise, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if name, ok := exercise["name"].(string); ok && name != "" {
				counts[name]++
			}
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > top {
		names = names[:top]
	}
	return names
}

func asFloat(v any) (float64, bool) {
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
