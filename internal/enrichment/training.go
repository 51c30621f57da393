package enrichment

// Progressive overload statuses.
const (
	OverloadImproving   = "improving"
	OverloadMaintaining = "maintaining"
	OverloadDeclining   = "declining"
)

// OverloadStatus compares the current volume load to the mean of recent
// same-user workouts. Returns "" when fewer than 2 history points exist
// or the current load is zero.
func OverloadStatus(currentVolume float64, recentVolumes []float64) string {
	if currentVolume == 0 || len(recentVolumes) < 2 {
		return ""
	}

	var sum float64
	for _, v := range recentVolumes {
		sum += v
	}
	avg := sum / float64(len(recentVolumes))

	switch {
	case currentVolume > avg*1.05:
		return OverloadImproving
	case currentVolume < avg*0.95:
		return OverloadDeclining
	default:
		return OverloadMaintaining
	}
}

// WorkoutRecoveryHours estimates recovery need for a strength workout.
func WorkoutRecoveryHours(volumeLoad float64, rpe, muscleGroupCount int) int {
	hours := 24

	if rpe >= 9 {
		hours += 24
	} else if rpe >= 7 {
		hours += 12
	}

	if volumeLoad > 20000 {
		hours += 12
	} else if volumeLoad > 10000 {
		hours += 6
	}

	if muscleGroupCount >= 3 {
		hours += 12
	}

	return hours
}

// ActivityRecoveryHours estimates recovery need for a cardio activity.
func ActivityRecoveryHours(durationMinutes, rpe int) int {
	hours := 12

	if durationMinutes > 90 {
		hours += 12
	} else if durationMinutes > 60 {
		hours += 6
	}

	if rpe >= 9 {
		hours += 12
	} else if rpe >= 7 {
		hours += 6
	}

	return hours
}

// ActivityPerformanceScore buckets the pace improvement against the
// average pace of recent same-type activities. 5.0 with insufficient
// history; paces are min/km.
func ActivityPerformanceScore(currentPace float64, recentPaces []float64) float64 {
	if currentPace == 0 || len(recentPaces) < 2 {
		return 5.0
	}

	var sum float64
	for _, p := range recentPaces {
		sum += p
	}
	avgPace := sum / float64(len(recentPaces))
	if avgPace == 0 {
		return 5.0
	}

	improvement := (avgPace - currentPace) / avgPace * 100
	switch {
	case improvement > 10:
		return 9.0
	case improvement > 5:
		return 8.0
	case improvement > 0:
		return 7.0
	case improvement > -5:
		return 5.0
	default:
		return 3.0
	}
}

// WorkoutTags derives the closed workout tag set.
func WorkoutTags(muscleGroups []string, volumeLoad float64, rpe, exerciseCount int) []string {
	tags := append([]string{}, muscleGroups...)

	if rpe >= 9 {
		tags = append(tags, "high-intensity")
	} else if rpe >= 7 {
		tags = append(tags, "moderate-intensity")
	} else {
		tags = append(tags, "light-intensity")
	}

	if volumeLoad > 15000 {
		tags = append(tags, "high-volume")
	} else if volumeLoad > 0 && volumeLoad < 5000 {
		tags = append(tags, "low-volume")
	}

	if exerciseCount >= 6 {
		tags = append(tags, "full-workout")
	} else if exerciseCount > 0 && exerciseCount <= 3 {
		tags = append(tags, "quick-workout")
	}

	return tags
}

// ActivityTags derives the closed activity tag set.
func ActivityTags(activityType string, durationMinutes int, distanceKm float64, rpe int) []string {
	tags := []string{}

	if activityType != "" {
		tags = append(tags, activityType)
	}

	if durationMinutes >= 90 {
		tags = append(tags, "long-duration")
	} else if durationMinutes > 0 && durationMinutes <= 30 {
		tags = append(tags, "short-duration")
	}

	if distanceKm >= 15 {
		tags = append(tags, "long-distance")
	} else if distanceKm > 0 && distanceKm <= 5 {
		tags = append(tags, "short-distance")
	}

	if rpe >= 8 {
		tags = append(tags, "high-effort")
	} else if rpe > 0 && rpe <= 5 {
		tags = append(tags, "easy")
	}

	tags = append(tags, "cardio")
	return tags
}
