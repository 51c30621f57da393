// Package enrichment runs deterministic scorers inside the persistence
// path of quick entries. Only note sentiment is allowed to call a model,
// and it degrades to a keyword lexicon on failure.
package enrichment

import "math"

// MealMacros are the inputs to the meal scorers.
type MealMacros struct {
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
	FiberG   float64
	SugarG   float64
	SodiumMg float64
}

// DailyTargets are the user's daily macro targets for goal adherence.
type DailyTargets struct {
	Calories int
	ProteinG int
	CarbsG   int
	FatG     int
}

// MealQualityScore rates a meal 0-10 from its nutritional content.
func MealQualityScore(m MealMacros) float64 {
	score := 5.0

	switch {
	case m.ProteinG >= 30:
		score += 2.0
	case m.ProteinG >= 20:
		score += 1.0
	}

	switch {
	case m.FiberG >= 5:
		score += 1.0
	case m.FiberG >= 3:
		score += 0.5
	}

	if m.SugarG < 10 {
		score += 1.0
	} else if m.SugarG > 30 {
		score -= 1.0
	}

	if m.SodiumMg >= 200 && m.SodiumMg <= 600 {
		score += 0.5
	} else if m.SodiumMg > 1500 {
		score -= 1.0
	}

	if m.Calories > 0 {
		proteinPct := m.ProteinG * 4 / m.Calories * 100
		carbsPct := m.CarbsG * 4 / m.Calories * 100
		fatPct := m.FatG * 9 / m.Calories * 100
		if proteinPct >= 20 && proteinPct <= 40 && carbsPct >= 20 && carbsPct <= 50 && fatPct >= 20 && fatPct <= 35 {
			score += 1.0
		}
	}

	return clamp(score, 0, 10)
}

// MacroBalanceScore rates how close the macro split is to 30/40/30.
func MacroBalanceScore(m MealMacros) float64 {
	if m.Calories == 0 {
		return 5.0
	}

	proteinCals := m.ProteinG * 4
	carbsCals := m.CarbsG * 4
	fatCals := m.FatG * 9
	totalCals := proteinCals + carbsCals + fatCals
	if totalCals == 0 {
		return 5.0
	}

	proteinDev := math.Abs(proteinCals/totalCals*100 - 30)
	carbsDev := math.Abs(carbsCals/totalCals*100 - 40)
	fatDev := math.Abs(fatCals/totalCals*100 - 30)
	meanDev := (proteinDev + carbsDev + fatDev) / 3

	return clamp(10-meanDev/5, 0, 10)
}

// GoalAdherence compares one meal against roughly a 3.5-meal share of
// the daily targets. Within ±20% of target scores full credit per macro,
// within ±40% scores half.
func GoalAdherence(m MealMacros, targets DailyTargets) float64 {
	score := 5.0

	expectedProtein := float64(targets.ProteinG) / 3.5
	expectedCarbs := float64(targets.CarbsG) / 3.5
	expectedCalories := float64(targets.Calories) / 3.5

	if expectedProtein > 0 {
		ratio := m.ProteinG / expectedProtein
		if ratio >= 0.8 && ratio <= 1.2 {
			score += 1.5
		} else if ratio >= 0.6 && ratio <= 1.4 {
			score += 0.75
		}
	}

	if expectedCarbs > 0 {
		ratio := m.CarbsG / expectedCarbs
		if ratio >= 0.8 && ratio <= 1.2 {
			score += 1.0
		} else if ratio >= 0.6 && ratio <= 1.4 {
			score += 0.5
		}
	}

	if expectedCalories > 0 {
		ratio := m.Calories / expectedCalories
		if ratio >= 0.8 && ratio <= 1.2 {
			score += 1.5
		} else if ratio >= 0.6 && ratio <= 1.4 {
			score += 0.75
		}
	}

	return clamp(score, 0, 10)
}

// MealTags derives the closed tag set for a meal, plus its meal type.
func MealTags(m MealMacros, mealType string) []string {
	tags := []string{}

	if m.ProteinG >= 30 {
		tags = append(tags, "high-protein")
	} else if m.ProteinG >= 20 {
		tags = append(tags, "moderate-protein")
	}

	if m.CarbsG >= 50 {
		tags = append(tags, "high-carb")
	} else if m.CarbsG <= 20 {
		tags = append(tags, "low-carb")
	}

	if m.FatG >= 20 {
		tags = append(tags, "high-fat")
	} else if m.FatG <= 10 {
		tags = append(tags, "low-fat")
	}

	if m.Calories >= 600 {
		tags = append(tags, "high-calorie")
	} else if m.Calories <= 300 {
		tags = append(tags, "low-calorie")
	}

	if m.FiberG >= 5 {
		tags = append(tags, "high-fiber")
	}

	if m.SugarG < 10 {
		tags = append(tags, "low-sugar")
	} else if m.SugarG >= 30 {
		tags = append(tags, "high-sugar")
	}

	if mealType != "" {
		tags = append(tags, mealType)
	}

	if m.ProteinG >= 20 && m.ProteinG <= 40 && m.CarbsG >= 30 && m.CarbsG <= 60 && m.FatG >= 10 && m.FatG <= 25 {
		tags = append(tags, "balanced")
	}

	return tags
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
