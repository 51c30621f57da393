// Package nutrition computes BMR, TDEE, and macronutrient targets.
// Every function is pure: the same inputs always produce identical
// numeric outputs. Rounding is half-to-even throughout; midpoints like
// a 220.5 g carb remainder resolve downward, not away from zero.
package nutrition

import (
	"fmt"
	"log"
	"math"
	"strings"
)

// ActivityLevel categories with their TDEE multipliers.
type ActivityLevel string

const (
	Sedentary        ActivityLevel = "sedentary"         // little to no exercise
	LightlyActive    ActivityLevel = "lightly_active"    // light exercise 1-3 days/week
	ModeratelyActive ActivityLevel = "moderately_active" // moderate exercise 3-5 days/week
	VeryActive       ActivityLevel = "very_active"       // heavy exercise 6-7 days/week
	ExtremelyActive  ActivityLevel = "extremely_active"  // very heavy exercise, physical job
)

var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:        1.2,
	LightlyActive:    1.375,
	ModeratelyActive: 1.55,
	VeryActive:       1.725,
	ExtremelyActive:  1.9,
}

// Plan is a full set of derived nutrition targets.
type Plan struct {
	BMR           int `json:"bmr"`
	TDEE          int `json:"tdee"`
	DailyCalories int `json:"daily_calories"`
	DailyProteinG int `json:"daily_protein_g"`
	DailyCarbsG   int `json:"daily_carbs_g"`
	DailyFatG     int `json:"daily_fat_g"`
}

// BMR implements the Mifflin-St Jeor equation.
func BMR(weightKg, heightCm float64, age int, biologicalSex string) (int, error) {
	if weightKg <= 0 || weightKg > 500 {
		return 0, fmt.Errorf("invalid weight: %vkg, must be between 0 and 500kg", weightKg)
	}
	if heightCm <= 0 || heightCm > 300 {
		return 0, fmt.Errorf("invalid height: %vcm, must be between 0 and 300cm", heightCm)
	}
	if age < 13 || age > 120 {
		return 0, fmt.Errorf("invalid age: %d, must be between 13 and 120", age)
	}

	sex := strings.ToLower(strings.TrimSpace(biologicalSex))
	var bmr float64
	switch sex {
	case "male":
		bmr = 10*weightKg + 6.25*heightCm - 5*float64(age) + 5
	case "female":
		bmr = 10*weightKg + 6.25*heightCm - 5*float64(age) - 161
	default:
		return 0, fmt.Errorf("invalid biological_sex: %q, must be 'male' or 'female'", biologicalSex)
	}

	return int(math.RoundToEven(bmr)), nil
}

// ActivityFromFrequency maps weekly training days to an activity level.
func ActivityFromFrequency(trainingFrequency int) ActivityLevel {
	switch {
	case trainingFrequency >= 6:
		return VeryActive
	case trainingFrequency >= 4:
		return ModeratelyActive
	case trainingFrequency >= 2:
		return LightlyActive
	default:
		return Sedentary
	}
}

// ParseActivityLevel resolves an explicit level string, defaulting to
// moderately active for unknown values.
func ParseActivityLevel(s string) ActivityLevel {
	level := ActivityLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := activityMultipliers[level]; !ok {
		return ModeratelyActive
	}
	return level
}

// TDEE multiplies BMR by the activity multiplier.
func TDEE(bmr int, level ActivityLevel) int {
	multiplier, ok := activityMultipliers[level]
	if !ok {
		multiplier = activityMultipliers[ModeratelyActive]
	}
	return int(math.RoundToEven(float64(bmr) * multiplier))
}

// CaloriesForGoal adjusts TDEE for the user's goal. Unknown goals fall
// back to maintenance with a warning.
func CaloriesForGoal(tdee int, goal string) int {
	switch normalizeGoal(goal) {
	case "cut":
		return int(math.RoundToEven(float64(tdee) * 0.8))
	case "bulk":
		return int(math.RoundToEven(float64(tdee) * 1.1))
	case "maintain":
		return tdee
	default:
		log.Printf("[Nutrition] WARNING: unknown goal %q, defaulting to maintenance", goal)
		return tdee
	}
}

// ProteinTarget returns grams per day by goal.
func ProteinTarget(bodyWeightKg float64, goal string) int {
	var perKg float64
	switch normalizeGoal(goal) {
	case "cut":
		perKg = 2.2
	case "bulk":
		perKg = 2.0
	case "maintain":
		perKg = 1.8
	default:
		perKg = 1.6
	}
	return int(math.RoundToEven(bodyWeightKg * perKg))
}

// Macros fills fat at 28% of calories and carbs from the remainder,
// clamped at zero.
func Macros(dailyCalories int, bodyWeightKg float64, goal string) (proteinG, carbsG, fatG int) {
	proteinG = ProteinTarget(bodyWeightKg, goal)
	fatG = int(math.RoundToEven(float64(dailyCalories) * 0.28 / 9))

	remaining := dailyCalories - proteinG*4 - fatG*9
	carbsG = int(math.RoundToEven(float64(remaining) / 4))
	if carbsG < 0 {
		carbsG = 0
	}
	return proteinG, carbsG, fatG
}

// FullPlan chains BMR → TDEE → goal calories → macros.
func FullPlan(weightKg, heightCm float64, age int, biologicalSex, goal string, trainingFrequency int) (*Plan, error) {
	bmr, err := BMR(weightKg, heightCm, age, biologicalSex)
	if err != nil {
		return nil, err
	}

	tdee := TDEE(bmr, ActivityFromFrequency(trainingFrequency))
	calories := CaloriesForGoal(tdee, goal)
	proteinG, carbsG, fatG := Macros(calories, weightKg, goal)

	return &Plan{
		BMR:           bmr,
		TDEE:          tdee,
		DailyCalories: calories,
		DailyProteinG: proteinG,
		DailyCarbsG:   carbsG,
		DailyFatG:     fatG,
	}, nil
}

func normalizeGoal(goal string) string {
	switch strings.ToLower(strings.TrimSpace(goal)) {
	case "cut", "lose_fat", "fat_loss":
		return "cut"
	case "bulk", "build_muscle", "muscle_gain":
		return "bulk"
	case "maintain", "maintenance", "recomp":
		return "maintain"
	default:
		return ""
	}
}
