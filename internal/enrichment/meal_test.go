package enrichment

import (
	"math"
	"testing"
)

func TestMealQualityScorePerfectMeal(t *testing.T) {
	// 5 base + 2 protein + 1 fiber + 1 sugar + 0.5 sodium + 1 balance,
	// clamped to 10.
	score := MealQualityScore(MealMacros{
		Calories: 500,
		ProteinG: 35,
		CarbsG:   40,
		FatG:     17,
		FiberG:   5,
		SugarG:   5,
		SodiumMg: 400,
	})
	if score != 10 {
		t.Errorf("expected score 10, got %v", score)
	}
}

func TestMealQualityScorePenalties(t *testing.T) {
	// Sugary, salty meal: 5 + 0 - 1 (sugar) - 1 (sodium) = 3.
	score := MealQualityScore(MealMacros{
		Calories: 600,
		ProteinG: 5,
		CarbsG:   80,
		FatG:     20,
		SugarG:   45,
		SodiumMg: 2000,
	})
	if score != 3 {
		t.Errorf("expected score 3, got %v", score)
	}
}

func TestMealQualityScoreClampsAtZero(t *testing.T) {
	score := MealQualityScore(MealMacros{SugarG: 50, SodiumMg: 2000})
	if score < 0 {
		t.Errorf("score must not go below zero, got %v", score)
	}
}

func TestMacroBalanceScorePerfectSplit(t *testing.T) {
	// Exactly 30/40/30 by calories: zero deviation, score 10.
	score := MacroBalanceScore(MealMacros{
		Calories: 400,
		ProteinG: 30, // 120 kcal
		CarbsG:   40, // 160 kcal
		FatG:     120.0 / 9,
	})
	if math.Abs(score-10) > 0.01 {
		t.Errorf("expected ~10, got %v", score)
	}
}

func TestMacroBalanceScoreNeutralOnEmptyMeal(t *testing.T) {
	if score := MacroBalanceScore(MealMacros{}); score != 5 {
		t.Errorf("expected neutral 5 for zero-calorie meal, got %v", score)
	}
}

func TestGoalAdherenceWithinTwentyPercent(t *testing.T) {
	targets := DailyTargets{Calories: 2100, ProteinG: 175, CarbsG: 210, FatG: 70}
	// Per-meal expectation is target/3.5: 600 kcal, 50g protein, 60g carbs.
	score := GoalAdherence(MealMacros{
		Calories: 600,
		ProteinG: 50,
		CarbsG:   60,
		FatG:     20,
	}, targets)
	// 5 + 1.5 (protein) + 1.0 (carbs) + 1.5 (calories) = 9.
	if score != 9 {
		t.Errorf("expected 9, got %v", score)
	}
}

func TestGoalAdherenceHalfCreditWithinFortyPercent(t *testing.T) {
	targets := DailyTargets{Calories: 2100, ProteinG: 175, CarbsG: 210}
	// 70% of each expectation: outside ±20%, inside ±40%.
	score := GoalAdherence(MealMacros{
		Calories: 420,
		ProteinG: 35,
		CarbsG:   42,
	}, targets)
	// 5 + 0.75 (protein) + 0.5 (carbs) + 0.75 (calories) = 7
	if math.Abs(score-7) > 0.001 {
		t.Errorf("expected 7, got %v", score)
	}
}

func TestMealTags(t *testing.T) {
	tags := MealTags(MealMacros{
		Calories: 650,
		ProteinG: 35,
		CarbsG:   55,
		FatG:     22,
		FiberG:   6,
		SugarG:   4,
	}, "lunch")

	expectTags(t, tags, "high-protein", "high-carb", "high-fat", "high-calorie", "high-fiber", "low-sugar", "lunch")
}

func TestMealTagsBalanced(t *testing.T) {
	tags := MealTags(MealMacros{
		Calories: 450,
		ProteinG: 30,
		CarbsG:   45,
		FatG:     15,
		SugarG:   5,
	}, "dinner")
	expectTags(t, tags, "balanced")
}

func expectTags(t *testing.T, tags []string, want ...string) {
	t.Helper()
	set := map[string]bool{}
	for _, tag := range tags {
		set[tag] = true
	}
	for _, tag := range want {
		if !set[tag] {
			t.Errorf("expected tag %q in %v", tag, tags)
		}
	}
}
