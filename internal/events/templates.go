// Package events manages user events (races, meets, shows) and derives
// training phases and countdowns from their milestone dates.
package events

// Training phases.
const (
	PhasePreTraining = "pre_training"
	PhaseBuild       = "build"
	PhasePeak        = "peak"
	PhaseTaper       = "taper"
)

// PhaseEntry is one block of a periodization template.
type PhaseEntry struct {
	Name  string `json:"name"`
	Weeks int    `json:"weeks"`
	Focus string `json:"focus,omitempty"`
}

// Template describes the default periodization for an event type.
type Template struct {
	TrainingWeeks     int          `json:"training_weeks"`
	TaperWeeks        int          `json:"taper_weeks"`
	PeakWeekOffset    int          `json:"peak_week_offset"` // days added to the taper start date
	Phases            []PhaseEntry `json:"phases"`
	NutritionStrategy string       `json:"nutrition_strategy"`
}

// ValidEventTypes is the closed set of event types.
var ValidEventTypes = map[string]bool{
	"marathon": true, "half_marathon": true, "10k": true, "5k": true,
	"triathlon": true, "cycling_race": true, "swimming_meet": true,
	"powerlifting_meet": true, "weightlifting_meet": true, "strongman": true,
	"bodybuilding_show": true, "physique_competition": true,
	"crossfit_competition": true, "obstacle_race": true,
	"team_sport_game": true, "tennis_match": true, "golf_tournament": true,
	"hiking_trip": true, "skiing_trip": true, "climbing_expedition": true,
	"fitness_test": true, "photo_shoot": true, "wedding": true, "vacation": true,
	"other": true,
}

// EnduranceEventTypes get carb-centric phase adjustments.
var EnduranceEventTypes = map[string]bool{
	"marathon": true, "half_marathon": true, "10k": true, "5k": true,
	"triathlon": true, "cycling_race": true,
}

// StrengthEventTypes get weight-management taper adjustments.
var StrengthEventTypes = map[string]bool{
	"powerlifting_meet": true, "weightlifting_meet": true, "strongman": true,
}

// PhysiqueEventTypes get peak-week carb manipulation.
var PhysiqueEventTypes = map[string]bool{
	"bodybuilding_show": true, "physique_competition": true,
}

// PeriodizationTemplates maps event types to their default training
// structure. Types without an entry fall back to DefaultTemplate.
var PeriodizationTemplates = map[string]Template{
	"marathon": {
		TrainingWeeks:  16,
		TaperWeeks:     2,
		PeakWeekOffset: -7,
		Phases: []PhaseEntry{
			{Name: "Base Building", Weeks: 4, Focus: "Volume, easy pace"},
			{Name: "Build Phase", Weeks: 6, Focus: "Tempo runs, long runs"},
			{Name: "Peak Phase", Weeks: 4, Focus: "Race pace, peak mileage"},
			{Name: "Taper", Weeks: 2, Focus: "Reduced volume, race prep"},
		},
		NutritionStrategy: "carb_loading_protocol",
	},
	"half_marathon": {
		TrainingWeeks:  12,
		TaperWeeks:     1,
		PeakWeekOffset: -7,
		Phases: []PhaseEntry{
			{Name: "Base", Weeks: 4},
			{Name: "Build", Weeks: 5},
			{Name: "Peak", Weeks: 2},
			{Name: "Taper", Weeks: 1},
		},
		NutritionStrategy: "carb_loading_24hr",
	},
	"powerlifting_meet": {
		TrainingWeeks:  12,
		TaperWeeks:     1,
		PeakWeekOffset: -7,
		Phases: []PhaseEntry{
			{Name: "Hypertrophy", Weeks: 4, Focus: "8-12 reps, volume"},
			{Name: "Strength", Weeks: 5, Focus: "3-6 reps, intensity"},
			{Name: "Peaking", Weeks: 2, Focus: "1-3 reps, specificity"},
			{Name: "Deload/Taper", Weeks: 1, Focus: "Reduced volume, CNS recovery"},
		},
		NutritionStrategy: "water_cut_protocol",
	},
	"weightlifting_meet": {
		TrainingWeeks:  12,
		TaperWeeks:     1,
		PeakWeekOffset: -7,
		Phases: []PhaseEntry{
			{Name: "General Prep", Weeks: 4},
			{Name: "Specific Prep", Weeks: 5},
			{Name: "Competition Prep", Weeks: 2},
			{Name: "Taper", Weeks: 1},
		},
		NutritionStrategy: "weight_class_protocol",
	},
	"bodybuilding_show": {
		TrainingWeeks:  16,
		TaperWeeks:     1,
		PeakWeekOffset: -7,
		Phases: []PhaseEntry{
			{Name: "Mass Building", Weeks: 8, Focus: "Calorie surplus, volume"},
			{Name: "Cutting Phase", Weeks: 6, Focus: "Calorie deficit, maintain strength"},
			{Name: "Final Prep", Weeks: 2, Focus: "Peak conditioning, carb depletion/load"},
		},
		NutritionStrategy: "peak_week_protocol",
	},
	"triathlon": {
		TrainingWeeks:  20,
		TaperWeeks:     2,
		PeakWeekOffset: -14,
		Phases: []PhaseEntry{
			{Name: "Base", Weeks: 8},
			{Name: "Build", Weeks: 8},
			{Name: "Peak", Weeks: 2},
			{Name: "Taper", Weeks: 2},
		},
		NutritionStrategy: "endurance_fueling",
	},
}

// DefaultTemplate covers event types without a dedicated entry.
var DefaultTemplate = Template{
	TrainingWeeks:  12,
	TaperWeeks:     1,
	PeakWeekOffset: -7,
	Phases: []PhaseEntry{
		{Name: "Base", Weeks: 4},
		{Name: "Build", Weeks: 5},
		{Name: "Peak", Weeks: 2},
		{Name: "Taper", Weeks: 1},
	},
	NutritionStrategy: "general",
}

// TemplateFor returns the periodization template for an event type.
func TemplateFor(eventType string) Template {
	if template, ok := PeriodizationTemplates[eventType]; ok {
		return template
	}
	return DefaultTemplate
}
