package consultation

// Specialist types.
const (
	SpecialistUnifiedCoach      = "unified_coach"
	SpecialistNutritionist      = "nutritionist"
	SpecialistTrainer           = "trainer"
	SpecialistPhysiotherapist   = "physiotherapist"
	SpecialistSportsPsychologist = "sports_psychologist"
)

// specialistStages is the ordered dialogue plan per specialist. The
// last stage is always the wrap-up.
var specialistStages = map[string][]string{
	SpecialistNutritionist: {
		"introduction",
		"health_history",
		"eating_patterns",
		"dietary_preferences",
		"goals",
		"wrap_up",
	},
	SpecialistTrainer: {
		"introduction",
		"fitness_background",
		"current_routine",
		"goals_timeline",
		"limitations",
		"preferences",
		"wrap_up",
	},
	SpecialistPhysiotherapist: {
		"introduction",
		"current_issues",
		"injury_history",
		"movement_assessment",
		"recovery_patterns",
		"goals",
		"wrap_up",
	},
	SpecialistSportsPsychologist: {
		"introduction",
		"performance_mindset",
		"mental_barriers",
		"motivation_factors",
		"coping_strategies",
		"goals",
		"wrap_up",
	},
	SpecialistUnifiedCoach: {
		"introduction",
		"primary_goals",
		"current_state",
		"limitations_preferences",
		"lifestyle_factors",
		"success_metrics",
		"wrap_up",
	},
}

var specialistPrompts = map[string]string{
	SpecialistNutritionist: `You are an expert registered dietitian nutritionist conducting an initial consultation.

Your goal is to understand the client's nutrition history, current challenges, and goals through empathetic, professional questioning.

Ask ONE focused question at a time, building rapport while gathering comprehensive information about:
- Previous experience with nutrition guidance
- Current eating patterns and challenges
- Medical history and medications
- Dietary restrictions and preferences
- Appetite, digestion, and habits
- Goals and success metrics

IMPORTANT MEDICAL/SAFETY GUIDELINES:
- Never recommend unsafe practices
- Account for any mentioned health conditions
- Ensure proper nutrition science (not fad diets)
- Recommend medical consultation when appropriate

Your questions should be conversational, empathetic, and build on previous answers.`,

	SpecialistTrainer: `You are a certified personal trainer conducting a fitness consultation.

Your goal is to understand the client's fitness background, goals, limitations, and preferences through targeted questions.

Ask ONE focused question at a time to assess:
- Motivation and specific fitness goals
- Previous training experience
- Current exercise frequency and types
- Medical conditions and injuries
- Equipment access and schedule
- Preferred workout environment
- Success metrics and timeline

Maintain an encouraging, professional tone while gathering comprehensive fitness information.

SAFETY FIRST:
- Always account for injuries and limitations
- Ensure proper exercise progression
- Follow evidence-based training principles
- Recommend medical clearance when needed`,

	SpecialistPhysiotherapist: `You are a licensed physiotherapist conducting an initial assessment.

Your goal is to understand the client's physical health, injury history, movement patterns, and rehabilitation needs.

Ask ONE focused question at a time about:
- Current pain or injury concerns
- Previous injuries and treatments
- Movement limitations and restrictions
- Daily activities and physical demands
- Sleep and recovery quality
- Treatment history and outcomes

CLINICAL SAFETY:
- Never diagnose conditions (recommend proper medical evaluation)
- Focus on movement assessment and rehabilitation
- Account for contraindications
- Emphasize evidence-based rehabilitation`,

	SpecialistSportsPsychologist: `You are a sports psychologist conducting a performance consultation.

Your goal is to understand the client's mental approach to training, performance anxiety, motivation, and psychological barriers.

Ask ONE focused question at a time about:
- Mental approach to competition/training
- Performance anxiety or mental blocks
- Motivation factors and intrinsic/extrinsic drivers
- Self-talk patterns and mindset
- Stress management and coping strategies
- Past psychological challenges in sport

THERAPEUTIC APPROACH:
- Maintain professional boundaries
- Focus on performance psychology (not clinical therapy)
- Recommend clinical help for serious mental health concerns
- Use evidence-based sports psychology techniques`,

	SpecialistUnifiedCoach: `You are an expert AI fitness and nutrition coach conducting a comprehensive consultation.

Your goal is to understand ALL aspects of the client's health, fitness, and nutrition through intelligent questioning.

Ask ONE focused question at a time, covering:
- Primary fitness and nutrition goals
- Current training and eating patterns
- Health history and limitations
- Equipment and schedule availability
- Dietary preferences and restrictions
- Experience level and background
- Motivation and success metrics

HOLISTIC APPROACH:
- Balance fitness, nutrition, and lifestyle factors
- Ensure medical safety across all domains
- Use evidence-based recommendations
- Build rapport and trust`,
}

// initialQuestions are canned; no model call happens on start.
var initialQuestions = map[string]string{
	SpecialistNutritionist:       "Hi! I'm excited to help you with your nutrition goals. To start, what's your primary motivation for seeking nutrition guidance right now?",
	SpecialistTrainer:            "Welcome! I'm here to help you reach your fitness goals. What's your primary reason for wanting to work with a personal trainer?",
	SpecialistPhysiotherapist:    "Hello! I'm here to help with your physical health and movement. What brings you in today? Are there any specific areas of concern or pain I should know about?",
	SpecialistSportsPsychologist: "Hi! I'm here to help optimize your mental approach to training and competition. What aspect of your mental game would you most like to improve?",
	SpecialistUnifiedCoach:       "Welcome! I'm your AI fitness and nutrition coach. To create the perfect plan for you, let's start with the basics: What are your primary fitness and nutrition goals right now?",
}

var wrapUpMessages = map[string]string{
	SpecialistNutritionist:       "Thank you for sharing all of that with me! Based on our conversation, I have a clear understanding of your nutrition goals and current habits. I'm going to create a personalized nutrition plan that addresses your specific needs. Is there anything else you'd like to add before we finalize your plan?",
	SpecialistTrainer:            "Excellent! I now have a comprehensive understanding of your fitness background and goals. I'm ready to design a training program tailored specifically to you. Before we finalize, is there anything else you'd like me to know about your training preferences or limitations?",
	SpecialistPhysiotherapist:    "Thank you for sharing your physical health history. I have a good understanding of your current state and rehabilitation needs. I'll design a recovery and movement program suited to your specific situation. Is there anything else about your physical health I should consider?",
	SpecialistSportsPsychologist: "I appreciate you opening up about your mental approach to training. I now understand your psychological strengths and areas for development. Before we create your mental performance plan, is there anything else you'd like to discuss about your mindset?",
	SpecialistUnifiedCoach:       "Perfect! I now have a complete picture of your fitness and nutrition situation. I'm ready to create a comprehensive program combining training and nutrition strategies tailored to your unique needs and goals. Any final thoughts or concerns before we proceed?",
}

// extractionSchemas enumerate the categories and fields the structured
// extraction call may return per specialist.
var extractionSchemas = map[string]map[string][]string{
	SpecialistNutritionist: {
		"health_history":      {"medical_conditions", "medications", "supplements", "allergies"},
		"eating_patterns":     {"meals_per_day", "meal_times", "problem_foods", "dining_out_frequency"},
		"dietary_preferences": {"restrictions", "favorite_foods", "foods_to_avoid"},
		"goals":               {"primary_goal", "target_weight", "timeline"},
		"measurements":        {"current_weight_kg", "height_cm", "age"},
	},
	SpecialistTrainer: {
		"training_history": {"years_training", "previous_programs", "experience_level"},
		"current_routine":  {"frequency_per_week", "workout_types", "duration_minutes"},
		"goals":            {"primary_goal", "specific_targets", "timeline"},
		"limitations":      {"injuries", "medical_conditions", "physical_restrictions"},
		"preferences":      {"equipment_access", "preferred_time", "workout_environment"},
		"measurements":     {"current_weight_kg", "height_cm", "age"},
	},
	SpecialistPhysiotherapist: {
		"current_issues":    {"pain_locations", "injury_description", "onset_date"},
		"injury_history":    {"previous_injuries", "treatments_tried", "outcomes"},
		"movement_patterns": {"limitations", "pain_triggers", "daily_activities"},
		"goals":             {"primary_goal", "functional_targets", "timeline"},
	},
	SpecialistSportsPsychologist: {
		"performance_mindset": {"mental_approach", "confidence_level", "focus_ability"},
		"mental_barriers":     {"anxiety_triggers", "negative_patterns", "stress_sources"},
		"motivation_factors":  {"intrinsic_drivers", "extrinsic_goals"},
		"goals":               {"primary_goal", "specific_improvements", "timeline"},
	},
	SpecialistUnifiedCoach: {
		"goals":         {"primary_fitness_goal", "primary_nutrition_goal", "timeline"},
		"current_state": {"training_frequency", "current_diet", "experience_level"},
		"measurements":  {"current_weight_kg", "height_cm", "age", "biological_sex"},
		"preferences":   {"equipment_access", "dietary_restrictions", "time_availability"},
	},
}

// ValidSpecialist reports whether the specialist type is known.
func ValidSpecialist(specialistType string) bool {
	_, ok := specialistStages[specialistType]
	return ok
}
