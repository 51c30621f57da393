// Package recommendations plans a user's day: meals against remaining
// macro budget, workouts from the active program, and event-phase
// adjustments anchored to the primary event.
package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/events"
	"github.com/renatodap/fitness-backend/internal/programs"
	"github.com/renatodap/fitness-backend/internal/storage"
)

// Default times as minutes from midnight.
var defaultMealTimes = map[string]int{
	"breakfast": 7 * 60,
	"lunch":     12 * 60,
	"snack":     15 * 60,
	"dinner":    18*60 + 30,
}

const (
	afternoonWorkoutMinutes = 16 * 60
	eveningWorkoutMinutes   = 18 * 60
	eventReminderMinutes    = 6 * 60
)

var reminderMilestones = map[int]bool{
	90: true, 60: true, 30: true, 21: true, 14: true,
	7: true, 3: true, 2: true, 1: true, 0: true,
}

type Service struct {
	store    storage.Store
	router   *ai.Router
	events   *events.Service
	programs *programs.Service
	now      func() time.Time
}

func NewService(store storage.Store, router *ai.Router, eventService *events.Service, programService *programs.Service) *Service {
	return &Service{store: store, router: router, events: eventService, programs: programService, now: time.Now}
}

// NewServiceWithClock injects a clock for tests.
func NewServiceWithClock(store storage.Store, router *ai.Router, eventService *events.Service, programService *programs.Service, now func() time.Time) *Service {
	s := NewService(store, router, eventService, programService)
	s.now = now
	return s
}

// GenerateDailyPlan produces and persists the day's recommendations.
// Secondary fetches (program, events) may all fail; the plan is still
// emitted from what remains.
func (s *Service) GenerateDailyPlan(ctx context.Context, userID string, targetDate time.Time) ([]storage.Recommendation, error) {
	targetDate = midnightUTC(targetDate)
	log.Printf("[Recommendations] generating daily plan for %s on %s", userID, targetDate.Format("2006-01-02"))

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		profile = &storage.Profile{UserID: userID}
	}

	activeProgram, err := s.store.GetActiveProgram(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("[Recommendations] program fetch failed: %v", err)
	}

	var primaryEvent *storage.Event
	var countdown *events.Countdown
	if event, err := s.store.GetPrimaryEvent(ctx, userID); err == nil {
		// Phase and countdown are derived for the planned date, not the
		// wall clock, so plans generated ahead of time stay correct.
		derived := events.CountdownFor(event, targetDate)
		primaryEvent = event
		countdown = &derived
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("[Recommendations] primary event fetch failed: %v", err)
	}

	dayEnd := targetDate.AddDate(0, 0, 1)
	loggedMeals, err := s.store.ListMealsBetween(ctx, userID, targetDate, dayEnd)
	if err != nil {
		log.Printf("[Recommendations] meal log fetch failed: %v", err)
	}
	loggedActivities, err := s.store.ListActivitiesBetween(ctx, userID, targetDate, dayEnd)
	if err != nil {
		log.Printf("[Recommendations] activity log fetch failed: %v", err)
	}

	recs := []storage.Recommendation{}
	recs = append(recs, s.mealRecommendations(ctx, userID, targetDate, profile, loggedMeals, primaryEvent, countdown)...)
	recs = append(recs, s.workoutRecommendations(ctx, userID, targetDate, profile, loggedActivities, activeProgram, countdown)...)

	if primaryEvent != nil && countdown != nil {
		if reminder := eventReminder(userID, targetDate, primaryEvent, *countdown); reminder != nil {
			recs = append(recs, *reminder)
		}
	}

	var persistErr error
	for i := range recs {
		if err := s.store.InsertRecommendation(ctx, &recs[i]); err != nil {
			persistErr = err
			log.Printf("[Recommendations] persist failed: %v", err)
		}
	}
	if len(recs) > 0 && persistErr != nil {
		return recs, apierr.Wrap(apierr.Internal, "failed to persist recommendations", persistErr)
	}

	log.Printf("[Recommendations] generated %d recommendations", len(recs))
	return recs, nil
}

// SuggestNextAction returns the pending recommendation whose time is
// closest to now but no earlier than 30 minutes past; ties break on
// priority (the store already orders by priority).
func (s *Service) SuggestNextAction(ctx context.Context, userID string, now time.Time) (*storage.Recommendation, error) {
	today := midnightUTC(now)
	pending, err := s.store.ListRecommendations(ctx, userID, today, []string{storage.RecPending})
	if err != nil {
		return nil, err
	}

	if len(pending) == 0 {
		if _, err := s.GenerateDailyPlan(ctx, userID, today); err != nil {
			return nil, err
		}
		pending, err = s.store.ListRecommendations(ctx, userID, today, []string{storage.RecPending})
		if err != nil {
			return nil, err
		}
	}

	nowMinutes := now.UTC().Hour()*60 + now.UTC().Minute()
	var best *storage.Recommendation
	bestDiff := math.MaxInt

	for i := range pending {
		rec := &pending[i]
		if rec.RecommendationTimeMinutes == nil {
			continue
		}
		diff := *rec.RecommendationTimeMinutes - nowMinutes
		if diff < -30 {
			continue
		}
		distance := diff
		if distance < 0 {
			distance = -distance
		}
		// Strictly-less keeps the first (highest-priority) row on ties.
		if distance < bestDiff {
			bestDiff = distance
			best = rec
		}
	}
	return best, nil
}

// HandleLoggedEntry transitions the first matching pending
// recommendation to completed after a user log.
func (s *Service) HandleLoggedEntry(ctx context.Context, userID, logType string, logData map[string]any) {
	today := midnightUTC(s.now().UTC())
	pending, err := s.store.ListRecommendations(ctx, userID, today, []string{storage.RecPending})
	if err != nil {
		log.Printf("[Recommendations] pending fetch failed: %v", err)
		return
	}

	for _, rec := range pending {
		if !matchesLog(rec, logType, logData) {
			continue
		}
		if err := s.store.UpdateRecommendationStatus(ctx, rec.ID, userID, storage.RecCompleted, nil, nil); err != nil {
			log.Printf("[Recommendations] complete %s failed: %v", rec.ID, err)
		} else {
			log.Printf("[Recommendations] marked %s completed", rec.ID)
		}
		return
	}
}

// Active lists today's open recommendations.
func (s *Service) Active(ctx context.Context, userID string, date time.Time) ([]storage.Recommendation, error) {
	return s.store.ListRecommendations(ctx, userID, midnightUTC(date), []string{storage.RecPending, storage.RecAccepted})
}

// Feedback applies a status change with optional feedback text/rating.
func (s *Service) Feedback(ctx context.Context, userID string, recID uuid.UUID, status string, feedback *string, rating *int) error {
	switch status {
	case storage.RecAccepted, storage.RecRejected, storage.RecCompleted:
	default:
		return apierr.New(apierr.InvalidInput, fmt.Sprintf("invalid status: %s", status))
	}

	err := s.store.UpdateRecommendationStatus(ctx, recID, userID, status, feedback, rating)
	if errors.Is(err, storage.ErrNotFound) {
		return apierr.New(apierr.NotFound, "recommendation not found")
	}
	if errors.Is(err, storage.ErrTerminalStatus) {
		return apierr.New(apierr.PreconditionFailed, "recommendation is already finalized")
	}
	return err
}

// ---- plan construction ----

func (s *Service) mealRecommendations(ctx context.Context, userID string, targetDate time.Time, profile *storage.Profile, loggedMeals []storage.Meal, primaryEvent *storage.Event, countdown *events.Countdown) []storage.Recommendation {
	dailyCalories := intOr(profile.DailyCalorieTarget, 2000)
	dailyProtein := intOr(profile.DailyProteinTargetG, 150)
	dailyCarbs := float64(intOr(profile.DailyCarbsTargetG, 200))

	if primaryEvent != nil && countdown != nil {
		dailyCalories, dailyCarbs = AdjustMacrosForEvent(primaryEvent.Type, countdown.CurrentTrainingPhase, countdown.DaysUntilEvent, dailyCalories, dailyCarbs)
	}

	var loggedCalories, loggedProtein float64
	loggedTypes := map[string]bool{}
	for _, meal := range loggedMeals {
		loggedCalories += floatOr(meal.TotalCalories)
		loggedProtein += floatOr(meal.TotalProteinG)
		loggedTypes[meal.Category] = true
	}

	remainingCalories := float64(dailyCalories) - loggedCalories
	remainingProtein := float64(dailyProtein) - loggedProtein

	missing := []string{}
	for _, mealType := range []string{"breakfast", "lunch", "dinner", "snack"} {
		if !loggedTypes[mealType] {
			missing = append(missing, mealType)
		}
	}

	mainMeals := 0
	for _, mealType := range missing {
		if mealType != "snack" {
			mainMeals++
		}
	}
	if mainMeals == 0 {
		mainMeals = 1
	}

	recs := []storage.Recommendation{}
	for _, mealType := range missing {
		var mealCalories, mealProtein int
		if mealType == "snack" {
			mealCalories = int(remainingCalories * 0.15)
			mealProtein = int(remainingProtein * 0.15)
		} else {
			mealCalories = int(remainingCalories / float64(mainMeals))
			mealProtein = int(remainingProtein / float64(mainMeals))
		}
		if mealCalories < 0 {
			mealCalories = 0
		}
		if mealProtein < 0 {
			mealProtein = 0
		}

		content := s.mealSuggestion(ctx, mealType, mealCalories, mealProtein, stringOrDefault(profile.DietaryPreferences, "none"))
		content["meal_type"] = mealType

		timeMinutes := defaultMealTimes[mealType]
		recs = append(recs, storage.Recommendation{
			ID:                        uuid.New(),
			UserID:                    userID,
			RecommendationDate:        targetDate,
			RecommendationTimeMinutes: &timeMinutes,
			Type:                      storage.RecTypeMeal,
			Content:                   content,
			Reasoning:                 fmt.Sprintf("You haven't logged %s yet. Target: %d cal, %dg protein", mealType, mealCalories, mealProtein),
			Priority:                  mealPriority(mealType),
			Status:                    storage.RecPending,
			BasedOnData: map[string]any{
				"logged_calories":    loggedCalories,
				"remaining_calories": remainingCalories,
				"daily_target":       dailyCalories,
			},
			ExpiresAt: endOfDay(targetDate),
		})
	}
	return recs
}

func (s *Service) workoutRecommendations(ctx context.Context, userID string, targetDate time.Time, profile *storage.Profile, loggedActivities []storage.Activity, activeProgram *storage.Program, countdown *events.Countdown) []storage.Recommendation {
	if len(loggedActivities) > 0 {
		return nil
	}

	recs := []storage.Recommendation{}

	if activeProgram != nil && s.programs != nil {
		dayView, err := s.programs.DayByDate(ctx, activeProgram.ID, targetDate)
		if err != nil {
			log.Printf("[Recommendations] program day fetch failed: %v", err)
		}
		if dayView != nil && len(dayView.Workouts) > 0 {
			workout := dayView.Workouts[0]
			content := map[string]any{
				"workout_name":     workout.Name,
				"workout_type":     workout.WorkoutType,
				"duration_minutes": workout.DurationMinutes,
				"exercises":        workout.Exercises,
			}
			reasoning := fmt.Sprintf("Today's scheduled workout from your program: %s", workout.Name)

			var eventPhase string
			if countdown != nil {
				eventPhase = countdown.CurrentTrainingPhase
				if countdown.IsTaperWeek {
					reasoning += " TAPER WEEK - Reduce intensity, focus on recovery!"
					content["note"] = "Taper week: 50-70% normal volume, maintain intensity"
				} else if countdown.IsPeakWeek {
					reasoning += " PEAK WEEK - Time to shine!"
					content["note"] = "Peak week: Quality over quantity"
				}
			}

			timeMinutes := afternoonWorkoutMinutes
			recs = append(recs, storage.Recommendation{
				ID:                        uuid.New(),
				UserID:                    userID,
				RecommendationDate:        targetDate,
				RecommendationTimeMinutes: &timeMinutes,
				Type:                      storage.RecTypeWorkout,
				Content:                   content,
				Reasoning:                 reasoning,
				Priority:                  4,
				Status:                    storage.RecPending,
				BasedOnData: map[string]any{
					"program_id":  activeProgram.ID.String(),
					"program_day": dayView.Day.DayNumber,
					"event_phase": eventPhase,
				},
				ExpiresAt: endOfDay(targetDate),
			})
			return recs
		}
	}

	trainingFrequency := intOr(profile.TrainingFrequency, 3)
	if int(targetDate.Weekday()+6)%7 < trainingFrequency { // Monday-indexed weekday
		timeMinutes := eveningWorkoutMinutes
		recs = append(recs, storage.Recommendation{
			ID:                        uuid.New(),
			UserID:                    userID,
			RecommendationDate:        targetDate,
			RecommendationTimeMinutes: &timeMinutes,
			Type:                      storage.RecTypeWorkout,
			Content: map[string]any{
				"workout_name":     "Suggested Workout",
				"workout_type":     "general",
				"duration_minutes": 45,
				"note":             "Time for your workout! Check your program or log your own activity.",
			},
			Reasoning: fmt.Sprintf("Based on your %dx/week schedule", trainingFrequency),
			Priority:  3,
			Status:    storage.RecPending,
			ExpiresAt: endOfDay(targetDate),
		})
	} else {
		recs = append(recs, storage.Recommendation{
			ID:                 uuid.New(),
			UserID:             userID,
			RecommendationDate: targetDate,
			Type:               storage.RecTypeRest,
			Content: map[string]any{
				"message": "Rest day - focus on recovery and nutrition",
			},
			Reasoning: "Scheduled rest day for optimal recovery",
			Priority:  2,
			Status:    storage.RecPending,
			ExpiresAt: endOfDay(targetDate),
		})
	}
	return recs
}

// mealSuggestion asks the fast structured-output route for a concrete
// meal; on failure it degrades to a generic suggestion.
func (s *Service) mealSuggestion(ctx context.Context, mealType string, targetCalories, targetProtein int, dietaryPreferences string) map[string]any {
	fallback := map[string]any{
		"meal_name":           fmt.Sprintf("Balanced %s", mealType),
		"foods":               []string{"lean protein", "vegetables", "whole grains"},
		"preparation":         "Simple and nutritious",
		"estimated_calories":  targetCalories,
		"estimated_protein_g": targetProtein,
	}

	prompt := fmt.Sprintf(`Suggest a %s with approximately %d calories and %dg protein.

Dietary preferences: %s

Provide a simple, realistic meal suggestion with:
1. Meal name
2. Main foods (3-5 items)
3. Brief preparation note

Format as JSON:
{
    "meal_name": "...",
    "foods": ["food1", "food2", ...],
    "preparation": "...",
    "estimated_calories": %d,
    "estimated_protein_g": %d
}`, mealType, targetCalories, targetProtein, dietaryPreferences, targetCalories, targetProtein)

	completion, err := s.router.Complete(ctx, ai.TaskConfig{
		Type:            ai.TaskStructuredOutput,
		RequiresJSON:    true,
		PrioritizeSpeed: true,
	}, []ai.ChatMessage{
		ai.TextMessage("system", "You are a nutrition expert suggesting healthy meals."),
		ai.TextMessage("user", prompt),
	}, ai.JSONResponse)
	if err != nil {
		log.Printf("[Recommendations] meal suggestion failed: %v", err)
		return fallback
	}

	var content map[string]any
	if err := json.Unmarshal([]byte(completion.Content), &content); err != nil || len(content) == 0 {
		return fallback
	}
	return content
}

// AdjustMacrosForEvent applies the event-phase nutrition strategy to
// the base calorie and carb targets.
func AdjustMacrosForEvent(eventType, phase string, daysUntil int, baseCalories int, baseCarbs float64) (int, float64) {
	calories := baseCalories
	carbs := baseCarbs

	switch {
	case events.EnduranceEventTypes[eventType]:
		switch phase {
		case events.PhaseBuild:
			carbs = baseCarbs * 1.1
		case events.PhasePeak:
			carbs = baseCarbs * 1.2
		case events.PhaseTaper:
			if daysUntil <= 3 {
				// Carb load into the event.
				carbs = baseCarbs * 1.5
				calories = int(float64(baseCalories) * 1.1)
			} else {
				calories = int(float64(baseCalories) * 0.9)
			}
		}

	case events.StrengthEventTypes[eventType]:
		if phase == events.PhaseTaper && daysUntil <= 7 {
			calories = int(float64(baseCalories) * 0.95)
		}

	case events.PhysiqueEventTypes[eventType]:
		switch phase {
		case events.PhaseBuild:
			calories = int(float64(baseCalories) * 1.1)
		case events.PhasePeak:
			calories = int(float64(baseCalories) * 0.85)
			carbs = baseCarbs * 0.8
		case events.PhaseTaper:
			if daysUntil <= 7 {
				if daysUntil <= 2 {
					carbs = baseCarbs * 1.5
				} else {
					carbs = baseCarbs * 0.5
				}
			}
		}
	}

	return calories, carbs
}

// eventReminder emits a countdown notification on milestone days only.
func eventReminder(userID string, targetDate time.Time, event *storage.Event, countdown events.Countdown) *storage.Recommendation {
	if !reminderMilestones[countdown.DaysUntilEvent] {
		return nil
	}

	daysUntil := countdown.DaysUntilEvent
	var priority int
	var message, note string

	switch {
	case daysUntil == 0:
		priority = 5
		message = fmt.Sprintf("TODAY IS THE DAY! %s", event.Name)
		note = "Good luck! Trust your training and execute your plan."
	case daysUntil == 1:
		priority = 5
		message = fmt.Sprintf("TOMORROW: %s", event.Name)
		note = "Final prep day. Rest, hydrate, visualize success."
	case daysUntil <= 7:
		priority = 5
		message = fmt.Sprintf("%d days until %s!", daysUntil, event.Name)
		note = fmt.Sprintf("Taper week - reduce volume, maintain intensity. %s", countdown.CountdownMessage)
	case daysUntil <= 21:
		priority = 4
		message = fmt.Sprintf("%d days until %s!", daysUntil, event.Name)
		note = fmt.Sprintf("Peak phase - time to maximize performance. %s", countdown.CountdownMessage)
	case daysUntil <= 60:
		priority = 3
		message = fmt.Sprintf("%d days until %s!", daysUntil, event.Name)
		note = fmt.Sprintf("Build phase - progressive overload. %s", countdown.CountdownMessage)
	default:
		priority = 2
		message = fmt.Sprintf("%d days until %s!", daysUntil, event.Name)
		note = fmt.Sprintf("Base phase - building foundation. %s", countdown.CountdownMessage)
	}

	timeMinutes := eventReminderMinutes
	return &storage.Recommendation{
		ID:                        uuid.New(),
		UserID:                    userID,
		RecommendationDate:        targetDate,
		RecommendationTimeMinutes: &timeMinutes,
		Type:                      storage.RecTypeEventReminder,
		Content: map[string]any{
			"event_id":       event.ID.String(),
			"event_name":     event.Name,
			"days_until":     daysUntil,
			"training_phase": countdown.CurrentTrainingPhase,
			"message":        message,
			"note":           note,
		},
		Reasoning: fmt.Sprintf("Event countdown: %s in %d days", event.Name, daysUntil),
		Priority:  priority,
		Status:    storage.RecPending,
		BasedOnData: map[string]any{
			"event_id":            event.ID.String(),
			"countdown_milestone": daysUntil,
		},
		ExpiresAt: endOfDay(targetDate),
	}
}

func matchesLog(rec storage.Recommendation, logType string, logData map[string]any) bool {
	switch {
	case rec.Type == storage.RecTypeMeal && logType == "meal":
		recMealType, _ := rec.Content["meal_type"].(string)
		logMealType, _ := logData["category"].(string)
		if logMealType == "" {
			logMealType, _ = logData["meal_type"].(string)
		}
		return recMealType != "" && recMealType == logMealType
	case rec.Type == storage.RecTypeWorkout && (logType == "workout" || logType == "activity"):
		return true
	}
	return false
}

func mealPriority(mealType string) int {
	switch mealType {
	case "breakfast":
		return 5
	case "lunch", "dinner":
		return 4
	case "snack":
		return 2
	default:
		return 3
	}
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, time.UTC)
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func floatOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func stringOrDefault(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
