package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/storage"
)

type Service struct {
	store storage.Store
	now   func() time.Time
}

func NewService(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceWithClock injects a clock for tests.
func NewServiceWithClock(store storage.Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// CreateParams are the inputs for a new event.
type CreateParams struct {
	Name              string
	Type              string
	Date              time.Time
	TrainingStartDate *time.Time
	IsPrimaryGoal     bool
	GoalPerformance   *string
	Location          *string
}

// Create validates the event type, fills milestone dates from the
// periodization template, and persists the event.
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (*storage.Event, error) {
	if !ValidEventTypes[params.Type] {
		return nil, apierr.New(apierr.InvalidInput, fmt.Sprintf("invalid event_type: %s", params.Type))
	}

	template := TemplateFor(params.Type)
	eventDate := midnightUTC(params.Date)

	trainingStart := params.TrainingStartDate
	if trainingStart == nil {
		derived := eventDate.AddDate(0, 0, -7*template.TrainingWeeks)
		trainingStart = &derived
	}

	peakWeek := eventDate.AddDate(0, 0, template.PeakWeekOffset-7*template.TaperWeeks)
	taperStart := eventDate.AddDate(0, 0, -7*template.TaperWeeks)

	// Milestones must stay ordered even for events created on short notice.
	if peakWeek.Before(*trainingStart) {
		peakWeek = *trainingStart
	}
	if taperStart.Before(peakWeek) {
		taperStart = peakWeek
	}

	event := &storage.Event{
		ID:                uuid.New(),
		UserID:            userID,
		Name:              params.Name,
		Type:              params.Type,
		Date:              eventDate,
		TrainingStartDate: trainingStart,
		PeakWeekDate:      &peakWeek,
		TaperStartDate:    &taperStart,
		IsPrimaryGoal:     params.IsPrimaryGoal,
		Status:            storage.EventUpcoming,
		GoalPerformance:   params.GoalPerformance,
		Location:          params.Location,
	}

	if err := s.store.InsertEvent(ctx, event); err != nil {
		if errors.Is(err, storage.ErrPrimaryEventExists) {
			return nil, apierr.New(apierr.PreconditionFailed, "another event is already the primary goal")
		}
		return nil, err
	}
	return event, nil
}

// Countdown is the derived per-day view of an event.
type Countdown struct {
	EventID                 uuid.UUID `json:"event_id"`
	EventName               string    `json:"event_name"`
	EventType               string    `json:"event_type"`
	DaysUntilEvent          int       `json:"days_until_event"`
	CurrentTrainingPhase    string    `json:"current_training_phase"`
	PhaseProgressPercentage float64   `json:"phase_progress_percentage"`
	IsTaperWeek             bool      `json:"is_taper_week"`
	IsPeakWeek              bool      `json:"is_peak_week"`
	CountdownMessage        string    `json:"countdown_message"`
}

// CountdownFor derives phase and countdown for an event at a date.
func CountdownFor(event *storage.Event, today time.Time) Countdown {
	today = midnightUTC(today)
	daysUntil := int(event.Date.Sub(today).Hours() / 24)

	phase, phaseStart, phaseEnd := currentPhase(event, today)

	var progress float64
	if totalDays := phaseEnd.Sub(phaseStart).Hours() / 24; totalDays > 0 {
		elapsed := today.Sub(phaseStart).Hours() / 24
		progress = elapsed / totalDays * 100
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
	}

	return Countdown{
		EventID:                 event.ID,
		EventName:               event.Name,
		EventType:               event.Type,
		DaysUntilEvent:          daysUntil,
		CurrentTrainingPhase:    phase,
		PhaseProgressPercentage: round1(progress),
		IsTaperWeek:             phase == PhaseTaper,
		IsPeakWeek:              phase == PhasePeak,
		CountdownMessage:        countdownMessage(daysUntil, phase),
	}
}

// currentPhase derives the training phase from the milestone dates:
// taper from taper_start_date, peak from peak_week_date, build from
// training_start_date, pre_training before that.
func currentPhase(event *storage.Event, today time.Time) (phase string, start, end time.Time) {
	trainingStart := event.Date
	if event.TrainingStartDate != nil {
		trainingStart = *event.TrainingStartDate
	}
	peakWeek := event.Date
	if event.PeakWeekDate != nil {
		peakWeek = *event.PeakWeekDate
	}
	taperStart := event.Date
	if event.TaperStartDate != nil {
		taperStart = *event.TaperStartDate
	}

	switch {
	case !today.Before(taperStart):
		return PhaseTaper, taperStart, event.Date
	case !today.Before(peakWeek):
		return PhasePeak, peakWeek, taperStart
	case !today.Before(trainingStart):
		return PhaseBuild, trainingStart, peakWeek
	default:
		return PhasePreTraining, today, trainingStart
	}
}

func countdownMessage(daysUntil int, phase string) string {
	switch {
	case daysUntil < 0:
		return "Event has passed"
	case daysUntil == 0:
		return "TODAY IS THE DAY!"
	case daysUntil == 1:
		return "1 day until event!"
	case daysUntil < 7:
		return fmt.Sprintf("%d days until event!", daysUntil)
	case daysUntil < 14:
		weeks := daysUntil / 7
		extraDays := daysUntil % 7
		if extraDays == 0 {
			return fmt.Sprintf("%d week%s until event", weeks, plural(weeks))
		}
		return fmt.Sprintf("%d week%s and %d day%s until event", weeks, plural(weeks), extraDays, plural(extraDays))
	default:
		return fmt.Sprintf("%d weeks until event (%s phase)", daysUntil/7, phase)
	}
}

// GetPrimaryCountdown returns the primary event with its countdown, or
// nil when the user has none.
func (s *Service) GetPrimaryCountdown(ctx context.Context, userID string) (*storage.Event, *Countdown, error) {
	event, err := s.store.GetPrimaryEvent(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	countdown := CountdownFor(event, s.now().UTC())
	return event, &countdown, nil
}

// ListUpcoming returns events within the next daysAhead days.
func (s *Service) ListUpcoming(ctx context.Context, userID string, daysAhead int) ([]storage.Event, error) {
	until := midnightUTC(s.now().UTC()).AddDate(0, 0, daysAhead)
	return s.store.ListUpcomingEvents(ctx, userID, until)
}

// Complete marks an event completed.
func (s *Service) Complete(ctx context.Context, userID string, eventID uuid.UUID) (*storage.Event, error) {
	return s.transition(ctx, userID, eventID, storage.EventCompleted)
}

// Abandon marks an event abandoned.
func (s *Service) Abandon(ctx context.Context, userID string, eventID uuid.UUID) (*storage.Event, error) {
	return s.transition(ctx, userID, eventID, storage.EventAbandoned)
}

func (s *Service) transition(ctx context.Context, userID string, eventID uuid.UUID, status string) (*storage.Event, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.New(apierr.NotFound, "event not found")
	}
	if err != nil {
		return nil, err
	}
	if event.UserID != userID {
		return nil, apierr.New(apierr.NotFound, "event not found")
	}

	event.Status = status
	// A finished event releases the primary-goal slot.
	event.IsPrimaryGoal = false
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
