package events

import (
	"context"
	"testing"
	"time"

	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/storage/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testEvent(eventDate time.Time) *storage.Event {
	trainingStart := eventDate.AddDate(0, 0, -16*7)
	peakWeek := eventDate.AddDate(0, 0, -21)
	taperStart := eventDate.AddDate(0, 0, -14)
	return &storage.Event{
		UserID:            "u1",
		Name:              "City Marathon",
		Type:              "marathon",
		Date:              eventDate,
		TrainingStartDate: &trainingStart,
		PeakWeekDate:      &peakWeek,
		TaperStartDate:    &taperStart,
		Status:            storage.EventUpcoming,
	}
}

func TestPhaseDerivation(t *testing.T) {
	eventDate := date(2025, 10, 12)
	event := testEvent(eventDate)

	cases := []struct {
		today time.Time
		phase string
	}{
		{eventDate.AddDate(0, 0, -200), PhasePreTraining},
		{eventDate.AddDate(0, 0, -100), PhaseBuild},
		{eventDate.AddDate(0, 0, -20), PhasePeak},
		{eventDate.AddDate(0, 0, -10), PhaseTaper},
		{eventDate, PhaseTaper},
	}

	for _, tc := range cases {
		countdown := CountdownFor(event, tc.today)
		if countdown.CurrentTrainingPhase != tc.phase {
			t.Errorf("today %s: expected phase %s, got %s",
				tc.today.Format("2006-01-02"), tc.phase, countdown.CurrentTrainingPhase)
		}
	}
}

func TestCountdownOnEventDay(t *testing.T) {
	eventDate := date(2025, 10, 12)
	countdown := CountdownFor(testEvent(eventDate), eventDate)

	if countdown.DaysUntilEvent != 0 {
		t.Errorf("expected days_until=0, got %d", countdown.DaysUntilEvent)
	}
	if countdown.CurrentTrainingPhase != PhaseTaper {
		t.Errorf("expected taper phase, got %s", countdown.CurrentTrainingPhase)
	}
	if countdown.CountdownMessage != "TODAY IS THE DAY!" {
		t.Errorf("expected TODAY IS THE DAY!, got %q", countdown.CountdownMessage)
	}
	if !countdown.IsTaperWeek {
		t.Error("expected taper week flag")
	}
}

func TestCountdownMessages(t *testing.T) {
	eventDate := date(2025, 10, 12)
	event := testEvent(eventDate)

	cases := []struct {
		daysBefore int
		message    string
	}{
		{1, "1 day until event!"},
		{5, "5 days until event!"},
		{7, "1 week until event"},
		{10, "1 week and 3 days until event"},
	}
	for _, tc := range cases {
		countdown := CountdownFor(event, eventDate.AddDate(0, 0, -tc.daysBefore))
		if countdown.CountdownMessage != tc.message {
			t.Errorf("%d days before: expected %q, got %q", tc.daysBefore, tc.message, countdown.CountdownMessage)
		}
	}
}

func TestCreateFillsMilestonesFromTemplate(t *testing.T) {
	store := memory.New()
	now := date(2025, 1, 1)
	service := NewServiceWithClock(store, func() time.Time { return now })

	eventDate := date(2025, 10, 12)
	event, err := service.Create(context.Background(), "u1", CreateParams{
		Name: "City Marathon",
		Type: "marathon",
		Date: eventDate,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// marathon template: 16 training weeks, 2 taper weeks, peak offset -7.
	if got := *event.TrainingStartDate; !got.Equal(eventDate.AddDate(0, 0, -16*7)) {
		t.Errorf("unexpected training start: %s", got)
	}
	if got := *event.TaperStartDate; !got.Equal(eventDate.AddDate(0, 0, -14)) {
		t.Errorf("unexpected taper start: %s", got)
	}
	if got := *event.PeakWeekDate; !got.Equal(eventDate.AddDate(0, 0, -21)) {
		t.Errorf("unexpected peak week: %s", got)
	}

	// Milestone ordering invariant.
	if event.TrainingStartDate.After(*event.PeakWeekDate) ||
		event.PeakWeekDate.After(*event.TaperStartDate) ||
		event.TaperStartDate.After(event.Date) {
		t.Error("milestone dates out of order")
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	service := NewService(memory.New())
	_, err := service.Create(context.Background(), "u1", CreateParams{
		Name: "Mystery",
		Type: "underwater_basket_weaving",
		Date: date(2025, 10, 12),
	})
	if err == nil {
		t.Fatal("expected invalid event type to be rejected")
	}
}

func TestSecondPrimaryGoalRejected(t *testing.T) {
	store := memory.New()
	service := NewService(store)

	if _, err := service.Create(context.Background(), "u1", CreateParams{
		Name: "A", Type: "marathon", Date: date(2026, 5, 1), IsPrimaryGoal: true,
	}); err != nil {
		t.Fatalf("first primary event failed: %v", err)
	}

	_, err := service.Create(context.Background(), "u1", CreateParams{
		Name: "B", Type: "triathlon", Date: date(2026, 8, 1), IsPrimaryGoal: true,
	})
	if err == nil {
		t.Fatal("second primary event must be rejected")
	}
}

func TestCompleteReleasesPrimarySlot(t *testing.T) {
	store := memory.New()
	service := NewService(store)

	first, err := service.Create(context.Background(), "u1", CreateParams{
		Name: "A", Type: "marathon", Date: date(2026, 5, 1), IsPrimaryGoal: true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := service.Complete(context.Background(), "u1", first.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if _, err := service.Create(context.Background(), "u1", CreateParams{
		Name: "B", Type: "triathlon", Date: date(2026, 8, 1), IsPrimaryGoal: true,
	}); err != nil {
		t.Fatalf("new primary should be allowed after completion: %v", err)
	}
}
