package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrActiveSessionExists enforces at most one active consultation per
	// (user, specialist) pair at the store layer.
	ErrActiveSessionExists = errors.New("active session already exists")
	// ErrPrimaryEventExists enforces at most one primary-goal event per user.
	ErrPrimaryEventExists = errors.New("primary event already exists")
	// ErrTerminalStatus is returned when updating a recommendation whose
	// status is already completed, rejected, or expired.
	ErrTerminalStatus = errors.New("recommendation status is terminal")
)

// ProfileStore reads and writes per-user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
	ListUserIDs(ctx context.Context) ([]string, error)
}

// EntryStore persists the five typed log variants.
type EntryStore interface {
	InsertMeal(ctx context.Context, meal *Meal) error
	ListMealsBetween(ctx context.Context, userID string, from, to time.Time) ([]Meal, error)

	InsertActivity(ctx context.Context, activity *Activity) error
	ListActivitiesBetween(ctx context.Context, userID string, from, to time.Time) ([]Activity, error)
	// ListActivitiesSince filters by activity type when activityType != "".
	ListActivitiesSince(ctx context.Context, userID, activityType string, since time.Time, limit int) ([]Activity, error)

	InsertWorkout(ctx context.Context, workout *Workout) error
	ListWorkoutsSince(ctx context.Context, userID string, since time.Time, limit int) ([]Workout, error)

	InsertNote(ctx context.Context, note *Note) error
	InsertMeasurement(ctx context.Context, measurement *Measurement) error
}

// EmbeddingStore is the unified multimodal vector store plus the
// server-side embedding queue drained by the background worker.
type EmbeddingStore interface {
	InsertEmbedding(ctx context.Context, embedding *Embedding) error
	SearchEmbeddings(ctx context.Context, search EmbeddingSearch) ([]EmbeddingMatch, error)
	DeleteEmbeddingsOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	EnqueueEmbeddingJob(ctx context.Context, job *EmbeddingJob) error
	ListPendingEmbeddingJobs(ctx context.Context, limit int) ([]EmbeddingJob, error)
	ResolveEmbeddingJob(ctx context.Context, jobID uuid.UUID, jobErr error) error
}

// ConsultationStore persists dialogue sessions, ordered messages, and
// append-only extractions.
type ConsultationStore interface {
	CreateSession(ctx context.Context, session *ConsultationSession) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*ConsultationSession, error)
	GetActiveSession(ctx context.Context, userID, specialistType string) (*ConsultationSession, error)
	UpdateSession(ctx context.Context, session *ConsultationSession) error
	HasCompletedSession(ctx context.Context, userID string) (bool, error)

	AppendConsultationMessage(ctx context.Context, message *ConsultationMessage) error
	// ListConsultationMessages returns messages ordered by created_at. A
	// positive tail returns only the last tail messages.
	ListConsultationMessages(ctx context.Context, sessionID uuid.UUID, tail int) ([]ConsultationMessage, error)

	InsertExtraction(ctx context.Context, extraction *ConsultationExtraction) error
	ListExtractions(ctx context.Context, sessionID uuid.UUID) ([]ConsultationExtraction, error)
	ListUserExtractions(ctx context.Context, userID, category string) ([]ConsultationExtraction, error)
	ListCompletedSessions(ctx context.Context, userID string, limit int) ([]ConsultationSession, error)
}

// EventStore persists user events with their milestone dates.
type EventStore interface {
	InsertEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error)
	UpdateEvent(ctx context.Context, event *Event) error
	ListUpcomingEvents(ctx context.Context, userID string, until time.Time) ([]Event, error)
	GetPrimaryEvent(ctx context.Context, userID string) (*Event, error)
}

// ProgramStore persists generated programs with their day plans.
type ProgramStore interface {
	InsertProgram(ctx context.Context, program *Program, days []ProgramDay, meals []PlannedMeal, workouts []PlannedWorkout) error
	GetActiveProgram(ctx context.Context, userID string) (*Program, error)
	GetProgramDayByDate(ctx context.Context, programID uuid.UUID, date time.Time) (*ProgramDay, error)
	GetProgramDayByNumber(ctx context.Context, programID uuid.UUID, dayNumber int) (*ProgramDay, error)
	ListProgramDays(ctx context.Context, programID uuid.UUID) ([]ProgramDay, error)
	ListPlannedMeals(ctx context.Context, dayID uuid.UUID) ([]PlannedMeal, error)
	ListPlannedWorkouts(ctx context.Context, dayID uuid.UUID) ([]PlannedWorkout, error)
	SetPlannedMealCompleted(ctx context.Context, mealID uuid.UUID, completed bool) error
	SetPlannedWorkoutCompleted(ctx context.Context, workoutID uuid.UUID, completed bool) error
	UpdateProgramStatus(ctx context.Context, programID uuid.UUID, status string) error
}

// RecommendationStore persists daily recommendations.
type RecommendationStore interface {
	InsertRecommendation(ctx context.Context, rec *Recommendation) error
	// ListRecommendations filters by statuses when non-empty, ordered by
	// priority descending then time ascending.
	ListRecommendations(ctx context.Context, userID string, date time.Time, statuses []string) ([]Recommendation, error)
	// UpdateRecommendationStatus returns ErrTerminalStatus when the row is
	// already in a terminal state.
	UpdateRecommendationStatus(ctx context.Context, recID uuid.UUID, userID, status string, feedback *string, rating *int) error
	ExpireRecommendationsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// CoachStore persists coach chat conversations.
type CoachStore interface {
	CreateConversation(ctx context.Context, conversation *CoachConversation) error
	GetConversation(ctx context.Context, conversationID uuid.UUID) (*CoachConversation, error)
	GetOrCreateActiveConversation(ctx context.Context, userID string) (*CoachConversation, error)
	UpdateConversation(ctx context.Context, conversation *CoachConversation) error
	AppendCoachMessage(ctx context.Context, message *CoachMessage) error
	ListCoachMessages(ctx context.Context, conversationID uuid.UUID, tail int) ([]CoachMessage, error)
	MarkMessageVectorized(ctx context.Context, messageID uuid.UUID) error
}

// SummaryStore persists periodic aggregation summaries.
type SummaryStore interface {
	UpsertSummary(ctx context.Context, summary *Summary) error
	ListSummaries(ctx context.Context, userID string, limit int) ([]Summary, error)
}

// Store aggregates every store the core depends on. The postgres and
// memory implementations both satisfy it.
type Store interface {
	ProfileStore
	EntryStore
	EmbeddingStore
	ConsultationStore
	EventStore
	ProgramStore
	RecommendationStore
	CoachStore
	SummaryStore

	Close() error
}
