// Package memory provides the in-memory Store implementation used for
// local development and handler tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

// MemoryStorage keeps every entity family in process memory behind one
// mutex. Methods copy rows on the way out so callers cannot mutate state.
type MemoryStorage struct {
	mu sync.RWMutex

	profiles map[string]*storage.Profile

	meals        []storage.Meal
	activities   []storage.Activity
	workouts     []storage.Workout
	notes        []storage.Note
	measurements []storage.Measurement

	embeddings    []storage.Embedding
	embeddingJobs map[uuid.UUID]*storage.EmbeddingJob

	sessions     map[uuid.UUID]*storage.ConsultationSession
	consMessages []storage.ConsultationMessage
	extractions  []storage.ConsultationExtraction

	events map[uuid.UUID]*storage.Event

	programs        map[uuid.UUID]*storage.Program
	programDays     []storage.ProgramDay
	plannedMeals    map[uuid.UUID]*storage.PlannedMeal
	plannedWorkouts map[uuid.UUID]*storage.PlannedWorkout

	recommendations map[uuid.UUID]*storage.Recommendation

	conversations map[uuid.UUID]*storage.CoachConversation
	coachMessages []storage.CoachMessage

	summaries []storage.Summary
}

func New() *MemoryStorage {
	return &MemoryStorage{
		profiles:        make(map[string]*storage.Profile),
		embeddingJobs:   make(map[uuid.UUID]*storage.EmbeddingJob),
		sessions:        make(map[uuid.UUID]*storage.ConsultationSession),
		events:          make(map[uuid.UUID]*storage.Event),
		programs:        make(map[uuid.UUID]*storage.Program),
		plannedMeals:    make(map[uuid.UUID]*storage.PlannedMeal),
		plannedWorkouts: make(map[uuid.UUID]*storage.PlannedWorkout),
		recommendations: make(map[uuid.UUID]*storage.Recommendation),
		conversations:   make(map[uuid.UUID]*storage.CoachConversation),
	}
}

func (m *MemoryStorage) Close() error { return nil }
