package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) InsertRecommendation(ctx context.Context, rec *storage.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	copied := *rec
	m.recommendations[rec.ID] = &copied
	return nil
}

func (m *MemoryStorage) ListRecommendations(ctx context.Context, userID string, date time.Time, statuses []string) ([]storage.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	day := date.UTC().Truncate(24 * time.Hour)
	out := []storage.Recommendation{}
	for _, rec := range m.recommendations {
		if rec.UserID != userID {
			continue
		}
		if !rec.RecommendationDate.UTC().Truncate(24 * time.Hour).Equal(day) {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, rec.Status) {
			continue
		}
		out = append(out, *rec)
	}

	// Priority descending, then time-of-day ascending; untimed rows last.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		ti, tj := timeOrLast(out[i].RecommendationTimeMinutes), timeOrLast(out[j].RecommendationTimeMinutes)
		return ti < tj
	})
	return out, nil
}

func (m *MemoryStorage) UpdateRecommendationStatus(ctx context.Context, recID uuid.UUID, userID, status string, feedback *string, rating *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recommendations[recID]
	if !ok || rec.UserID != userID {
		return storage.ErrNotFound
	}
	if storage.IsTerminalRecStatus(rec.Status) {
		return storage.ErrTerminalStatus
	}

	rec.Status = status
	if status == storage.RecCompleted {
		now := time.Now().UTC()
		rec.CompletedAt = &now
	}
	if feedback != nil {
		rec.Feedback = feedback
	}
	if rating != nil {
		rec.FeedbackRating = rating
	}
	return nil
}

func (m *MemoryStorage) ExpireRecommendationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for _, rec := range m.recommendations {
		if storage.IsTerminalRecStatus(rec.Status) {
			continue
		}
		if rec.ExpiresAt.Before(cutoff) {
			rec.Status = storage.RecExpired
			expired++
		}
	}
	return expired, nil
}

func timeOrLast(minutes *int) int {
	if minutes == nil {
		return 24*60 + 1
	}
	return *minutes
}
