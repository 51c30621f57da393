package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) InsertEvent(ctx context.Context, event *storage.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.IsPrimaryGoal {
		for _, existing := range m.events {
			if existing.UserID == event.UserID && existing.IsPrimaryGoal &&
				existing.Status != storage.EventCompleted && existing.Status != storage.EventAbandoned {
				return storage.ErrPrimaryEventExists
			}
		}
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *MemoryStorage) GetEvent(ctx context.Context, eventID uuid.UUID) (*storage.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event, ok := m.events[eventID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *MemoryStorage) UpdateEvent(ctx context.Context, event *storage.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[event.ID]; !ok {
		return storage.ErrNotFound
	}
	if event.IsPrimaryGoal {
		for id, existing := range m.events {
			if id != event.ID && existing.UserID == event.UserID && existing.IsPrimaryGoal &&
				existing.Status != storage.EventCompleted && existing.Status != storage.EventAbandoned {
				return storage.ErrPrimaryEventExists
			}
		}
	}
	event.UpdatedAt = time.Now().UTC()
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *MemoryStorage) ListUpcomingEvents(ctx context.Context, userID string, until time.Time) ([]storage.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now().UTC().Truncate(24 * time.Hour)
	out := []storage.Event{}
	for _, event := range m.events {
		if event.UserID != userID {
			continue
		}
		if event.Status == storage.EventCompleted || event.Status == storage.EventAbandoned {
			continue
		}
		if event.Date.Before(now) || event.Date.After(until) {
			continue
		}
		out = append(out, *event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryStorage) GetPrimaryEvent(ctx context.Context, userID string) (*storage.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, event := range m.events {
		if event.UserID == userID && event.IsPrimaryGoal &&
			event.Status != storage.EventCompleted && event.Status != storage.EventAbandoned {
			copied := *event
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}
