package memory

import (
	"context"
	"sort"
	"time"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) GetProfile(ctx context.Context, userID string) (*storage.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (m *MemoryStorage) UpsertProfile(ctx context.Context, profile *storage.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	copied := *profile
	m.profiles[profile.UserID] = &copied
	return nil
}

func (m *MemoryStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.profiles))
	for id := range m.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
