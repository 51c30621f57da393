package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) UpsertSummary(ctx context.Context, summary *storage.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for i := range m.summaries {
		existing := &m.summaries[i]
		if existing.UserID == summary.UserID &&
			existing.PeriodType == summary.PeriodType &&
			existing.PeriodStart.Equal(summary.PeriodStart) {
			summary.ID = existing.ID
			summary.CreatedAt = existing.CreatedAt
			summary.UpdatedAt = now
			m.summaries[i] = *summary
			return nil
		}
	}

	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	summary.CreatedAt = now
	summary.UpdatedAt = now
	m.summaries = append(m.summaries, *summary)
	return nil
}

func (m *MemoryStorage) ListSummaries(ctx context.Context, userID string, limit int) ([]storage.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.Summary{}
	for _, summary := range m.summaries {
		if summary.UserID == userID {
			out = append(out, summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.After(out[j].PeriodStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
