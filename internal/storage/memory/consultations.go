package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) CreateSession(ctx context.Context, session *storage.ConsultationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.Status == storage.SessionActive {
		for _, existing := range m.sessions {
			if existing.UserID == session.UserID &&
				existing.SpecialistType == session.SpecialistType &&
				existing.Status == storage.SessionActive {
				return storage.ErrActiveSessionExists
			}
		}
	}

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MemoryStorage) GetSession(ctx context.Context, sessionID uuid.UUID) (*storage.ConsultationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *MemoryStorage) GetActiveSession(ctx context.Context, userID, specialistType string) (*storage.ConsultationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.sessions {
		if session.UserID == userID && session.Status == storage.SessionActive &&
			(specialistType == "" || session.SpecialistType == specialistType) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MemoryStorage) UpdateSession(ctx context.Context, session *storage.ConsultationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MemoryStorage) HasCompletedSession(ctx context.Context, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.sessions {
		if session.UserID == userID && session.Status == storage.SessionCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStorage) AppendConsultationMessage(ctx context.Context, message *storage.ConsultationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	m.consMessages = append(m.consMessages, *message)
	return nil
}

func (m *MemoryStorage) ListConsultationMessages(ctx context.Context, sessionID uuid.UUID, tail int) ([]storage.ConsultationMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.ConsultationMessage{}
	for _, message := range m.consMessages {
		if message.SessionID == sessionID {
			out = append(out, message)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if tail > 0 && len(out) > tail {
		out = out[len(out)-tail:]
	}
	return out, nil
}

func (m *MemoryStorage) InsertExtraction(ctx context.Context, extraction *storage.ConsultationExtraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if extraction.ID == uuid.Nil {
		extraction.ID = uuid.New()
	}
	if extraction.CreatedAt.IsZero() {
		extraction.CreatedAt = time.Now().UTC()
	}
	m.extractions = append(m.extractions, *extraction)
	return nil
}

func (m *MemoryStorage) ListExtractions(ctx context.Context, sessionID uuid.UUID) ([]storage.ConsultationExtraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.ConsultationExtraction{}
	for _, extraction := range m.extractions {
		if extraction.SessionID == sessionID {
			out = append(out, extraction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStorage) ListUserExtractions(ctx context.Context, userID, category string) ([]storage.ConsultationExtraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.ConsultationExtraction{}
	for _, extraction := range m.extractions {
		if extraction.UserID == userID && (category == "" || extraction.Category == category) {
			out = append(out, extraction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStorage) ListCompletedSessions(ctx context.Context, userID string, limit int) ([]storage.ConsultationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.ConsultationSession{}
	for _, session := range m.sessions {
		if session.UserID == userID && session.Status == storage.SessionCompleted {
			out = append(out, *session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if out[i].CompletedAt != nil {
			ti = *out[i].CompletedAt
		}
		if out[j].CompletedAt != nil {
			tj = *out[j].CompletedAt
		}
		return ti.After(tj)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
