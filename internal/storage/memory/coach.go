package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) CreateConversation(ctx context.Context, conversation *storage.CoachConversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now().UTC()
	}
	copied := *conversation
	m.conversations[conversation.ID] = &copied
	return nil
}

func (m *MemoryStorage) GetConversation(ctx context.Context, conversationID uuid.UUID) (*storage.CoachConversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conversation, ok := m.conversations[conversationID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *conversation
	return &copied, nil
}

func (m *MemoryStorage) GetOrCreateActiveConversation(ctx context.Context, userID string) (*storage.CoachConversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *storage.CoachConversation
	for _, conversation := range m.conversations {
		if conversation.UserID != userID {
			continue
		}
		if latest == nil || conversation.CreatedAt.After(latest.CreatedAt) {
			latest = conversation
		}
	}
	if latest != nil {
		copied := *latest
		return &copied, nil
	}

	conversation := &storage.CoachConversation{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	m.conversations[conversation.ID] = conversation
	copied := *conversation
	return &copied, nil
}

func (m *MemoryStorage) UpdateConversation(ctx context.Context, conversation *storage.CoachConversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conversation.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *conversation
	m.conversations[conversation.ID] = &copied
	return nil
}

func (m *MemoryStorage) AppendCoachMessage(ctx context.Context, message *storage.CoachMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	m.coachMessages = append(m.coachMessages, *message)
	return nil
}

func (m *MemoryStorage) ListCoachMessages(ctx context.Context, conversationID uuid.UUID, tail int) ([]storage.CoachMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.CoachMessage{}
	for _, message := range m.coachMessages {
		if message.ConversationID == conversationID {
			out = append(out, message)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if tail > 0 && len(out) > tail {
		out = out[len(out)-tail:]
	}
	return out, nil
}

func (m *MemoryStorage) MarkMessageVectorized(ctx context.Context, messageID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.coachMessages {
		if m.coachMessages[i].ID == messageID {
			m.coachMessages[i].IsVectorized = true
			return nil
		}
	}
	return storage.ErrNotFound
}
