package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/renatodap/fitness-backend/internal/storage"
)

const conversationColumns = `id, user_id, title, message_count, last_message_at, summary, created_at`

func scanConversation(row interface{ Scan(...any) error }) (*storage.CoachConversation, error) {
	var conversation storage.CoachConversation
	err := row.Scan(
		&conversation.ID, &conversation.UserID, &conversation.Title, &conversation.MessageCount,
		&conversation.LastMessageAt, &conversation.Summary, &conversation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (p *PostgresStorage) CreateConversation(ctx context.Context, conversation *storage.CoachConversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO coach_conversations (id, user_id, title, message_count, last_message_at, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		conversation.ID, conversation.UserID, conversation.Title, conversation.MessageCount,
		conversation.LastMessageAt, conversation.Summary,
	)
	return err
}

func (p *PostgresStorage) GetConversation(ctx context.Context, conversationID uuid.UUID) (*storage.CoachConversation, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM coach_conversations WHERE id = $1`, conversationID)
	conversation, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return conversation, err
}

func (p *PostgresStorage) GetOrCreateActiveConversation(ctx context.Context, userID string) (*storage.CoachConversation, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+` FROM coach_conversations
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	conversation, err := scanConversation(row)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	created := &storage.CoachConversation{ID: uuid.New(), UserID: userID}
	if err := p.CreateConversation(ctx, created); err != nil {
		return nil, err
	}
	return p.GetConversation(ctx, created.ID)
}

func (p *PostgresStorage) UpdateConversation(ctx context.Context, conversation *storage.CoachConversation) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE coach_conversations SET
			title = $2, message_count = $3, last_message_at = $4, summary = $5
		WHERE id = $1`,
		conversation.ID, conversation.Title, conversation.MessageCount,
		conversation.LastMessageAt, conversation.Summary,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) AppendCoachMessage(ctx context.Context, message *storage.CoachMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO coach_messages (id, conversation_id, user_id, role, content, is_vectorized, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		message.ID, message.ConversationID, message.UserID, message.Role, message.Content, message.IsVectorized,
	)
	return err
}

func (p *PostgresStorage) ListCoachMessages(ctx context.Context, conversationID uuid.UUID, tail int) ([]storage.CoachMessage, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, user_id, role, content, is_vectorized, created_at
		FROM coach_messages WHERE conversation_id = $1 ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []storage.CoachMessage{}
	for rows.Next() {
		var message storage.CoachMessage
		if err := rows.Scan(&message.ID, &message.ConversationID, &message.UserID, &message.Role, &message.Content, &message.IsVectorized, &message.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if tail > 0 && len(messages) > tail {
		messages = messages[len(messages)-tail:]
	}
	return messages, nil
}

func (p *PostgresStorage) MarkMessageVectorized(ctx context.Context, messageID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `UPDATE coach_messages SET is_vectorized = TRUE WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
