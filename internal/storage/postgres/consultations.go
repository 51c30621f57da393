package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/renatodap/fitness-backend/internal/storage"
)

const sessionColumns = `
	id, user_id, specialist_type, status, conversation_stage, stages,
	stage_index, progress_percentage, total_messages, session_metadata,
	created_at, completed_at
`

func scanSession(row interface{ Scan(...any) error }) (*storage.ConsultationSession, error) {
	var session storage.ConsultationSession
	var metadata []byte
	err := row.Scan(
		&session.ID, &session.UserID, &session.SpecialistType, &session.Status, &session.ConversationStage,
		&session.Stages, &session.StageIndex, &session.ProgressPercentage, &session.TotalMessages,
		&metadata, &session.CreatedAt, &session.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metadata, &session.SessionMetadata); err != nil {
		return nil, err
	}
	return &session, nil
}

func (p *PostgresStorage) CreateSession(ctx context.Context, session *storage.ConsultationSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	metadata, err := marshalJSON(session.SessionMetadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO consultation_sessions (
			id, user_id, specialist_type, status, conversation_stage, stages,
			stage_index, progress_percentage, total_messages, session_metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`

	_, err = p.pool.Exec(ctx, query,
		session.ID, session.UserID, session.SpecialistType, session.Status, session.ConversationStage,
		session.Stages, session.StageIndex, session.ProgressPercentage, session.TotalMessages, metadata,
	)
	// The partial unique index on (user_id, specialist_type) WHERE
	// status = 'active' backs the single-active-session invariant.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrActiveSessionExists
	}
	return err
}

func (p *PostgresStorage) GetSession(ctx context.Context, sessionID uuid.UUID) (*storage.ConsultationSession, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM consultation_sessions WHERE id = $1`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return session, err
}

func (p *PostgresStorage) GetActiveSession(ctx context.Context, userID, specialistType string) (*storage.ConsultationSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consultation_sessions
		WHERE user_id = $1 AND status = 'active' AND ($2 = '' OR specialist_type = $2)
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := p.pool.QueryRow(ctx, query, userID, specialistType)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return session, err
}

func (p *PostgresStorage) UpdateSession(ctx context.Context, session *storage.ConsultationSession) error {
	metadata, err := marshalJSON(session.SessionMetadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE consultation_sessions SET
			status = $2,
			conversation_stage = $3,
			stage_index = $4,
			progress_percentage = $5,
			total_messages = $6,
			session_metadata = $7,
			completed_at = $8
		WHERE id = $1
	`

	tag, err := p.pool.Exec(ctx, query,
		session.ID, session.Status, session.ConversationStage, session.StageIndex,
		session.ProgressPercentage, session.TotalMessages, metadata, session.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) HasCompletedSession(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM consultation_sessions WHERE user_id = $1 AND status = 'completed')`,
		userID).Scan(&exists)
	return exists, err
}

func (p *PostgresStorage) AppendConsultationMessage(ctx context.Context, message *storage.ConsultationMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}

	query := `
		INSERT INTO consultation_messages (id, session_id, user_id, role, content, tokens_used, cost_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := p.pool.Exec(ctx, query,
		message.ID, message.SessionID, message.UserID, message.Role, message.Content,
		message.TokensUsed, message.CostUSD,
	)
	return err
}

func (p *PostgresStorage) ListConsultationMessages(ctx context.Context, sessionID uuid.UUID, tail int) ([]storage.ConsultationMessage, error) {
	query := `
		SELECT id, session_id, user_id, role, content, tokens_used, cost_usd, created_at
		FROM consultation_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := p.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []storage.ConsultationMessage{}
	for rows.Next() {
		var message storage.ConsultationMessage
		if err := rows.Scan(
			&message.ID, &message.SessionID, &message.UserID, &message.Role, &message.Content,
			&message.TokensUsed, &message.CostUSD, &message.CreatedAt,
		); err != nil {
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

func (p *PostgresStorage) InsertExtraction(ctx context.Context, extraction *storage.ConsultationExtraction) error {
	if extraction.ID == uuid.Nil {
		extraction.ID = uuid.New()
	}

	data, err := marshalJSON(extraction.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO consultation_extractions (id, session_id, user_id, extraction_category, extracted_data, confidence_score, source_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err = p.pool.Exec(ctx, query,
		extraction.ID, extraction.SessionID, extraction.UserID, extraction.Category,
		data, extraction.ConfidenceScore, extraction.SourceMessage,
	)
	return err
}

func (p *PostgresStorage) ListExtractions(ctx context.Context, sessionID uuid.UUID) ([]storage.ConsultationExtraction, error) {
	return p.listExtractions(ctx,
		`SELECT id, session_id, user_id, extraction_category, extracted_data, confidence_score, source_message, created_at
		 FROM consultation_extractions WHERE session_id = $1 ORDER BY created_at ASC`, sessionID)
}

func (p *PostgresStorage) ListUserExtractions(ctx context.Context, userID, category string) ([]storage.ConsultationExtraction, error) {
	return p.listExtractions(ctx,
		`SELECT id, session_id, user_id, extraction_category, extracted_data, confidence_score, source_message, created_at
		 FROM consultation_extractions WHERE user_id = $1 AND ($2 = '' OR extraction_category = $2) ORDER BY created_at ASC`,
		userID, category)
}

func (p *PostgresStorage) listExtractions(ctx context.Context, query string, args ...any) ([]storage.ConsultationExtraction, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	extractions := []storage.ConsultationExtraction{}
	for rows.Next() {
		var extraction storage.ConsultationExtraction
		var data []byte
		if err := rows.Scan(
			&extraction.ID, &extraction.SessionID, &extraction.UserID, &extraction.Category,
			&data, &extraction.ConfidenceScore, &extraction.SourceMessage, &extraction.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(data, &extraction.Data); err != nil {
			return nil, err
		}
		extractions = append(extractions, extraction)
	}
	return extractions, rows.Err()
}

func (p *PostgresStorage) ListCompletedSessions(ctx context.Context, userID string, limit int) ([]storage.ConsultationSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM consultation_sessions
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []storage.ConsultationSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}
