package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (p *PostgresStorage) InsertRecommendation(ctx context.Context, rec *storage.Recommendation) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	content, err := marshalJSON(rec.Content)
	if err != nil {
		return err
	}
	basedOn, err := marshalJSON(rec.BasedOnData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO daily_recommendations (
			id, user_id, recommendation_date, recommendation_time_minutes,
			recommendation_type, content, reasoning, priority, status,
			based_on_data, expires_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`

	_, err = p.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.RecommendationDate, rec.RecommendationTimeMinutes,
		rec.Type, content, rec.Reasoning, rec.Priority, rec.Status,
		basedOn, rec.ExpiresAt,
	)
	return err
}

func (p *PostgresStorage) ListRecommendations(ctx context.Context, userID string, date time.Time, statuses []string) ([]storage.Recommendation, error) {
	if statuses == nil {
		statuses = []string{}
	}

	query := `
		SELECT id, user_id, recommendation_date, recommendation_time_minutes,
		       recommendation_type, content, reasoning, priority, status,
		       based_on_data, expires_at, feedback, feedback_rating, completed_at, created_at
		FROM daily_recommendations
		WHERE user_id = $1 AND recommendation_date = $2::date
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3))
		ORDER BY priority DESC, recommendation_time_minutes ASC NULLS LAST
	`

	rows, err := p.pool.Query(ctx, query, userID, date, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []storage.Recommendation{}
	for rows.Next() {
		var rec storage.Recommendation
		var content, basedOn []byte
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.RecommendationDate, &rec.RecommendationTimeMinutes,
			&rec.Type, &content, &rec.Reasoning, &rec.Priority, &rec.Status,
			&basedOn, &rec.ExpiresAt, &rec.Feedback, &rec.FeedbackRating, &rec.CompletedAt, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(content, &rec.Content); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(basedOn, &rec.BasedOnData); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (p *PostgresStorage) UpdateRecommendationStatus(ctx context.Context, recID uuid.UUID, userID, status string, feedback *string, rating *int) error {
	query := `
		UPDATE daily_recommendations SET
			status = $3,
			completed_at = CASE WHEN $3 = 'completed' THEN NOW() ELSE completed_at END,
			feedback = COALESCE($4, feedback),
			feedback_rating = COALESCE($5, feedback_rating)
		WHERE id = $1 AND user_id = $2
		  AND status NOT IN ('completed', 'rejected', 'expired')
	`

	tag, err := p.pool.Exec(ctx, query, recID, userID, status, feedback, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a terminal one.
		var existing string
		err := p.pool.QueryRow(ctx,
			`SELECT status FROM daily_recommendations WHERE id = $1 AND user_id = $2`,
			recID, userID).Scan(&existing)
		if err != nil {
			return storage.ErrNotFound
		}
		return storage.ErrTerminalStatus
	}
	return nil
}

func (p *PostgresStorage) ExpireRecommendationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, `
		UPDATE daily_recommendations SET status = 'expired'
		WHERE expires_at < $1 AND status NOT IN ('completed', 'rejected', 'expired')`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
