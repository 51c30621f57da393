package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (p *PostgresStorage) UpsertSummary(ctx context.Context, summary *storage.Summary) error {
	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}

	data, err := marshalJSON(summary.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO summaries (id, user_id, period_type, period_start, period_end, data, report_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id, period_type, period_start)
		DO UPDATE SET data = EXCLUDED.data, report_url = COALESCE(EXCLUDED.report_url, summaries.report_url), updated_at = NOW()
	`

	_, err = p.pool.Exec(ctx, query,
		summary.ID, summary.UserID, summary.PeriodType, summary.PeriodStart, summary.PeriodEnd,
		data, summary.ReportURL,
	)
	return err
}

func (p *PostgresStorage) ListSummaries(ctx context.Context, userID string, limit int) ([]storage.Summary, error) {
	query := `
		SELECT id, user_id, period_type, period_start, period_end, data, report_url, created_at, updated_at
		FROM summaries
		WHERE user_id = $1
		ORDER BY period_start DESC
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []storage.Summary{}
	for rows.Next() {
		var summary storage.Summary
		var data []byte
		if err := rows.Scan(
			&summary.ID, &summary.UserID, &summary.PeriodType, &summary.PeriodStart, &summary.PeriodEnd,
			&data, &summary.ReportURL, &summary.CreatedAt, &summary.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(data, &summary.Data); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
