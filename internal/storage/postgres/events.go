package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/renatodap/fitness-backend/internal/storage"
)

const eventColumns = `
	id, user_id, event_name, event_type, event_date, training_start_date,
	peak_week_date, taper_start_date, is_primary_goal, status,
	linked_program_id, goal_performance, location, created_at, updated_at
`

func scanEvent(row interface{ Scan(...any) error }) (*storage.Event, error) {
	var event storage.Event
	err := row.Scan(
		&event.ID, &event.UserID, &event.Name, &event.Type, &event.Date, &event.TrainingStartDate,
		&event.PeakWeekDate, &event.TaperStartDate, &event.IsPrimaryGoal, &event.Status,
		&event.LinkedProgramID, &event.GoalPerformance, &event.Location, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (p *PostgresStorage) InsertEvent(ctx context.Context, event *storage.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO user_events (
			id, user_id, event_name, event_type, event_date, training_start_date,
			peak_week_date, taper_start_date, is_primary_goal, status,
			linked_program_id, goal_performance, location, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID, event.UserID, event.Name, event.Type, event.Date, event.TrainingStartDate,
		event.PeakWeekDate, event.TaperStartDate, event.IsPrimaryGoal, event.Status,
		event.LinkedProgramID, event.GoalPerformance, event.Location,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrPrimaryEventExists
	}
	return err
}

func (p *PostgresStorage) GetEvent(ctx context.Context, eventID uuid.UUID) (*storage.Event, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM user_events WHERE id = $1`, eventID)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return event, err
}

func (p *PostgresStorage) UpdateEvent(ctx context.Context, event *storage.Event) error {
	query := `
		UPDATE user_events SET
			event_name = $2, event_type = $3, event_date = $4,
			training_start_date = $5, peak_week_date = $6, taper_start_date = $7,
			is_primary_goal = $8, status = $9, linked_program_id = $10,
			goal_performance = $11, location = $12, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.pool.Exec(ctx, query,
		event.ID, event.Name, event.Type, event.Date,
		event.TrainingStartDate, event.PeakWeekDate, event.TaperStartDate,
		event.IsPrimaryGoal, event.Status, event.LinkedProgramID,
		event.GoalPerformance, event.Location,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrPrimaryEventExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) ListUpcomingEvents(ctx context.Context, userID string, until time.Time) ([]storage.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM user_events
		WHERE user_id = $1
		  AND status NOT IN ('completed', 'abandoned')
		  AND event_date >= CURRENT_DATE AND event_date <= $2
		ORDER BY event_date ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []storage.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (p *PostgresStorage) GetPrimaryEvent(ctx context.Context, userID string) (*storage.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM user_events
		WHERE user_id = $1 AND is_primary_goal = TRUE
		  AND status NOT IN ('completed', 'abandoned')
		LIMIT 1
	`
	row := p.pool.QueryRow(ctx, query, userID)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return event, err
}
