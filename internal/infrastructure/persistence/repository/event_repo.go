package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/event"
)

// EventRepository implements port.EventRepository on SQLite. The table
// is append-only; no update or delete statement exists in this package.
type EventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) port.EventRepository {
	return &EventRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one audit event
func (r *EventRepository) Append(ctx context.Context, ev *event.Event) error {
	query := `
		INSERT INTO event_logs (
			id, timestamp, actor, action, entity_id, old_value, new_value, details, ip_device
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		ev.ID,
		ev.Timestamp,
		ev.Actor,
		string(ev.Action),
		ev.EntityID,
		ev.OldValue,
		ev.NewValue,
		ev.Details,
		ev.IPDevice,
	)
	if err != nil {
		r.logger.Error("Failed to append event", zap.String("action", ev.Action.String()), zap.Error(err))
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// List returns all events, newest first
func (r *EventRepository) List(ctx context.Context) ([]*event.Event, error) {
	query := `
		SELECT id, timestamp, actor, action, entity_id, old_value, new_value, details, ip_device
		FROM event_logs
		ORDER BY timestamp DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list events", zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var ev event.Event
		err := rows.Scan(
			&ev.ID,
			&ev.Timestamp,
			&ev.Actor,
			&ev.Action,
			&ev.EntityID,
			&ev.OldValue,
			&ev.NewValue,
			&ev.Details,
			&ev.IPDevice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &ev)
	}

	return events, rows.Err()
}

// Verify interface compliance
var _ port.EventRepository = (*EventRepository)(nil)
