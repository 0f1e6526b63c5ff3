package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"teamcal/internal/domain"

	"github.com/lib/pq"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns a Postgres-backed EventRepository.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (id, timezone, starts_at, ends_at, title, description, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, query,
		e.ID, e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.Version, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return err
	}
	if err := insertAssignments(ctx, tx, e.ID, e.ProfileIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, timezone, starts_at, ends_at, title, description, version, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Timezone, &e.StartsAt, &e.EndsAt, &e.Title, &e.Description, &e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}

	assignments, err := r.loadAssignments(ctx, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.ProfileIDs = assignments[e.ID]
	if e.ProfileIDs == nil {
		e.ProfileIDs = []string{}
	}

	logs, err := r.loadUpdateLogs(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.UpdateLogs = logs
	return e, nil
}

func (r *eventRepository) ListByProfileID(ctx context.Context, profileID string) ([]*domain.Event, error) {
	query := `
		SELECT e.id, e.timezone, e.starts_at, e.ends_at, e.title, e.description, e.version, e.created_at, e.updated_at
		FROM events e
		JOIN event_profiles ep ON ep.event_id = e.id
		WHERE ep.profile_id = $1
		ORDER BY e.starts_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	ids := make([]string, 0)
	for rows.Next() {
		e := &domain.Event{}
		if err := rows.Scan(&e.ID, &e.Timezone, &e.StartsAt, &e.EndsAt, &e.Title, &e.Description, &e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}

	assignments, err := r.loadAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		e.ProfileIDs = assignments[e.ID]
		if e.ProfileIDs == nil {
			e.ProfileIDs = []string{}
		}
	}
	return events, nil
}

func (r *eventRepository) ApplyUpdate(ctx context.Context, e *domain.Event, fromVersion int, entry *domain.UpdateLogEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE events
		SET timezone = $1, starts_at = $2, ends_at = $3, title = $4, description = $5,
		    updated_at = $6, version = version + 1
		WHERE id = $7 AND version = $8
	`
	result, err := tx.ExecContext(ctx, query,
		e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.UpdatedAt, e.ID, fromVersion,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a lost race from a missing event.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrVersionConflict
		}
		return domain.ErrEventNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_profiles WHERE event_id = $1`, e.ID); err != nil {
		return err
	}
	if err := insertAssignments(ctx, tx, e.ID, e.ProfileIDs); err != nil {
		return err
	}

	logQuery := `
		INSERT INTO event_update_logs (id, event_id, updated_by, updated_at, changes)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, logQuery, entry.ID, e.ID, entry.UpdatedByID, entry.UpdatedAt, changes); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAssignments(ctx context.Context, tx *sql.Tx, eventID string, profileIDs []string) error {
	query := `
		INSERT INTO event_profiles (event_id, profile_id, position)
		VALUES ($1, $2, $3)
	`
	for i, profileID := range profileIDs {
		if _, err := tx.ExecContext(ctx, query, eventID, profileID, i); err != nil {
			return err
		}
	}
	return nil
}

// loadAssignments returns the assignment identifiers for the given events,
// keyed by event id, in stored position order.
func (r *eventRepository) loadAssignments(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	query := `
		SELECT event_id, profile_id
		FROM event_profiles
		WHERE event_id = ANY($1)
		ORDER BY event_id, position
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make(map[string][]string, len(eventIDs))
	for rows.Next() {
		var eventID, profileID string
		if err := rows.Scan(&eventID, &profileID); err != nil {
			return nil, err
		}
		assignments[eventID] = append(assignments[eventID], profileID)
	}
	return assignments, rows.Err()
}

func (r *eventRepository) loadUpdateLogs(ctx context.Context, eventID string) ([]*domain.UpdateLogEntry, error) {
	query := `
		SELECT id, updated_by, updated_at, changes
		FROM event_update_logs
		WHERE event_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.UpdateLogEntry, 0)
	for rows.Next() {
		entry := &domain.UpdateLogEntry{}
		var changes []byte
		if err := rows.Scan(&entry.ID, &entry.UpdatedByID, &entry.UpdatedAt, &changes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("unmarshal changes for log %s: %w", entry.ID, err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
