package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"teamcal/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventRepoMock(t *testing.T) (domain.EventRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewEventRepository(db), mock, func() { db.Close() }
}

var eventColumns = []string{"id", "timezone", "starts_at", "ends_at", "title", "description", "version", "created_at", "updated_at"}

func sampleEvent() *domain.Event {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Event{
		ID:          "ev-1",
		ProfileIDs:  []string{"p-a", "p-b"},
		Timezone:    "UTC",
		StartsAt:    time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC),
		Title:       "Standup",
		Description: "Daily sync",
		CreatedAt:   created,
		UpdatedAt:   created,
		Version:     1,
	}
}

func TestEventRepository_Create(t *testing.T) {
	t.Run("inserts event and assignments in one transaction", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events").
			WithArgs(e.ID, e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.Version, e.CreatedAt, e.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO event_profiles").
			WithArgs(e.ID, "p-a", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO event_profiles").
			WithArgs(e.ID, "p-b", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(context.Background(), e))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assignment failure rolls back", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events").
			WithArgs(e.ID, e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.Version, e.CreatedAt, e.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO event_profiles").
			WithArgs(e.ID, "p-a", 0).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		require.Error(t, repo.Create(context.Background(), e))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_GetByID(t *testing.T) {
	t.Run("loads event with assignments and audit trail", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		mock.ExpectQuery("SELECT id, timezone, starts_at, ends_at").
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows(eventColumns).
				AddRow(e.ID, e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.Version, e.CreatedAt, e.UpdatedAt))
		mock.ExpectQuery("SELECT event_id, profile_id").
			WithArgs(pq.Array([]string{"ev-1"})).
			WillReturnRows(sqlmock.NewRows([]string{"event_id", "profile_id"}).
				AddRow("ev-1", "p-a").
				AddRow("ev-1", "p-b"))
		mock.ExpectQuery("SELECT id, updated_by, updated_at, changes").
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "updated_by", "updated_at", "changes"}).
				AddRow("log-1", "p-a", e.UpdatedAt, []byte(`{"title":{"old":"Old","new":"Standup"}}`)))

		got, err := repo.GetByID(context.Background(), "ev-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-a", "p-b"}, got.ProfileIDs)
		require.Len(t, got.UpdateLogs, 1)
		require.NotNil(t, got.UpdateLogs[0].Changes.Title)
		assert.Equal(t, "Old", got.UpdateLogs[0].Changes.Title.Old)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		mock.ExpectQuery("SELECT id, timezone, starts_at, ends_at").
			WithArgs("ev-missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "ev-missing")
		require.ErrorIs(t, err, domain.ErrEventNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_ListByProfileID(t *testing.T) {
	t.Run("returns events with assignments", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		mock.ExpectQuery("SELECT e.id, e.timezone").
			WithArgs("p-a").
			WillReturnRows(sqlmock.NewRows(eventColumns).
				AddRow(e.ID, e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.Version, e.CreatedAt, e.UpdatedAt))
		mock.ExpectQuery("SELECT event_id, profile_id").
			WithArgs(pq.Array([]string{"ev-1"})).
			WillReturnRows(sqlmock.NewRows([]string{"event_id", "profile_id"}).
				AddRow("ev-1", "p-a").
				AddRow("ev-1", "p-b"))

		got, err := repo.ListByProfileID(context.Background(), "p-a")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"p-a", "p-b"}, got[0].ProfileIDs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no events skips the assignment query", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		mock.ExpectQuery("SELECT e.id, e.timezone").
			WithArgs("p-nobody").
			WillReturnRows(sqlmock.NewRows(eventColumns))

		got, err := repo.ListByProfileID(context.Background(), "p-nobody")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_ApplyUpdate(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	entry := &domain.UpdateLogEntry{
		ID:          "log-1",
		UpdatedByID: "p-a",
		UpdatedAt:   now,
		Changes:     domain.ChangeSet{Title: &domain.TextChange{Old: "Standup", New: "Retro"}},
	}

	t.Run("commits update, assignments and log entry", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		e.Title = "Retro"
		e.UpdatedAt = now

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE events").
			WithArgs(e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.UpdatedAt, e.ID, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM event_profiles").
			WithArgs(e.ID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO event_profiles").
			WithArgs(e.ID, "p-a", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO event_profiles").
			WithArgs(e.ID, "p-b", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO event_update_logs").
			WithArgs(entry.ID, e.ID, entry.UpdatedByID, entry.UpdatedAt, []byte(`{"title":{"old":"Standup","new":"Retro"}}`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.ApplyUpdate(context.Background(), e, 1, entry))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version yields conflict", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE events").
			WithArgs(e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.UpdatedAt, e.ID, 1).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(e.ID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err := repo.ApplyUpdate(context.Background(), e, 1, entry)
		require.ErrorIs(t, err, domain.ErrVersionConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished event yields not found", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE events").
			WithArgs(e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.UpdatedAt, e.ID, 1).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(e.ID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		err := repo.ApplyUpdate(context.Background(), e, 1, entry)
		require.ErrorIs(t, err, domain.ErrEventNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("log insert failure rolls everything back", func(t *testing.T) {
		repo, mock, closeFn := newEventRepoMock(t)
		defer closeFn()

		e := sampleEvent()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE events").
			WithArgs(e.Timezone, e.StartsAt, e.EndsAt, e.Title, e.Description, e.UpdatedAt, e.ID, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM event_profiles").
			WithArgs(e.ID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO event_profiles").
			WithArgs(e.ID, "p-a", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO event_profiles").
			WithArgs(e.ID, "p-b", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO event_update_logs").
			WithArgs(entry.ID, e.ID, entry.UpdatedByID, entry.UpdatedAt, []byte(`{"title":{"old":"Standup","new":"Retro"}}`)).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		require.Error(t, repo.ApplyUpdate(context.Background(), e, 1, entry))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
