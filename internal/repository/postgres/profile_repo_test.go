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

func newProfileRepoMock(t *testing.T) (domain.ProfileRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewProfileRepository(db), mock, func() { db.Close() }
}

var profileColumns = []string{"id", "name", "timezone", "email", "created_at"}

func TestProfileRepository_Create(t *testing.T) {
	repo, mock, closeFn := newProfileRepoMock(t)
	defer closeFn()

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("with email", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO profiles").
			WithArgs("p-a", "Alice", "UTC", sql.NullString{String: "alice@example.com", Valid: true}, createdAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), &domain.Profile{
			ID: "p-a", Name: "Alice", Timezone: "UTC", Email: "alice@example.com", CreatedAt: createdAt,
		})
		require.NoError(t, err)
	})

	t.Run("without email stores NULL", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO profiles").
			WithArgs("p-b", "Bob", "UTC", sql.NullString{}, createdAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), &domain.Profile{
			ID: "p-b", Name: "Bob", Timezone: "UTC", CreatedAt: createdAt,
		})
		require.NoError(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetByID(t *testing.T) {
	repo, mock, closeFn := newProfileRepoMock(t)
	defer closeFn()

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, timezone, email, created_at").
			WithArgs("p-a").
			WillReturnRows(sqlmock.NewRows(profileColumns).
				AddRow("p-a", "Alice", "UTC", "alice@example.com", createdAt))

		got, err := repo.GetByID(context.Background(), "p-a")
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("null email maps to empty string", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, timezone, email, created_at").
			WithArgs("p-b").
			WillReturnRows(sqlmock.NewRows(profileColumns).
				AddRow("p-b", "Bob", "UTC", nil, createdAt))

		got, err := repo.GetByID(context.Background(), "p-b")
		require.NoError(t, err)
		assert.Empty(t, got.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, timezone, email, created_at").
			WithArgs("p-missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "p-missing")
		require.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_List(t *testing.T) {
	repo, mock, closeFn := newProfileRepoMock(t)
	defer closeFn()

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, name, timezone, email, created_at").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("p-b", "Bob", "Europe/Berlin", nil, createdAt.Add(time.Hour)).
			AddRow("p-a", "Alice", "UTC", "alice@example.com", createdAt))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Bob", got[0].Name)
	assert.Equal(t, "Alice", got[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_UpdateTimezone(t *testing.T) {
	repo, mock, closeFn := newProfileRepoMock(t)
	defer closeFn()

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("UPDATE profiles SET timezone").
			WithArgs("Asia/Tokyo", "p-a").
			WillReturnRows(sqlmock.NewRows(profileColumns).
				AddRow("p-a", "Alice", "Asia/Tokyo", nil, createdAt))

		got, err := repo.UpdateTimezone(context.Background(), "p-a", "Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", got.Timezone)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("UPDATE profiles SET timezone").
			WithArgs("UTC", "p-missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.UpdateTimezone(context.Background(), "p-missing", "UTC")
		require.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_ResolveMany(t *testing.T) {
	repo, mock, closeFn := newProfileRepoMock(t)
	defer closeFn()

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("missing ids are simply absent", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, timezone, email, created_at").
			WithArgs(pq.Array([]string{"p-a", "p-gone"})).
			WillReturnRows(sqlmock.NewRows(profileColumns).
				AddRow("p-a", "Alice", "UTC", nil, createdAt))

		got, err := repo.ResolveMany(context.Background(), []string{"p-a", "p-gone"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Alice", got["p-a"].Name)
		assert.NotContains(t, got, "p-gone")
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		got, err := repo.ResolveMany(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
