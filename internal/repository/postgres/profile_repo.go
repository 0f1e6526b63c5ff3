package postgres

import (
	"context"
	"database/sql"
	"errors"

	"teamcal/internal/domain"

	"github.com/lib/pq"
)

type profileRepository struct {
	DB *sql.DB
}

// NewProfileRepository returns a Postgres-backed ProfileRepository.
func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{
		DB: db,
	}
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, name, timezone, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var email sql.NullString
	if p.Email != "" {
		email = sql.NullString{String: p.Email, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.Name, p.Timezone, email, p.CreatedAt)
	return err
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT id, name, timezone, email, created_at
		FROM profiles
		WHERE id = $1
	`
	p := &domain.Profile{}
	var emailNull sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Timezone, &emailNull, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	if emailNull.Valid {
		p.Email = emailNull.String
	}
	return p, nil
}

func (r *profileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	query := `
		SELECT id, name, timezone, email, created_at
		FROM profiles
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		p := &domain.Profile{}
		var emailNull sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Timezone, &emailNull, &p.CreatedAt); err != nil {
			return nil, err
		}
		if emailNull.Valid {
			p.Email = emailNull.String
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) UpdateTimezone(ctx context.Context, id, timezone string) (*domain.Profile, error) {
	query := `
		UPDATE profiles SET timezone = $1
		WHERE id = $2
		RETURNING id, name, timezone, email, created_at
	`
	p := &domain.Profile{}
	var emailNull sql.NullString
	err := r.DB.QueryRowContext(ctx, query, timezone, id).Scan(&p.ID, &p.Name, &p.Timezone, &emailNull, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	if emailNull.Valid {
		p.Email = emailNull.String
	}
	return p, nil
}

func (r *profileRepository) ResolveMany(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	resolved := make(map[string]*domain.Profile, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}
	query := `
		SELECT id, name, timezone, email, created_at
		FROM profiles
		WHERE id = ANY($1)
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p := &domain.Profile{}
		var emailNull sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Timezone, &emailNull, &p.CreatedAt); err != nil {
			return nil, err
		}
		if emailNull.Valid {
			p.Email = emailNull.String
		}
		resolved[p.ID] = p
	}
	return resolved, rows.Err()
}
