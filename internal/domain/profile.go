package domain

import (
	"context"
	"errors"
	"time"
)

// ErrProfileNotFound is returned when a profile identifier does not resolve.
var ErrProfileNotFound = errors.New("profile not found")

// Profile represents a named calendar participant. Profiles are freely
// selectable identities, not authenticated accounts.
// swagger:model Profile
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProfile returns a new Profile with the given fields. ID is set by the
// service on create.
func NewProfile(name, timezone, email string, createdAt time.Time) *Profile {
	return &Profile{
		Name:      name,
		Timezone:  timezone,
		Email:     email,
		CreatedAt: createdAt,
	}
}

// ProfileRepository defines the interface for profile storage.
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	UpdateTimezone(ctx context.Context, id, timezone string) (*Profile, error)
	// ResolveMany returns the profiles for the given identifiers, keyed by
	// identifier. Identifiers that do not resolve are omitted from the
	// result; a dangling reference is never an error for the caller.
	ResolveMany(ctx context.Context, ids []string) (map[string]*Profile, error)
}

// ProfileDirectory is the resolution capability consumed by the event record
// manager. It is the read-only subset of ProfileRepository.
type ProfileDirectory interface {
	ResolveMany(ctx context.Context, ids []string) (map[string]*Profile, error)
}

// ProfileService defines the business logic for profile management.
type ProfileService interface {
	CreateProfile(ctx context.Context, name, timezone, email string) (*Profile, error)
	GetProfile(ctx context.Context, id string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
	UpdateTimezone(ctx context.Context, id, timezone string) (*Profile, error)
}
