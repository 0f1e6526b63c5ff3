package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for event operations.
var (
	ErrEventNotFound = errors.New("event not found")
	// ErrNotAssigned rejects an update from a profile that is neither in the
	// stored assignment set nor adding itself with the same submission.
	ErrNotAssigned = errors.New("profile not assigned to event")
	// ErrVersionConflict is returned by EventRepository.ApplyUpdate when the
	// stored version moved since the event was read. Callers re-read and
	// recompute the diff against the committed state.
	ErrVersionConflict = errors.New("event version conflict")
)

// Event is a shared calendar entry. StartsAt and EndsAt are absolute
// instants; Timezone is the zone the event's times were authored in and is
// display metadata only. UpdateLogs is the append-only audit trail, oldest
// first.
// swagger:model Event
type Event struct {
	ID          string            `json:"id"`
	ProfileIDs  []string          `json:"profile_ids"`
	Profiles    []*Profile        `json:"profiles,omitempty"`
	Timezone    string            `json:"timezone"`
	StartsAt    time.Time         `json:"starts_at"`
	EndsAt      time.Time         `json:"ends_at"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Version     int               `json:"-"`
	UpdateLogs  []*UpdateLogEntry `json:"update_logs"`
}

// IsAssigned reports whether the given profile identifier is in the event's
// stored assignment set.
func (e *Event) IsAssigned(profileID string) bool {
	for _, id := range e.ProfileIDs {
		if id == profileID {
			return true
		}
	}
	return false
}

// UpdateLogEntry is one immutable audit record: who changed what, when.
// UpdatedBy is resolved for display and is nil when the profile no longer
// exists; the entry itself is still returned.
// swagger:model UpdateLogEntry
type UpdateLogEntry struct {
	ID          string    `json:"id"`
	UpdatedByID string    `json:"updated_by_id"`
	UpdatedBy   *Profile  `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	Changes     ChangeSet `json:"changes"`
}

// CreateEventInput is the full payload for creating an event. StartsAt and
// EndsAt are wall-clock values interpreted in Timezone.
type CreateEventInput struct {
	ProfileIDs  []string
	Timezone    string
	StartsAt    string
	EndsAt      string
	Title       string
	Description string
}

// UpdateEventInput is the desired-state payload for an update. Nil fields
// are left unchanged. Wall-clock StartsAt/EndsAt are interpreted in Timezone
// when submitted, otherwise in the event's current timezone.
type UpdateEventInput struct {
	ProfileIDs  []string
	Timezone    *string
	StartsAt    *string
	EndsAt      *string
	Title       *string
	Description *string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// GetByID returns the event with its assignment identifiers and full
	// update log, or ErrEventNotFound.
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListByProfileID returns the events a profile is currently assigned to,
	// ordered by start instant ascending. Update logs are not loaded.
	ListByProfileID(ctx context.Context, profileID string) ([]*Event, error)
	// ApplyUpdate writes the event's mutable fields, replaces its assignment
	// set, and appends one update log entry as a single transaction. The
	// write is conditional on fromVersion still being the stored version;
	// otherwise ErrVersionConflict is returned and nothing is written.
	ApplyUpdate(ctx context.Context, event *Event, fromVersion int, entry *UpdateLogEntry) error
}

// EventService defines the business logic of the event record manager.
type EventService interface {
	CreateEvent(ctx context.Context, in CreateEventInput) (*Event, error)
	UpdateEvent(ctx context.Context, eventID string, in UpdateEventInput, updatedBy string) (*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEventsForProfile(ctx context.Context, profileID string) ([]*Event, error)
}
