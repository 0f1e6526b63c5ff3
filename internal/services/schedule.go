package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"teamcal/internal/domain"

	"github.com/google/uuid"
)

// updateRetries bounds the read-diff-commit cycles attempted when the
// version-checked write loses a race. Each retry recomputes the diff against
// the freshly committed state, so the audit entry always reflects the true
// prior values.
const updateRetries = 3

type scheduleService struct {
	eventRepo      domain.EventRepository
	directory      domain.ProfileDirectory
	emailService   domain.EmailService // nil disables notifications
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewScheduleService returns the event record manager. emailService may be
// nil, in which case update notifications are skipped.
func NewScheduleService(
	eventRepo domain.EventRepository,
	directory domain.ProfileDirectory,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &scheduleService{
		eventRepo:      eventRepo,
		directory:      directory,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *scheduleService) CreateEvent(ctx context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profileIDs := dedupe(in.ProfileIDs)
	if len(profileIDs) == 0 {
		return nil, domain.NewValidationError("at least one profile is required")
	}
	title := strings.TrimSpace(in.Title)
	if in.Timezone == "" || in.StartsAt == "" || in.EndsAt == "" || title == "" {
		return nil, domain.NewValidationError("all required fields must be provided")
	}
	loc, err := domain.LoadZone(in.Timezone)
	if err != nil {
		return nil, err
	}
	startsAt, err := domain.ParseWallClock(in.StartsAt, loc)
	if err != nil {
		return nil, err
	}
	endsAt, err := domain.ParseWallClock(in.EndsAt, loc)
	if err != nil {
		return nil, err
	}
	if endsAt.Before(startsAt) {
		return nil, domain.NewValidationError("end date/time cannot be before start date/time")
	}

	resolved, err := s.directory.ResolveMany(ctx, profileIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve profiles: %w", err)
	}
	for _, id := range profileIDs {
		if _, ok := resolved[id]; !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("unknown profile %q", id))
		}
	}

	now := time.Now().UTC()
	event := &domain.Event{
		ID:          uuid.New().String(),
		ProfileIDs:  profileIDs,
		Timezone:    in.Timezone,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
		UpdateLogs:  []*domain.UpdateLogEntry{},
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	for _, id := range event.ProfileIDs {
		event.Profiles = append(event.Profiles, resolved[id])
	}
	return event, nil
}

func (s *scheduleService) UpdateEvent(ctx context.Context, eventID string, in domain.UpdateEventInput, updatedBy string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if updatedBy == "" {
		return nil, domain.NewValidationError("updating profile is required")
	}

	for attempt := 0; attempt < updateRetries; attempt++ {
		event, err := s.applyUpdateOnce(ctx, eventID, in, updatedBy)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		return event, err
	}
	return nil, fmt.Errorf("update event: %w", domain.ErrVersionConflict)
}

// applyUpdateOnce runs one read-diff-commit cycle of the update pipeline.
func (s *scheduleService) applyUpdateOnce(ctx context.Context, eventID string, in domain.UpdateEventInput, updatedBy string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Authorization by assignment: the updater must be currently assigned or
	// adding itself with this very submission.
	var submittedIDs []string
	if in.ProfileIDs != nil {
		submittedIDs = dedupe(in.ProfileIDs)
		if len(submittedIDs) == 0 {
			return nil, domain.NewValidationError("at least one profile is required")
		}
	}
	wasAssigned := event.IsAssigned(updatedBy)
	willBeAssigned := submittedIDs != nil && contains(submittedIDs, updatedBy)
	if !wasAssigned && !willBeAssigned {
		return nil, domain.ErrNotAssigned
	}

	var changes domain.ChangeSet

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domain.NewValidationError("title is required")
		}
		if title != event.Title {
			changes.Title = &domain.TextChange{Old: event.Title, New: title}
		}
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc != event.Description {
			changes.Description = &domain.TextChange{Old: event.Description, New: desc}
		}
	}

	// Wall-clock values are normalized in the submitted timezone when one is
	// part of the payload, else in the event's current timezone. This lets a
	// client move an event to another zone and adjust its times atomically.
	timezone := event.Timezone
	if in.Timezone != nil {
		timezone = *in.Timezone
		if timezone != event.Timezone {
			changes.Timezone = &domain.TextChange{Old: event.Timezone, New: timezone}
		}
	}
	loc, err := domain.LoadZone(timezone)
	if err != nil {
		return nil, err
	}

	startsAt := event.StartsAt
	if in.StartsAt != nil {
		startsAt, err = domain.ParseWallClock(*in.StartsAt, loc)
		if err != nil {
			return nil, err
		}
		if !startsAt.Equal(event.StartsAt) {
			changes.StartsAt = &domain.TimeChange{Old: event.StartsAt, New: startsAt}
		}
	}
	endsAt := event.EndsAt
	if in.EndsAt != nil {
		endsAt, err = domain.ParseWallClock(*in.EndsAt, loc)
		if err != nil {
			return nil, err
		}
		if !endsAt.Equal(event.EndsAt) {
			changes.EndsAt = &domain.TimeChange{Old: event.EndsAt, New: endsAt}
		}
	}

	// The assignment diff stores display names, resolved for both sides
	// before the new set overwrites the stored one; old names may not be
	// resolvable afterwards.
	if submittedIDs != nil && !sameSet(submittedIDs, event.ProfileIDs) {
		resolved, err := s.directory.ResolveMany(ctx, union(event.ProfileIDs, submittedIDs))
		if err != nil {
			return nil, fmt.Errorf("resolve profiles: %w", err)
		}
		for _, id := range submittedIDs {
			if _, ok := resolved[id]; !ok {
				return nil, domain.NewValidationError(fmt.Sprintf("unknown profile %q", id))
			}
		}
		changes.Profiles = &domain.NamesChange{
			Old: namesFor(event.ProfileIDs, resolved),
			New: namesFor(submittedIDs, resolved),
		}
	}

	if endsAt.Before(startsAt) {
		return nil, domain.NewValidationError("end date/time cannot be before start date/time")
	}

	if changes.IsEmpty() {
		// No-op submission: nothing is written, updated_at does not move.
		if err := s.resolveEvent(ctx, event); err != nil {
			return nil, err
		}
		return event, nil
	}

	fromVersion := event.Version
	now := time.Now().UTC()
	if changes.Title != nil {
		event.Title = changes.Title.New
	}
	if changes.Description != nil {
		event.Description = changes.Description.New
	}
	if changes.Timezone != nil {
		event.Timezone = timezone
	}
	event.StartsAt = startsAt
	event.EndsAt = endsAt
	if submittedIDs != nil {
		event.ProfileIDs = submittedIDs
	}
	event.UpdatedAt = now

	entry := &domain.UpdateLogEntry{
		ID:          uuid.New().String(),
		UpdatedByID: updatedBy,
		UpdatedAt:   now,
		Changes:     changes,
	}
	if err := s.eventRepo.ApplyUpdate(ctx, event, fromVersion, entry); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, domain.ErrVersionConflict
		}
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("apply update: %w", err)
	}
	event.Version = fromVersion + 1
	event.UpdateLogs = append(event.UpdateLogs, entry)

	if err := s.resolveEvent(ctx, event); err != nil {
		return nil, err
	}
	s.notifyUpdated(ctx, event, entry)
	return event, nil
}

func (s *scheduleService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.resolveEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *scheduleService) ListEventsForProfile(ctx context.Context, profileID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByProfileID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}

	var ids []string
	for _, event := range events {
		ids = union(ids, event.ProfileIDs)
	}
	resolved, err := s.directory.ResolveMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve profiles: %w", err)
	}
	for _, event := range events {
		event.Profiles = resolvedProfiles(event.ProfileIDs, resolved)
	}
	return events, nil
}

// resolveEvent expands the event's assignment set and the audit trail's
// updaters to profile records. Identifiers that no longer resolve are left
// out (assignments) or nil (audit entries); the data itself is untouched.
func (s *scheduleService) resolveEvent(ctx context.Context, event *domain.Event) error {
	ids := append([]string(nil), event.ProfileIDs...)
	for _, entry := range event.UpdateLogs {
		ids = append(ids, entry.UpdatedByID)
	}
	resolved, err := s.directory.ResolveMany(ctx, dedupe(ids))
	if err != nil {
		return fmt.Errorf("resolve profiles: %w", err)
	}
	event.Profiles = resolvedProfiles(event.ProfileIDs, resolved)
	for _, entry := range event.UpdateLogs {
		entry.UpdatedBy = resolved[entry.UpdatedByID]
	}
	return nil
}

// notifyUpdated emails the assigned profiles about a committed update,
// skipping the updater and profiles without an address. Delivery is
// best-effort; failures are logged and never surfaced.
func (s *scheduleService) notifyUpdated(ctx context.Context, event *domain.Event, entry *domain.UpdateLogEntry) {
	if s.emailService == nil {
		return
	}
	updatedByName := entry.UpdatedByID
	if entry.UpdatedBy != nil {
		updatedByName = entry.UpdatedBy.Name
	}
	for _, profile := range event.Profiles {
		if profile.ID == entry.UpdatedByID || profile.Email == "" {
			continue
		}
		data := &domain.EventUpdatedEmailData{
			Email:         profile.Email,
			RecipientName: profile.Name,
			EventTitle:    event.Title,
			UpdatedByName: updatedByName,
			ChangedFields: entry.Changes.FieldNames(),
		}
		if err := s.emailService.SendEventUpdated(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "event update notification failed",
				"event_id", event.ID, "to", profile.Email, "err", err)
		}
	}
}

// dedupe collapses duplicate identifiers, keeping first-seen order.
func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// sameSet reports order-independent equality of two identifier slices that
// are already free of duplicates.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !contains(b, id) {
			return false
		}
	}
	return true
}

// union merges two identifier slices, keeping first-seen order.
func union(a, b []string) []string {
	return dedupe(append(append([]string(nil), a...), b...))
}

// namesFor maps identifiers to display names, falling back to the raw
// identifier when it no longer resolves.
func namesFor(ids []string, resolved map[string]*domain.Profile) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := resolved[id]; ok {
			names = append(names, p.Name)
		} else {
			names = append(names, id)
		}
	}
	return names
}

func resolvedProfiles(ids []string, resolved map[string]*domain.Profile) []*domain.Profile {
	profiles := make([]*domain.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := resolved[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles
}
