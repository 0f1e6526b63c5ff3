package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamcal/internal/domain"

	"github.com/google/uuid"
)

type profileService struct {
	profileRepo    domain.ProfileRepository
	contextTimeout time.Duration
}

// NewProfileService returns a ProfileService backed by the given repository.
func NewProfileService(profileRepo domain.ProfileRepository, timeout time.Duration) domain.ProfileService {
	return &profileService{
		profileRepo:    profileRepo,
		contextTimeout: timeout,
	}
}

func (s *profileService) CreateProfile(ctx context.Context, name, timezone, email string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := domain.LoadZone(timezone); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(strings.ToLower(email))

	profile := domain.NewProfile(name, timezone, email, time.Now().UTC())
	profile.ID = uuid.New().String()
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) ListProfiles(ctx context.Context) ([]*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	if profiles == nil {
		profiles = []*domain.Profile{}
	}
	return profiles, nil
}

func (s *profileService) UpdateTimezone(ctx context.Context, id, timezone string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := domain.LoadZone(timezone); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.UpdateTimezone(ctx, id, timezone)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("update timezone: %w", err)
	}
	return profile, nil
}
