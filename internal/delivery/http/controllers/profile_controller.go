package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"teamcal/internal/delivery/http/helpers"
	"teamcal/internal/domain"
)

// ProfileController handles the profile directory HTTP surface.
type ProfileController struct {
	Logger  *slog.Logger
	Service domain.ProfileService
}

func NewProfileController(logger *slog.Logger, svc domain.ProfileService) *ProfileController {
	return &ProfileController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateProfileRequest is the request body for POST /api/profiles.
type CreateProfileRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Email    string `json:"email"`
}

// Validate implements Validator.
func (c CreateProfileRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// ProfileSuccessResponse is the success envelope for profile endpoints.
type ProfileSuccessResponse struct {
	Data  *domain.Profile   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateProfile godoc
// @Summary Create a profile
// @Description Creates a named profile. Timezone defaults to UTC; email is optional and only used for update notifications.
// @Tags profiles
// @Accept json
// @Produce json
// @Param profile body CreateProfileRequest true "Profile data"
// @Success 201 {object} controllers.ProfileSuccessResponse "data contains the created profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/profiles [post]
func (c *ProfileController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	profile, err := c.Service.CreateProfile(r.Context(), req.Name, req.Timezone, req.Email)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeValidation, verr.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, profile)
}

// ProfileListSuccessResponse is the success envelope for GET /api/profiles.
type ProfileListSuccessResponse struct {
	Data  []*domain.Profile `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListProfiles godoc
// @Summary List all profiles
// @Description Returns every profile, newest first.
// @Tags profiles
// @Produce json
// @Success 200 {object} controllers.ProfileListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/profiles [get]
func (c *ProfileController) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.Service.ListProfiles(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profiles)
}

// GetProfileByID godoc
// @Summary Get a profile by ID
// @Tags profiles
// @Produce json
// @Param profileID path string true "Profile ID (UUID)"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/profiles/{profileID} [get]
func (c *ProfileController) GetProfileByID(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("profileID")
	if profileID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing profileID")
		return
	}
	profile, err := c.Service.GetProfile(r.Context(), profileID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "profile not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// UpdateTimezoneRequest is the request body for PUT /api/profiles/{profileID}/timezone.
type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

// Validate implements Validator.
func (u UpdateTimezoneRequest) Validate() []string {
	var errs []string
	if u.Timezone == "" {
		errs = append(errs, "timezone is required")
	}
	return errs
}

// UpdateTimezone godoc
// @Summary Update a profile's timezone
// @Tags profiles
// @Accept json
// @Produce json
// @Param profileID path string true "Profile ID (UUID)"
// @Param body body UpdateTimezoneRequest true "New timezone (IANA zone name)"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/profiles/{profileID}/timezone [put]
func (c *ProfileController) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("profileID")
	if profileID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing profileID")
		return
	}
	var req UpdateTimezoneRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	profile, err := c.Service.UpdateTimezone(r.Context(), profileID, req.Timezone)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeValidation, verr.Error())
			return
		}
		if errors.Is(err, domain.ErrProfileNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "profile not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}
