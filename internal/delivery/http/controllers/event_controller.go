package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"teamcal/internal/adapters/ics"
	"teamcal/internal/delivery/http/helpers"
	"teamcal/internal/domain"
)

// EventController handles the event record manager HTTP surface.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEventRequest is the request body for POST /api/events. StartsAt and
// EndsAt are wall-clock values (e.g. "2025-03-01T10:00") interpreted in
// Timezone.
type CreateEventRequest struct {
	Profiles    []string `json:"profiles"`
	Timezone    string   `json:"timezone"`
	StartsAt    string   `json:"starts_at"`
	EndsAt      string   `json:"ends_at"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// UpdateEventRequest is the request body for PUT /api/events/{eventID}.
// Omitted fields are left unchanged; updated_by names the profile performing
// the update.
type UpdateEventRequest struct {
	UpdatedBy   string   `json:"updated_by"`
	Profiles    []string `json:"profiles"`
	Timezone    *string  `json:"timezone"`
	StartsAt    *string  `json:"starts_at"`
	EndsAt      *string  `json:"ends_at"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.UpdatedBy == "" {
		errs = append(errs, "updated_by is required")
	}
	return errs
}

// EventSuccessResponse is the success envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for event list endpoints.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates a shared event. At least one assigned profile is required; start and end are wall-clock values interpreted in the given timezone.
// @Tags events
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event with resolved profiles"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), domain.CreateEventInput{
		ProfileIDs:  req.Profiles,
		Timezone:    req.Timezone,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Title:       req.Title,
		Description: req.Description,
	})
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
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Applies a full desired-state payload. The updating profile must be currently assigned or be adding itself with this submission. Changed fields are recorded in the event's append-only update log.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Desired state plus updated_by"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event with its update log"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not assigned); re-fetch the event to reconcile"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (concurrent updates, retry)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, domain.UpdateEventInput{
		ProfileIDs:  req.Profiles,
		Timezone:    req.Timezone,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Title:       req.Title,
		Description: req.Description,
	}, req.UpdatedBy)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeValidation, verr.Error())
			return
		}
		if errors.Is(err, domain.ErrNotAssigned) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "you are not assigned to this event")
			return
		}
		if errors.Is(err, domain.ErrEventNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event was updated concurrently, retry")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetEventByID godoc
// @Summary Get an event by ID
// @Description Returns the event with resolved assigned profiles and its full update log. Log entries whose updater no longer resolves keep their recorded changes with updated_by omitted.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [get]
func (c *EventController) GetEventByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListEventsByProfile godoc
// @Summary List a profile's events
// @Description Returns all events the profile is currently assigned to, ordered by start instant ascending.
// @Tags events
// @Produce json
// @Param profileID path string true "Profile ID (UUID)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/profile/{profileID} [get]
func (c *EventController) ListEventsByProfile(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("profileID")
	if profileID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing profileID")
		return
	}
	events, err := c.Service.ListEventsForProfile(r.Context(), profileID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// CalendarFeed godoc
// @Summary iCalendar feed for a profile
// @Description Renders the profile's events as a text/calendar VCALENDAR document.
// @Tags events
// @Produce plain
// @Param profileID path string true "Profile ID (UUID)"
// @Success 200 {string} string "iCalendar document"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/profiles/{profileID}/calendar.ics [get]
func (c *EventController) CalendarFeed(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("profileID")
	if profileID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing profileID")
		return
	}
	events, err := c.Service.ListEventsForProfile(r.Context(), profileID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.Feed(events)))
}
