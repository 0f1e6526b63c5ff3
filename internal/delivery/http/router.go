package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"teamcal/internal/delivery/http/controllers"
	"teamcal/internal/delivery/http/helpers"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(profileController *controllers.ProfileController, eventController *controllers.EventController) *http.ServeMux {
	mux := http.NewServeMux()

	// Profiles
	mux.HandleFunc("POST /api/profiles", profileController.CreateProfile)
	mux.HandleFunc("GET /api/profiles", profileController.ListProfiles)
	mux.HandleFunc("GET /api/profiles/{profileID}", profileController.GetProfileByID)
	mux.HandleFunc("PUT /api/profiles/{profileID}/timezone", profileController.UpdateTimezone)
	mux.HandleFunc("GET /api/profiles/{profileID}/calendar.ics", eventController.CalendarFeed)

	// Events
	mux.HandleFunc("POST /api/events", eventController.CreateEvent)
	mux.HandleFunc("GET /api/events/profile/{profileID}", eventController.ListEventsByProfile)
	mux.HandleFunc("GET /api/events/{eventID}", eventController.GetEventByID)
	mux.HandleFunc("PUT /api/events/{eventID}", eventController.UpdateEvent)

	// Health
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
