package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	"github.com/n1rocket/go-profile-validity/internal/http/handlers"
	"github.com/n1rocket/go-profile-validity/internal/http/middleware"
	"github.com/n1rocket/go-profile-validity/internal/http/response"
	"github.com/n1rocket/go-profile-validity/internal/identity"
	"github.com/n1rocket/go-profile-validity/internal/metrics"
	"github.com/n1rocket/go-profile-validity/internal/service"
	"github.com/n1rocket/go-profile-validity/internal/session"
)

// MessagesPath is where session notices are drained
const MessagesPath = "/api/session/messages"

// Deps are the collaborators the router serves
type Deps struct {
	Validity service.ValidityServiceInterface
	Profiles service.ProfileServiceInterface
	Sessions session.Store
	Cookies  session.Cookies
	Paths    handlers.Paths
	Identity identity.Resolver

	// Metrics is optional; when set its registry is served at MetricsPath
	Metrics     *metrics.Metrics
	MetricsPath string

	Ready      map[string]handlers.Check
	IssueLimit middleware.RateLimitConfig
	Security   middleware.SecurityConfig
	Logger     *slog.Logger
}

var errRouteNotFound = apperrors.NewError(apperrors.ErrorTypeNotFound, "resource not found").WithCode("NOT_FOUND")

// Routes configures and returns the HTTP routes
func Routes(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Paths.Profile == "" {
		deps.Paths.Profile = "/api/profile"
	}

	validityHandler := handlers.NewValidityHandler(deps.Validity, deps.Sessions, deps.Cookies, deps.Paths, logger)
	profileHandler := handlers.NewProfileHandler(deps.Profiles, deps.Paths)
	messagesHandler := handlers.NewMessagesHandler(deps.Sessions, deps.Cookies)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, errRouteNotFound)
	})
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	// Profile resources act on the resolved caller only
	profile := router.PathPrefix(deps.Paths.Profile).Subrouter()
	profile.Use(middleware.RequireUser(deps.Identity))

	issueLimiter := middleware.RateLimit(deps.IssueLimit, logger)

	profile.HandleFunc("", profileHandler.Get).Methods(http.MethodGet)
	profile.HandleFunc("", profileHandler.Update).Methods(http.MethodPost)
	profile.HandleFunc("/validity", validityHandler.Status).Methods(http.MethodGet)
	profile.Handle("/validity", issueLimiter(http.HandlerFunc(validityHandler.Issue))).Methods(http.MethodPost)
	profile.HandleFunc("/validity/verify/{uuid}", validityHandler.Confirm).Methods(http.MethodGet)

	router.HandleFunc(MessagesPath, messagesHandler.Drain).Methods(http.MethodGet)

	router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/ready", handlers.Ready(deps.Ready)).Methods(http.MethodGet)

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	// RequestID runs first so every later layer can log the id
	var handler http.Handler = router
	handler = middleware.SecurityHeaders(deps.Security)(handler)
	handler = middleware.Recover(handler)
	handler = middleware.Logger(handler)
	handler = middleware.RequestID(handler)

	return handler
}
