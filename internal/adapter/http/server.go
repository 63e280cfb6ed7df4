package adapthttp

import (
	"net/http"

	"go.uber.org/zap"

	"meters/internal/app"
)

// Services groups the application services the HTTP adapter drives.
type Services struct {
	Auth        *app.AuthService
	Tokens      *app.TokenService
	Types       *app.TypeService
	Readings    *app.ReadingService
	Consumption *app.ConsumptionService
	Users       *app.UserService
	Audits      *app.AuditService
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth        *app.AuthService
	tokens      *app.TokenService
	types       *app.TypeService
	readings    *app.ReadingService
	consumption *app.ConsumptionService
	users       *app.UserService
	audits      *app.AuditService
	log         *zap.Logger
}

// New creates a Server wired to the given application services.
func New(svc Services, log *zap.Logger) *Server {
	return &Server{
		auth:        svc.Auth,
		tokens:      svc.Tokens,
		types:       svc.Types,
		readings:    svc.Readings,
		consumption: svc.Consumption,
		users:       svc.Users,
		audits:      svc.Audits,
		log:         log.Named("http"),
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("POST /auth/register", s.handleRegister)
	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/refresh", s.handleRefresh)

	api.HandleFunc("GET /reading-types", requireAuthenticated(s.handleTypesList))
	api.HandleFunc("POST /reading-types", requireAdmin(s.handleTypesAdd))
	api.HandleFunc("DELETE /reading-types/{name}", requireAdmin(s.handleTypesRemove))

	api.HandleFunc("POST /readings", requireAuthenticated(s.handleReadingSubmit))
	api.HandleFunc("GET /readings", requireAuthenticated(s.handleReadingHistory))
	api.HandleFunc("GET /readings/latest", requireAuthenticated(s.handleReadingLatest))
	api.HandleFunc("GET /readings/consumption", requireAuthenticated(s.handleConsumption))
	api.HandleFunc("GET /readings/{year}/{month}", requireAuthenticated(s.handleReadingForMonth))

	api.HandleFunc("GET /admin/readings", requireAdmin(s.handleAdminReadings))
	api.HandleFunc("GET /admin/audits", requireAdmin(s.handleAdminAudits))
	api.HandleFunc("GET /admin/users", requireAdmin(s.handleAdminUsers))
	api.HandleFunc("POST /admin/users/{username}/admin", requireAdmin(s.handleAssignAdmin))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", s.authGate(api)))

	return tracingMiddleware(s.loggingMiddleware(s.rescueMiddleware(withNoCache(root))))
}
