package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/auth"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/metrics"
)

type Dependencies struct {
	Logger *slog.Logger
	Addr   string
	Tokens *auth.Tokens

	// Metrics records per-route HTTP metrics; MetricsHandler serves
	// /metrics.  Either may be nil.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Tracing        bool

	Scan          *service.ScanService
	Registration  *service.RegistrationService
	Notifications *service.NotificationService
	Settings      *service.SettingsService
	Reports       *service.ReportService
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	mux        *http.ServeMux
	tokens     *auth.Tokens
	loc        *time.Location

	scan          *service.ScanService
	registration  *service.RegistrationService
	notifications *service.NotificationService
	settings      *service.SettingsService
	reports       *service.ReportService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:        d.Logger,
		mux:           mux,
		tokens:        d.Tokens,
		loc:           d.Scan.Location(),
		scan:          d.Scan,
		registration:  d.Registration,
		notifications: d.Notifications,
		settings:      d.Settings,
		reports:       d.Reports,
	}

	admin := func(h http.HandlerFunc) http.HandlerFunc { return s.requireRole(h, auth.RoleAdmin) }
	door := func(h http.HandlerFunc) http.HandlerFunc {
		return s.requireRole(h, auth.RoleScanner, auth.RoleAdmin)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if d.MetricsHandler != nil {
		mux.Handle("GET /metrics", d.MetricsHandler)
	}

	// Scanner
	mux.HandleFunc("POST /v1/scan", door(s.handleScan))
	mux.HandleFunc("GET /v1/stats/today", door(s.handleTodayStats))
	mux.HandleFunc("GET /v1/entries/recent", admin(s.handleRecentEntries))

	// Persons
	mux.HandleFunc("POST /v1/persons", admin(s.handleRegister))
	mux.HandleFunc("GET /v1/persons", admin(s.handleListPersons))
	mux.HandleFunc("GET /v1/persons/{id}", admin(s.handleGetPerson))
	mux.HandleFunc("DELETE /v1/persons/{id}", admin(s.handleDeletePerson))
	mux.HandleFunc("POST /v1/persons/{id}/resend", admin(s.handleResend))
	mux.HandleFunc("POST /v1/persons/{id}/deactivate", admin(s.handleSetActive(false)))
	mux.HandleFunc("POST /v1/persons/{id}/activate", admin(s.handleSetActive(true)))
	mux.HandleFunc("GET /v1/persons/{id}/qr.png", admin(s.handleCredentialPNG))
	mux.HandleFunc("GET /v1/persons/{id}/entries", admin(s.handlePersonEntries))
	mux.HandleFunc("GET /v1/persons/{id}/notifications", admin(s.handlePersonNotifications))
	mux.HandleFunc("GET /v1/notifications", admin(s.handleNotifications))

	// Settings
	mux.HandleFunc("GET /v1/settings", admin(s.handleGetSettings))
	mux.HandleFunc("PUT /v1/settings", admin(s.handleUpdateSettings))
	mux.HandleFunc("POST /v1/settings/reset", admin(s.handleResetSettings))
	mux.HandleFunc("GET /v1/settings/preview", admin(s.handlePreview))

	// Reports
	mux.HandleFunc("POST /v1/reports", admin(s.handleGenerateReport))
	mux.HandleFunc("GET /v1/reports/{name}", admin(s.handleDownloadReport))
	mux.HandleFunc("POST /v1/reports/{name}/send", admin(s.handleShareReport))

	var handler http.Handler = recoverMiddleware(d.Logger, mux)
	handler = loggingMiddleware(d.Logger, d.Metrics, handler)
	handler = requestIDMiddleware(handler)
	if d.Tracing {
		handler = tracingMiddleware(handler)
	}

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail writes err as an API error, logging anything unexpected.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code, known := apiError(err)
	if !known {
		s.logger.ErrorContext(r.Context(), op+" failed",
			slog.String("request_id", requestID(r.Context())),
			slog.Any("err", err))
		writeError(w, status, code, "unexpected server error")
		return
	}
	writeError(w, status, code, err.Error())
}
