package web

import (
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trainerdesk/internal/adapters/http/middleware"
	"trainerdesk/internal/adapters/http/perf"
	clientStore "trainerdesk/internal/adapters/storage/client"
	connectionStore "trainerdesk/internal/adapters/storage/connection"
	programStore "trainerdesk/internal/adapters/storage/program"
	sessionStore "trainerdesk/internal/adapters/storage/session"
	workingHoursStore "trainerdesk/internal/adapters/storage/workinghours"
	"trainerdesk/internal/application/notify"
	"trainerdesk/internal/application/projections"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/observability/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Stores holds all storage dependencies.
type Stores struct {
	SessionStore      sessionStore.Store
	ProgramStore      programStore.Store
	ClientStore       clientStore.Store
	WorkingHoursStore workingHoursStore.Store
	ConnectionStore   connectionStore.Store
}

// Options holds everything except storage that the handlers need.
type Options struct {
	Collector *perf.Collector

	// Calendar reads external events; nil shows booked sessions only.
	Calendar      projections.AgendaCalendar
	Notifications *notify.Service
	Metrics       *metrics.AgendaMetrics
	Gatherer      prometheus.Gatherer

	Location       *time.Location
	Geometry       timegrid.Geometry
	ViewportHeight float64
	SessionLimit   int

	Auth          middleware.AuthConfig
	CSRFKey       []byte
	Production    bool
	SlowRequestMs int
}

// Global stores instance (set by NewMux)
var stores *Stores

// Handler dependencies (set by NewMux)
var (
	perfCollector  *perf.Collector
	calendarSource projections.AgendaCalendar
	agendaMetrics  *metrics.AgendaMetrics
	displayLoc     = time.Local
	geometry       = timegrid.Default()
	viewportHeight = 600.0
	sessionLimit   = projections.DefaultSessionLimit
)

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// LoadCSRFKey returns the CSRF secret. configured may be 64 hex characters
// or at least 32 raw bytes. Outside production an empty value yields a random
// key per startup.
// PRE: none
// POST: returns a 32-byte key or an error
func LoadCSRFKey(configured string, production bool) ([]byte, error) {
	if configured != "" {
		if key, err := hex.DecodeString(configured); err == nil && len(key) == 32 {
			return key, nil
		}
		if len(configured) >= 32 {
			return []byte(configured)[:32], nil
		}
		return nil, errors.New("csrf key must be 64 hex characters or at least 32 bytes")
	}
	if production {
		return nil, errors.New("csrf key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_random", "hint", "set TRAINERDESK_CSRF_KEY so form tokens survive restarts")
	return key, nil
}

// NewMux wires HTTP handlers for the app.
// PRE: s is fully populated; opts.CSRFKey is 32 bytes
// POST: returns the handler with the full middleware chain applied
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	perfCollector = opts.Collector
	calendarSource = opts.Calendar
	agendaMetrics = opts.Metrics
	if opts.Location != nil {
		displayLoc = opts.Location
	}
	if opts.Geometry.Validate() == nil {
		geometry = opts.Geometry
	}
	if opts.ViewportHeight > 0 {
		viewportHeight = opts.ViewportHeight
	}
	if opts.SessionLimit > 0 {
		sessionLimit = opts.SessionLimit
	}
	notifications = opts.Notifications
	if notifications == nil {
		notifications = notify.NewService(notify.DefaultTTL)
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Applied inner to outer: the request passes Timing -> RateLimit ->
	// SecurityHeaders -> Auth -> Notifications -> CSRF -> mux.
	return middleware.Chain(mux,
		middleware.CSRF(middleware.CSRFConfig{
			Key:            opts.CSRFKey,
			Secure:         opts.Production,
			TrustedOrigins: []string{"localhost:8080", "127.0.0.1:8080"},
		}),
		middleware.Notifications(notifications),
		middleware.Auth(opts.Auth),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequestMs),
	)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusSeeOther)
	})

	trainer := func(h http.HandlerFunc) http.Handler { return middleware.RequireTrainer(h) }

	mux.Handle("GET /calendar", trainer(handleCalendarPage))
	mux.Handle("GET /api/agenda", trainer(handleAgendaAPI))

	mux.Handle("GET /api/working-hours", trainer(handleGetWorkingHours))
	mux.Handle("PUT /api/working-hours", trainer(handlePutWorkingHours))

	mux.Handle("GET /api/calendar/connection", trainer(handleGetConnection))
	mux.Handle("PUT /api/calendar/connection", trainer(handlePutConnection))
	mux.Handle("DELETE /api/calendar/connection", trainer(handleDeleteConnection))

	mux.Handle("GET /sessions/new", trainer(handleNewSessionForm))
	mux.Handle("POST /sessions", trainer(handleCreateSession))

	mux.Handle("POST /notifications/{id}/dismiss", trainer(handleDismissNotification))

	mux.Handle("GET /api/perf", trainer(handlePerf))
}
