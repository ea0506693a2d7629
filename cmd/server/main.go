package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite"

	"trainerdesk/internal/adapters/calendar"
	web "trainerdesk/internal/adapters/http"
	"trainerdesk/internal/adapters/http/middleware"
	"trainerdesk/internal/adapters/http/perf"
	"trainerdesk/internal/adapters/storage"
	clientStore "trainerdesk/internal/adapters/storage/client"
	connectionStore "trainerdesk/internal/adapters/storage/connection"
	programStore "trainerdesk/internal/adapters/storage/program"
	sessionStore "trainerdesk/internal/adapters/storage/session"
	workingHoursStore "trainerdesk/internal/adapters/storage/workinghours"
	"trainerdesk/internal/application/notify"
	"trainerdesk/internal/application/orchestrators"
	"trainerdesk/internal/config"
	"trainerdesk/internal/domain/connection"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/observability/metrics"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "trainerdesk.yaml", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(cfg.Env, cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.MigrateDB(db, cfg.Dialect()); err != nil {
		return err
	}
	slog.Info("database_ready", "driver", cfg.DBDriver, "schema", storage.LatestSchemaVersion())

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector).WithDialect(cfg.Dialect())
	timedDB.SetSlowThreshold(cfg.SlowQueryMs)

	stores := &web.Stores{
		SessionStore:      sessionStore.NewSQLStore(timedDB),
		ProgramStore:      programStore.NewSQLStore(timedDB),
		ClientStore:       clientStore.NewSQLStore(timedDB),
		WorkingHoursStore: workingHoursStore.NewSQLStore(timedDB),
		ConnectionStore:   connectionStore.NewSQLStore(timedDB),
	}

	var googleOpts []calendar.GoogleOption
	if cfg.GoogleAPIEndpoint != "" {
		googleOpts = append(googleOpts, calendar.WithGoogleEndpoint(cfg.GoogleAPIEndpoint))
	}
	calendars := calendar.NewRouter(map[string]calendar.Provider{
		connection.ProviderGoogle: calendar.NewGoogleProvider(googleOpts...),
		connection.ProviderICS:    calendar.NewICSProvider(nil, calendar.DefaultICSHorizon, loc),
	}).WithCollector(collector)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	agendaMetrics := metrics.NewAgendaMetrics(reg)

	notifications := notify.NewService(cfg.NotificationTTL)
	sweeper, err := notify.StartSweeper(notifications, notify.DefaultSweepSchedule)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	auth := middleware.AuthConfig{Secret: []byte(cfg.AuthJWTSecret)}
	if !cfg.IsProduction() {
		auth.DevTrainerID = cfg.DevTrainerID
		seedDeps := orchestrators.SeedDevDataDeps{
			ClientStore:  stores.ClientStore,
			ProgramStore: stores.ProgramStore,
			SessionStore: stores.SessionStore,
			Now:          time.Now,
			Location:     loc,
		}
		if err := orchestrators.ExecuteSeedDevData(context.Background(), cfg.DevTrainerID, seedDeps); err != nil {
			return err
		}
	}

	csrfKey, err := web.LoadCSRFKey(cfg.CSRFKey, cfg.IsProduction())
	if err != nil {
		return err
	}

	web.RateLimitPerSecond = cfg.RateLimitPerSecond
	handler := web.NewMux(stores, web.Options{
		Collector:      collector,
		Calendar:       calendars,
		Notifications:  notifications,
		Metrics:        agendaMetrics,
		Gatherer:       reg,
		Location:       loc,
		Geometry:       timegrid.WithHourHeight(cfg.HourHeight),
		ViewportHeight: cfg.ViewportHeight,
		SessionLimit:   cfg.SessionLimit,
		Auth:           auth,
		CSRFKey:        csrfKey,
		Production:     cfg.IsProduction(),
		SlowRequestMs:  cfg.SlowRequestMs,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDB opens the configured database. SQLite gets WAL mode, foreign keys
// and a busy timeout.
func openDB(cfg *config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Dialect() {
	case storage.DialectPostgres:
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	default:
		dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// Connection pool settings for WAL mode
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
