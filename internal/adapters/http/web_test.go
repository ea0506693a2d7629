package web

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"trainerdesk/internal/adapters/http/middleware"
	"trainerdesk/internal/adapters/http/perf"
	"trainerdesk/internal/adapters/storage"
	clientStore "trainerdesk/internal/adapters/storage/client"
	connectionStore "trainerdesk/internal/adapters/storage/connection"
	programStore "trainerdesk/internal/adapters/storage/program"
	sessionStore "trainerdesk/internal/adapters/storage/session"
	workingHoursStore "trainerdesk/internal/adapters/storage/workinghours"
	"trainerdesk/internal/application/notify"
	"trainerdesk/internal/domain/agenda"
	clientDomain "trainerdesk/internal/domain/client"
	connectionDomain "trainerdesk/internal/domain/connection"
	programDomain "trainerdesk/internal/domain/program"
	sessionDomain "trainerdesk/internal/domain/session"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/observability/metrics"
)

const testTrainer = "trainer-1"

var (
	testLoc = time.FixedZone("NZDT", 13*60*60)
	// Wednesday of the week starting Sunday 18 October 2026.
	testNow = time.Date(2026, 10, 21, 10, 30, 0, 0, testLoc)
)

// fakeCalendar returns fixed external events or a fixed error.
type fakeCalendar struct {
	events []agenda.ExternalEvent
	err    error
}

func (f *fakeCalendar) Upcoming(ctx context.Context, conn connectionDomain.Connection, from time.Time) ([]agenda.ExternalEvent, error) {
	return f.events, f.err
}

// failingSessionStore breaks the internal half of the agenda.
type failingSessionStore struct {
	sessionStore.Store
}

func (failingSessionStore) ListUpcoming(ctx context.Context, trainerID string, from time.Time, limit int) ([]sessionDomain.Booked, error) {
	return nil, errors.New("database is locked")
}

type testApp struct {
	handler   http.Handler // full middleware chain
	direct    http.Handler // routes behind Auth and Notifications only
	stores    *Stores
	calendar  *fakeCalendar
	notify    *notify.Service
	collector *perf.Collector
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, storage.DialectSQLite); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	return db
}

// newTestApp wires the web package over an in-memory database seeded with
// one client, an active and a paused program, one session on Tuesday, an ICS
// connection and one external event on Thursday.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithAuth(t, middleware.AuthConfig{DevTrainerID: testTrainer})
}

func newTestAppWithAuth(t *testing.T, auth middleware.AuthConfig) *testApp {
	t.Helper()

	prevNow, prevLoc, prevRate := timeNow, displayLoc, RateLimitPerSecond
	t.Cleanup(func() {
		timeNow, displayLoc, RateLimitPerSecond = prevNow, prevLoc, prevRate
	})
	timeNow = func() time.Time { return testNow }
	RateLimitPerSecond = 10000

	db := openTestDB(t)
	s := &Stores{
		SessionStore:      sessionStore.NewSQLStore(db),
		ProgramStore:      programStore.NewSQLStore(db),
		ClientStore:       clientStore.NewSQLStore(db),
		WorkingHoursStore: workingHoursStore.NewSQLStore(db),
		ConnectionStore:   connectionStore.NewSQLStore(db),
	}
	seedTestData(t, s)

	cal := &fakeCalendar{events: []agenda.ExternalEvent{{
		ID:      "ext-1",
		Summary: "Dentist",
		Start:   agenda.EventTime{DateTime: "2026-10-22T13:00:00+13:00"},
		End:     agenda.EventTime{DateTime: "2026-10-22T14:00:00+13:00"},
	}}}
	svc := notify.NewService(notify.DefaultTTL, notify.WithClock(func() time.Time { return testNow }))
	collector := perf.NewCollector(100)
	reg := prometheus.NewRegistry()

	handler := NewMux(s, Options{
		Collector:      collector,
		Calendar:       cal,
		Notifications:  svc,
		Metrics:        metrics.NewAgendaMetrics(reg),
		Gatherer:       reg,
		Location:       testLoc,
		Geometry:       timegrid.Default(),
		ViewportHeight: 600,
		Auth:           auth,
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
	})

	mux := http.NewServeMux()
	registerRoutes(mux)
	direct := middleware.Chain(mux, middleware.Notifications(svc), middleware.Auth(auth))

	return &testApp{
		handler:   handler,
		direct:    direct,
		stores:    s,
		calendar:  cal,
		notify:    svc,
		collector: collector,
	}
}

func seedTestData(t *testing.T, s *Stores) {
	t.Helper()
	ctx := context.Background()
	clients := []clientDomain.Client{
		{ID: "c1", TrainerID: testTrainer, FullName: "Sam Carter", PrimaryDogName: "Biscuit", CreatedAt: testNow},
		{ID: "c2", TrainerID: "trainer-2", FullName: "Other Owner", CreatedAt: testNow},
	}
	for _, c := range clients {
		if err := s.ClientStore.Save(ctx, c); err != nil {
			t.Fatalf("save client %s: %v", c.ID, err)
		}
	}
	programs := []programDomain.Program{
		{ID: "p1", TrainerID: testTrainer, ClientID: "c1", Name: "Puppy foundations", Status: programDomain.StatusActive, CreatedAt: testNow},
		{ID: "p2", TrainerID: testTrainer, ClientID: "c1", Name: "Old recall work", Status: programDomain.StatusPaused, CreatedAt: testNow},
		{ID: "p-other", TrainerID: "trainer-2", ClientID: "c2", Name: "Not yours", Status: programDomain.StatusActive, CreatedAt: testNow},
	}
	for _, p := range programs {
		if err := s.ProgramStore.Save(ctx, p); err != nil {
			t.Fatalf("save program %s: %v", p.ID, err)
		}
	}
	if err := s.SessionStore.Save(ctx, sessionDomain.Session{
		ID:              "s1",
		ProgramID:       "p1",
		SessionDate:     time.Date(2026, 10, 20, 10, 0, 0, 0, testLoc),
		DurationMinutes: 60,
		Notes:           "Work on **sit** at the door",
		CreatedAt:       testNow,
	}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := s.ConnectionStore.Save(ctx, connectionDomain.Connection{
		TrainerID:   testTrainer,
		Provider:    connectionDomain.ProviderICS,
		FeedURL:     "https://cal.example.com/trainer.ics",
		ConnectedAt: testNow,
	}); err != nil {
		t.Fatalf("save connection: %v", err)
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Result().Body)
	return rec, string(body)
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	return do(t, h, httptest.NewRequest(http.MethodGet, target, nil))
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, h, req)
}

func sendJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, h, req)
}

func TestRootRedirectsToCalendar(t *testing.T) {
	app := newTestApp(t)
	rec, _ := get(t, app.handler, "/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("GET / = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/calendar" {
		t.Errorf("Location = %q, want /calendar", loc)
	}
}

func TestRoutesRequireTrainer(t *testing.T) {
	app := newTestAppWithAuth(t, middleware.AuthConfig{Secret: []byte("secret")})

	for _, path := range []string{"/calendar", "/api/agenda", "/api/working-hours", "/api/calendar/connection", "/sessions/new?date=2026-10-20&hour=9", "/api/perf"} {
		rec, _ := get(t, app.handler, path)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, rec.Code)
		}
	}
	if rec, _ := get(t, app.handler, "/health"); rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200 without identity", rec.Code)
	}
}

func TestSecurityHeadersOnPages(t *testing.T) {
	app := newTestApp(t)
	rec, _ := get(t, app.handler, "/calendar")
	if rec.Header().Get("X-Frame-Options") == "" {
		t.Error("missing X-Frame-Options on /calendar")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}

func TestLoadCSRFKey(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)
	raw := "this-is-a-raw-key-of-at-least-32-bytes"

	tests := []struct {
		name       string
		configured string
		production bool
		wantErr    bool
		wantKey    []byte
	}{
		{"hex key", hexKey, true, false, []byte(strings.Repeat("\xab", 32))},
		{"raw key truncated", raw, true, false, []byte(raw[:32])},
		{"too short", "short", false, true, nil},
		{"missing in production", "", true, true, nil},
		{"random in development", "", false, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := LoadCSRFKey(tt.configured, tt.production)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadCSRFKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(key) != 32 {
				t.Fatalf("len(key) = %d, want 32", len(key))
			}
			if tt.wantKey != nil && string(key) != string(tt.wantKey) {
				t.Errorf("key = %x, want %x", key, tt.wantKey)
			}
		})
	}
}
