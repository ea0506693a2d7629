package session_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"trainerdesk/internal/adapters/storage"
	sessionStore "trainerdesk/internal/adapters/storage/session"
	domain "trainerdesk/internal/domain/session"
)

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

func exec(t *testing.T, db *sql.DB, q string, args ...any) {
	t.Helper()
	if _, err := db.Exec(q, args...); err != nil {
		t.Fatalf("exec %q: %v", q, err)
	}
}

// seed creates two trainers, each with one client and program.
func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	exec(t, db, `INSERT INTO client (id, trainer_id, full_name, primary_dog_name, created_at) VALUES
		('c1', 't1', 'Jane Doe', 'Rex', '2026-10-01T00:00:00Z'),
		('c2', 't2', 'Sam Lee', '', '2026-10-01T00:00:00Z')`)
	exec(t, db, `INSERT INTO program (id, trainer_id, client_id, name, created_at) VALUES
		('p1', 't1', 'c1', 'Puppy Foundations', '2026-10-01T00:00:00Z'),
		('p2', 't2', 'c2', 'Recall', '2026-10-01T00:00:00Z')`)
}

var weekStart = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

// TestListUpcoming_FiltersAndOrders verifies trainer scoping, the from bound and ordering.
func TestListUpcoming_FiltersAndOrders(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	store := sessionStore.NewSQLStore(storage.NewTimedDB(db, nil))
	ctx := context.Background()

	sessions := []domain.Session{
		{ID: "late", ProgramID: "p1", SessionDate: weekStart.Add(74 * time.Hour)},
		{ID: "early", ProgramID: "p1", SessionDate: weekStart.Add(34 * time.Hour), DurationMinutes: 45, Notes: "bring *treats*"},
		{ID: "before", ProgramID: "p1", SessionDate: weekStart.Add(-time.Hour)},
		{ID: "other", ProgramID: "p2", SessionDate: weekStart.Add(40 * time.Hour)},
		{ID: "boundary", ProgramID: "p1", SessionDate: weekStart},
	}
	for _, s := range sessions {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s): %v", s.ID, err)
		}
	}

	got, err := store.ListUpcoming(ctx, "t1", weekStart, 100)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	var ids []string
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	want := []string{"boundary", "early", "late"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	early := got[1]
	if early.ProgramName != "Puppy Foundations" || early.ClientFullName != "Jane Doe" || early.PrimaryDogName != "Rex" {
		t.Errorf("joined fields = %+v", early)
	}
	if early.DurationMinutes != 45 || early.Notes != "bring *treats*" {
		t.Errorf("duration/notes = %d %q", early.DurationMinutes, early.Notes)
	}
	if got[0].DurationMinutes != 0 || got[0].Duration() != time.Hour {
		t.Errorf("unset duration = %d", got[0].DurationMinutes)
	}
	if !early.SessionDate.Equal(weekStart.Add(34 * time.Hour)) {
		t.Errorf("session date = %v", early.SessionDate)
	}
}

// TestListUpcoming_Limit verifies the row cap.
func TestListUpcoming_Limit(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	store := sessionStore.NewSQLStore(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s := domain.Session{ID: string(rune('a' + i)), ProgramID: "p1", SessionDate: weekStart.Add(time.Duration(i) * time.Hour)}
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := store.ListUpcoming(ctx, "t1", weekStart, 3)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[2].ID != "c" {
		t.Errorf("got %d rows starting %v", len(got), got)
	}
}

// TestListUpcoming_SkipsUnreadableRows verifies a corrupt date does not fail the fetch.
func TestListUpcoming_SkipsUnreadableRows(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	exec(t, db, `INSERT INTO training_session (id, program_id, session_date, created_at) VALUES
		('good', 'p1', '2026-10-19T21:00:00Z', '2026-10-01T00:00:00Z'),
		('bad', 'p1', '2026-10-20 garbage', '2026-10-01T00:00:00Z')`)
	store := sessionStore.NewSQLStore(db)

	got, err := store.ListUpcoming(context.Background(), "t1", weekStart, 100)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Errorf("got %+v, want only the readable row", got)
	}
}

// TestGetByID_RoundTrip verifies Save then GetByID, and ErrNotFound.
func TestGetByID_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	store := sessionStore.NewSQLStore(db)
	ctx := context.Background()

	s := domain.Session{ID: "s1", ProgramID: "p1", SessionDate: weekStart.Add(10 * time.Hour), DurationMinutes: 30}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.SessionDate.Equal(s.SessionDate) || got.DurationMinutes != 30 || got.CreatedAt.IsZero() {
		t.Errorf("got %+v", got)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "s1"); !errors.Is(err, sessionStore.ErrNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrNotFound", err)
	}
}
