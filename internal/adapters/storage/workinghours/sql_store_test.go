package workinghours_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"

	"trainerdesk/internal/adapters/storage"
	whStore "trainerdesk/internal/adapters/storage/workinghours"
	domain "trainerdesk/internal/domain/workinghours"
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

// TestSQLStore_GetMissing verifies an unsaved config reports ErrNotFound.
func TestSQLStore_GetMissing(t *testing.T) {
	store := whStore.NewSQLStore(openTestDB(t))
	if _, err := store.Get(context.Background(), "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// TestSQLStore_SaveAndUpdate verifies upsert semantics and work_days encoding.
func TestSQLStore_SaveAndUpdate(t *testing.T) {
	store := whStore.NewSQLStore(openTestDB(t))
	ctx := context.Background()

	cfg := domain.Config{TrainerID: "t1", WorkDays: []int{1, 2, 3, 4, 5}, WorkStart: "09:00", WorkEnd: "17:00"}
	if err := store.Save(ctx, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got.WorkDays, cfg.WorkDays) || got.WorkStart != "09:00" || got.WorkEnd != "17:00" {
		t.Errorf("Get() = %+v", got)
	}

	cfg.WorkDays = nil
	cfg.WorkStart = "10:30"
	if err := store.Save(ctx, cfg); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, _ = store.Get(ctx, "t1")
	if len(got.WorkDays) != 0 || got.WorkStart != "10:30" {
		t.Errorf("after update Get() = %+v", got)
	}
}
