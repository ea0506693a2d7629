package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Dialect selects placeholder style and schema variations.
type Dialect string

// Supported dialects
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// TimeLayout is the stored form of every timestamp column. Values are UTC so
// text comparison orders them chronologically.
const TimeLayout = "2006-01-02T15:04:05Z"

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp. RFC 3339 with an offset is accepted too.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Rebind rewrites ? placeholders to $1..$n for postgres. Question marks inside
// single-quoted literals are left alone.
// PRE: query uses ? placeholders
// POST: returns query unchanged for sqlite
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations is append-only. Never edit an applied entry; add a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "baseline",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS client (
				id TEXT PRIMARY KEY,
				trainer_id TEXT NOT NULL,
				full_name TEXT NOT NULL,
				primary_dog_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_client_trainer ON client(trainer_id)`,
			`CREATE TABLE IF NOT EXISTS program (
				id TEXT PRIMARY KEY,
				trainer_id TEXT NOT NULL,
				client_id TEXT NOT NULL REFERENCES client(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_program_trainer ON program(trainer_id)`,
			`CREATE TABLE IF NOT EXISTS training_session (
				id TEXT PRIMARY KEY,
				program_id TEXT NOT NULL REFERENCES program(id) ON DELETE CASCADE,
				session_date TEXT NOT NULL,
				notes TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_training_session_date ON training_session(session_date)`,
		},
	},
	{
		version: 2,
		name:    "working_hours",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS working_hours (
				trainer_id TEXT PRIMARY KEY,
				work_days TEXT NOT NULL DEFAULT '[]',
				work_start TEXT NOT NULL,
				work_end TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 3,
		name:    "calendar_connection",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS calendar_connection (
				trainer_id TEXT PRIMARY KEY,
				provider TEXT NOT NULL,
				access_token TEXT NOT NULL DEFAULT '',
				feed_url TEXT NOT NULL DEFAULT '',
				connected_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 4,
		name:    "session_duration",
		stmts: []string{
			`ALTER TABLE training_session ADD COLUMN duration_minutes INTEGER`,
		},
	},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
// PRE: db is a valid database connection
// POST: Returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&exists)
	if err != nil {
		// Table missing on a fresh database.
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies pending migrations in order, each in its own transaction.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
// INVARIANT: re-running on a migrated database is a no-op
func MigrateDB(db *sql.DB, dialect Dialect) error {
	ctx := context.Background()
	if dialect == DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", m.version, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			Rebind(dialect, `INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`),
			m.version, m.name, FormatTime(time.Now()),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", m.version, err)
		}
		slog.Info("migration_applied", "version", m.version, "name", m.name)
	}
	return nil
}
