package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trainerdesk/internal/adapters/storage"
	domain "trainerdesk/internal/domain/session"
)

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new session store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a Session by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, program_id, session_date, duration_minutes, notes, created_at FROM training_session WHERE id = ?`, id)
	var (
		entity        domain.Session
		date, created string
		duration      sql.NullInt64
	)
	err := row.Scan(&entity.ID, &entity.ProgramID, &date, &duration, &entity.Notes, &created)
	if err == sql.ErrNoRows {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Session{}, err
	}
	if entity.SessionDate, err = storage.ParseTime(date); err != nil {
		return domain.Session{}, fmt.Errorf("session %s: session_date: %w", id, err)
	}
	entity.CreatedAt, _ = storage.ParseTime(created)
	entity.DurationMinutes = int(duration.Int64)
	return entity, nil
}

// Save persists a Session to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, entity domain.Session) error {
	var duration sql.NullInt64
	if entity.DurationMinutes > 0 {
		duration = sql.NullInt64{Int64: int64(entity.DurationMinutes), Valid: true}
	}
	created := entity.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_session (id, program_id, session_date, duration_minutes, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET program_id=excluded.program_id, session_date=excluded.session_date,
			duration_minutes=excluded.duration_minutes, notes=excluded.notes`,
		entity.ID, entity.ProgramID, storage.FormatTime(entity.SessionDate), duration, entity.Notes, storage.FormatTime(created),
	)
	return err
}

// Delete removes a Session from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM training_session WHERE id = ?`, id)
	return err
}

// bookedRow is the raw shape of the session -> program -> client join. Every
// joined column is nullable so a dangling reference scans instead of failing
// the whole page.
type bookedRow struct {
	ID              sql.NullString
	ProgramID       sql.NullString
	SessionDate     sql.NullString
	DurationMinutes sql.NullInt64
	Notes           sql.NullString
	ProgramName     sql.NullString
	ClientFullName  sql.NullString
	PrimaryDogName  sql.NullString
}

// toBooked converts the row, rejecting rows whose date cannot be read.
func (r bookedRow) toBooked() (domain.Booked, error) {
	if !r.ID.Valid || !r.SessionDate.Valid {
		return domain.Booked{}, errors.New("row missing id or session_date")
	}
	when, err := storage.ParseTime(r.SessionDate.String)
	if err != nil {
		return domain.Booked{}, fmt.Errorf("session_date %q: %w", r.SessionDate.String, err)
	}
	return domain.Booked{
		Session: domain.Session{
			ID:              r.ID.String,
			ProgramID:       r.ProgramID.String,
			SessionDate:     when,
			DurationMinutes: int(r.DurationMinutes.Int64),
			Notes:           r.Notes.String,
		},
		ProgramName:    r.ProgramName.String,
		ClientFullName: r.ClientFullName.String,
		PrimaryDogName: r.PrimaryDogName.String,
	}, nil
}

// ListUpcoming returns the trainer's sessions dated at or after from, ascending,
// joined through program to client. Rows that cannot be converted are logged
// and skipped.
// PRE: limit > 0
// POST: len(result) <= limit; result sorted by SessionDate ascending
func (s *SQLStore) ListUpcoming(ctx context.Context, trainerID string, from time.Time, limit int) ([]domain.Booked, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.program_id, s.session_date, s.duration_minutes, s.notes,
			p.name, c.full_name, c.primary_dog_name
		FROM training_session s
		JOIN program p ON p.id = s.program_id
		LEFT JOIN client c ON c.id = p.client_id
		WHERE p.trainer_id = ? AND s.session_date >= ?
		ORDER BY s.session_date ASC, s.id ASC
		LIMIT ?`,
		trainerID, storage.FormatTime(from), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	defer rows.Close()

	var results []domain.Booked
	for rows.Next() {
		var r bookedRow
		if err := rows.Scan(&r.ID, &r.ProgramID, &r.SessionDate, &r.DurationMinutes, &r.Notes,
			&r.ProgramName, &r.ClientFullName, &r.PrimaryDogName); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		b, err := r.toBooked()
		if err != nil {
			slog.Warn("session_row_rejected", "session_id", r.ID.String, "error", err)
			continue
		}
		results = append(results, b)
	}
	return results, rows.Err()
}
