package program

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainerdesk/internal/adapters/storage"
	domain "trainerdesk/internal/domain/program"
)

// ErrNotFound is returned when no program has the requested id.
var ErrNotFound = errors.New("program not found")

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new program store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

const selectProgram = `SELECT id, trainer_id, client_id, name, status, created_at FROM program`

func scanProgram(row interface{ Scan(...any) error }) (domain.Program, error) {
	var p domain.Program
	var created string
	if err := row.Scan(&p.ID, &p.TrainerID, &p.ClientID, &p.Name, &p.Status, &created); err != nil {
		return domain.Program{}, err
	}
	p.CreatedAt, _ = storage.ParseTime(created)
	return p, nil
}

// GetByID retrieves a Program by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Program, error) {
	p, err := scanProgram(s.db.QueryRowContext(ctx, selectProgram+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return domain.Program{}, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	return p, err
}

// Save persists a Program to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, entity domain.Program) error {
	created := entity.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO program (id, trainer_id, client_id, name, status, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET client_id=excluded.client_id, name=excluded.name, status=excluded.status`,
		entity.ID, entity.TrainerID, entity.ClientID, entity.Name, entity.Status, storage.FormatTime(created),
	)
	return err
}

// Delete removes a Program and, by cascade, its sessions.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM program WHERE id = ?`, id)
	return err
}

// ListByTrainer retrieves a trainer's programs ordered by name.
// PRE: trainerID is non-empty
// POST: Returns matching entities
func (s *SQLStore) ListByTrainer(ctx context.Context, trainerID string) ([]domain.Program, error) {
	rows, err := s.db.QueryContext(ctx, selectProgram+` WHERE trainer_id = ? ORDER BY name, id`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
