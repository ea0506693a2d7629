package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainerdesk/internal/adapters/storage"
	domain "trainerdesk/internal/domain/client"
)

// ErrNotFound is returned when no client has the requested id.
var ErrNotFound = errors.New("client not found")

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new client store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

const selectClient = `SELECT id, trainer_id, full_name, primary_dog_name, email, created_at FROM client`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var c domain.Client
	var created string
	if err := row.Scan(&c.ID, &c.TrainerID, &c.FullName, &c.PrimaryDogName, &c.Email, &created); err != nil {
		return domain.Client{}, err
	}
	c.CreatedAt, _ = storage.ParseTime(created)
	return c, nil
}

// GetByID retrieves a Client by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, selectClient+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return domain.Client{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return c, err
}

// Save persists a Client to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, entity domain.Client) error {
	created := entity.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client (id, trainer_id, full_name, primary_dog_name, email, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET full_name=excluded.full_name, primary_dog_name=excluded.primary_dog_name, email=excluded.email`,
		entity.ID, entity.TrainerID, entity.FullName, entity.PrimaryDogName, entity.Email, storage.FormatTime(created),
	)
	return err
}

// ListByTrainer retrieves a trainer's clients ordered by name.
// PRE: trainerID is non-empty
// POST: Returns matching entities
func (s *SQLStore) ListByTrainer(ctx context.Context, trainerID string) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, selectClient+` WHERE trainer_id = ? ORDER BY full_name, id`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
