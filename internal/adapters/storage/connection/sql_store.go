package connection

import (
	"context"
	"database/sql"
	"time"

	"trainerdesk/internal/adapters/storage"
	domain "trainerdesk/internal/domain/connection"
)

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new connection store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Get retrieves the trainer's connection.
// PRE: trainerID is non-empty
// POST: Returns the connection, or domain.ErrNotFound
func (s *SQLStore) Get(ctx context.Context, trainerID string) (domain.Connection, error) {
	var c domain.Connection
	var connected string
	err := s.db.QueryRowContext(ctx,
		`SELECT trainer_id, provider, access_token, feed_url, connected_at FROM calendar_connection WHERE trainer_id = ?`,
		trainerID,
	).Scan(&c.TrainerID, &c.Provider, &c.AccessToken, &c.FeedURL, &connected)
	if err == sql.ErrNoRows {
		return domain.Connection{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Connection{}, err
	}
	c.ConnectedAt, _ = storage.ParseTime(connected)
	return c, nil
}

// Save upserts the trainer's connection, replacing any previous provider.
// PRE: value has been validated
// POST: Connection is persisted
func (s *SQLStore) Save(ctx context.Context, value domain.Connection) error {
	connected := value.ConnectedAt
	if connected.IsZero() {
		connected = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_connection (trainer_id, provider, access_token, feed_url, connected_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(trainer_id) DO UPDATE SET provider=excluded.provider, access_token=excluded.access_token,
			feed_url=excluded.feed_url, connected_at=excluded.connected_at`,
		value.TrainerID, value.Provider, value.AccessToken, value.FeedURL, storage.FormatTime(connected),
	)
	return err
}

// Delete removes the trainer's connection. Deleting a missing connection is not an error.
// PRE: trainerID is non-empty
// POST: No connection remains for trainerID
func (s *SQLStore) Delete(ctx context.Context, trainerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM calendar_connection WHERE trainer_id = ?`, trainerID)
	return err
}
