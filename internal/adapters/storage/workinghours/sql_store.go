package workinghours

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"trainerdesk/internal/adapters/storage"
	domain "trainerdesk/internal/domain/workinghours"
)

// SQLStore implements Store over SQLite or Postgres.
// work_days is stored as a JSON array, e.g. "[1,2,3,4,5]".
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new working-hours store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Get retrieves the trainer's config.
// PRE: trainerID is non-empty
// POST: Returns the config, or domain.ErrNotFound when none is saved
func (s *SQLStore) Get(ctx context.Context, trainerID string) (domain.Config, error) {
	var (
		cfg     domain.Config
		days    string
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT trainer_id, work_days, work_start, work_end, updated_at FROM working_hours WHERE trainer_id = ?`,
		trainerID,
	).Scan(&cfg.TrainerID, &days, &cfg.WorkStart, &cfg.WorkEnd, &updated)
	if err == sql.ErrNoRows {
		return domain.Config{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Config{}, err
	}
	if err := json.Unmarshal([]byte(days), &cfg.WorkDays); err != nil {
		return domain.Config{}, fmt.Errorf("working_hours.work_days %q: %w", days, err)
	}
	cfg.UpdatedAt, _ = storage.ParseTime(updated)
	return cfg, nil
}

// Save upserts the trainer's config.
// PRE: value has been validated
// POST: Config is persisted
func (s *SQLStore) Save(ctx context.Context, value domain.Config) error {
	days := value.WorkDays
	if days == nil {
		days = []int{}
	}
	encoded, err := json.Marshal(days)
	if err != nil {
		return err
	}
	updated := value.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO working_hours (trainer_id, work_days, work_start, work_end, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(trainer_id) DO UPDATE SET work_days=excluded.work_days, work_start=excluded.work_start,
			work_end=excluded.work_end, updated_at=excluded.updated_at`,
		value.TrainerID, string(encoded), value.WorkStart, value.WorkEnd, storage.FormatTime(updated),
	)
	return err
}
