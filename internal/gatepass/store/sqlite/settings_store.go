package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/gatepass/internal/db"
)

type SettingsStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewSettingsStore(db *sql.DB, writer *dbpkg.Worker) *SettingsStore {
	return &SettingsStore{db: db, writer: writer}
}

func (s *SettingsStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("GetSetting %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SettingsStore) SetSetting(ctx context.Context, key, value string, at time.Time) error {
	return s.SetSettings(ctx, map[string]string{key: value}, at)
}

func (s *SettingsStore) SetSettings(ctx context.Context, values map[string]string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for key, value := range values {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO settings(key, value, updated_at_ms) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms;
`, key, value, toMs(at)); err != nil {
				return fmt.Errorf("SetSetting %s: %w", key, err)
			}
		}
		return nil
	})
}
