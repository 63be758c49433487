package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Settings overrides the seeded key/value pairs.  Missing keys fall back
	// to DevSettings.
	Settings map[string]string
}

// DevSettings are the settings rows a fresh dev database starts with.
var DevSettings = map[string]string{
	"attach_qr_image": "true",
}

// SeedDev inserts starter rows for local development.  Existing rows are
// left alone so operator edits survive restarts.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	rows := make(map[string]string, len(DevSettings))
	for k, v := range DevSettings {
		rows[k] = v
	}
	for k, v := range opt.Settings {
		rows[k] = v
	}

	for k, v := range rows {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO settings(key, value, updated_at_ms)
VALUES (?, ?, ?);`, k, v, now); err != nil {
			return fmt.Errorf("seed setting %s: %w", k, err)
		}
	}

	return nil
}
