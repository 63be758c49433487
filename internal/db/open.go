package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultPath        = "./data/gatepass.db"
	defaultBusyTimeout = 5 * time.Second
)

type Config struct {
	Path string // e.g. "./data/gatepass.db"
	Env  string // "dev" | "prod"

	// BusyTimeout bounds how long a statement waits on a locked database.
	BusyTimeout time.Duration
}

// DSN builds the modernc.org/sqlite connection string for path.  Every
// connection gets foreign keys (needed for the log cascades), WAL, and
// synchronous=NORMAL.
func DSN(path string, busy time.Duration) string {
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)",
		path, busy.Milliseconds(),
	)
}

// Open connects to the database at cfg.Path, applies pending migrations,
// and seeds defaults when running in dev.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = defaultPath
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(cfg.Path, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// One connection: reads and the write worker share it, SQLite
	// serializes everything anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.Env == "dev" {
		if err := SeedDev(ctx, db, SeedDevOptions{}); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}
