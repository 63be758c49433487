package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BrandonDHaskell/gatepass/internal/db"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
	sqlitestore "github.com/BrandonDHaskell/gatepass/internal/gatepass/store/sqlite"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each test gets its own named in-memory database.  The shared-cache URI
	// keeps it alive while the pool holds a connection.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		strings.ReplaceAll(t.Name(), "/", "_"),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func newTestSealer(t *testing.T) *credential.Sealer {
	t.Helper()

	k, err := credential.DeriveKeys("sqlite-store-test")
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	s, err := credential.NewSealer(k.Sealing, k.Lookup)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return s
}

type testStores struct {
	conn     *sql.DB
	persons  *sqlitestore.PersonStore
	entries  *sqlitestore.EntryLogStore
	notifs   *sqlitestore.NotificationLogStore
	settings *sqlitestore.SettingsStore
}

func newTestStores(t *testing.T) testStores {
	t.Helper()

	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	sealer := newTestSealer(t)
	return testStores{
		conn:     conn,
		persons:  sqlitestore.NewPersonStore(conn, w, sealer),
		entries:  sqlitestore.NewEntryLogStore(conn, w),
		notifs:   sqlitestore.NewNotificationLogStore(conn, w, sealer),
		settings: sqlitestore.NewSettingsStore(conn, w),
	}
}

// seedPerson inserts an active person so entry and notification rows have
// a parent for their foreign keys.
func seedPerson(t *testing.T, ps *sqlitestore.PersonStore, id, phone string) store.PersonRecord {
	t.Helper()
	rec := store.PersonRecord{
		ID:        id,
		Name:      "Person " + id,
		Phone:     phone,
		QRPayload: "payload-" + id,
		Active:    true,
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := ps.InsertPerson(context.Background(), rec); err != nil {
		t.Fatalf("seedPerson(%s): %v", id, err)
	}
	return rec
}

func toggle(last store.EntryRecord, ok bool) store.EntryType {
	if ok && last.Type == store.EntryEnter {
		return store.EntryExit
	}
	return store.EntryEnter
}
