package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/BrandonDHaskell/gatepass/internal/db"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

type EntryLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEntryLogStore(db *sql.DB, writer *dbpkg.Worker) *EntryLogStore {
	return &EntryLogStore{db: db, writer: writer}
}

const entryColumns = `entry_id, person_id, person_name, entry_type, occurred_at_ms, location, scanner_id`

// Ties on occurred_at_ms are broken by insertion order.
const lastEntryQuery = `SELECT ` + entryColumns + ` FROM entry_logs
WHERE person_id = ?
ORDER BY occurred_at_ms DESC, rowid DESC
LIMIT 1;`

func (s *EntryLogStore) AppendNext(ctx context.Context, rec store.EntryRecord, decide store.DecideFn) (store.EntryRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		last, err := scanEntry(tx.QueryRowContext(ctx, lastEntryQuery, rec.PersonID))
		ok := true
		if errors.Is(err, sql.ErrNoRows) {
			ok = false
		} else if err != nil {
			return fmt.Errorf("AppendNext read last: %w", err)
		}

		rec.Type = decide(last, ok)

		if _, err := tx.ExecContext(ctx, `
INSERT INTO entry_logs(
  entry_id, person_id, person_name, entry_type, occurred_at_ms, location, scanner_id
) VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.PersonID, rec.PersonName, string(rec.Type),
			toMs(rec.OccurredAt), nullString(rec.Location), nullString(rec.ScannerID),
		); err != nil {
			if isConstraintConflict(err) {
				return store.ErrConflict
			}
			return fmt.Errorf("AppendNext insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.EntryRecord{}, err
	}
	rec.OccurredAt = fromMs(toMs(rec.OccurredAt))
	return rec, nil
}

func (s *EntryLogStore) LastEntry(ctx context.Context, personID string) (store.EntryRecord, bool, error) {
	rec, err := scanEntry(s.db.QueryRowContext(ctx, lastEntryQuery, personID))
	if errors.Is(err, sql.ErrNoRows) {
		return store.EntryRecord{}, false, nil
	}
	if err != nil {
		return store.EntryRecord{}, false, fmt.Errorf("LastEntry: %w", err)
	}
	return rec, true, nil
}

func (s *EntryLogStore) EntriesBetween(ctx context.Context, from, to time.Time) ([]store.EntryRecord, error) {
	return s.query(ctx, "EntriesBetween", `SELECT `+entryColumns+` FROM entry_logs
WHERE occurred_at_ms >= ? AND occurred_at_ms < ?
ORDER BY occurred_at_ms, rowid;`, toMs(from), toMs(to))
}

func (s *EntryLogStore) PersonEntries(ctx context.Context, personID string, from, to time.Time) ([]store.EntryRecord, error) {
	return s.query(ctx, "PersonEntries", `SELECT `+entryColumns+` FROM entry_logs
WHERE person_id = ? AND occurred_at_ms >= ? AND occurred_at_ms < ?
ORDER BY occurred_at_ms, rowid;`, personID, toMs(from), toMs(to))
}

func (s *EntryLogStore) RecentEntries(ctx context.Context, limit int) ([]store.EntryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, "RecentEntries", `SELECT `+entryColumns+` FROM entry_logs
ORDER BY occurred_at_ms DESC, rowid DESC
LIMIT ?;`, limit)
}

func (s *EntryLogStore) CountByType(ctx context.Context, from, to time.Time) (int, int, error) {
	var enters, exits int
	err := s.db.QueryRowContext(ctx, `
SELECT
  COALESCE(SUM(CASE WHEN entry_type = 'ENTER' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN entry_type = 'EXIT' THEN 1 ELSE 0 END), 0)
FROM entry_logs
WHERE occurred_at_ms >= ? AND occurred_at_ms < ?;
`, toMs(from), toMs(to)).Scan(&enters, &exits)
	if err != nil {
		return 0, 0, fmt.Errorf("CountByType: %w", err)
	}
	return enters, exits, nil
}

func (s *EntryLogStore) CountPersonEnters(ctx context.Context, personID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM entry_logs WHERE person_id = ? AND entry_type = 'ENTER';
`, personID).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountPersonEnters: %w", err)
	}
	return n, nil
}

func (s *EntryLogStore) CurrentlyInside(ctx context.Context, at time.Time) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM (
  SELECT entry_type,
         ROW_NUMBER() OVER (
           PARTITION BY person_id
           ORDER BY occurred_at_ms DESC, rowid DESC
         ) AS rn
  FROM entry_logs
  WHERE occurred_at_ms <= ?
)
WHERE rn = 1 AND entry_type = 'ENTER';
`, toMs(at)).Scan(&n); err != nil {
		return 0, fmt.Errorf("CurrentlyInside: %w", err)
	}
	return n, nil
}

func (s *EntryLogStore) DistinctPersons(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT person_id) FROM entry_logs
WHERE occurred_at_ms >= ? AND occurred_at_ms < ?;
`, toMs(from), toMs(to)).Scan(&n); err != nil {
		return 0, fmt.Errorf("DistinctPersons: %w", err)
	}
	return n, nil
}

// PruneOlderThan deletes rows with occurred_at_ms before cutoff.
// Uses the idx_entry_logs_time index for the range scan.
func (s *EntryLogStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM entry_logs WHERE occurred_at_ms < ?;
`, toMs(cutoff))
		if err != nil {
			return fmt.Errorf("PruneOlderThan entry_logs: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

func (s *EntryLogStore) query(ctx context.Context, op, q string, args ...any) ([]store.EntryRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []store.EntryRecord
	for rows.Next() {
		rec, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanEntry(r rowScanner) (store.EntryRecord, error) {
	var (
		rec                 store.EntryRecord
		typ                 string
		ms                  int64
		location, scannerID sql.NullString
	)
	if err := r.Scan(&rec.ID, &rec.PersonID, &rec.PersonName, &typ, &ms, &location, &scannerID); err != nil {
		return store.EntryRecord{}, err
	}
	rec.Type = store.EntryType(typ)
	rec.OccurredAt = fromMs(ms)
	rec.Location = location.String
	rec.ScannerID = scannerID.String
	return rec, nil
}
