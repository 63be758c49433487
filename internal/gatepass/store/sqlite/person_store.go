package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/gatepass/internal/db"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

// PersonStore keeps phones sealed at rest.  Equality lookups go through
// phone_lookup, the keyed hash of the cleaned number.
type PersonStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
	sealer *credential.Sealer
}

func NewPersonStore(db *sql.DB, writer *dbpkg.Worker, sealer *credential.Sealer) *PersonStore {
	return &PersonStore{db: db, writer: writer, sealer: sealer}
}

const personColumns = `person_id, name, phone_sealed, qr_payload, notification_status, active, created_at_ms, updated_at_ms`

func (s *PersonStore) InsertPerson(ctx context.Context, rec store.PersonRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	if rec.NotificationStatus == "" {
		rec.NotificationStatus = store.StatusPending
	}

	sealed, err := s.sealer.Seal(rec.Phone)
	if err != nil {
		return fmt.Errorf("InsertPerson seal phone: %w", err)
	}
	lookup := s.sealer.LookupKey(rec.Phone)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO persons(
  person_id, name, phone_sealed, phone_lookup, qr_payload,
  notification_status, active, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.Name, sealed, lookup, rec.QRPayload,
			string(rec.NotificationStatus), boolInt(rec.Active),
			toMs(rec.CreatedAt), toMs(rec.UpdatedAt),
		); err != nil {
			if isConstraintConflict(err) {
				return store.ErrConflict
			}
			return fmt.Errorf("InsertPerson: %w", err)
		}
		return nil
	})
}

func (s *PersonStore) GetPerson(ctx context.Context, id string) (store.PersonRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE person_id = ?;`, id)
	return s.scanOne(row, "GetPerson")
}

func (s *PersonStore) FindActiveByPhone(ctx context.Context, phone string) (store.PersonRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE phone_lookup = ? AND active = 1;`,
		s.sealer.LookupKey(phone))
	return s.scanOne(row, "FindActiveByPhone")
}

func (s *PersonStore) ListPersons(ctx context.Context, activeOnly bool) ([]store.PersonRecord, error) {
	q := `SELECT ` + personColumns + ` FROM persons`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY created_at_ms DESC, person_id;`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListPersons: %w", err)
	}
	defer rows.Close()

	var out []store.PersonRecord
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPersons scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PersonStore) UpdatePayload(ctx context.Context, id, payload string, at time.Time) error {
	return s.exec(ctx, "UpdatePayload", `
UPDATE persons SET qr_payload = ?, updated_at_ms = ? WHERE person_id = ?;
`, payload, toMs(at), id)
}

func (s *PersonStore) UpdateNotificationStatus(ctx context.Context, id string, status store.NotificationStatus, at time.Time) error {
	return s.exec(ctx, "UpdateNotificationStatus", `
UPDATE persons SET notification_status = ?, updated_at_ms = ? WHERE person_id = ?;
`, string(status), toMs(at), id)
}

func (s *PersonStore) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return s.exec(ctx, "SetActive", `
UPDATE persons SET active = ?, updated_at_ms = ? WHERE person_id = ?;
`, boolInt(active), toMs(at), id)
}

// DeletePerson relies on ON DELETE CASCADE for entry and notification rows.
func (s *PersonStore) DeletePerson(ctx context.Context, id string) error {
	return s.exec(ctx, "DeletePerson", `DELETE FROM persons WHERE person_id = ?;`, id)
}

func (s *PersonStore) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM persons WHERE active = 1;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountActive: %w", err)
	}
	return n, nil
}

// exec runs a single-row write and maps zero affected rows to ErrNotFound.
func (s *PersonStore) exec(ctx context.Context, op, q string, args ...any) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			if isConstraintConflict(err) {
				return store.ErrConflict
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PersonStore) scanOne(row *sql.Row, op string) (store.PersonRecord, error) {
	rec, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PersonRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.PersonRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (s *PersonStore) scan(r rowScanner) (store.PersonRecord, error) {
	var (
		rec              store.PersonRecord
		sealed, status   string
		active           int
		createdMs, updMs int64
	)
	if err := r.Scan(&rec.ID, &rec.Name, &sealed, &rec.QRPayload, &status, &active, &createdMs, &updMs); err != nil {
		return store.PersonRecord{}, err
	}
	phone, err := s.sealer.Open(sealed)
	if err != nil {
		return store.PersonRecord{}, fmt.Errorf("open phone for %s: %w", rec.ID, err)
	}
	rec.Phone = phone
	rec.NotificationStatus = store.NotificationStatus(status)
	rec.Active = active == 1
	rec.CreatedAt = fromMs(createdMs)
	rec.UpdatedAt = fromMs(updMs)
	return rec, nil
}
