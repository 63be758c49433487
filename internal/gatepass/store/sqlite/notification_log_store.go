package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/BrandonDHaskell/gatepass/internal/db"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

type NotificationLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
	sealer *credential.Sealer
}

func NewNotificationLogStore(db *sql.DB, writer *dbpkg.Worker, sealer *credential.Sealer) *NotificationLogStore {
	return &NotificationLogStore{db: db, writer: writer, sealer: sealer}
}

const notificationColumns = `notification_id, person_id, kind, phone_sealed, status, sent_at_ms, error_message`

func (s *NotificationLogStore) RecordNotification(ctx context.Context, rec store.NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	sealed, err := s.sealer.Seal(rec.Phone)
	if err != nil {
		return fmt.Errorf("RecordNotification seal phone: %w", err)
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO notification_logs(
  notification_id, person_id, kind, phone_sealed, status, sent_at_ms, error_message
) VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, nullString(rec.PersonID), string(rec.Kind), sealed,
			string(rec.Status), toMs(rec.SentAt), nullString(rec.Error),
		); err != nil {
			return fmt.Errorf("RecordNotification: %w", err)
		}
		return nil
	})
}

func (s *NotificationLogStore) NotificationsByPerson(ctx context.Context, personID string) ([]store.NotificationRecord, error) {
	return s.query(ctx, "NotificationsByPerson", `SELECT `+notificationColumns+` FROM notification_logs
WHERE person_id = ?
ORDER BY sent_at_ms DESC, rowid DESC;`, personID)
}

func (s *NotificationLogStore) NotificationsByStatus(ctx context.Context, status store.NotificationStatus, limit int) ([]store.NotificationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, "NotificationsByStatus", `SELECT `+notificationColumns+` FROM notification_logs
WHERE status = ?
ORDER BY sent_at_ms DESC, rowid DESC
LIMIT ?;`, string(status), limit)
}

func (s *NotificationLogStore) CountNotifications(ctx context.Context, from, to time.Time) (map[store.NotificationStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT status, COUNT(*) FROM notification_logs
WHERE sent_at_ms >= ? AND sent_at_ms < ?
GROUP BY status;
`, toMs(from), toMs(to))
	if err != nil {
		return nil, fmt.Errorf("CountNotifications: %w", err)
	}
	defer rows.Close()

	out := make(map[store.NotificationStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("CountNotifications scan: %w", err)
		}
		out[store.NotificationStatus(status)] = n
	}
	return out, rows.Err()
}

func (s *NotificationLogStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM notification_logs WHERE sent_at_ms < ?;
`, toMs(cutoff))
		if err != nil {
			return fmt.Errorf("PruneOlderThan notification_logs: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

func (s *NotificationLogStore) query(ctx context.Context, op, q string, args ...any) ([]store.NotificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []store.NotificationRecord
	for rows.Next() {
		var (
			rec              store.NotificationRecord
			personID, errMsg sql.NullString
			kind, status     string
			sealed           string
			ms               int64
		)
		if err := rows.Scan(&rec.ID, &personID, &kind, &sealed, &status, &ms, &errMsg); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		phone, err := s.sealer.Open(sealed)
		if err != nil {
			return nil, fmt.Errorf("%s open phone: %w", op, err)
		}
		rec.PersonID = personID.String
		rec.Kind = store.NotificationKind(kind)
		rec.Phone = phone
		rec.Status = store.NotificationStatus(status)
		rec.SentAt = fromMs(ms)
		rec.Error = errMsg.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
