package store

import (
	"context"
	"time"
)

type NotificationKind string

const (
	KindCredential NotificationKind = "CREDENTIAL"
	KindReport     NotificationKind = "REPORT"
)

type NotificationRecord struct {
	ID       string
	PersonID string // empty for REPORT deliveries
	Kind     NotificationKind
	Phone    string
	Status   NotificationStatus
	SentAt   time.Time
	Error    string
}

// NotificationLogStore records every delivery attempt.  Listings are
// newest first.
type NotificationLogStore interface {
	RecordNotification(ctx context.Context, rec NotificationRecord) error
	NotificationsByPerson(ctx context.Context, personID string) ([]NotificationRecord, error)
	NotificationsByStatus(ctx context.Context, status NotificationStatus, limit int) ([]NotificationRecord, error)
	CountNotifications(ctx context.Context, from, to time.Time) (map[NotificationStatus]int, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
