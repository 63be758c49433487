package store

import (
	"context"
	"time"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "PENDING"
	StatusSuccess NotificationStatus = "SUCCESS"
	StatusFailed  NotificationStatus = "FAILED"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

type PersonRecord struct {
	ID                 string
	Name               string
	Phone              string // cleaned digits
	QRPayload          string
	NotificationStatus NotificationStatus
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PersonStore persists registered people.  At most one active person may
// own a phone number; violations surface as ErrConflict.
type PersonStore interface {
	InsertPerson(ctx context.Context, rec PersonRecord) error
	GetPerson(ctx context.Context, id string) (PersonRecord, error)
	FindActiveByPhone(ctx context.Context, phone string) (PersonRecord, error)
	// ListPersons returns people newest first.
	ListPersons(ctx context.Context, activeOnly bool) ([]PersonRecord, error)
	UpdatePayload(ctx context.Context, id, payload string, at time.Time) error
	UpdateNotificationStatus(ctx context.Context, id string, status NotificationStatus, at time.Time) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	// DeletePerson removes the person and every log row that refers to it.
	DeletePerson(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}
