package store

import (
	"context"
	"time"
)

type EntryType string

const (
	EntryEnter EntryType = "ENTER"
	EntryExit  EntryType = "EXIT"
)

type EntryRecord struct {
	ID         string
	PersonID   string
	PersonName string
	Type       EntryType
	OccurredAt time.Time
	Location   string
	ScannerID  string
}

// DecideFn chooses the type of the next row from the person's latest row.
// ok is false when the person has no rows yet.
type DecideFn func(last EntryRecord, ok bool) EntryType

// EntryLogStore is the append-only enter/exit log.  Range queries are
// half-open [from, to) and return rows oldest first.
type EntryLogStore interface {
	// AppendNext reads the person's latest row and appends rec with the
	// type decide returns, as one atomic step.
	AppendNext(ctx context.Context, rec EntryRecord, decide DecideFn) (EntryRecord, error)
	LastEntry(ctx context.Context, personID string) (EntryRecord, bool, error)
	EntriesBetween(ctx context.Context, from, to time.Time) ([]EntryRecord, error)
	PersonEntries(ctx context.Context, personID string, from, to time.Time) ([]EntryRecord, error)
	// RecentEntries returns the newest rows first.
	RecentEntries(ctx context.Context, limit int) ([]EntryRecord, error)
	CountByType(ctx context.Context, from, to time.Time) (enters, exits int, err error)
	CountPersonEnters(ctx context.Context, personID string) (int, error)
	// CurrentlyInside counts people whose latest row at or before at is ENTER.
	CurrentlyInside(ctx context.Context, at time.Time) (int, error)
	DistinctPersons(ctx context.Context, from, to time.Time) (int, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
