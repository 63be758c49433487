package sqlite

import (
	"errors"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isConstraintConflict reports whether err is a UNIQUE or PRIMARY KEY
// violation, which the stores surface as store.ErrConflict.
func isConstraintConflict(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func toMs(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
