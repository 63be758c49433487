// Package report builds XLSX workbooks from the entry and person logs.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	AllEntries      Type = "ALL_ENTRIES"
	PersonList      Type = "PERSON_LIST"
	DailyStatistics Type = "DAILY_STATISTICS"
	PersonDetail    Type = "PERSON_DETAIL"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrUnknownType = errors.New("report: unknown report type")

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case AllEntries, PersonList, DailyStatistics, PersonDetail:
		return t, nil
	}
	return "", ErrUnknownType
}

const (
	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
	fileLayout = "20060102"
)

// FileName names a report by type and period.  Every call is unique so
// regenerating a report never overwrites an earlier one.
func FileName(t Type, from, to time.Time, now time.Time) string {
	base := strings.ToLower(string(t))
	stamp := now.UTC().Format("20060102T150405.000")
	stamp = strings.ReplaceAll(stamp, ".", "")
	if from.IsZero() && to.IsZero() {
		return fmt.Sprintf("%s_%s.xlsx", base, stamp)
	}
	return fmt.Sprintf("%s_%s_%s_%s.xlsx", base, from.Format(fileLayout), to.Format(fileLayout), stamp)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}
