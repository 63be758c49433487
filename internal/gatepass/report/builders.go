package report

import (
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/phone"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

// PersonSummary is one PERSON_LIST row.
type PersonSummary struct {
	Person      store.PersonRecord
	TotalEnters int
}

func entryLabel(t store.EntryType) string {
	if t == store.EntryEnter {
		return "Enter"
	}
	return "Exit"
}

// BuildAllEntries lists every row in entries.  phones maps person id to
// phone number; unknown ids show "unknown".
func BuildAllEntries(entries []store.EntryRecord, phones map[string]string, loc *time.Location) (b []byte, err error) {
	s, err := newSheet("Entries")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if err = s.addHeader("No", "Name", "Phone", "Type", "Time", "Location"); err != nil {
		return nil, err
	}
	for i, e := range entries {
		p, ok := phones[e.PersonID]
		if !ok {
			p = "unknown"
		} else {
			p = phone.Format(p)
		}
		if err = s.addRow(i+1, e.PersonName, p, entryLabel(e.Type),
			e.OccurredAt.In(loc).Format(timeLayout), e.Location); err != nil {
			return nil, err
		}
	}
	if err = s.widths(8, 15, 18, 10, 22, 20); err != nil {
		return nil, err
	}
	return s.bytes()
}

func BuildPersonList(persons []PersonSummary, loc *time.Location) (b []byte, err error) {
	s, err := newSheet("Persons")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if err = s.addHeader("No", "Name", "Phone", "Registered", "Notification", "Active", "Total entries"); err != nil {
		return nil, err
	}
	for i, ps := range persons {
		active := "Inactive"
		if ps.Person.Active {
			active = "Active"
		}
		if err = s.addRow(i+1, ps.Person.Name, phone.Format(ps.Person.Phone),
			ps.Person.CreatedAt.In(loc).Format(dateLayout),
			string(ps.Person.NotificationStatus), active, ps.TotalEnters); err != nil {
			return nil, err
		}
	}
	if err = s.widths(8, 15, 18, 14, 14, 10, 14); err != nil {
		return nil, err
	}
	return s.bytes()
}

func BuildDailyStatistics(days []DayStats) (b []byte, err error) {
	s, err := newSheet("Daily")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if err = s.addHeader("Date", "Persons", "Enters", "Exits", "Avg stay", "Max stay", "Min stay"); err != nil {
		return nil, err
	}
	for _, d := range days {
		avg, hi, lo := "N/A", "N/A", "N/A"
		if len(d.Stays) > 0 {
			avg, hi, lo = formatHours(d.AvgHours), formatHours(d.MaxHours), formatHours(d.MinHours)
		}
		if err = s.addRow(d.Date.Format(dateLayout), d.Persons, d.Enters, d.Exits, avg, hi, lo); err != nil {
			return nil, err
		}
	}
	if err = s.widths(20, 18, 15, 15, 20, 20, 20); err != nil {
		return nil, err
	}
	return s.bytes()
}

// BuildPersonDetail writes a header block for p followed by its rows,
// which must be time ordered.
func BuildPersonDetail(p store.PersonRecord, rows []store.EntryRecord, loc *time.Location) (b []byte, err error) {
	s, err := newSheet("Detail")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	for _, kv := range [][2]string{
		{"Name", p.Name},
		{"Phone", phone.Format(p.Phone)},
		{"Registered", p.CreatedAt.In(loc).Format(dateLayout)},
	} {
		if err = s.addRow(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	s.skip()

	if err = s.addHeader("No", "Type", "Time", "Stay", "Location"); err != nil {
		return nil, err
	}
	stays := DetailStay(rows)
	for i, e := range rows {
		stay := ""
		if stays[i] != nil {
			stay = formatHours(*stays[i])
		}
		if err = s.addRow(i+1, entryLabel(e.Type), e.OccurredAt.In(loc).Format(timeLayout), stay, e.Location); err != nil {
			return nil, err
		}
	}
	if err = s.widths(12, 10, 22, 12, 20); err != nil {
		return nil, err
	}
	return s.bytes()
}
