package report

import (
	"sort"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

// StayHours pairs each ENTER with the EXIT that immediately follows it,
// per person, and returns the stay lengths in hours.  Unpaired rows are
// skipped.
func StayHours(entries []store.EntryRecord) []float64 {
	byPerson := make(map[string][]store.EntryRecord)
	var order []string
	for _, e := range entries {
		if _, ok := byPerson[e.PersonID]; !ok {
			order = append(order, e.PersonID)
		}
		byPerson[e.PersonID] = append(byPerson[e.PersonID], e)
	}

	var out []float64
	for _, id := range order {
		rows := byPerson[id]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].OccurredAt.Before(rows[j].OccurredAt) })
		for i := 0; i < len(rows)-1; {
			if rows[i].Type == store.EntryEnter && rows[i+1].Type == store.EntryExit {
				out = append(out, rows[i+1].OccurredAt.Sub(rows[i].OccurredAt).Hours())
				i += 2
				continue
			}
			i++
		}
	}
	return out
}

// DetailStay returns, for each row, the hours since the previous row when
// the row is an EXIT directly after an ENTER.  Rows must be time ordered.
func DetailStay(rows []store.EntryRecord) []*float64 {
	out := make([]*float64, len(rows))
	for i := 1; i < len(rows); i++ {
		if rows[i].Type == store.EntryExit && rows[i-1].Type == store.EntryEnter {
			h := rows[i].OccurredAt.Sub(rows[i-1].OccurredAt).Hours()
			out[i] = &h
		}
	}
	return out
}

type DayStats struct {
	Date     time.Time
	Persons  int
	Enters   int
	Exits    int
	Stays    []float64
	AvgHours float64
	MaxHours float64
	MinHours float64
}

// Daily groups entries by calendar day in loc for each day from first to
// last inclusive.  Days with no activity are omitted.
func Daily(entries []store.EntryRecord, first, last time.Time, loc *time.Location) []DayStats {
	byDay := make(map[string][]store.EntryRecord)
	for _, e := range entries {
		k := e.OccurredAt.In(loc).Format(dateLayout)
		byDay[k] = append(byDay[k], e)
	}

	var out []DayStats
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rows := byDay[d.Format(dateLayout)]
		if len(rows) == 0 {
			continue
		}
		ds := DayStats{Date: d}
		persons := make(map[string]struct{})
		for _, e := range rows {
			persons[e.PersonID] = struct{}{}
			switch e.Type {
			case store.EntryEnter:
				ds.Enters++
			case store.EntryExit:
				ds.Exits++
			}
		}
		ds.Persons = len(persons)
		ds.Stays = StayHours(rows)
		if n := len(ds.Stays); n > 0 {
			ds.MinHours, ds.MaxHours = ds.Stays[0], ds.Stays[0]
			var sum float64
			for _, h := range ds.Stays {
				sum += h
				if h < ds.MinHours {
					ds.MinHours = h
				}
				if h > ds.MaxHours {
					ds.MaxHours = h
				}
			}
			ds.AvgHours = sum / float64(n)
		}
		out = append(out, ds)
	}
	return out
}
