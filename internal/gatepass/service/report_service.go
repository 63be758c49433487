package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/report"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/reportsink"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

const defaultReportDays = 7

type ReportDeps struct {
	Persons  store.PersonStore
	Entries  store.EntryLogStore
	Sink     reportsink.Sink
	Notifier *NotificationService
	Location *time.Location
	Logger   *slog.Logger
	Observer Observer
	Now      func() time.Time
}

type ReportService struct {
	persons  store.PersonStore
	entries  store.EntryLogStore
	sink     reportsink.Sink
	notifier *NotificationService
	loc      *time.Location
	logger   *slog.Logger
	obs      Observer
	now      func() time.Time
}

func NewReportService(d ReportDeps) *ReportService {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		persons:  d.Persons,
		entries:  d.Entries,
		sink:     d.Sink,
		notifier: d.Notifier,
		loc:      loc,
		logger:   d.Logger,
		obs:      observerOrNoop(d.Observer),
		now:      nowOr(d.Now),
	}
}

// ReportRequest covers the calendar days From..To inclusive.  Zero dates
// default to the last seven days ending today.
type ReportRequest struct {
	Type     report.Type
	From     time.Time
	To       time.Time
	PersonID string
}

type ReportResult struct {
	Name     string
	Type     report.Type
	Size     int
	ShareURL string
}

// ParseDay parses YYYY-MM-DD in the report time zone.  Empty input yields
// the zero time.
func (s *ReportService) ParseDay(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidRange, v)
	}
	return t, nil
}

func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (ReportResult, error) {
	from, to, err := s.resolveRange(req.From, req.To)
	if err != nil {
		return ReportResult{}, err
	}
	start := dayStart(from, s.loc)
	end := dayStart(to, s.loc).AddDate(0, 0, 1)

	var data []byte
	switch req.Type {
	case report.AllEntries:
		data, err = s.allEntries(ctx, start, end)
	case report.PersonList:
		data, err = s.personList(ctx)
		from, to = time.Time{}, time.Time{}
	case report.DailyStatistics:
		data, err = s.daily(ctx, start, end, from, to)
	case report.PersonDetail:
		data, err = s.personDetail(ctx, req.PersonID, start, end)
	default:
		return ReportResult{}, report.ErrUnknownType
	}
	if err != nil {
		return ReportResult{}, err
	}

	name := report.FileName(req.Type, from, to, s.now())
	if err := s.sink.Put(ctx, name, report.ContentType, data); err != nil {
		return ReportResult{}, fmt.Errorf("store report: %w", err)
	}
	url, err := s.sink.ShareURL(ctx, name)
	if err != nil {
		return ReportResult{}, fmt.Errorf("share report: %w", err)
	}

	s.obs.ReportBuilt(string(req.Type))
	s.logger.InfoContext(ctx, "report generated",
		slog.String("type", string(req.Type)),
		slog.String("name", name),
		slog.Int("bytes", len(data)))

	return ReportResult{Name: name, Type: req.Type, Size: len(data), ShareURL: url}, nil
}

// Open returns the bytes of a stored report.
func (s *ReportService) Open(ctx context.Context, name string) ([]byte, error) {
	b, err := s.sink.Get(ctx, name)
	if errors.Is(err, reportsink.ErrNotFound) || errors.Is(err, reportsink.ErrInvalidName) {
		return nil, ErrReportNotFound
	}
	return b, err
}

// Share sends a stored report to phone as an MMS attachment.
func (s *ReportService) Share(ctx context.Context, name, phone string) error {
	b, err := s.Open(ctx, name)
	if err != nil {
		return err
	}
	return s.notifier.DeliverReport(ctx, phone, name, b)
}

func (s *ReportService) resolveRange(from, to time.Time) (time.Time, time.Time, error) {
	today := dayStart(s.now(), s.loc)
	switch {
	case from.IsZero() && to.IsZero():
		to = today
		from = today.AddDate(0, 0, -(defaultReportDays - 1))
	case from.IsZero():
		from = to.AddDate(0, 0, -(defaultReportDays - 1))
	case to.IsZero():
		to = today
	}
	if dayStart(from, s.loc).After(dayStart(to, s.loc)) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return from.In(s.loc), to.In(s.loc), nil
}

func (s *ReportService) allEntries(ctx context.Context, start, end time.Time) ([]byte, error) {
	entries, err := s.entries.EntriesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	persons, err := s.persons.ListPersons(ctx, false)
	if err != nil {
		return nil, err
	}
	phones := make(map[string]string, len(persons))
	for _, p := range persons {
		phones[p.ID] = p.Phone
	}
	return report.BuildAllEntries(entries, phones, s.loc)
}

func (s *ReportService) personList(ctx context.Context) ([]byte, error) {
	persons, err := s.persons.ListPersons(ctx, false)
	if err != nil {
		return nil, err
	}
	rows := make([]report.PersonSummary, 0, len(persons))
	for _, p := range persons {
		n, err := s.entries.CountPersonEnters(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, report.PersonSummary{Person: p, TotalEnters: n})
	}
	return report.BuildPersonList(rows, s.loc)
}

func (s *ReportService) daily(ctx context.Context, start, end, from, to time.Time) ([]byte, error) {
	entries, err := s.entries.EntriesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return report.BuildDailyStatistics(report.Daily(entries, from, to, s.loc))
}

func (s *ReportService) personDetail(ctx context.Context, personID string, start, end time.Time) ([]byte, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, ErrPersonRequired
	}
	p, err := s.persons.GetPerson(ctx, personID)
	if err != nil {
		return nil, mapPersonErr(err)
	}
	rows, err := s.entries.PersonEntries(ctx, personID, start, end)
	if err != nil {
		return nil, err
	}
	return report.BuildPersonDetail(p, rows, s.loc)
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
