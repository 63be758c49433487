package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/scanguard"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 500
	maxScannerIDLen    = 64
)

var tracer = otel.Tracer("github.com/BrandonDHaskell/gatepass/internal/gatepass/service")

type ScanDeps struct {
	Signer   *credential.Signer
	Persons  store.PersonStore
	Entries  store.EntryLogStore
	Guard    scanguard.Guard
	Location *time.Location // "today" boundaries; defaults to UTC
	Logger   *slog.Logger
	Observer Observer
	Now      func() time.Time
}

// ScanService turns a scanned credential into an ENTER or EXIT row.
type ScanService struct {
	signer  *credential.Signer
	persons store.PersonStore
	entries store.EntryLogStore
	guard   scanguard.Guard
	loc     *time.Location
	logger  *slog.Logger
	obs     Observer
	now     func() time.Time
}

func NewScanService(d ScanDeps) *ScanService {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	guard := d.Guard
	if guard == nil {
		guard = scanguard.Noop{}
	}
	return &ScanService{
		signer:  d.Signer,
		persons: d.Persons,
		entries: d.Entries,
		guard:   guard,
		loc:     loc,
		logger:  d.Logger,
		obs:     observerOrNoop(d.Observer),
		now:     nowOr(d.Now),
	}
}

// NextEntryType is ENTER unless the person's latest row is ENTER.
func NextEntryType(last store.EntryRecord, ok bool) store.EntryType {
	if ok && last.Type == store.EntryEnter {
		return store.EntryExit
	}
	return store.EntryEnter
}

func (s *ScanService) Process(ctx context.Context, req types.ScanRequest) (resp types.ScanResponse, err error) {
	ctx, span := tracer.Start(ctx, "ScanService.Process", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		result := scanResult(err)
		if err == nil {
			result = strings.ToLower(resp.EntryType)
		}
		s.obs.ScanResult(result)
		span.SetAttributes(attribute.String("scan.result", result))
		if err != nil {
			span.SetStatus(codes.Error, result)
		}
		span.End()
	}()

	location := strings.TrimSpace(req.Location)
	if location != "" {
		if verr := credential.ValidateInput(location); verr != nil {
			return types.ScanResponse{}, fmt.Errorf("%w: %v", ErrInvalidLocation, verr)
		}
	}
	scannerID := strings.TrimSpace(req.ScannerID)
	scannerID = truncateRunes(scannerID, maxScannerIDLen)

	payload, err := credential.Parse(req.Payload)
	if err != nil {
		return types.ScanResponse{}, err
	}
	if err := s.signer.Verify(payload); err != nil {
		s.logger.WarnContext(ctx, "credential rejected",
			slog.String("person_id", payload.PersonID),
			slog.String("scanner_id", scannerID),
			slog.Any("err", err))
		return types.ScanResponse{}, err
	}

	person, err := s.persons.GetPerson(ctx, payload.PersonID)
	if err != nil {
		return types.ScanResponse{}, mapPersonErr(err)
	}
	if !person.Active {
		return types.ScanResponse{}, ErrPersonInactive
	}
	if person.QRPayload != payload.String() {
		return types.ScanResponse{}, ErrSuperseded
	}

	allowed, gerr := s.guard.Allow(ctx, person.ID)
	if gerr != nil {
		// Fail open: a broken debounce cache must not lock people out.
		s.logger.ErrorContext(ctx, "scan guard unavailable", slog.Any("err", gerr))
		allowed = true
	}
	if !allowed {
		return types.ScanResponse{}, ErrDuplicateScan
	}

	rec, err := s.entries.AppendNext(ctx, store.EntryRecord{
		PersonID:   person.ID,
		PersonName: person.Name,
		OccurredAt: s.now().UTC(),
		Location:   location,
		ScannerID:  scannerID,
	}, NextEntryType)
	if err != nil {
		// Nothing was logged, so a retry must not count as a duplicate.
		if rerr := s.guard.Release(context.WithoutCancel(ctx), person.ID); rerr != nil {
			s.logger.ErrorContext(ctx, "scan guard release failed", slog.Any("err", rerr))
		}
		return types.ScanResponse{}, fmt.Errorf("append entry: %w", err)
	}

	s.logger.InfoContext(ctx, "scan recorded",
		slog.String("person_id", person.ID),
		slog.String("entry_type", string(rec.Type)),
		slog.String("scanner_id", scannerID))

	return types.ScanResponse{
		OK:         true,
		EntryType:  string(rec.Type),
		PersonID:   person.ID,
		PersonName: person.Name,
		Message:    entryMessage(person.Name, rec.Type),
		Timestamp:  rec.OccurredAt.In(s.loc).Format(time.RFC3339),
	}, nil
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func entryMessage(name string, t store.EntryType) string {
	if t == store.EntryEnter {
		return name + ": entry recorded"
	}
	return name + ": exit recorded"
}

func scanResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrIssuedInFuture):
		return "future"
	case errors.Is(err, ErrUnknownPerson):
		return "unknown_person"
	case errors.Is(err, ErrPersonInactive):
		return "inactive"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, ErrDuplicateScan):
		return "duplicate"
	case errors.Is(err, ErrInvalidLocation):
		return "invalid_location"
	default:
		return "error"
	}
}

// DayBounds returns [start, end) of the calendar day containing t in the
// service's time zone.
func (s *ScanService) DayBounds(t time.Time) (time.Time, time.Time) {
	lt := t.In(s.loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

func (s *ScanService) TodayStats(ctx context.Context) (types.TodayStats, error) {
	now := s.now()
	start, end := s.DayBounds(now)

	enters, exits, err := s.entries.CountByType(ctx, start, end)
	if err != nil {
		return types.TodayStats{}, err
	}
	inside, err := s.entries.CurrentlyInside(ctx, now)
	if err != nil {
		return types.TodayStats{}, err
	}
	active, err := s.entries.DistinctPersons(ctx, start, end)
	if err != nil {
		return types.TodayStats{}, err
	}

	return types.TodayStats{
		Date:            start.Format("2006-01-02"),
		Entries:         enters,
		Exits:           exits,
		CurrentlyInside: inside,
		ActivePersons:   active,
	}, nil
}

func (s *ScanService) Recent(ctx context.Context, limit int) ([]store.EntryRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.entries.RecentEntries(ctx, limit)
}

// PersonEntries lists a person's rows in [from, to).  Zero bounds mean
// unbounded.
func (s *ScanService) PersonEntries(ctx context.Context, personID string, from, to time.Time) ([]store.EntryRecord, error) {
	if _, err := s.persons.GetPerson(ctx, personID); err != nil {
		return nil, mapPersonErr(err)
	}
	if to.IsZero() {
		to = s.now().Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = time.UnixMilli(0)
	}
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	return s.entries.PersonEntries(ctx, personID, from, to)
}

// Location is the zone used for day boundaries and timestamps.
func (s *ScanService) Location() *time.Location { return s.loc }
