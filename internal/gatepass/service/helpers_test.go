package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/notify"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/reportsink"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/scanguard"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store/memory"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var seoul = time.FixedZone("KST", 9*3600)

// clock is a settable time source shared by every component of a harness.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// countingObserver records Observer calls.
type countingObserver struct {
	mu      sync.Mutex
	scans   map[string]int
	notifs  map[string]int
	reports map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{scans: map[string]int{}, notifs: map[string]int{}, reports: map[string]int{}}
}

func (o *countingObserver) ScanResult(r string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scans[r]++
}

func (o *countingObserver) Notification(kind, status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notifs[kind+"/"+status]++
}

func (o *countingObserver) ReportBuilt(t string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports[t]++
}

type harness struct {
	clock    *clock
	signer   *credential.Signer
	persons  *memory.PersonStore
	entries  *memory.EntryLogStore
	notifs   *memory.NotificationLogStore
	sender   *notify.LogSender
	obs      *countingObserver
	settings *service.SettingsService
	notifier *service.NotificationService
	reg      *service.RegistrationService
	scan     *service.ScanService
	reports  *service.ReportService
}

// newHarness wires every service over in-memory stores.  The clock starts
// at 2026-03-02 10:00 KST and the debounce window is 1500 ms.
func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := &clock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, seoul)}
	logger := silentLogger()

	h := &harness{clock: clk}
	h.signer = credential.NewSigner([]byte("service-test-signing-key-32bytes"), credential.WithClock(clk.Now))
	h.entries = memory.NewEntryLogStore()
	h.notifs = memory.NewNotificationLogStore()
	h.persons = memory.NewPersonStore(h.entries, h.notifs)
	h.sender = notify.NewLogSender(logger)
	h.obs = newCountingObserver()
	h.settings = service.NewSettingsService(memory.NewSettingsStore())

	h.notifier = service.NewNotificationService(service.NotificationDeps{
		Sender:   h.sender,
		Persons:  h.persons,
		Logs:     h.notifs,
		Settings: h.settings,
		Logger:   logger,
		Observer: h.obs,
		QRSize:   128,
		Now:      clk.Now,
	})
	h.reg = service.NewRegistrationService(service.RegistrationDeps{
		Signer:   h.signer,
		Persons:  h.persons,
		Notifier: h.notifier,
		Logger:   logger,
		Now:      clk.Now,
	})
	h.scan = service.NewScanService(service.ScanDeps{
		Signer:   h.signer,
		Persons:  h.persons,
		Entries:  h.entries,
		Guard:    scanguard.NewMemory(1500 * time.Millisecond).WithClock(clk.Now),
		Location: seoul,
		Logger:   logger,
		Observer: h.obs,
		Now:      clk.Now,
	})

	sink, err := reportsink.NewLocal(t.TempDir(), "http://gate.test")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	h.reports = service.NewReportService(service.ReportDeps{
		Persons:  h.persons,
		Entries:  h.entries,
		Sink:     sink,
		Notifier: h.notifier,
		Location: seoul,
		Logger:   logger,
		Observer: h.obs,
		Now:      clk.Now,
	})
	return h
}

// register adds a person and fails the test on error.
func (h *harness) register(t *testing.T, name, phone string) service.RegisterResult {
	t.Helper()
	res, err := h.reg.Register(t.Context(), name, phone)
	if err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	return res
}

// newRawSettings returns a SettingsService whose attach flag holds an
// arbitrary stored string.
func newRawSettings(t *testing.T, attach string) *service.SettingsService {
	t.Helper()
	s := memory.NewSettingsStore()
	if err := s.SetSetting(t.Context(), store.SettingAttachQRImage, attach, time.Now()); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	return service.NewSettingsService(s)
}

// flakySettings wraps a memory store; readErr fails every read and
// writeErr fails SetSettings once it is set.
type flakySettings struct {
	*memory.SettingsStore
	readErr  error
	writeErr error
}

func (f *flakySettings) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if f.readErr != nil {
		return "", false, f.readErr
	}
	return f.SettingsStore.GetSetting(ctx, key)
}

func (f *flakySettings) SetSettings(ctx context.Context, values map[string]string, at time.Time) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.SettingsStore.SetSettings(ctx, values, at)
}
