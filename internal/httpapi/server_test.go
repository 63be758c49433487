package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BrandonDHaskell/gatepass/internal/auth"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/notify"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/reportsink"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/scanguard"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store/memory"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
	"github.com/BrandonDHaskell/gatepass/internal/httpapi"
	"github.com/BrandonDHaskell/gatepass/internal/metrics"
)

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

type testEnv struct {
	ts      *httptest.Server
	clock   *clock
	sender  *notify.LogSender
	persons *memory.PersonStore
	admin   string
	scanner string
}

// newTestServer wires up the full dependency graph using in-memory stores
// and returns an httptest.Server whose URL can be hit with a plain http.Client.
func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := &clock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	loc := time.FixedZone("KST", 9*3600)

	signer := credential.NewSigner([]byte("http-test-signing-key"), credential.WithClock(clk.Now))
	entries := memory.NewEntryLogStore()
	notifs := memory.NewNotificationLogStore()
	persons := memory.NewPersonStore(entries, notifs)
	sender := notify.NewLogSender(logger)

	m := metrics.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("register metrics: %v", err)
	}

	settings := service.NewSettingsService(memory.NewSettingsStore())
	notifier := service.NewNotificationService(service.NotificationDeps{
		Sender: sender, Persons: persons, Logs: notifs, Settings: settings,
		Logger: logger, Observer: m, QRSize: 128, Now: clk.Now,
	})
	registration := service.NewRegistrationService(service.RegistrationDeps{
		Signer: signer, Persons: persons, Notifier: notifier, Logger: logger, Now: clk.Now,
	})
	scan := service.NewScanService(service.ScanDeps{
		Signer: signer, Persons: persons, Entries: entries,
		Guard:    scanguard.NewMemory(scanguard.DefaultWindow).WithClock(clk.Now),
		Location: loc, Logger: logger, Observer: m, Now: clk.Now,
	})
	sink, err := reportsink.NewLocal(t.TempDir(), "http://gate.test")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	reports := service.NewReportService(service.ReportDeps{
		Persons: persons, Entries: entries, Sink: sink, Notifier: notifier,
		Location: loc, Logger: logger, Observer: m, Now: clk.Now,
	})

	tokens := auth.NewTokens([]byte("http-test-jwt"))
	adminTok, _ := tokens.Issue("operator", auth.RoleAdmin, time.Hour)
	scannerTok, _ := tokens.Issue("door-1", auth.RoleScanner, 0)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           ":0",
		Tokens:         tokens,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Scan:           scan,
		Registration:   registration,
		Notifications:  notifier,
		Settings:       settings,
		Reports:        reports,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, clock: clk, sender: sender, persons: persons, admin: adminTok, scanner: scannerTok}
}

func (e *testEnv) do(t *testing.T, method, path, token, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	return e.do(t, method, path, token, "application/json", []byte(body))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

type apiErr struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, b)
	}
}

func (e *testEnv) register(t *testing.T, name, phone string) types.RegisterResponse {
	t.Helper()
	resp := e.doJSON(t, "POST", "/v1/persons", e.admin, `{"name":"`+name+`","phone":"`+phone+`"}`)
	expectStatus(t, resp, http.StatusCreated)
	return decode[types.RegisterResponse](t, resp)
}

// payloadFor reads the person's current credential straight from the
// store; the API never returns the raw payload.
func (e *testEnv) payloadFor(t *testing.T, id string) string {
	t.Helper()
	p, err := e.persons.GetPerson(t.Context(), id)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	return p.QRPayload
}
