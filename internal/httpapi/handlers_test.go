package httpapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/report"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

// ── Auth ─────────────────────────────────────────────────────────────────────

func TestHealthz_NoAuth(t *testing.T) {
	e := newTestServer(t)
	resp := e.do(t, "GET", "/healthz", "", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestAuth_MissingAndWrongRole(t *testing.T) {
	e := newTestServer(t)

	resp := e.doJSON(t, "POST", "/v1/scan", "", `{"payload":"x"}`)
	expectStatus(t, resp, http.StatusUnauthorized)
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate on 401")
	}

	resp = e.doJSON(t, "POST", "/v1/scan", "garbage", `{"payload":"x"}`)
	expectStatus(t, resp, http.StatusUnauthorized)

	// Scanner tokens cannot reach admin routes.
	resp = e.do(t, "GET", "/v1/persons", e.scanner, "", nil)
	expectStatus(t, resp, http.StatusForbidden)
	if got := decode[apiErr](t, resp); got.Error.Code != "forbidden" {
		t.Errorf("expected code=forbidden, got %q", got.Error.Code)
	}

	resp = e.do(t, "GET", "/v1/stats/today", e.scanner, "", nil)
	expectStatus(t, resp, http.StatusOK)
}

// ── Persons ──────────────────────────────────────────────────────────────────

func TestRegister_CreatedAndConflicts(t *testing.T) {
	e := newTestServer(t)

	got := e.register(t, "Kim Minsu", "01012345678")
	if got.Person.Phone != "010-1234-5678" {
		t.Errorf("expected formatted phone, got %q", got.Person.Phone)
	}
	if !got.Delivered || got.Person.NotificationStatus != "SUCCESS" {
		t.Errorf("unexpected delivery result: %+v", got)
	}
	if got.Person.ExpiresAt != "2026-03-03T19:00:00+09:00" {
		t.Errorf("unexpected expiry %q", got.Person.ExpiresAt)
	}

	resp := e.doJSON(t, "POST", "/v1/persons", e.admin, `{"name":"Lee Jiwon","phone":"010-1234-5678"}`)
	expectStatus(t, resp, http.StatusConflict)
	if got := decode[apiErr](t, resp); got.Error.Code != "phone_taken" {
		t.Errorf("expected phone_taken, got %q", got.Error.Code)
	}

	resp = e.doJSON(t, "POST", "/v1/persons", e.admin, `{"name":"Lee Jiwon","phone":"02-123-4567"}`)
	expectStatus(t, resp, http.StatusBadRequest)
	if got := decode[apiErr](t, resp); got.Error.Code != "invalid_phone" {
		t.Errorf("expected invalid_phone, got %q", got.Error.Code)
	}

	resp = e.doJSON(t, "POST", "/v1/persons", e.admin, `{"name":"Lee","phone":"01099998888","extra":1}`)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestPersons_Lifecycle(t *testing.T) {
	e := newTestServer(t)
	id := e.register(t, "Kim Minsu", "01012345678").Person.ID

	resp := e.do(t, "POST", "/v1/persons/"+id+"/deactivate", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if p := decode[types.PersonView](t, resp); p.Active {
		t.Error("expected inactive")
	}

	resp = e.do(t, "GET", "/v1/persons?active=true", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]types.PersonView](t, resp); len(list) != 0 {
		t.Errorf("expected no active persons, got %d", len(list))
	}

	resp = e.do(t, "POST", "/v1/persons/"+id+"/resend", e.admin, "", nil)
	expectStatus(t, resp, http.StatusForbidden)

	resp = e.do(t, "POST", "/v1/persons/"+id+"/activate", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = e.do(t, "GET", "/v1/persons/"+id+"/qr.png?size=64", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	resp = e.do(t, "GET", "/v1/persons/"+id+"/notifications", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	hist := decode[[]types.NotificationView](t, resp)
	if len(hist) != 1 || hist[0].Phone != "010****5678" {
		t.Errorf("expected one masked history row, got %+v", hist)
	}

	resp = e.do(t, "DELETE", "/v1/persons/"+id, e.admin, "", nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = e.do(t, "GET", "/v1/persons/"+id, e.admin, "", nil)
	expectStatus(t, resp, http.StatusNotFound)
}

// ── Scan ─────────────────────────────────────────────────────────────────────

func TestScan_JSONToggleAndDuplicate(t *testing.T) {
	e := newTestServer(t)
	id := e.register(t, "Kim Minsu", "01012345678").Person.ID
	body, _ := json.Marshal(types.ScanRequest{Payload: e.payloadFor(t, id), Location: "Main Gate"})

	resp := e.do(t, "POST", "/v1/scan", e.scanner, "application/json", body)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[types.ScanResponse](t, resp); got.EntryType != "ENTER" || got.PersonID != id {
		t.Fatalf("unexpected scan response %+v", got)
	}

	resp = e.do(t, "POST", "/v1/scan", e.scanner, "application/json", body)
	expectStatus(t, resp, http.StatusConflict)
	if got := decode[apiErr](t, resp); got.Error.Code != "duplicate_scan" || got.Error.Message == "" {
		t.Errorf("unexpected duplicate error %+v", got)
	}

	e.clock.Advance(2 * time.Second)
	resp = e.do(t, "POST", "/v1/scan", e.scanner, "application/json", body)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[types.ScanResponse](t, resp); got.EntryType != "EXIT" {
		t.Fatalf("expected EXIT, got %+v", got)
	}

	resp = e.do(t, "GET", "/v1/stats/today", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	st := decode[types.TodayStats](t, resp)
	if st.Entries != 1 || st.Exits != 1 || st.CurrentlyInside != 0 || st.Date != "2026-03-02" {
		t.Errorf("unexpected stats %+v", st)
	}

	resp = e.do(t, "GET", "/v1/entries/recent?limit=1", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]types.EntryView](t, resp); len(got) != 1 || got[0].EntryType != "EXIT" {
		t.Errorf("unexpected recent entries %+v", got)
	}

	resp = e.do(t, "GET", "/v1/persons/"+id+"/entries?from=2026-03-02&to=2026-03-02", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]types.EntryView](t, resp); len(got) != 2 || got[0].Location != "Main Gate" {
		t.Errorf("unexpected person entries %+v", got)
	}
}

func TestScan_Protobuf(t *testing.T) {
	e := newTestServer(t)
	id := e.register(t, "Kim Minsu", "01012345678").Person.ID

	body, err := proto.Marshal(types.ScanRequest{Payload: e.payloadFor(t, id), ScannerID: "door-1"}.Struct())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp := e.do(t, "POST", "/v1/scan", e.scanner, "application/x-protobuf", body)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-protobuf" {
		t.Fatalf("expected protobuf reply, got %q", ct)
	}

	raw, _ := io.ReadAll(resp.Body)
	var out structpb.Struct
	if err := proto.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := types.ScanResponseFromStruct(&out); got.EntryType != "ENTER" || !got.OK {
		t.Fatalf("unexpected reply %+v", got)
	}

	// Failures come back as a Struct too.
	bad, _ := proto.Marshal(types.ScanRequest{Payload: "nope"}.Struct())
	resp = e.do(t, "POST", "/v1/scan", e.scanner, "application/x-protobuf", bad)
	expectStatus(t, resp, http.StatusBadRequest)
	raw, _ = io.ReadAll(resp.Body)
	out.Reset()
	if err := proto.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal error reply: %v", err)
	}
	if code := out.GetFields()["error"].GetStringValue(); code != "invalid_qr" {
		t.Errorf("expected error=invalid_qr, got %q", code)
	}
}

func TestScan_Rejections(t *testing.T) {
	e := newTestServer(t)
	id := e.register(t, "Kim Minsu", "01012345678").Person.ID
	payload := e.payloadFor(t, id)

	resp := e.doJSON(t, "POST", "/v1/scan", e.scanner, `not json`)
	expectStatus(t, resp, http.StatusBadRequest)

	tampered := strings.Replace(payload, "Kim Minsu", "Kim Minso", 1)
	body, _ := json.Marshal(types.ScanRequest{Payload: tampered})
	resp = e.do(t, "POST", "/v1/scan", e.scanner, "application/json", body)
	expectStatus(t, resp, http.StatusForbidden)
	if got := decode[apiErr](t, resp); got.Error.Code != "invalid_credential" {
		t.Errorf("expected invalid_credential, got %q", got.Error.Code)
	}

	e.clock.Advance(time.Second)
	resp = e.do(t, "POST", "/v1/persons/"+id+"/resend", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)

	body, _ = json.Marshal(types.ScanRequest{Payload: payload})
	resp = e.do(t, "POST", "/v1/scan", e.scanner, "application/json", body)
	expectStatus(t, resp, http.StatusForbidden)
	if got := decode[apiErr](t, resp); got.Error.Code != "credential_superseded" {
		t.Errorf("expected credential_superseded, got %q", got.Error.Code)
	}
}

// ── Settings ─────────────────────────────────────────────────────────────────

func TestSettings_UpdatePreviewReset(t *testing.T) {
	e := newTestServer(t)

	resp := e.doJSON(t, "PUT", "/v1/settings", e.admin, `{"message_template":"Hi {name}","attach_qr_image":false}`)
	expectStatus(t, resp, http.StatusOK)
	if st := decode[types.Settings](t, resp); st.MessageTemplate != "Hi {name}" || st.AttachQRImage {
		t.Fatalf("unexpected settings %+v", st)
	}

	resp = e.do(t, "GET", "/v1/settings/preview", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if p := decode[types.Preview](t, resp); p.Text != "Hi Hong Gildong" {
		t.Errorf("unexpected preview %q", p.Text)
	}

	e.register(t, "Kim Minsu", "01012345678")
	sent := e.sender.Sent()
	if sent[len(sent)-1].Type() != "SMS" {
		t.Error("attach_qr_image=false should send SMS")
	}

	resp = e.doJSON(t, "PUT", "/v1/settings", e.admin, `{"message_template":"  ","attach_qr_image":true}`)
	expectStatus(t, resp, http.StatusBadRequest)
	resp = e.do(t, "GET", "/v1/settings", e.admin, "", nil)
	if st := decode[types.Settings](t, resp); st.MessageTemplate != "Hi {name}" || st.AttachQRImage {
		t.Fatalf("rejected update must change nothing: %+v", st)
	}

	resp = e.do(t, "POST", "/v1/settings/reset", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if st := decode[types.Settings](t, resp); !strings.Contains(st.MessageTemplate, "{name}") || st.AttachQRImage {
		t.Errorf("reset should restore the template only: %+v", st)
	}
}

// ── Reports ──────────────────────────────────────────────────────────────────

func TestReports_GenerateDownloadShare(t *testing.T) {
	e := newTestServer(t)
	e.register(t, "Kim Minsu", "01012345678")

	resp := e.doJSON(t, "POST", "/v1/reports", e.admin, `{"type":"person_list"}`)
	expectStatus(t, resp, http.StatusCreated)
	rep := decode[types.ReportResponse](t, resp)
	if rep.Type != string(report.PersonList) || rep.Size == 0 {
		t.Fatalf("unexpected report %+v", rep)
	}

	resp = e.do(t, "GET", "/v1/reports/"+rep.Name, e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != report.ContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	b, _ := io.ReadAll(resp.Body)
	if len(b) != rep.Size {
		t.Errorf("expected %d bytes, got %d", rep.Size, len(b))
	}

	resp = e.doJSON(t, "POST", "/v1/reports/"+rep.Name+"/send", e.admin, `{"phone":"010-9876-5432"}`)
	expectStatus(t, resp, http.StatusOK)

	resp = e.do(t, "GET", "/v1/reports/missing.xlsx", e.admin, "", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = e.doJSON(t, "POST", "/v1/reports", e.admin, `{"type":"ALL_ENTRIES","from":"2026-03-05","to":"2026-03-01"}`)
	expectStatus(t, resp, http.StatusBadRequest)
	if got := decode[apiErr](t, resp); got.Error.Code != "invalid_range" {
		t.Errorf("expected invalid_range, got %q", got.Error.Code)
	}

	resp = e.doJSON(t, "POST", "/v1/reports", e.admin, `{"type":"PERSON_DETAIL"}`)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = e.doJSON(t, "POST", "/v1/reports", e.admin, `{"type":"WEEKLY"}`)
	expectStatus(t, resp, http.StatusBadRequest)
}

// ── Notifications / metrics ──────────────────────────────────────────────────

func TestNotifications_FailedList(t *testing.T) {
	e := newTestServer(t)
	e.register(t, "Kim Minsu", "01012345678")

	resp := e.do(t, "GET", "/v1/notifications?status=SUCCESS", e.admin, "", nil)
	expectStatus(t, resp, http.StatusOK)
	var body struct {
		Notifications []types.NotificationView `json:"notifications"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Notifications) != 1 {
		t.Errorf("expected 1 SUCCESS row, got %d", len(body.Notifications))
	}

	resp = e.do(t, "GET", "/v1/notifications?status=LOST", e.admin, "", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestMetrics_Exposed(t *testing.T) {
	e := newTestServer(t)
	e.doJSON(t, "POST", "/v1/scan", e.scanner, `{"payload":"bad"}`)

	resp := e.do(t, "GET", "/metrics", "", "", nil)
	expectStatus(t, resp, http.StatusOK)
	b, _ := io.ReadAll(resp.Body)
	text := string(b)
	for _, want := range []string{`gatepass_scans_total{result="malformed"} 1`, `route="POST /v1/scan"`} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
