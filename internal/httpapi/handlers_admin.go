package httpapi

import (
	"net/http"
	"strconv"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/report"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

// ── Settings ─────────────────────────────────────────────────────────────────

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Get(r.Context())
	if err != nil {
		s.fail(w, r, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settingsView(st))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req types.SettingsUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if err := s.settings.Update(r.Context(), service.SettingsUpdate{
		MessageTemplate: req.MessageTemplate,
		AttachQRImage:   req.AttachQRImage,
	}); err != nil {
		s.fail(w, r, "update settings", err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.ResetTemplate(r.Context()); err != nil {
		s.fail(w, r, "reset settings", err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	text, err := s.settings.Preview(r.Context())
	if err != nil {
		s.fail(w, r, "preview", err)
		return
	}
	writeJSON(w, http.StatusOK, types.Preview{Text: text})
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req types.ReportRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	typ, err := report.ParseType(req.Type)
	if err != nil {
		s.fail(w, r, "generate report", err)
		return
	}
	from, err := s.reports.ParseDay(req.From)
	if err != nil {
		s.fail(w, r, "generate report", err)
		return
	}
	to, err := s.reports.ParseDay(req.To)
	if err != nil {
		s.fail(w, r, "generate report", err)
		return
	}

	res, err := s.reports.Generate(r.Context(), service.ReportRequest{
		Type: typ, From: from, To: to, PersonID: req.PersonID,
	})
	if err != nil {
		s.fail(w, r, "generate report", err)
		return
	}
	writeJSON(w, http.StatusCreated, reportView(res))
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	b, err := s.reports.Open(r.Context(), name)
	if err != nil {
		s.fail(w, r, "download report", err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleShareReport(w http.ResponseWriter, r *http.Request) {
	var req types.ShareRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if err := s.reports.Share(r.Context(), r.PathValue("name"), req.Phone); err != nil {
		s.fail(w, r, "share report", err)
		return
	}
	writeJSON(w, http.StatusOK, types.ShareResponse{OK: true, Message: "report sent"})
}
