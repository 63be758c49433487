package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/qrimage"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	res, err := s.registration.Register(r.Context(), req.Name, req.Phone)
	if err != nil {
		s.fail(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.registerResponse(res))
}

func (s *Server) handleListPersons(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	persons, err := s.registration.List(r.Context(), activeOnly)
	if err != nil {
		s.fail(w, r, "list persons", err)
		return
	}
	out := make([]types.PersonView, 0, len(persons))
	for _, p := range persons {
		out = append(out, s.personView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.registration.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "get person", err)
		return
	}
	writeJSON(w, http.StatusOK, s.personView(p))
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.registration.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, "delete person", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	res, err := s.registration.Resend(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "resend", err)
		return
	}
	writeJSON(w, http.StatusOK, s.registerResponse(res))
}

func (s *Server) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var err error
		if active {
			err = s.registration.Activate(r.Context(), id)
		} else {
			err = s.registration.Deactivate(r.Context(), id)
		}
		if err != nil {
			s.fail(w, r, "set active", err)
			return
		}
		p, err := s.registration.Get(r.Context(), id)
		if err != nil {
			s.fail(w, r, "set active", err)
			return
		}
		writeJSON(w, http.StatusOK, s.personView(p))
	}
}

func (s *Server) handleCredentialPNG(w http.ResponseWriter, r *http.Request) {
	size := qrimage.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_size", "size must be an integer")
			return
		}
		size = qrimage.ClampSize(n)
	}
	png, err := s.registration.CredentialPNG(r.Context(), r.PathValue("id"), size)
	if err != nil {
		s.fail(w, r, "credential png", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// handlePersonEntries takes from/to as inclusive YYYY-MM-DD days.
func (s *Server) handlePersonEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := s.reports.ParseDay(q.Get("from"))
	if err != nil {
		s.fail(w, r, "person entries", err)
		return
	}
	to, err := s.reports.ParseDay(q.Get("to"))
	if err != nil {
		s.fail(w, r, "person entries", err)
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	entries, err := s.scan.PersonEntries(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		s.fail(w, r, "person entries", err)
		return
	}
	writeJSON(w, http.StatusOK, s.entryViews(entries))
}

func (s *Server) handlePersonNotifications(w http.ResponseWriter, r *http.Request) {
	hist, err := s.notifications.History(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "person notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, s.notificationViews(hist))
}

// handleNotifications lists recent attempts with the given status
// (default FAILED) plus the last-24h counts.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := store.StatusFailed
	if v := q.Get("status"); v != "" {
		status = store.NotificationStatus(v)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be PENDING, SUCCESS or FAILED")
			return
		}
	}
	limit := 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows, err := s.notifications.ByStatus(r.Context(), status, limit)
	if err != nil {
		s.fail(w, r, "notifications", err)
		return
	}
	now := time.Now()
	counts, err := s.notifications.Counts(r.Context(), now.Add(-24*time.Hour), now)
	if err != nil {
		s.fail(w, r, "notifications", err)
		return
	}
	last24h := make(map[string]int, len(counts))
	for k, v := range counts {
		last24h[string(k)] = v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"notifications": s.notificationViews(rows),
		"last_24h":      last24h,
	})
}
