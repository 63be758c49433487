package httpapi

import (
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/phone"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

// ── Persons ──────────────────────────────────────────────────────────────────

func (s *Server) personView(p store.PersonRecord) types.PersonView {
	v := types.PersonView{
		ID:                 p.ID,
		Name:               p.Name,
		Phone:              phone.Format(p.Phone),
		NotificationStatus: string(p.NotificationStatus),
		Active:             p.Active,
		CreatedAt:          s.stamp(p.CreatedAt),
	}
	if exp, ok := s.registration.ExpiresAt(p); ok {
		v.ExpiresAt = s.stamp(exp)
	}
	return v
}

func (s *Server) registerResponse(r service.RegisterResult) types.RegisterResponse {
	return types.RegisterResponse{
		Person:    s.personView(r.Person),
		Delivered: r.Delivered,
		Message:   r.Message,
	}
}

// ── Logs ─────────────────────────────────────────────────────────────────────

func (s *Server) entryView(e store.EntryRecord) types.EntryView {
	return types.EntryView{
		ID:         e.ID,
		PersonID:   e.PersonID,
		PersonName: e.PersonName,
		EntryType:  string(e.Type),
		Timestamp:  s.stamp(e.OccurredAt),
		Location:   e.Location,
		ScannerID:  e.ScannerID,
	}
}

func (s *Server) entryViews(es []store.EntryRecord) []types.EntryView {
	out := make([]types.EntryView, 0, len(es))
	for _, e := range es {
		out = append(out, s.entryView(e))
	}
	return out
}

func (s *Server) notificationViews(ns []store.NotificationRecord) []types.NotificationView {
	out := make([]types.NotificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, types.NotificationView{
			ID:       n.ID,
			PersonID: n.PersonID,
			Kind:     string(n.Kind),
			Phone:    credential.MaskPhone(n.Phone),
			Status:   string(n.Status),
			SentAt:   s.stamp(n.SentAt),
			Error:    n.Error,
		})
	}
	return out
}

// ── Settings / reports ───────────────────────────────────────────────────────

func settingsView(st service.Settings) types.Settings {
	return types.Settings{MessageTemplate: st.MessageTemplate, AttachQRImage: st.AttachQRImage}
}

func reportView(r service.ReportResult) types.ReportResponse {
	return types.ReportResponse{Name: r.Name, Type: string(r.Type), Size: r.Size, ShareURL: r.ShareURL}
}

// stamp formats t in the server's zone.
func (s *Server) stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format(time.RFC3339)
}
