package httpapi

import (
	"net/http"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if isProtobuf(r) {
		msg, err := readStruct(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return
		}
		req = types.ScanRequestFromStruct(msg)
	} else if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.scan.Process(r.Context(), req)
	if err != nil {
		status, code, known := apiError(err)
		if !known {
			s.fail(w, r, "scan", err)
			return
		}
		// Scanners show the message as-is, so it is the user-facing text.
		msg := service.ScanMessage(err)
		if wantsProtobuf(r) {
			out := types.ScanResponse{Message: msg}.Struct()
			out.Fields["error"] = structpb.NewStringValue(code)
			writeProto(w, status, out)
			return
		}
		writeError(w, status, code, msg)
		return
	}

	if wantsProtobuf(r) {
		writeProto(w, http.StatusOK, resp.Struct())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTodayStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.scan.TodayStats(r.Context())
	if err != nil {
		s.fail(w, r, "today stats", err)
		return
	}
	if wantsProtobuf(r) {
		writeProto(w, http.StatusOK, st.Struct())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRecentEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.scan.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, "recent entries", err)
		return
	}
	writeJSON(w, http.StatusOK, s.entryViews(entries))
}
