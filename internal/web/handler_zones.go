package web

import (
	"net/http"
	"strconv"

	"github.com/vbonduro/parrotops/internal/api"
	"github.com/vbonduro/parrotops/internal/service"
)

func (s *Server) handleGetZoneLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := s.service.GetZoneLayout(r.Context())
	if err != nil {
		s.fail(w, r, "get zone layout", err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

// handleSaveZoneLayout replaces the stored layout. A body that is not JSON
// is rejected before anything is written.
func (s *Server) handleSaveZoneLayout(w http.ResponseWriter, r *http.Request) {
	var req api.SaveZonesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := make([]service.ZoneInput, 0, len(req.Zones))
	for _, z := range req.Zones {
		in = append(in, service.ZoneInput{
			ZoneID: string(z.ZoneID),
			X:      z.X.Float(),
			Y:      z.Y.Float(),
			W:      z.W.Float(),
			H:      z.H.Float(),
			Active: z.Active.Bool(),
		})
	}

	n, err := s.service.SaveZoneLayout(r.Context(), in)
	if err != nil {
		s.fail(w, r, "save zone layout", err)
		return
	}
	writeJSON(w, http.StatusOK, api.SaveZonesResponse{OK: true, Count: n})
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	entries, err := s.service.ListJournal(r.Context(), q.Get("subject"), limit)
	if err != nil {
		s.fail(w, r, "list journal", err)
		return
	}
	writeJSON(w, http.StatusOK, api.JournalResponse{Entries: entries})
}
