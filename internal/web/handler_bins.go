package web

import (
	"net/http"

	"github.com/vbonduro/parrotops/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{OK: true})
}

func (s *Server) handleListBins(w http.ResponseWriter, r *http.Request) {
	bins, err := s.service.ListBins(r.Context())
	if err != nil {
		s.fail(w, r, "list bins", err)
		return
	}
	writeJSON(w, http.StatusOK, api.BinsResponse{Bins: bins})
}

func (s *Server) handleGetBin(w http.ResponseWriter, r *http.Request) {
	bin, lots, err := s.service.GetBin(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "get bin", err)
		return
	}
	writeJSON(w, http.StatusOK, api.BinResponse{Bin: bin, Lots: lots})
}

func (s *Server) handleCleanBin(w http.ResponseWriter, r *http.Request) {
	var req api.CleanBinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	setEmpty := req.SetEmpty == nil || bool(*req.SetEmpty)

	res, err := s.service.CleanBin(r.Context(), string(req.BinID), setEmpty)
	if err != nil {
		s.fail(w, r, "clean bin", err)
		return
	}
	writeJSON(w, http.StatusOK, api.CleanBinResponse{Success: true, Cleaned: res.Cleaned, SetEmpty: res.SetEmpty})
}
