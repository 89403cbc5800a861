package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/parrotops/internal/api"
	"github.com/vbonduro/parrotops/internal/domain"
)

// handleListLots accepts the bin filter as "bin" or the older "binId".
func (s *Server) handleListLots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bin := q.Get("bin")
	if bin == "" {
		bin = q.Get("binId")
	}

	lots, err := s.service.ListLots(r.Context(), bin)
	if err != nil {
		s.fail(w, r, "list lots", err)
		return
	}
	writeJSON(w, http.StatusOK, api.LotsResponse{Lots: lots})
}

func (s *Server) handleGetLot(w http.ResponseWriter, r *http.Request) {
	lot, err := s.service.GetLot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "get lot", err)
		return
	}
	writeJSON(w, http.StatusOK, api.LotResponse{Lot: lot})
}

func (s *Server) handleFindLots(w http.ResponseWriter, r *http.Request) {
	lots, err := s.service.FindLots(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, "find lots", err)
		return
	}
	writeJSON(w, http.StatusOK, api.LotsResponse{Lots: lots})
}

func (s *Server) handleCreateLot(w http.ResponseWriter, r *http.Request) {
	var req api.CreateLotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lot, err := s.service.CreateLot(r.Context(), domain.Lot{
		LotID:     string(req.LotID),
		BinID:     string(req.BinID),
		Title:     string(req.Title),
		Status:    string(req.Status),
		Buyer:     string(req.Buyer),
		FolderURL: string(req.FolderURL),
	})
	if err != nil {
		s.fail(w, r, "create lot", err)
		return
	}
	writeJSON(w, http.StatusOK, api.CreateLotResponse{Success: true, LotID: lot.LotID, BinID: lot.BinID})
}

func (s *Server) handleMoveLot(w http.ResponseWriter, r *http.Request) {
	var req api.MoveLotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.MoveLot(r.Context(), string(req.LotID), string(req.TargetBinID)); err != nil {
		s.fail(w, r, "move lot", err)
		return
	}
	writeJSON(w, http.StatusOK, api.MoveLotResponse{
		Success:     true,
		LotID:       strings.TrimSpace(string(req.LotID)),
		TargetBinID: strings.TrimSpace(string(req.TargetBinID)),
	})
}
