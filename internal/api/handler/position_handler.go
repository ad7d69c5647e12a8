package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telematics/internal/api/util"
	"telematics/internal/core/service"
	"telematics/internal/track"
)

type PositionHandler struct {
	positionService service.PositionService
}

func NewPositionHandler(positionService service.PositionService) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	positions, err := h.positionService.GetRecentPositions(chi.URLParam(r, "id"), limit)
	if err != nil {
		respondServiceError(w, err, "failed to load positions")
		return
	}
	util.RespondJSON(w, http.StatusOK, positions)
}

func (h *PositionHandler) GetLatestPosition(w http.ResponseWriter, r *http.Request) {
	position, err := h.positionService.GetLatestPosition(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "failed to load position")
		return
	}
	if position == nil {
		util.RespondError(w, http.StatusNotFound, "no position for device")
		return
	}
	util.RespondJSON(w, http.StatusOK, position)
}

// GetTrack renders the device's recent history as a GeoJSON feature collection.
func (h *PositionHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	fc, err := h.positionService.GetTrack(chi.URLParam(r, "id"), limit)
	if errors.Is(err, track.ErrEmptyTrack) {
		util.RespondError(w, http.StatusNotFound, "no positions for device")
		return
	}
	if err != nil {
		respondServiceError(w, err, "failed to render track")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	util.RespondJSON(w, http.StatusOK, fc)
}
