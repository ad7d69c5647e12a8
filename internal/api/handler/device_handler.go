package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"telematics/internal/api/util"
	"telematics/internal/cache"
	"telematics/internal/core/service"
)

type DeviceHandler struct {
	deviceService service.DeviceService
}

func NewDeviceHandler(deviceService service.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}

func (h *DeviceHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.deviceService.GetAllStates()
	if err != nil {
		log.Error().Err(err).Msg("failed to list states")
		util.RespondError(w, http.StatusInternalServerError, "failed to list states")
		return
	}
	util.RespondJSON(w, http.StatusOK, states)
}

func (h *DeviceHandler) GetState(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	st, err := h.deviceService.GetState(r.Context(), deviceID)
	if err != nil {
		respondServiceError(w, err, "failed to load state")
		return
	}
	if st == nil {
		util.RespondError(w, http.StatusNotFound, "no state for device")
		return
	}
	util.RespondJSON(w, http.StatusOK, st)
}

type commandRequest struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// EnqueueCommand queues a command; it is sent with the device's next report.
func (h *DeviceHandler) EnqueueCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd, err := h.deviceService.EnqueueCommand(r.Context(), chi.URLParam(r, "id"), req.Type, req.Payload)
	if err != nil {
		respondServiceError(w, err, "failed to queue command")
		return
	}

	subject, _ := util.SubjectFromContext(r.Context())
	log.Info().Str("device", cmd.DeviceID).Str("command", cmd.ID).Str("by", subject).Msg("command queued")
	util.RespondJSON(w, http.StatusAccepted, cmd)
}

func (h *DeviceHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	alerts, err := h.deviceService.GetAlerts(chi.URLParam(r, "id"), limit)
	if err != nil {
		respondServiceError(w, err, "failed to load alerts")
		return
	}
	util.RespondJSON(w, http.StatusOK, alerts)
}

// parseLimit reads the optional limit query parameter; zero selects the default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		util.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}

func respondServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidDeviceID), errors.Is(err, service.ErrEmptyCommand):
		util.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cache.ErrDisabled):
		util.RespondError(w, http.StatusServiceUnavailable, "command queue unavailable")
	default:
		log.Error().Err(err).Msg(message)
		util.RespondError(w, http.StatusInternalServerError, message)
	}
}
