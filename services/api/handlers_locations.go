package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleSubmitLocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	alertID, err := uuid.Parse(chi.URLParam(r, "alertID"))
	if err != nil {
		respondError(w, E(KindInvalidInput, "invalid alert id"))
		return
	}

	var req struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Accuracy  *float64 `json:"accuracy"`
		Manual    bool     `json:"manual"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatusError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	sample, err := a.submitLocation(ctx, caller, alertID, req.Latitude, req.Longitude, req.Accuracy, req.Manual)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"sample": sample})
}

func (a *API) handleListLocations(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	alertID, err := uuid.Parse(chi.URLParam(r, "alertID"))
	if err != nil {
		respondError(w, E(KindInvalidInput, "invalid alert id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	tracks, err := a.listLocationsForAlert(ctx, caller, alertID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}
