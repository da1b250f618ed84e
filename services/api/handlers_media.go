package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleCreateMedia(w http.ResponseWriter, r *http.Request) {
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
		Kind string `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatusError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	upload, err := a.createMedia(ctx, caller, alertID, req.Kind)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, upload)
}

func (a *API) handleListMedia(w http.ResponseWriter, r *http.Request) {
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

	media, err := a.listMedia(ctx, caller, alertID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"media": media})
}
