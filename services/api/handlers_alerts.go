package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	var req struct {
		AlertType string       `json:"alert_type"`
		Location  *Coordinates `json:"location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatusError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	alert, err := a.createAlert(ctx, caller, req.AlertType, req.Location)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"alert": alert})
}

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	alerts, err := a.listAlertsForCaller(ctx, caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (a *API) handleGetAlert(w http.ResponseWriter, r *http.Request) {
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

	alert, err := a.getAlert(ctx, alertID, caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"alert": alert})
}

func (a *API) handleCancelAlert(w http.ResponseWriter, r *http.Request) {
	a.handleCloseAlert(w, r, AlertStatusCancelled)
}

func (a *API) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	a.handleCloseAlert(w, r, AlertStatusResolved)
}

func (a *API) handleCloseAlert(w http.ResponseWriter, r *http.Request, target string) {
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

	var alert Alert
	if target == AlertStatusCancelled {
		alert, err = a.cancelAlert(ctx, alertID, caller)
	} else {
		alert, err = a.resolveAlert(ctx, alertID, caller)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"alert": alert})
}
