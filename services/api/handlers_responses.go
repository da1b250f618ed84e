package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	a.handleRespond(w, r, true)
}

func (a *API) handleDecline(w http.ResponseWriter, r *http.Request) {
	a.handleRespond(w, r, false)
}

func (a *API) handleRespond(w http.ResponseWriter, r *http.Request, acknowledge bool) {
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

	var response AlertResponse
	if acknowledge {
		response, err = a.acknowledge(ctx, alertID, caller.ID)
	} else {
		response, err = a.decline(ctx, alertID, caller.ID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"response": response})
}

// handleListResponses shows the owner which contacts have acknowledged or
// declined. Notified contacts see only the accepted subset through the
// location listing; the full roll call is the owner's view.
func (a *API) handleListResponses(w http.ResponseWriter, r *http.Request) {
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
	if alert.OwnerID != caller.ID {
		respondError(w, E(KindAccessDenied, "only the alert owner may list responses"))
		return
	}

	responses, err := a.listResponses(ctx, alertID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"responses": responses})
}
