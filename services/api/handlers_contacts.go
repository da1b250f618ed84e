package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleListContacts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	contacts, err := a.listContacts(ctx, caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (a *API) handleRemoveContact(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	contactID, err := uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		respondError(w, E(KindInvalidInput, "invalid contact id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if err := a.removeContact(ctx, caller.ID, contactID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
