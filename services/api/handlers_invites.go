package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	var req struct {
		Email          string `json:"email"`
		Name           string `json:"name"`
		Relationship   string `json:"relationship"`
		Priority       int    `json:"priority"`
		CanSeeLocation *bool  `json:"can_see_location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatusError(w, http.StatusBadRequest, err)
		return
	}

	canSee := true
	if req.CanSeeLocation != nil {
		canSee = *req.CanSeeLocation
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	invite, err := a.createInvite(ctx, caller, req.Email, ContactMetadata{
		Name:           req.Name,
		Relationship:   req.Relationship,
		Priority:       req.Priority,
		CanSeeLocation: canSee,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"invite": invite})
}

func (a *API) handleListIncomingInvites(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	invites, err := a.listIncomingInvites(ctx, caller)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"invites": invites})
}

// handleAcceptInvite accepts by explicit token when one is supplied, and
// otherwise falls back to the most recent pending invite addressed to the
// caller's email.
func (a *API) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatusError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var (
		contact Contact
		err     error
	)
	if req.Token != "" {
		contact, err = a.acceptInvite(ctx, req.Token, caller)
	} else {
		contact, err = a.acceptInviteByEmail(ctx, caller)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"contact": contact})
}

func (a *API) handleRejectInvite(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, E(KindUnauthenticated, "no session"))
		return
	}

	inviteID, err := uuid.Parse(chi.URLParam(r, "inviteID"))
	if err != nil {
		respondError(w, E(KindInvalidInput, "invalid invite id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if err := a.rejectInvite(ctx, inviteID, caller); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
