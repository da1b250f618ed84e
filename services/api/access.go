package api

import (
	"context"

	"github.com/google/uuid"
)

// canReadAlert reports whether callerID may read the alert and its location
// stream. The notified snapshot taken at creation time is the whole
// authorization boundary; later contact edits never widen or narrow it.
func canReadAlert(alert Alert, callerID uuid.UUID) bool {
	if callerID == alert.OwnerID {
		return true
	}
	for _, id := range alert.ContactsNotified {
		if id == callerID {
			return true
		}
	}
	return false
}

// isAcceptedResponder reports whether callerID has acknowledged the alert
// and not declined it. The read goes through the elevated store; callers
// must have resolved callerID from a verified session beforehand.
func (a *API) isAcceptedResponder(ctx context.Context, alertID, callerID uuid.UUID) (bool, error) {
	model, err := a.responseForPair(ctx, alertID, callerID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return false, nil
		}
		return false, err
	}
	return model.toAPI().Accepted(), nil
}
