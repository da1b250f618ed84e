package api

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	subjectAlertCreated   = "guardline.alerts.created"
	subjectAlertCancelled = "guardline.alerts.cancelled"
	subjectAlertResolved  = "guardline.alerts.resolved"
)

// AlertEvent is the fanout payload handed to the notification workers.
type AlertEvent struct {
	AlertID        uuid.UUID    `json:"alert_id"`
	OwnerID        uuid.UUID    `json:"owner_id"`
	OwnerName      string       `json:"owner_name"`
	AlertType      string       `json:"alert_type"`
	Status         string       `json:"status"`
	ContactUserIDs []uuid.UUID  `json:"contact_user_ids"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	TriggeredAt    time.Time    `json:"triggered_at"`
}

// publishAlertEvent hands the alert to the fanout collaborator. Delivery is
// best-effort: a publish failure is logged and counted, never surfaced to
// the request that triggered it.
func (a *API) publishAlertEvent(ctx context.Context, subject string, alert Alert, owner Caller) {
	if a.store.Bus == nil || subject == "" {
		return
	}

	event := AlertEvent{
		AlertID:        alert.ID,
		OwnerID:        alert.OwnerID,
		OwnerName:      ownerDisplayName(owner),
		AlertType:      alert.AlertType,
		Status:         alert.Status,
		ContactUserIDs: alert.ContactsNotified,
		Coordinates:    alert.Coordinates,
		TriggeredAt:    alert.TriggeredAt,
	}

	if err := a.store.Bus.Publish(ctx, subject, event); err != nil {
		fanoutFailures.Inc()
		a.logger.Warn().Err(err).
			Str("subject", subject).
			Str("alert_id", alert.ID.String()).
			Msg("alert fanout publish failed")
	}
}

func ownerDisplayName(owner Caller) string {
	if owner.Name != "" {
		return owner.Name
	}
	return owner.Email
}
