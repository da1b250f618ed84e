package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// createAlert inserts an active alert with an immutable snapshot of the
// owner's verified, linked contacts and pre-creates one response row per
// notified contact. Fanout happens after commit and is fire-and-forget.
func (a *API) createAlert(ctx context.Context, caller Caller, alertType string, coords *Coordinates) (Alert, error) {
	if alertType == "" {
		alertType = "sos"
	}
	if coords != nil {
		if err := validateCoordinates(coords.Latitude, coords.Longitude); err != nil {
			return Alert{}, err
		}
	}

	notified, err := a.verifiedContactUserIDs(ctx, caller.ID)
	if err != nil {
		return Alert{}, err
	}

	now := time.Now().UTC()
	model := alertModel{
		ID:               uuid.New(),
		OwnerID:          caller.ID,
		Status:           AlertStatusActive,
		AlertType:        alertType,
		ContactsNotified: datatypes.NewJSONSlice(notified),
		TriggeredAt:      now,
	}
	if coords != nil {
		model.Latitude = &coords.Latitude
		model.Longitude = &coords.Longitude
	}

	err = a.store.ORM.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, contactID := range notified {
			response := responseModel{
				ID:            uuid.New(),
				AlertID:       model.ID,
				ContactUserID: contactID,
				CreatedAt:     now,
			}
			if err := tx.Create(&response).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Alert{}, wrapE(KindUnavailable, err, "alert insert failed")
	}

	alert := model.toAPI()
	a.publishAlertEvent(ctx, subjectAlertCreated, alert, caller)
	alertsCreated.WithLabelValues(alert.AlertType).Inc()

	return alert, nil
}

// cancelAlert transitions an active alert to cancelled. The transition
// re-checks status and ownership inside the conditional update so that at
// most one of two racing cancels observes success.
func (a *API) cancelAlert(ctx context.Context, alertID uuid.UUID, caller Caller) (Alert, error) {
	return a.closeAlert(ctx, alertID, caller, AlertStatusCancelled)
}

// resolveAlert transitions an active alert to resolved.
func (a *API) resolveAlert(ctx context.Context, alertID uuid.UUID, caller Caller) (Alert, error) {
	return a.closeAlert(ctx, alertID, caller, AlertStatusResolved)
}

func (a *API) closeAlert(ctx context.Context, alertID uuid.UUID, caller Caller, target string) (Alert, error) {
	orm := a.store.ORM.WithContext(ctx)

	var model alertModel
	if err := orm.First(&model, "id = ?", alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Alert{}, E(KindNotFound, "alert not found")
		}
		return Alert{}, wrapE(KindUnavailable, err, "alert lookup failed")
	}

	if model.OwnerID != caller.ID {
		return Alert{}, E(KindAccessDenied, "only the alert owner may close it")
	}

	switch model.Status {
	case AlertStatusActive:
	case AlertStatusCancelled:
		return Alert{}, E(KindAlreadyCancelled, "alert already cancelled")
	default:
		return Alert{}, Ef(KindInvalidState, "alert is %s", model.Status)
	}

	now := time.Now().UTC()
	res := orm.Model(&alertModel{}).
		Where("id = ? AND owner_id = ? AND status = ?", alertID, caller.ID, AlertStatusActive).
		Updates(map[string]any{"status": target, "resolved_at": &now})
	if res.Error != nil {
		return Alert{}, wrapE(KindUnavailable, res.Error, "alert update failed")
	}
	if res.RowsAffected == 0 {
		// Someone else won the transition between our read and the write.
		if target == AlertStatusCancelled {
			return Alert{}, E(KindAlreadyCancelled, "alert already cancelled")
		}
		return Alert{}, E(KindConflict, "alert state changed concurrently")
	}

	model.Status = target
	model.ResolvedAt = &now

	alert := model.toAPI()
	subject := subjectAlertResolved
	if target == AlertStatusCancelled {
		subject = subjectAlertCancelled
	}
	a.publishAlertEvent(ctx, subject, alert, caller)

	return alert, nil
}

// getAlert loads an alert and enforces the notified-set read boundary.
func (a *API) getAlert(ctx context.Context, alertID, callerID uuid.UUID) (Alert, error) {
	var model alertModel
	if err := a.store.ORM.WithContext(ctx).First(&model, "id = ?", alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Alert{}, E(KindNotFound, "alert not found")
		}
		return Alert{}, wrapE(KindUnavailable, err, "alert lookup failed")
	}

	alert := model.toAPI()
	if !canReadAlert(alert, callerID) {
		return Alert{}, E(KindAccessDenied, "not authorized for this alert")
	}
	return alert, nil
}

// listAlertsForCaller returns alerts the caller owns plus alerts the caller
// was notified for. Membership in the notified set is resolved through the
// response rows created alongside each alert.
func (a *API) listAlertsForCaller(ctx context.Context, callerID uuid.UUID) ([]Alert, error) {
	var models []alertModel
	err := a.store.ORM.WithContext(ctx).
		Where("owner_id = ?", callerID).
		Or("id IN (?)", a.store.ORM.
			Model(&responseModel{}).
			Select("alert_id").
			Where("contact_user_id = ?", callerID)).
		Order("triggered_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, wrapE(KindUnavailable, err, "alert list failed")
	}

	alerts := make([]Alert, 0, len(models))
	for _, m := range models {
		alerts = append(alerts, m.toAPI())
	}
	return alerts, nil
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return E(KindInvalidInput, "invalid coordinates")
	}
	return nil
}
