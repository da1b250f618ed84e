package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (a *API) responseForPair(ctx context.Context, alertID, contactUserID uuid.UUID) (responseModel, error) {
	var model responseModel
	err := a.store.ORM.WithContext(ctx).
		Where("alert_id = ? AND contact_user_id = ?", alertID, contactUserID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return responseModel{}, E(KindNotFound, "contact was not notified for this alert")
		}
		return responseModel{}, wrapE(KindUnavailable, err, "response lookup failed")
	}
	return model, nil
}

// acknowledge marks the caller as an accepted responder. Acknowledging twice
// keeps the first timestamp; acknowledging after a decline is refused since
// decline is terminal per alert.
func (a *API) acknowledge(ctx context.Context, alertID, contactUserID uuid.UUID) (AlertResponse, error) {
	model, err := a.responseForPair(ctx, alertID, contactUserID)
	if err != nil {
		return AlertResponse{}, err
	}

	if model.DeclinedAt != nil {
		return AlertResponse{}, E(KindDeclined, "alert was declined")
	}
	if model.AcknowledgedAt != nil {
		return model.toAPI(), nil
	}

	now := time.Now().UTC()
	res := a.store.ORM.WithContext(ctx).
		Model(&responseModel{}).
		Where("id = ? AND acknowledged_at IS NULL AND declined_at IS NULL", model.ID).
		Update("acknowledged_at", &now)
	if res.Error != nil {
		return AlertResponse{}, wrapE(KindUnavailable, res.Error, "acknowledge failed")
	}
	if res.RowsAffected == 0 {
		// Lost a race against another acknowledge or a decline; re-read and
		// report the state that actually won.
		model, err = a.responseForPair(ctx, alertID, contactUserID)
		if err != nil {
			return AlertResponse{}, err
		}
		if model.DeclinedAt != nil {
			return AlertResponse{}, E(KindDeclined, "alert was declined")
		}
		return model.toAPI(), nil
	}

	model.AcknowledgedAt = &now
	return model.toAPI(), nil
}

// decline records that the contact will not respond. Once set, the contact
// is not an accepted responder regardless of any earlier acknowledgment.
func (a *API) decline(ctx context.Context, alertID, contactUserID uuid.UUID) (AlertResponse, error) {
	model, err := a.responseForPair(ctx, alertID, contactUserID)
	if err != nil {
		return AlertResponse{}, err
	}

	if model.DeclinedAt != nil {
		return model.toAPI(), nil
	}

	now := time.Now().UTC()
	res := a.store.ORM.WithContext(ctx).
		Model(&responseModel{}).
		Where("id = ? AND declined_at IS NULL", model.ID).
		Update("declined_at", &now)
	if res.Error != nil {
		return AlertResponse{}, wrapE(KindUnavailable, res.Error, "decline failed")
	}

	model.DeclinedAt = &now
	return model.toAPI(), nil
}

// listAccepted returns the accepted responders for an alert, most recent
// acknowledgment first so callers can surface the most responsive helper.
func (a *API) listAccepted(ctx context.Context, alertID uuid.UUID) ([]AlertResponse, error) {
	var models []responseModel
	err := a.store.ORM.WithContext(ctx).
		Where("alert_id = ? AND acknowledged_at IS NOT NULL AND declined_at IS NULL", alertID).
		Order("acknowledged_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, wrapE(KindUnavailable, err, "accepted responder list failed")
	}

	responses := make([]AlertResponse, 0, len(models))
	for _, m := range models {
		responses = append(responses, m.toAPI())
	}
	return responses, nil
}

// listResponses returns every response row for an alert, for the owner's
// status view.
func (a *API) listResponses(ctx context.Context, alertID uuid.UUID) ([]AlertResponse, error) {
	var models []responseModel
	err := a.store.ORM.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrapE(KindUnavailable, err, "response list failed")
	}

	responses := make([]AlertResponse, 0, len(models))
	for _, m := range models {
		responses = append(responses, m.toAPI())
	}
	return responses, nil
}
