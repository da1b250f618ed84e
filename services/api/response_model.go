package api

import (
	"time"

	"github.com/google/uuid"
)

type responseModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	AlertID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_alert_responses_pair"`
	ContactUserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_alert_responses_pair"`
	AcknowledgedAt *time.Time
	DeclinedAt     *time.Time
	CreatedAt      time.Time `gorm:"not null"`
}

func (responseModel) TableName() string { return "alert_responses" }

func (r responseModel) toAPI() AlertResponse {
	return AlertResponse{
		AlertID:        r.AlertID,
		ContactUserID:  r.ContactUserID,
		AcknowledgedAt: r.AcknowledgedAt,
		DeclinedAt:     r.DeclinedAt,
	}
}
