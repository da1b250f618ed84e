package api

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type alertModel struct {
	ID               uuid.UUID                      `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID                      `gorm:"type:uuid;not null;index"`
	Status           string                         `gorm:"type:text;not null"`
	AlertType        string                         `gorm:"type:text;not null"`
	Latitude         *float64                       `gorm:"type:double precision"`
	Longitude        *float64                       `gorm:"type:double precision"`
	ContactsNotified datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb"`
	TriggeredAt      time.Time                      `gorm:"not null"`
	ResolvedAt       *time.Time
}

func (alertModel) TableName() string { return "emergency_alerts" }

func (m alertModel) toAPI() Alert {
	var coords *Coordinates
	if m.Latitude != nil && m.Longitude != nil {
		coords = &Coordinates{Latitude: *m.Latitude, Longitude: *m.Longitude}
	}
	return Alert{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Status:           m.Status,
		AlertType:        m.AlertType,
		Coordinates:      coords,
		ContactsNotified: append([]uuid.UUID(nil), m.ContactsNotified...),
		TriggeredAt:      m.TriggeredAt,
		ResolvedAt:       m.ResolvedAt,
	}
}
