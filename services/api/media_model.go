package api

import (
	"time"

	"github.com/google/uuid"
)

type mediaModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	AlertID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null"`
	ObjectKey  string    `gorm:"type:text;not null"`
	Kind       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (mediaModel) TableName() string { return "alert_media" }

func (m mediaModel) toAPI() AlertMedia {
	return AlertMedia{
		ID:         m.ID,
		AlertID:    m.AlertID,
		UploaderID: m.UploaderID,
		Kind:       m.Kind,
		CreatedAt:  m.CreatedAt,
	}
}
