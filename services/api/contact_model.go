package api

import (
	"time"

	"github.com/google/uuid"
)

type contactModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_contacts_owner_email"`
	Email          string     `gorm:"type:text;not null;uniqueIndex:idx_contacts_owner_email"`
	LinkedUserID   *uuid.UUID `gorm:"type:uuid;index"`
	Name           string     `gorm:"type:text"`
	Relationship   string     `gorm:"type:text"`
	Priority       int        `gorm:"not null;default:0"`
	CanSeeLocation bool       `gorm:"not null;default:true"`
	Verified       bool       `gorm:"not null;default:false"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

func (contactModel) TableName() string { return "contacts" }

func (c contactModel) toAPI() Contact {
	return Contact{
		ID:             c.ID,
		OwnerID:        c.OwnerID,
		Email:          c.Email,
		LinkedUserID:   c.LinkedUserID,
		Name:           c.Name,
		Relationship:   c.Relationship,
		Priority:       c.Priority,
		CanSeeLocation: c.CanSeeLocation,
		Verified:       c.Verified,
		CreatedAt:      c.CreatedAt,
	}
}
