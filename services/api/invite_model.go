package api

import (
	"time"

	"github.com/google/uuid"
)

type inviteModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token      string    `gorm:"type:text;uniqueIndex;not null"`
	InviterID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Email      string    `gorm:"type:text;not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	AcceptedAt *time.Time
}

func (inviteModel) TableName() string { return "contact_invites" }

func (i inviteModel) toAPI() Invite {
	return Invite{
		ID:         i.ID,
		Token:      i.Token,
		InviterID:  i.InviterID,
		Email:      i.Email,
		CreatedAt:  i.CreatedAt,
		ExpiresAt:  i.ExpiresAt,
		AcceptedAt: i.AcceptedAt,
	}
}
