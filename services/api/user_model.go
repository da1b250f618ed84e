package api

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email         string    `gorm:"type:text;uniqueIndex;not null"`
	Name          string    `gorm:"type:text"`
	EmailVerified bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

func (u userModel) toCaller() Caller {
	return Caller{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
	}
}
