package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email         string    `gorm:"type:text;uniqueIndex;not null"`
	Name          string    `gorm:"type:text"`
	EmailVerified bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"type:timestamptz;not null;autoCreateTime"`
}

type Session struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Token     string     `gorm:"type:text;uniqueIndex;not null"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time  `gorm:"type:timestamptz;not null"`
	RevokedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;autoCreateTime"`
	User      User       `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Contact struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_contacts_owner_email"`
	Email          string     `gorm:"type:text;not null;uniqueIndex:idx_contacts_owner_email"`
	LinkedUserID   *uuid.UUID `gorm:"type:uuid;index"`
	Name           string     `gorm:"type:text"`
	Relationship   string     `gorm:"type:text"`
	Priority       int        `gorm:"not null;default:0"`
	CanSeeLocation bool       `gorm:"not null;default:true"`
	Verified       bool       `gorm:"not null;default:false"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"type:timestamptz;not null;autoUpdateTime"`
}

type ContactInvite struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Token      string     `gorm:"type:text;uniqueIndex;not null"`
	InviterID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Email      string     `gorm:"type:text;not null;index"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;not null;autoCreateTime"`
	ExpiresAt  time.Time  `gorm:"type:timestamptz;not null"`
	AcceptedAt *time.Time `gorm:"type:timestamptz"`
}

type EmergencyAlert struct {
	ID               uuid.UUID                      `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID                      `gorm:"type:uuid;not null;index"`
	Status           string                         `gorm:"type:text;not null"`
	AlertType        string                         `gorm:"type:text;not null"`
	Latitude         *float64                       `gorm:"type:double precision"`
	Longitude        *float64                       `gorm:"type:double precision"`
	ContactsNotified datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb"`
	TriggeredAt      time.Time                      `gorm:"type:timestamptz;not null"`
	ResolvedAt       *time.Time                     `gorm:"type:timestamptz"`
}

type AlertResponse struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AlertID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_alert_responses_pair"`
	ContactUserID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_alert_responses_pair"`
	AcknowledgedAt *time.Time `gorm:"type:timestamptz"`
	DeclinedAt     *time.Time `gorm:"type:timestamptz"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null;autoCreateTime"`
}

type LocationSample struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_location_history_lookup,priority:2"`
	AlertID    *uuid.UUID `gorm:"type:uuid;index:idx_location_history_lookup,priority:1"`
	Latitude   float64    `gorm:"type:double precision;not null"`
	Longitude  float64    `gorm:"type:double precision;not null"`
	Accuracy   *float64   `gorm:"type:double precision"`
	RecordedAt time.Time  `gorm:"type:timestamptz;not null;index:idx_location_history_lookup,priority:3"`
}

func (LocationSample) TableName() string { return "location_history" }

type AlertMedia struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	AlertID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null"`
	ObjectKey  string    `gorm:"type:text;not null"`
	Kind       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;autoCreateTime"`
}

type NotificationDelivery struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	AlertID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	ContactUserID *uuid.UUID        `gorm:"type:uuid"`
	Channel       string            `gorm:"type:text;not null"`
	Status        string            `gorm:"type:text;not null"`
	Details       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt     time.Time         `gorm:"type:timestamptz;not null;autoCreateTime"`
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&User{},
		&Session{},
		&Contact{},
		&ContactInvite{},
		&EmergencyAlert{},
		&AlertResponse{},
		&LocationSample{},
		&AlertMedia{},
		&NotificationDelivery{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Session{}, "User"); err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().DropTable(
		&NotificationDelivery{},
		&AlertMedia{},
		&LocationSample{},
		&AlertResponse{},
		&EmergencyAlert{},
		&ContactInvite{},
		&Contact{},
		&Session{},
		&User{},
	); err != nil {
		return err
	}

	return nil
}
