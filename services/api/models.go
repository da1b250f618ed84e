package api

import (
	"time"

	"github.com/google/uuid"
)

// Alert statuses. An alert starts active and ends in exactly one of the
// terminal states.
const (
	AlertStatusActive    = "active"
	AlertStatusCancelled = "cancelled"
	AlertStatusResolved  = "resolved"
)

// Caller is the authenticated identity resolved from a session token.
type Caller struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"email_verified"`
}

// Contact is an emergency contact owned by a protector user. LinkedUserID is
// nil until the invited person accepts and links their own account.
type Contact struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Email          string     `json:"email"`
	LinkedUserID   *uuid.UUID `json:"linked_user_id,omitempty"`
	Name           string     `json:"name"`
	Relationship   string     `json:"relationship"`
	Priority       int        `json:"priority"`
	CanSeeLocation bool       `json:"can_see_location"`
	Verified       bool       `json:"verified"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ContactMetadata carries the optional display fields supplied when a
// placeholder contact is created.
type ContactMetadata struct {
	Name           string `json:"name"`
	Relationship   string `json:"relationship"`
	Priority       int    `json:"priority"`
	CanSeeLocation bool   `json:"can_see_location"`
}

// Invite is a time-boxed, single-use invitation addressed to an email.
type Invite struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"token,omitempty"`
	InviterID  uuid.UUID  `json:"inviter_id"`
	Email      string     `json:"email"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// IncomingInvite is an invite as seen by its recipient, annotated with the
// inviter's display identity.
type IncomingInvite struct {
	Invite
	InviterName string `json:"inviter_name"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Alert is an emergency alert. ContactsNotified is the authorization
// boundary for reads: it is snapshotted at creation and never changes,
// no matter how the owner's contact list evolves afterwards.
type Alert struct {
	ID               uuid.UUID    `json:"id"`
	OwnerID          uuid.UUID    `json:"owner_id"`
	Status           string       `json:"status"`
	AlertType        string       `json:"alert_type"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	ContactsNotified []uuid.UUID  `json:"contacts_notified"`
	TriggeredAt      time.Time    `json:"triggered_at"`
	ResolvedAt       *time.Time   `json:"resolved_at,omitempty"`
}

// AlertResponse tracks one notified contact's acknowledge/decline state for
// one alert. A contact counts as accepted only while acknowledged and not
// declined.
type AlertResponse struct {
	AlertID        uuid.UUID  `json:"alert_id"`
	ContactUserID  uuid.UUID  `json:"contact_user_id"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	DeclinedAt     *time.Time `json:"declined_at,omitempty"`
}

// Accepted reports whether this response currently grants responder access.
func (r AlertResponse) Accepted() bool {
	return r.AcknowledgedAt != nil && r.DeclinedAt == nil
}

// LocationSample is one append-only location reading attributed to the
// (user, alert) pair that produced it.
type LocationSample struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	AlertID    *uuid.UUID `json:"alert_id,omitempty"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Accuracy   *float64   `json:"accuracy,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// LocationTrack groups an alert's samples by the user that produced them,
// newest first, for presentation.
type LocationTrack struct {
	UserID  uuid.UUID        `json:"user_id"`
	Samples []LocationSample `json:"samples"`
}

// AlertMedia references an evidence object (photo, audio) uploaded for an
// alert.
type AlertMedia struct {
	ID         uuid.UUID `json:"id"`
	AlertID    uuid.UUID `json:"alert_id"`
	UploaderID uuid.UUID `json:"uploader_id"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}
