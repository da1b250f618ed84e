package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"guardline/pkg/db"
)

// pgxAdmission is the production admissionStore backed by the elevated
// connection pool. Location history is the hottest table in the system, so
// this path stays on raw SQL instead of the ORM.
type pgxAdmission struct {
	pool *pgxpool.Pool
}

func (s *pgxAdmission) AlertHead(ctx context.Context, alertID uuid.UUID) (uuid.UUID, string, error) {
	var head struct {
		OwnerID uuid.UUID `db:"owner_id"`
		Status  string    `db:"status"`
	}
	err := db.Get(ctx, s.pool, &head, `
SELECT owner_id, status
FROM emergency_alerts
WHERE id = $1
`, alertID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", E(KindNotFound, "alert not found")
		}
		return uuid.Nil, "", wrapE(KindUnavailable, err, "alert head lookup failed")
	}
	return head.OwnerID, head.Status, nil
}

func (s *pgxAdmission) ResponderState(ctx context.Context, alertID, userID uuid.UUID) (responderState, error) {
	var row struct {
		AcknowledgedAt *time.Time `db:"acknowledged_at"`
		DeclinedAt     *time.Time `db:"declined_at"`
	}
	err := db.Get(ctx, s.pool, &row, `
SELECT acknowledged_at, declined_at
FROM alert_responses
WHERE alert_id = $1 AND contact_user_id = $2
`, alertID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return responderState{}, nil
		}
		return responderState{}, wrapE(KindUnavailable, err, "responder state lookup failed")
	}

	return responderState{
		Exists:       true,
		Acknowledged: row.AcknowledgedAt != nil,
		Declined:     row.DeclinedAt != nil,
	}, nil
}

func (s *pgxAdmission) LastSampleAt(ctx context.Context, alertID, userID uuid.UUID) (*time.Time, error) {
	var recordedAt time.Time
	err := db.Get(ctx, s.pool, &recordedAt, `
SELECT recorded_at
FROM location_history
WHERE alert_id = $1 AND user_id = $2
ORDER BY recorded_at DESC
LIMIT 1
`, alertID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapE(KindUnavailable, err, "rate limit lookup failed")
	}
	return &recordedAt, nil
}

func (s *pgxAdmission) InsertSample(ctx context.Context, sample LocationSample) error {
	_, err := db.Exec(ctx, s.pool, `
INSERT INTO location_history (id, user_id, alert_id, latitude, longitude, accuracy, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, sample.ID, sample.UserID, sample.AlertID, sample.Latitude, sample.Longitude, sample.Accuracy, sample.RecordedAt)
	return err
}

func (s *pgxAdmission) SamplesForAlert(ctx context.Context, alertID uuid.UUID, userIDs []uuid.UUID, limit int) ([]LocationSample, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var rows []struct {
		ID         uuid.UUID  `db:"id"`
		UserID     uuid.UUID  `db:"user_id"`
		AlertID    *uuid.UUID `db:"alert_id"`
		Latitude   float64    `db:"latitude"`
		Longitude  float64    `db:"longitude"`
		Accuracy   *float64   `db:"accuracy"`
		RecordedAt time.Time  `db:"recorded_at"`
	}
	err := db.Select(ctx, s.pool, &rows, `
SELECT id, user_id, alert_id, latitude, longitude, accuracy, recorded_at
FROM location_history
WHERE alert_id = $1 AND user_id = ANY($2)
ORDER BY recorded_at DESC
LIMIT $3
`, alertID, userIDs, limit)
	if err != nil {
		return nil, err
	}

	samples := make([]LocationSample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, LocationSample{
			ID:         r.ID,
			UserID:     r.UserID,
			AlertID:    r.AlertID,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Accuracy:   r.Accuracy,
			RecordedAt: r.RecordedAt,
		})
	}
	return samples, nil
}
