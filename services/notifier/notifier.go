package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"guardline/pkg/bus"
	"guardline/pkg/db"
	"guardline/pkg/render"
)

// Subjects mirror what the API publishes for alert transitions.
const (
	subjectAlertCreated   = "guardline.alerts.created"
	subjectAlertCancelled = "guardline.alerts.cancelled"
	subjectAlertResolved  = "guardline.alerts.resolved"

	channelWebhook = "webhook"

	deliveryStatusSent   = "sent"
	deliveryStatusFailed = "failed"
)

type coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type alertEvent struct {
	AlertID        uuid.UUID    `json:"alert_id"`
	OwnerID        uuid.UUID    `json:"owner_id"`
	OwnerName      string       `json:"owner_name"`
	AlertType      string       `json:"alert_type"`
	Status         string       `json:"status"`
	ContactUserIDs []uuid.UUID  `json:"contact_user_ids"`
	Coordinates    *coordinates `json:"coordinates,omitempty"`
	TriggeredAt    time.Time    `json:"triggered_at"`
}

// Worker consumes alert events and fans each one out to the owner's notified
// contacts, recording every delivery attempt so the owner can see who was
// reached.
type Worker struct {
	pool       *pgxpool.Pool
	bus        *bus.Bus
	engine     *render.Engine
	webhookURL string
	client     *http.Client
	logger     zerolog.Logger

	subMu sync.Mutex
	subs  []io.Closer
}

// NewWorker constructs a Worker for the provided dependencies. webhookURL may
// be empty, in which case deliveries are recorded but nothing leaves the
// process.
func NewWorker(pool *pgxpool.Pool, b *bus.Bus, engine *render.Engine, webhookURL string, logger zerolog.Logger) (*Worker, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	if b == nil {
		return nil, errors.New("bus is required")
	}
	if engine == nil {
		return nil, errors.New("render engine is required")
	}

	return &Worker{
		pool:       pool,
		bus:        b,
		engine:     engine,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}, nil
}

// Start subscribes to the alert subjects and processes events until ctx is
// cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if w == nil {
		return errors.New("nil worker")
	}

	routes := []struct {
		subject  string
		durable  string
		template string
	}{
		{subjectAlertCreated, "notifier-created", "alert_created.tmpl"},
		{subjectAlertCancelled, "notifier-cancelled", "alert_cancelled.tmpl"},
		{subjectAlertResolved, "notifier-resolved", "alert_resolved.tmpl"},
	}

	for _, route := range routes {
		route := route
		sub, err := w.bus.Subscribe(ctx, route.subject, route.durable, func(msgCtx context.Context, data []byte) error {
			return w.handleEvent(msgCtx, route.template, data)
		})
		if err != nil {
			w.closeSubs()
			return err
		}

		w.subMu.Lock()
		w.subs = append(w.subs, sub)
		w.subMu.Unlock()
	}

	return nil
}

// Close stops all subscriptions.
func (w *Worker) Close() error {
	if w == nil {
		return nil
	}
	w.closeSubs()
	return nil
}

func (w *Worker) closeSubs() {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	for _, sub := range w.subs {
		_ = sub.Close()
	}
	w.subs = nil
}

// handleEvent renders the message for one alert transition and delivers it to
// every contact in the event's snapshot. A malformed payload is dropped with
// a log line rather than NAK'd; redelivering it would loop forever.
func (w *Worker) handleEvent(ctx context.Context, templateName string, data []byte) error {
	var evt alertEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		w.logger.Error().Err(err).Str("template", templateName).Msg("dropping malformed alert event")
		return nil
	}
	if evt.AlertID == uuid.Nil {
		w.logger.Error().Str("template", templateName).Msg("dropping alert event without alert_id")
		return nil
	}
	if evt.OwnerName == "" {
		evt.OwnerName = "A protected user"
	}
	if evt.AlertType == "" {
		evt.AlertType = "sos"
	}

	message, err := w.engine.Render(templateName, evt)
	if err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	for _, contactID := range evt.ContactUserIDs {
		w.deliver(ctx, evt, contactID, message)
	}

	return nil
}

// deliver pushes one message to the webhook endpoint and records the attempt.
// Delivery is best-effort: a failed push is recorded as failed and the event
// is still acknowledged, since retrying the whole fanout would duplicate the
// deliveries that did succeed.
func (w *Worker) deliver(ctx context.Context, evt alertEvent, contactID uuid.UUID, message string) {
	status := deliveryStatusSent
	details := map[string]any{"message": message}

	if err := w.pushWebhook(ctx, evt, contactID, message); err != nil {
		status = deliveryStatusFailed
		details["error"] = err.Error()
		w.logger.Warn().Err(err).
			Str("alert_id", evt.AlertID.String()).
			Str("contact_user_id", contactID.String()).
			Msg("webhook delivery failed")
	}

	if err := w.recordDelivery(ctx, evt.AlertID, contactID, status, details); err != nil {
		w.logger.Error().Err(err).
			Str("alert_id", evt.AlertID.String()).
			Str("contact_user_id", contactID.String()).
			Msg("delivery record insert failed")
	}
}

func (w *Worker) pushWebhook(ctx context.Context, evt alertEvent, contactID uuid.UUID, message string) error {
	if w.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"alert_id":        evt.AlertID,
		"alert_type":      evt.AlertType,
		"status":          evt.Status,
		"contact_user_id": contactID,
		"message":         message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *Worker) recordDelivery(ctx context.Context, alertID, contactID uuid.UUID, status string, details map[string]any) error {
	detailsBytes, err := json.Marshal(details)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, w.pool, `
INSERT INTO notification_deliveries (id, alert_id, contact_user_id, channel, status, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
`, uuid.New(), alertID, contactID, channelWebhook, status, detailsBytes, time.Now().UTC())
	return err
}
