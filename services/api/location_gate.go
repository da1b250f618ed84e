package api

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// responderState is the acceptance snapshot the gate reads before admitting
// a non-owner write.
type responderState struct {
	Exists       bool
	Acknowledged bool
	Declined     bool
}

// admissionStore is the narrow view of the durable store the gate needs.
// It is satisfied by the pgx-backed implementation in production and by
// fakes in tests, which is what keeps the visibility-retry policy testable.
type admissionStore interface {
	AlertHead(ctx context.Context, alertID uuid.UUID) (ownerID uuid.UUID, status string, err error)
	ResponderState(ctx context.Context, alertID, userID uuid.UUID) (responderState, error)
	LastSampleAt(ctx context.Context, alertID, userID uuid.UUID) (*time.Time, error)
	InsertSample(ctx context.Context, sample LocationSample) error
	SamplesForAlert(ctx context.Context, alertID uuid.UUID, userIDs []uuid.UUID, limit int) ([]LocationSample, error)
}

// gatePolicy bounds the gate's two time-based behaviours: the per-caller
// write rate limit and the acceptance-visibility retry. The retry exists to
// absorb replication lag between an acknowledgment write and the location
// write a client fires right behind it; it is a consistency accommodation
// with a fixed bound, not error recovery.
type gatePolicy struct {
	RateWindow    time.Duration
	RetryAttempts int
	RetryInterval time.Duration
}

type locationGate struct {
	store  admissionStore
	policy gatePolicy

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newLocationGate(store admissionStore, policy gatePolicy) *locationGate {
	if policy.RateWindow <= 0 {
		policy.RateWindow = defaultRateWindow
	}
	if policy.RetryAttempts <= 0 {
		policy.RetryAttempts = defaultRetryAttempts
	}
	if policy.RetryInterval <= 0 {
		policy.RetryInterval = defaultRetryInterval
	}

	return &locationGate{
		store:  store,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// submit admits or rejects one location write for (caller, alert).
//
// Order matters: coordinates are checked before any authorization so garbage
// is refused cheaply; a decline short-circuits without retrying, since a
// decline is intentional; only the ambiguous not-yet-visible acceptance case
// consumes the bounded retry budget.
func (g *locationGate) submit(ctx context.Context, callerID, alertID uuid.UUID, lat, lng float64, accuracy *float64, manual bool) (LocationSample, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return LocationSample{}, err
	}

	ownerID, _, err := g.store.AlertHead(ctx, alertID)
	if err != nil {
		return LocationSample{}, err
	}

	if callerID != ownerID {
		if err := g.requireAcceptance(ctx, alertID, callerID); err != nil {
			return LocationSample{}, err
		}
	}

	if !manual {
		last, err := g.store.LastSampleAt(ctx, alertID, callerID)
		if err != nil {
			return LocationSample{}, err
		}
		if last != nil && g.now().Sub(*last) < g.policy.RateWindow {
			return LocationSample{}, E(KindRateLimited, "location submitted too recently")
		}
	}

	sample := LocationSample{
		ID:         uuid.New(),
		UserID:     callerID,
		AlertID:    &alertID,
		Latitude:   lat,
		Longitude:  lng,
		Accuracy:   accuracy,
		RecordedAt: g.now(),
	}
	if err := g.store.InsertSample(ctx, sample); err != nil {
		return LocationSample{}, wrapE(KindUnavailable, err, "location insert failed")
	}

	return sample, nil
}

// requireAcceptance checks that callerID is an accepted responder, retrying
// a bounded number of times to ride out read-after-write visibility lag.
// Once the budget is spent the write is rejected; the retry never papers
// over a caller that genuinely has not accepted.
func (g *locationGate) requireAcceptance(ctx context.Context, alertID, callerID uuid.UUID) error {
	for attempt := 0; attempt < g.policy.RetryAttempts; attempt++ {
		state, err := g.store.ResponderState(ctx, alertID, callerID)
		if err != nil {
			return err
		}

		if state.Declined {
			return E(KindDeclined, "alert was declined by this contact")
		}
		if state.Exists && state.Acknowledged {
			return nil
		}

		if attempt+1 < g.policy.RetryAttempts {
			if err := g.sleep(ctx, g.policy.RetryInterval); err != nil {
				return wrapE(KindUnavailable, err, "acceptance check interrupted")
			}
		}
	}

	return E(KindNotAccepted, "alert not accepted by this contact")
}

// tracksForAlert returns the alert's samples restricted to the allowed
// producers, newest first and capped, grouped per producing user.
func (g *locationGate) tracksForAlert(ctx context.Context, alertID uuid.UUID, allowed []uuid.UUID, limit int) ([]LocationTrack, error) {
	if limit <= 0 {
		limit = defaultLocationPage
	}

	samples, err := g.store.SamplesForAlert(ctx, alertID, allowed, limit)
	if err != nil {
		return nil, wrapE(KindUnavailable, err, "location list failed")
	}

	byUser := make(map[uuid.UUID]int)
	tracks := make([]LocationTrack, 0, len(allowed))
	for _, s := range samples {
		idx, ok := byUser[s.UserID]
		if !ok {
			idx = len(tracks)
			byUser[s.UserID] = idx
			tracks = append(tracks, LocationTrack{UserID: s.UserID})
		}
		tracks[idx].Samples = append(tracks[idx].Samples, s)
	}
	return tracks, nil
}

// submitLocation is the full admission path: validation, acceptance gating
// with bounded retry, rate limiting, and the append itself.
func (a *API) submitLocation(ctx context.Context, caller Caller, alertID uuid.UUID, lat, lng float64, accuracy *float64, manual bool) (LocationSample, error) {
	sample, err := a.gate.submit(ctx, caller.ID, alertID, lat, lng, accuracy, manual)
	if err != nil {
		locationRejected.WithLabelValues(KindOf(err).String()).Inc()
		return LocationSample{}, err
	}
	locationAdmitted.Inc()
	return sample, nil
}

// listLocationsForAlert gates reads on the notified snapshot, then narrows
// the visible producers to the accepted responders plus the owner.
func (a *API) listLocationsForAlert(ctx context.Context, caller Caller, alertID uuid.UUID) ([]LocationTrack, error) {
	alert, err := a.getAlert(ctx, alertID, caller.ID)
	if err != nil {
		return nil, err
	}

	accepted, err := a.listAccepted(ctx, alertID)
	if err != nil {
		return nil, err
	}

	allowed := make([]uuid.UUID, 0, len(accepted)+1)
	allowed = append(allowed, alert.OwnerID)
	for _, r := range accepted {
		allowed = append(allowed, r.ContactUserID)
	}

	return a.gate.tracksForAlert(ctx, alertID, allowed, a.config.LocationPage)
}
