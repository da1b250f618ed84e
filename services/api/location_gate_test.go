package api

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeAdmission scripts the store behaviour the gate observes, including the
// acceptance state becoming visible only after a number of reads.
type fakeAdmission struct {
	ownerID uuid.UUID
	status  string
	headErr error

	states     []responderState
	stateReads int

	lastSample *time.Time

	inserted []LocationSample
	samples  []LocationSample
}

func (f *fakeAdmission) AlertHead(ctx context.Context, alertID uuid.UUID) (uuid.UUID, string, error) {
	if f.headErr != nil {
		return uuid.Nil, "", f.headErr
	}
	return f.ownerID, f.status, nil
}

func (f *fakeAdmission) ResponderState(ctx context.Context, alertID, userID uuid.UUID) (responderState, error) {
	idx := f.stateReads
	if idx >= len(f.states) {
		idx = len(f.states) - 1
	}
	f.stateReads++
	if idx < 0 {
		return responderState{}, nil
	}
	return f.states[idx], nil
}

func (f *fakeAdmission) LastSampleAt(ctx context.Context, alertID, userID uuid.UUID) (*time.Time, error) {
	return f.lastSample, nil
}

func (f *fakeAdmission) InsertSample(ctx context.Context, sample LocationSample) error {
	f.inserted = append(f.inserted, sample)
	return nil
}

func (f *fakeAdmission) SamplesForAlert(ctx context.Context, alertID uuid.UUID, userIDs []uuid.UUID, limit int) ([]LocationSample, error) {
	allowed := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}

	out := make([]LocationSample, 0, len(f.samples))
	for _, s := range f.samples {
		if _, ok := allowed[s.UserID]; !ok {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, s)
	}
	return out, nil
}

// newTestGate wires a gate with a frozen clock and a sleep that counts calls
// instead of waiting.
func newTestGate(store *fakeAdmission, policy gatePolicy) (*locationGate, *int) {
	gate := newLocationGate(store, policy)

	sleeps := 0
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }
	gate.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return gate, &sleeps
}

func TestGateRejectsInvalidCoordinates(t *testing.T) {
	owner := uuid.New()
	gate, _ := newTestGate(&fakeAdmission{ownerID: owner, status: AlertStatusActive}, gatePolicy{})

	_, err := gate.submit(context.Background(), owner, uuid.New(), 95, 0, nil, false)
	wantKind(t, err, KindInvalidInput)
}

func TestGateOwnerBypassesAcceptance(t *testing.T) {
	owner := uuid.New()
	store := &fakeAdmission{ownerID: owner, status: AlertStatusActive}
	gate, sleeps := newTestGate(store, gatePolicy{})

	sample, err := gate.submit(context.Background(), owner, uuid.New(), 40.7, -74.0, nil, false)
	if err != nil {
		t.Fatalf("owner submit: %v", err)
	}
	if store.stateReads != 0 {
		t.Fatal("owner path must not consult responder state")
	}
	if *sleeps != 0 {
		t.Fatal("owner path must not sleep")
	}
	if len(store.inserted) != 1 || store.inserted[0].UserID != owner {
		t.Fatalf("sample not appended: %+v", store.inserted)
	}
	if sample.RecordedAt.IsZero() {
		t.Fatal("recorded_at not stamped")
	}
}

func TestGateAcceptanceVisibleAfterRetry(t *testing.T) {
	owner := uuid.New()
	responder := uuid.New()
	store := &fakeAdmission{
		ownerID: owner,
		status:  AlertStatusActive,
		states: []responderState{
			{Exists: true},
			{Exists: true},
			{Exists: true, Acknowledged: true},
		},
	}
	gate, sleeps := newTestGate(store, gatePolicy{RetryAttempts: 3})

	_, err := gate.submit(context.Background(), responder, uuid.New(), 40.7, -74.0, nil, false)
	if err != nil {
		t.Fatalf("submit after visibility lag: %v", err)
	}
	if store.stateReads != 3 {
		t.Fatalf("expected 3 state reads, got %d", store.stateReads)
	}
	if *sleeps != 2 {
		t.Fatalf("expected 2 sleeps between reads, got %d", *sleeps)
	}
}

func TestGateRetryBudgetExhausted(t *testing.T) {
	owner := uuid.New()
	responder := uuid.New()
	store := &fakeAdmission{
		ownerID: owner,
		status:  AlertStatusActive,
		states:  []responderState{{Exists: true}},
	}
	gate, sleeps := newTestGate(store, gatePolicy{RetryAttempts: 3})

	_, err := gate.submit(context.Background(), responder, uuid.New(), 40.7, -74.0, nil, false)
	wantKind(t, err, KindNotAccepted)
	if store.stateReads != 3 {
		t.Fatalf("expected exactly 3 state reads, got %d", store.stateReads)
	}
	if *sleeps != 2 {
		t.Fatalf("expected 2 sleeps, got %d", *sleeps)
	}
	if len(store.inserted) != 0 {
		t.Fatal("rejected submit must not append a sample")
	}
}

func TestGateDeclineShortCircuits(t *testing.T) {
	owner := uuid.New()
	responder := uuid.New()
	store := &fakeAdmission{
		ownerID: owner,
		status:  AlertStatusActive,
		states:  []responderState{{Exists: true, Declined: true}},
	}
	gate, sleeps := newTestGate(store, gatePolicy{RetryAttempts: 3})

	_, err := gate.submit(context.Background(), responder, uuid.New(), 40.7, -74.0, nil, false)
	wantKind(t, err, KindDeclined)
	if store.stateReads != 1 {
		t.Fatalf("decline must not be retried, got %d reads", store.stateReads)
	}
	if *sleeps != 0 {
		t.Fatal("decline must not consume the retry budget")
	}
}

func TestGateRateLimit(t *testing.T) {
	owner := uuid.New()
	store := &fakeAdmission{ownerID: owner, status: AlertStatusActive}
	gate, _ := newTestGate(store, gatePolicy{RateWindow: 5 * time.Second})

	recent := gate.now().Add(-2 * time.Second)
	store.lastSample = &recent

	_, err := gate.submit(context.Background(), owner, uuid.New(), 40.7, -74.0, nil, false)
	wantKind(t, err, KindRateLimited)

	// Outside the window the write is admitted again.
	old := gate.now().Add(-6 * time.Second)
	store.lastSample = &old
	if _, err := gate.submit(context.Background(), owner, uuid.New(), 40.7, -74.0, nil, false); err != nil {
		t.Fatalf("submit outside window: %v", err)
	}
}

func TestGateManualBypassesRateLimit(t *testing.T) {
	owner := uuid.New()
	store := &fakeAdmission{ownerID: owner, status: AlertStatusActive}
	gate, _ := newTestGate(store, gatePolicy{RateWindow: 5 * time.Second})

	recent := gate.now().Add(-time.Second)
	store.lastSample = &recent

	if _, err := gate.submit(context.Background(), owner, uuid.New(), 40.7, -74.0, nil, true); err != nil {
		t.Fatalf("manual submit: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatal("manual submit not appended")
	}
}

func TestGateUnknownAlert(t *testing.T) {
	store := &fakeAdmission{headErr: E(KindNotFound, "alert not found")}
	gate, _ := newTestGate(store, gatePolicy{})

	_, err := gate.submit(context.Background(), uuid.New(), uuid.New(), 40.7, -74.0, nil, false)
	wantKind(t, err, KindNotFound)
}

func TestTracksForAlertGroupsByUser(t *testing.T) {
	owner := uuid.New()
	helper := uuid.New()
	outsider := uuid.New()
	alertID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeAdmission{
		ownerID: owner,
		status:  AlertStatusActive,
		samples: []LocationSample{
			{ID: uuid.New(), UserID: helper, AlertID: &alertID, RecordedAt: base.Add(3 * time.Second)},
			{ID: uuid.New(), UserID: owner, AlertID: &alertID, RecordedAt: base.Add(2 * time.Second)},
			{ID: uuid.New(), UserID: helper, AlertID: &alertID, RecordedAt: base.Add(time.Second)},
			{ID: uuid.New(), UserID: outsider, AlertID: &alertID, RecordedAt: base},
		},
	}
	gate, _ := newTestGate(store, gatePolicy{})

	tracks, err := gate.tracksForAlert(context.Background(), alertID, []uuid.UUID{owner, helper}, 10)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	byUser := make(map[uuid.UUID][]LocationSample, len(tracks))
	for _, track := range tracks {
		byUser[track.UserID] = track.Samples
	}
	if len(byUser[helper]) != 2 || len(byUser[owner]) != 1 {
		t.Fatalf("unexpected grouping: %+v", byUser)
	}
	if _, ok := byUser[outsider]; ok {
		t.Fatal("outsider samples leaked into the listing")
	}
	if !byUser[helper][0].RecordedAt.After(byUser[helper][1].RecordedAt) {
		t.Fatal("samples not newest first")
	}
}
