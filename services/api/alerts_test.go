package api

import (
	"context"
	"testing"
)

func TestCreateAlertSnapshotsContacts(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")
	linkContacts(t, a, owner, friend)

	alert := createTestAlert(t, a, owner, &Coordinates{Latitude: 40.7, Longitude: -74.0})

	if alert.Status != AlertStatusActive {
		t.Fatalf("status = %q, want active", alert.Status)
	}
	if alert.AlertType != "sos" {
		t.Fatalf("alert type = %q, want sos", alert.AlertType)
	}
	if len(alert.ContactsNotified) != 1 || alert.ContactsNotified[0] != friend.ID {
		t.Fatalf("notified snapshot = %v, want [%s]", alert.ContactsNotified, friend.ID)
	}

	// Response rows are created eagerly, one per notified contact.
	responses, err := a.listResponses(ctx, alert.ID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 1 || responses[0].ContactUserID != friend.ID {
		t.Fatalf("responses = %+v, want one row for %s", responses, friend.ID)
	}
	if responses[0].AcknowledgedAt != nil || responses[0].DeclinedAt != nil {
		t.Fatal("fresh response row must be pending")
	}
}

func TestCreateAlertSnapshotImmutable(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")
	late := createTestUser(t, a, "late@example.com", "Late")
	contact := linkContacts(t, a, owner, friend)

	alert := createTestAlert(t, a, owner, nil)

	// Contact edits after the alert never widen or narrow the snapshot.
	linkContacts(t, a, owner, late)
	if err := a.removeContact(ctx, owner.ID, contact.ID); err != nil {
		t.Fatalf("remove contact: %v", err)
	}

	reread, err := a.getAlert(ctx, alert.ID, owner.ID)
	if err != nil {
		t.Fatalf("get alert: %v", err)
	}
	if len(reread.ContactsNotified) != 1 || reread.ContactsNotified[0] != friend.ID {
		t.Fatalf("snapshot changed after contact edits: %v", reread.ContactsNotified)
	}
	if _, err := a.getAlert(ctx, alert.ID, late.ID); KindOf(err) != KindAccessDenied {
		t.Fatalf("late contact gained access: %v", err)
	}
}

func TestCreateAlertRejectsBadCoordinates(t *testing.T) {
	a := newTestAPI(t)
	owner := createTestUser(t, a, "owner@example.com", "Owner")

	tests := []struct {
		name string
		lat  float64
		lng  float64
	}{
		{"latitude too high", 90.5, 0},
		{"latitude too low", -91, 0},
		{"longitude too high", 0, 180.1},
		{"longitude too low", 0, -181},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.createAlert(context.Background(), owner, "sos", &Coordinates{Latitude: tc.lat, Longitude: tc.lng})
			wantKind(t, err, KindInvalidInput)
		})
	}
}

func TestCancelAlert(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	other := createTestUser(t, a, "other@example.com", "Other")

	alert := createTestAlert(t, a, owner, nil)

	_, err := a.cancelAlert(ctx, alert.ID, other)
	wantKind(t, err, KindAccessDenied)

	cancelled, err := a.cancelAlert(ctx, alert.ID, owner)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != AlertStatusCancelled {
		t.Fatalf("status = %q, want cancelled", cancelled.Status)
	}
	if cancelled.ResolvedAt == nil {
		t.Fatal("cancel must stamp the close time")
	}

	_, err = a.cancelAlert(ctx, alert.ID, owner)
	wantKind(t, err, KindAlreadyCancelled)
}

func TestResolveAlert(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")

	alert := createTestAlert(t, a, owner, nil)

	resolved, err := a.resolveAlert(ctx, alert.ID, owner)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != AlertStatusResolved {
		t.Fatalf("status = %q, want resolved", resolved.Status)
	}

	// A resolved alert cannot be cancelled or resolved again.
	_, err = a.resolveAlert(ctx, alert.ID, owner)
	wantKind(t, err, KindInvalidState)
	_, err = a.cancelAlert(ctx, alert.ID, owner)
	wantKind(t, err, KindInvalidState)
}

func TestGetAlertReadBoundary(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")
	stranger := createTestUser(t, a, "stranger@example.com", "Stranger")
	linkContacts(t, a, owner, friend)

	alert := createTestAlert(t, a, owner, nil)

	if _, err := a.getAlert(ctx, alert.ID, owner.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := a.getAlert(ctx, alert.ID, friend.ID); err != nil {
		t.Fatalf("notified contact read: %v", err)
	}

	_, err := a.getAlert(ctx, alert.ID, stranger.ID)
	wantKind(t, err, KindAccessDenied)
}

func TestListAlertsForCaller(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")
	stranger := createTestUser(t, a, "stranger@example.com", "Stranger")
	linkContacts(t, a, owner, friend)

	own := createTestAlert(t, a, owner, nil)

	ownerAlerts, err := a.listAlertsForCaller(ctx, owner.ID)
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(ownerAlerts) != 1 || ownerAlerts[0].ID != own.ID {
		t.Fatalf("owner list = %+v", ownerAlerts)
	}

	friendAlerts, err := a.listAlertsForCaller(ctx, friend.ID)
	if err != nil {
		t.Fatalf("friend list: %v", err)
	}
	if len(friendAlerts) != 1 || friendAlerts[0].ID != own.ID {
		t.Fatalf("notified contact should see the alert, got %+v", friendAlerts)
	}

	strangerAlerts, err := a.listAlertsForCaller(ctx, stranger.ID)
	if err != nil {
		t.Fatalf("stranger list: %v", err)
	}
	if len(strangerAlerts) != 0 {
		t.Fatalf("stranger should see nothing, got %+v", strangerAlerts)
	}
}
