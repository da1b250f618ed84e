package api

import (
	"context"
	"testing"
	"time"
)

func setupAlertWithResponder(t *testing.T) (*API, Caller, Caller, Alert) {
	t.Helper()

	a := newTestAPI(t)
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")
	linkContacts(t, a, owner, friend)
	alert := createTestAlert(t, a, owner, nil)
	return a, owner, friend, alert
}

func TestAcknowledgeIdempotent(t *testing.T) {
	a, _, friend, alert := setupAlertWithResponder(t)
	ctx := context.Background()

	first, err := a.acknowledge(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("first ack: %v", err)
	}
	if first.AcknowledgedAt == nil {
		t.Fatal("acknowledged_at not set")
	}

	time.Sleep(5 * time.Millisecond)

	second, err := a.acknowledge(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("second ack: %v", err)
	}
	if !second.AcknowledgedAt.Equal(*first.AcknowledgedAt) {
		t.Fatal("second acknowledge moved the timestamp")
	}
}

func TestAcknowledgeUnnotifiedContact(t *testing.T) {
	a, _, _, alert := setupAlertWithResponder(t)
	stranger := createTestUser(t, a, "stranger@example.com", "Stranger")

	_, err := a.acknowledge(context.Background(), alert.ID, stranger.ID)
	wantKind(t, err, KindNotFound)
}

func TestDeclineIsTerminal(t *testing.T) {
	a, _, friend, alert := setupAlertWithResponder(t)
	ctx := context.Background()

	declined, err := a.decline(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.DeclinedAt == nil {
		t.Fatal("declined_at not set")
	}

	// Declining again is a no-op that keeps the original timestamp.
	again, err := a.decline(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("second decline: %v", err)
	}
	if !again.DeclinedAt.Equal(*declined.DeclinedAt) {
		t.Fatal("second decline moved the timestamp")
	}

	// Acknowledging after a decline is refused.
	_, err = a.acknowledge(ctx, alert.ID, friend.ID)
	wantKind(t, err, KindDeclined)
}

func TestDeclineAfterAcknowledgeRevokesAcceptance(t *testing.T) {
	a, _, friend, alert := setupAlertWithResponder(t)
	ctx := context.Background()

	if _, err := a.acknowledge(ctx, alert.ID, friend.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	response, err := a.decline(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if response.Accepted() {
		t.Fatal("declined responder still counts as accepted")
	}

	accepted, err := a.isAcceptedResponder(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("isAcceptedResponder: %v", err)
	}
	if accepted {
		t.Fatal("decline must dominate an earlier acknowledge")
	}
}

func TestListAccepted(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	early := createTestUser(t, a, "early@example.com", "Early")
	late := createTestUser(t, a, "late@example.com", "Late")
	decliner := createTestUser(t, a, "decliner@example.com", "Decliner")
	linkContacts(t, a, owner, early)
	linkContacts(t, a, owner, late)
	linkContacts(t, a, owner, decliner)

	alert := createTestAlert(t, a, owner, nil)

	if _, err := a.acknowledge(ctx, alert.ID, early.ID); err != nil {
		t.Fatalf("early ack: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := a.acknowledge(ctx, alert.ID, late.ID); err != nil {
		t.Fatalf("late ack: %v", err)
	}
	if _, err := a.decline(ctx, alert.ID, decliner.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}

	accepted, err := a.listAccepted(ctx, alert.ID)
	if err != nil {
		t.Fatalf("list accepted: %v", err)
	}
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted responders, got %d", len(accepted))
	}
	if accepted[0].ContactUserID != late.ID || accepted[1].ContactUserID != early.ID {
		t.Fatal("accepted responders not ordered newest acknowledgment first")
	}
}

func TestIsAcceptedResponder(t *testing.T) {
	a, owner, friend, alert := setupAlertWithResponder(t)
	ctx := context.Background()

	accepted, err := a.isAcceptedResponder(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("pending check: %v", err)
	}
	if accepted {
		t.Fatal("pending responder counted as accepted")
	}

	// A user with no response row is simply not a responder, not an error.
	accepted, err = a.isAcceptedResponder(ctx, alert.ID, owner.ID)
	if err != nil {
		t.Fatalf("owner check: %v", err)
	}
	if accepted {
		t.Fatal("owner is not a responder")
	}

	if _, err := a.acknowledge(ctx, alert.ID, friend.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	accepted, err = a.isAcceptedResponder(ctx, alert.ID, friend.ID)
	if err != nil {
		t.Fatalf("accepted check: %v", err)
	}
	if !accepted {
		t.Fatal("acknowledged responder not counted as accepted")
	}
}
