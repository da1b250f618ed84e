package api

import (
	"context"
	"testing"
	"time"
)

func TestCreateInviteValidation(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	caller := createTestUser(t, a, "owner@example.com", "Owner")

	tests := []struct {
		name  string
		email string
	}{
		{"empty", ""},
		{"no at sign", "not-an-email"},
		{"self invite", "Owner@Example.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.createInvite(ctx, caller, tc.email, ContactMetadata{})
			wantKind(t, err, KindInvalidInput)
		})
	}
}

func TestCreateInviteSetsExpiryAndPlaceholder(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")

	invite, err := a.createInvite(ctx, owner, "Friend@Example.com", ContactMetadata{Name: "Friend"})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	if invite.Token == "" {
		t.Fatal("invite token missing")
	}
	if invite.Email != "friend@example.com" {
		t.Fatalf("email not normalized: %q", invite.Email)
	}
	wantExpiry := invite.CreatedAt.Add(defaultInviteTTL)
	if invite.ExpiresAt.Sub(wantExpiry) > time.Second || wantExpiry.Sub(invite.ExpiresAt) > time.Second {
		t.Fatalf("expiry %v not near %v", invite.ExpiresAt, wantExpiry)
	}

	contacts, err := a.listContacts(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Verified {
		t.Fatalf("expected one unverified placeholder, got %+v", contacts)
	}
}

func TestAcceptInvite(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")

	invite, err := a.createInvite(ctx, owner, friend.Email, ContactMetadata{Name: "Friend"})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	contact, err := a.acceptInvite(ctx, invite.Token, friend)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !contact.Verified {
		t.Fatal("contact not verified after accept")
	}
	if contact.LinkedUserID == nil || *contact.LinkedUserID != friend.ID {
		t.Fatal("contact not linked to accepting user")
	}
	if contact.OwnerID != owner.ID {
		t.Fatal("contact linked under the wrong owner")
	}

	// The invite is single-use.
	_, err = a.acceptInvite(ctx, invite.Token, friend)
	wantKind(t, err, KindAlreadyAccepted)
}

func TestAcceptInviteWrongEmail(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	stranger := createTestUser(t, a, "stranger@example.com", "Stranger")

	invite, err := a.createInvite(ctx, owner, "friend@example.com", ContactMetadata{})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	_, err = a.acceptInvite(ctx, invite.Token, stranger)
	wantKind(t, err, KindAccessDenied)
}

func TestAcceptInviteExpired(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")

	invite, err := a.createInvite(ctx, owner, friend.Email, ContactMetadata{})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if err := a.store.ORM.Model(&inviteModel{}).
		Where("id = ?", invite.ID).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate invite: %v", err)
	}

	_, err = a.acceptInvite(ctx, invite.Token, friend)
	wantKind(t, err, KindExpired)
}

func TestAcceptInviteUnknownToken(t *testing.T) {
	a := newTestAPI(t)
	friend := createTestUser(t, a, "friend@example.com", "Friend")

	_, err := a.acceptInvite(context.Background(), "no-such-token", friend)
	wantKind(t, err, KindNotFound)
}

func TestAcceptInviteByEmailPicksNewest(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	ownerA := createTestUser(t, a, "owner-a@example.com", "Owner A")
	ownerB := createTestUser(t, a, "owner-b@example.com", "Owner B")
	friend := createTestUser(t, a, "friend@example.com", "Friend")

	older, err := a.createInvite(ctx, ownerA, friend.Email, ContactMetadata{})
	if err != nil {
		t.Fatalf("older invite: %v", err)
	}
	if err := a.store.ORM.Model(&inviteModel{}).
		Where("id = ?", older.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate older invite: %v", err)
	}
	if _, err := a.createInvite(ctx, ownerB, friend.Email, ContactMetadata{}); err != nil {
		t.Fatalf("newer invite: %v", err)
	}

	contact, err := a.acceptInviteByEmail(ctx, friend)
	if err != nil {
		t.Fatalf("accept by email: %v", err)
	}
	if contact.OwnerID != ownerB.ID {
		t.Fatal("accept by email did not pick the most recent invite")
	}
}

func TestAcceptInviteByEmailNonePending(t *testing.T) {
	a := newTestAPI(t)
	friend := createTestUser(t, a, "friend@example.com", "Friend")

	_, err := a.acceptInviteByEmail(context.Background(), friend)
	wantKind(t, err, KindNotFound)
}

func TestRejectInvite(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")
	stranger := createTestUser(t, a, "stranger@example.com", "Stranger")

	invite, err := a.createInvite(ctx, owner, friend.Email, ContactMetadata{})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	wantKind(t, a.rejectInvite(ctx, invite.ID, stranger), KindAccessDenied)

	if err := a.rejectInvite(ctx, invite.ID, friend); err != nil {
		t.Fatalf("reject: %v", err)
	}
	wantKind(t, a.rejectInvite(ctx, invite.ID, friend), KindNotFound)
}

func TestRejectAcceptedInvite(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	owner := createTestUser(t, a, "owner@example.com", "Owner")
	friend := createTestUser(t, a, "friend@example.com", "Friend")

	invite, err := a.createInvite(ctx, owner, friend.Email, ContactMetadata{})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if _, err := a.acceptInvite(ctx, invite.Token, friend); err != nil {
		t.Fatalf("accept: %v", err)
	}

	wantKind(t, a.rejectInvite(ctx, invite.ID, friend), KindAlreadyAccepted)
}

func TestListIncomingInvites(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	named := createTestUser(t, a, "named@example.com", "Named Owner")
	unnamed := createTestUser(t, a, "quiet.person@example.com", "")
	friend := createTestUser(t, a, "friend@example.com", "Friend")

	if _, err := a.createInvite(ctx, named, friend.Email, ContactMetadata{}); err != nil {
		t.Fatalf("invite from named: %v", err)
	}
	if _, err := a.createInvite(ctx, unnamed, friend.Email, ContactMetadata{}); err != nil {
		t.Fatalf("invite from unnamed: %v", err)
	}

	invites, err := a.listIncomingInvites(ctx, friend)
	if err != nil {
		t.Fatalf("list incoming: %v", err)
	}
	if len(invites) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(invites))
	}

	names := make(map[string]bool, len(invites))
	for _, inv := range invites {
		if inv.Token != "" {
			t.Fatal("incoming invite leaked its token")
		}
		names[inv.InviterName] = true
	}
	if !names["Named Owner"] {
		t.Fatal("inviter display name missing")
	}
	if !names["quiet.person"] {
		t.Fatal("email local-part fallback missing")
	}
}
