package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const unknownInviterName = "Unknown User"

// createInvite opens a pending, time-boxed invitation and pre-creates the
// placeholder contact it will upgrade on acceptance.
func (a *API) createInvite(ctx context.Context, caller Caller, targetEmail string, meta ContactMetadata) (Invite, error) {
	targetEmail = normalizeEmail(targetEmail)
	if targetEmail == "" || !strings.Contains(targetEmail, "@") {
		return Invite{}, E(KindInvalidInput, "a valid target email is required")
	}
	if targetEmail == normalizeEmail(caller.Email) {
		return Invite{}, E(KindInvalidInput, "cannot invite yourself")
	}

	now := time.Now().UTC()
	model := inviteModel{
		ID:        uuid.New(),
		Token:     newOpaqueToken(),
		InviterID: caller.ID,
		Email:     targetEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(a.config.InviteTTL),
	}

	if err := a.store.ORM.WithContext(ctx).Create(&model).Error; err != nil {
		return Invite{}, wrapE(KindUnavailable, err, "invite insert failed")
	}

	if _, err := a.upsertPlaceholder(ctx, caller.ID, targetEmail, meta); err != nil {
		// The invite is usable without the placeholder; acceptance creates
		// the contact row if it is still missing.
		a.logger.Warn().Err(err).Str("invite_id", model.ID.String()).Msg("placeholder contact upsert failed")
	}

	return model.toAPI(), nil
}

// acceptInvite upgrades the invite's placeholder contact into a verified,
// linked contact and marks the invite accepted. If the accept-mark write
// fails after the link succeeded, the invite stays pending and the failure
// is logged; the contact link is already durable at that point.
func (a *API) acceptInvite(ctx context.Context, token string, caller Caller) (Contact, error) {
	var model inviteModel
	err := a.store.ORM.WithContext(ctx).Where("token = ?", token).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Contact{}, E(KindNotFound, "invite not found")
		}
		return Contact{}, wrapE(KindUnavailable, err, "invite lookup failed")
	}

	return a.completeAccept(ctx, model, caller)
}

// acceptInviteByEmail resolves the most recent pending, unexpired invite
// addressed to the caller and accepts it. Older duplicate invites for the
// same address simply expire unused.
func (a *API) acceptInviteByEmail(ctx context.Context, caller Caller) (Contact, error) {
	now := time.Now().UTC()

	var model inviteModel
	err := a.store.ORM.WithContext(ctx).
		Where("email = ? AND accepted_at IS NULL AND expires_at > ?", normalizeEmail(caller.Email), now).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Contact{}, E(KindNotFound, "no pending invite for this email")
		}
		return Contact{}, wrapE(KindUnavailable, err, "invite lookup failed")
	}

	return a.completeAccept(ctx, model, caller)
}

func (a *API) completeAccept(ctx context.Context, model inviteModel, caller Caller) (Contact, error) {
	if model.AcceptedAt != nil {
		return Contact{}, E(KindAlreadyAccepted, "invite already accepted")
	}

	now := time.Now().UTC()
	if now.After(model.ExpiresAt) {
		return Contact{}, E(KindExpired, "invite expired")
	}

	if normalizeEmail(caller.Email) != model.Email {
		return Contact{}, E(KindAccessDenied, "invite is addressed to a different email")
	}

	contact, err := a.linkVerifiedContact(ctx, model.InviterID, model.Email, caller.ID)
	if err != nil {
		return Contact{}, err
	}

	if err := a.store.ORM.WithContext(ctx).
		Model(&inviteModel{}).
		Where("id = ? AND accepted_at IS NULL", model.ID).
		Update("accepted_at", &now).Error; err != nil {
		a.logger.Warn().Err(err).Str("invite_id", model.ID.String()).Msg("contact linked but invite accept-mark failed")
	}

	return contact, nil
}

// rejectInvite deletes a pending invite addressed to the caller.
func (a *API) rejectInvite(ctx context.Context, inviteID uuid.UUID, caller Caller) error {
	orm := a.store.ORM.WithContext(ctx)

	var model inviteModel
	if err := orm.First(&model, "id = ?", inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return E(KindNotFound, "invite not found")
		}
		return wrapE(KindUnavailable, err, "invite lookup failed")
	}

	if normalizeEmail(caller.Email) != model.Email {
		return E(KindAccessDenied, "invite is addressed to a different email")
	}
	if model.AcceptedAt != nil {
		return E(KindAlreadyAccepted, "invite already accepted")
	}

	if err := orm.Delete(&inviteModel{}, "id = ?", model.ID).Error; err != nil {
		return wrapE(KindUnavailable, err, "invite delete failed")
	}
	return nil
}

// listIncomingInvites returns the caller's pending, unexpired invites with
// the inviter's display identity resolved best-effort.
func (a *API) listIncomingInvites(ctx context.Context, caller Caller) ([]IncomingInvite, error) {
	now := time.Now().UTC()
	orm := a.store.ORM.WithContext(ctx)

	var models []inviteModel
	err := orm.
		Where("email = ? AND accepted_at IS NULL AND expires_at > ?", normalizeEmail(caller.Email), now).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, wrapE(KindUnavailable, err, "invite list failed")
	}

	inviterIDs := make([]uuid.UUID, 0, len(models))
	for _, m := range models {
		inviterIDs = append(inviterIDs, m.InviterID)
	}

	names := make(map[uuid.UUID]string, len(inviterIDs))
	if len(inviterIDs) > 0 {
		var users []userModel
		if err := orm.Where("id IN ?", inviterIDs).Find(&users).Error; err != nil {
			a.logger.Warn().Err(err).Msg("inviter identity lookup failed")
		}
		for _, u := range users {
			names[u.ID] = inviterDisplayName(u)
		}
	}

	invites := make([]IncomingInvite, 0, len(models))
	for _, m := range models {
		inv := m.toAPI()
		// Recipients act on invites by id, not by sharing the token onward.
		inv.Token = ""

		name, ok := names[m.InviterID]
		if !ok {
			name = unknownInviterName
		}
		invites = append(invites, IncomingInvite{Invite: inv, InviterName: name})
	}
	return invites, nil
}

func inviterDisplayName(u userModel) string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return unknownInviterName
}
