package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// upsertPlaceholder creates an unverified contact row keyed by
// (owner, lower-cased email), or leaves an existing row untouched. A row
// that already carries a verified link is never overwritten.
func (a *API) upsertPlaceholder(ctx context.Context, ownerID uuid.UUID, email string, meta ContactMetadata) (Contact, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Contact{}, E(KindInvalidInput, "a valid contact email is required")
	}

	orm := a.store.ORM.WithContext(ctx)

	var existing contactModel
	err := orm.Where("owner_id = ? AND email = ?", ownerID, email).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now().UTC()
		model := contactModel{
			ID:             uuid.New(),
			OwnerID:        ownerID,
			Email:          email,
			Name:           meta.Name,
			Relationship:   meta.Relationship,
			Priority:       meta.Priority,
			CanSeeLocation: meta.CanSeeLocation,
			Verified:       false,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := orm.Create(&model).Error; err != nil {
			// A concurrent insert winning the unique index race is the
			// idempotent outcome, not a failure.
			var after contactModel
			if lookupErr := orm.Where("owner_id = ? AND email = ?", ownerID, email).First(&after).Error; lookupErr == nil {
				return after.toAPI(), nil
			}
			return Contact{}, wrapE(KindUnavailable, err, "contact insert failed")
		}
		return model.toAPI(), nil
	case err != nil:
		return Contact{}, wrapE(KindUnavailable, err, "contact lookup failed")
	default:
		return existing.toAPI(), nil
	}
}

// linkVerifiedContact sets the linked account id and verified flag on the
// (owner, email) contact, creating the row when absent. Calling it twice
// with the same arguments is a no-op.
func (a *API) linkVerifiedContact(ctx context.Context, ownerID uuid.UUID, email string, linkedUserID uuid.UUID) (Contact, error) {
	email = normalizeEmail(email)
	orm := a.store.ORM.WithContext(ctx)
	now := time.Now().UTC()

	var existing contactModel
	err := orm.Where("owner_id = ? AND email = ?", ownerID, email).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model := contactModel{
			ID:             uuid.New(),
			OwnerID:        ownerID,
			Email:          email,
			LinkedUserID:   &linkedUserID,
			CanSeeLocation: true,
			Verified:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := orm.Create(&model).Error; err != nil {
			return Contact{}, wrapE(KindUnavailable, err, "contact insert failed")
		}
		return model.toAPI(), nil
	case err != nil:
		return Contact{}, wrapE(KindUnavailable, err, "contact lookup failed")
	default:
		if existing.Verified && existing.LinkedUserID != nil && *existing.LinkedUserID == linkedUserID {
			return existing.toAPI(), nil
		}
		updates := map[string]any{
			"linked_user_id": linkedUserID,
			"verified":       true,
			"updated_at":     now,
		}
		if err := orm.Model(&existing).Updates(updates).Error; err != nil {
			return Contact{}, wrapE(KindUnavailable, err, "contact link failed")
		}
		existing.LinkedUserID = &linkedUserID
		existing.Verified = true
		return existing.toAPI(), nil
	}
}

// removeContact hard-deletes a contact owned by ownerID.
func (a *API) removeContact(ctx context.Context, ownerID, contactID uuid.UUID) error {
	res := a.store.ORM.WithContext(ctx).
		Where("id = ? AND owner_id = ?", contactID, ownerID).
		Delete(&contactModel{})
	if res.Error != nil {
		return wrapE(KindUnavailable, res.Error, "contact delete failed")
	}
	if res.RowsAffected == 0 {
		return E(KindNotFound, "contact not found")
	}
	return nil
}

func (a *API) listContacts(ctx context.Context, ownerID uuid.UUID) ([]Contact, error) {
	var models []contactModel
	err := a.store.ORM.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("priority DESC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrapE(KindUnavailable, err, "contact list failed")
	}

	contacts := make([]Contact, 0, len(models))
	for _, m := range models {
		contacts = append(contacts, m.toAPI())
	}
	return contacts, nil
}

// verifiedContactUserIDs returns the deduplicated linked account ids of the
// owner's verified contacts. This is the set snapshotted into an alert.
func (a *API) verifiedContactUserIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var models []contactModel
	err := a.store.ORM.WithContext(ctx).
		Where("owner_id = ? AND verified = ? AND linked_user_id IS NOT NULL", ownerID, true).
		Find(&models).Error
	if err != nil {
		return nil, wrapE(KindUnavailable, err, "contact snapshot failed")
	}

	seen := make(map[uuid.UUID]struct{}, len(models))
	ids := make([]uuid.UUID, 0, len(models))
	for _, m := range models {
		id := *m.LinkedUserID
		if id == ownerID {
			// A user inviting themselves never counts as their own responder.
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
