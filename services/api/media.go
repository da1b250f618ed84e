package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MediaUpload pairs a recorded media row with the presigned URL the client
// uses to upload the object directly to storage.
type MediaUpload struct {
	Media     AlertMedia `json:"media"`
	UploadURL string     `json:"upload_url"`
}

// MediaDownload pairs a media row with a short-lived download URL.
type MediaDownload struct {
	Media       AlertMedia `json:"media"`
	DownloadURL string     `json:"download_url"`
}

func validMediaKind(kind string) bool {
	switch kind {
	case "photo", "audio", "video":
		return true
	}
	return false
}

// createMedia records an evidence object for an alert and presigns the
// upload. Anyone who can read the alert may attach evidence to it; the
// object key is server-chosen so uploaders cannot collide or overwrite.
func (a *API) createMedia(ctx context.Context, caller Caller, alertID uuid.UUID, kind string) (MediaUpload, error) {
	if a.store.S3 == nil || a.config.MediaBucket == "" {
		return MediaUpload{}, E(KindUnavailable, "media storage is not configured")
	}
	if !validMediaKind(kind) {
		return MediaUpload{}, E(KindInvalidInput, "media kind must be photo, audio or video")
	}

	if _, err := a.getAlert(ctx, alertID, caller.ID); err != nil {
		return MediaUpload{}, err
	}

	row := mediaModel{
		ID:         uuid.New(),
		AlertID:    alertID,
		UploaderID: caller.ID,
		Kind:       kind,
		CreatedAt:  time.Now().UTC(),
	}
	row.ObjectKey = fmt.Sprintf("alerts/%s/%s", alertID, row.ID)

	if err := a.store.ORM.WithContext(ctx).Create(&row).Error; err != nil {
		return MediaUpload{}, wrapE(KindUnavailable, err, "media insert failed")
	}

	url, err := a.store.S3.PresignPut(ctx, a.config.MediaBucket, row.ObjectKey, mediaPresignTTL)
	if err != nil {
		return MediaUpload{}, wrapE(KindUnavailable, err, "media upload presign failed")
	}

	return MediaUpload{Media: row.toAPI(), UploadURL: url}, nil
}

// listMedia returns the alert's evidence with presigned download URLs. A
// presign failure for one object is logged and that entry is returned
// without a URL rather than failing the whole listing.
func (a *API) listMedia(ctx context.Context, caller Caller, alertID uuid.UUID) ([]MediaDownload, error) {
	if _, err := a.getAlert(ctx, alertID, caller.ID); err != nil {
		return nil, err
	}

	var rows []mediaModel
	if err := a.store.ORM.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, wrapE(KindUnavailable, err, "media list failed")
	}

	out := make([]MediaDownload, 0, len(rows))
	for _, row := range rows {
		entry := MediaDownload{Media: row.toAPI()}
		if a.store.S3 != nil && a.config.MediaBucket != "" {
			url, err := a.store.S3.PresignGet(ctx, a.config.MediaBucket, row.ObjectKey, mediaPresignTTL)
			if err != nil {
				a.logger.Warn().Err(err).Str("media_id", row.ID.String()).Msg("media download presign failed")
			} else {
				entry.DownloadURL = url
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
