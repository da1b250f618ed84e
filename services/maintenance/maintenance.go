package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"guardline/pkg/db"
)

// PurgeExpiredInvites deletes unaccepted invites whose expiry is older than
// the retention window. Accepted invites are kept as the audit trail of how
// each verified contact link came to be.
func PurgeExpiredInvites(ctx context.Context, pool *pgxpool.Pool, retention time.Duration) (int64, error) {
	if pool == nil {
		return 0, errors.New("database pool is required")
	}
	if retention < 0 {
		return 0, errors.New("retention must not be negative")
	}

	cutoff := time.Now().UTC().Add(-retention)
	tag, err := db.Exec(ctx, pool, `
DELETE FROM contact_invites
WHERE accepted_at IS NULL AND expires_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// TrimLocationHistory deletes location samples recorded before the retention
// window. The table is append-only during normal operation, so bulk deletion
// here is the only way rows ever leave it.
func TrimLocationHistory(ctx context.Context, pool *pgxpool.Pool, retention time.Duration) (int64, error) {
	if pool == nil {
		return 0, errors.New("database pool is required")
	}
	if retention <= 0 {
		return 0, errors.New("retention must be positive")
	}

	cutoff := time.Now().UTC().Add(-retention)
	tag, err := db.Exec(ctx, pool, `
DELETE FROM location_history
WHERE recorded_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
