package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"guardline/pkg/bus"
	gos3 "guardline/pkg/s3"
)

// Store bundles the elevated data-access capabilities the API layer runs on.
// Both clients bypass per-row authorization entirely, so a Store must never
// leak outside this package: every call site here is required to establish
// the caller's rights in application code first.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	Bus *bus.Bus
	S3  *gos3.Client
}
