package api

import "time"

const (
	defaultInviteTTL     = 7 * 24 * time.Hour
	defaultSessionTTL    = 30 * 24 * time.Hour
	defaultRateWindow    = 5 * time.Second
	defaultRetryAttempts = 3
	defaultRetryInterval = 300 * time.Millisecond
	defaultLocationPage  = 100
	mediaPresignTTL      = 15 * time.Minute
)

// Config controls runtime behaviour for the API handlers. The admission
// tunables are exposed so the visibility-lag accommodation in the location
// gate stays an explicit, testable policy rather than a buried constant.
type Config struct {
	InviteTTL      time.Duration `env:"INVITE_TTL,default=168h"`
	SessionTTL     time.Duration `env:"SESSION_TTL,default=720h"`
	RateWindow     time.Duration `env:"LOCATION_RATE_WINDOW,default=5s"`
	RetryAttempts  int           `env:"ACCEPTANCE_RETRY_ATTEMPTS,default=3"`
	RetryInterval  time.Duration `env:"ACCEPTANCE_RETRY_INTERVAL,default=300ms"`
	LocationPage   int           `env:"LOCATION_PAGE_SIZE,default=100"`
	MediaBucket    string        `env:"MEDIA_BUCKET"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
}

func (c *Config) applyDefaults() {
	if c.InviteTTL <= 0 {
		c.InviteTTL = defaultInviteTTL
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.RateWindow <= 0 {
		c.RateWindow = defaultRateWindow
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = defaultRetryAttempts
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	if c.LocationPage <= 0 || c.LocationPage > defaultLocationPage {
		c.LocationPage = defaultLocationPage
	}
}
