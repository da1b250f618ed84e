package api

import (
	"errors"

	"github.com/rs/zerolog"
)

// API wires dependencies and configuration for the HTTP handlers.
type API struct {
	store  *Store
	config Config
	logger zerolog.Logger
	gate   *locationGate
}

// New initialises the API layer with sane defaults applied to the provided
// configuration.
func New(store *Store, cfg Config, logger zerolog.Logger) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.ORM == nil {
		return nil, errors.New("store ORM is required")
	}

	cfg.applyDefaults()

	a := &API{
		store:  store,
		config: cfg,
		logger: logger,
	}

	a.gate = newLocationGate(&pgxAdmission{pool: store.DB}, gatePolicy{
		RateWindow:    cfg.RateWindow,
		RetryAttempts: cfg.RetryAttempts,
		RetryInterval: cfg.RetryInterval,
	})

	return a, nil
}
