package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	allowed := a.config.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Use(httprate.Limit(300, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(a.requireSession)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", a.handleListContacts)
			r.Delete("/{contactID}", a.handleRemoveContact)

			r.Route("/invites", func(r chi.Router) {
				r.Post("/", a.handleCreateInvite)
				r.Get("/incoming", a.handleListIncomingInvites)
				r.Post("/accept", a.handleAcceptInvite)
				r.Delete("/{inviteID}", a.handleRejectInvite)
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Post("/", a.handleCreateAlert)
			r.Get("/", a.handleListAlerts)

			r.Route("/{alertID}", func(r chi.Router) {
				r.Get("/", a.handleGetAlert)
				r.Post("/cancel", a.handleCancelAlert)
				r.Post("/resolve", a.handleResolveAlert)
				r.Post("/ack", a.handleAcknowledge)
				r.Post("/decline", a.handleDecline)
				r.Get("/responses", a.handleListResponses)
				r.Post("/locations", a.handleSubmitLocation)
				r.Get("/locations", a.handleListLocations)
				r.Post("/media", a.handleCreateMedia)
				r.Get("/media", a.handleListMedia)
			})
		})
	})

	return r
}
