package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardline_alerts_created_total",
		Help: "Alerts created, by alert type.",
	}, []string{"type"})

	locationAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardline_location_samples_admitted_total",
		Help: "Location samples accepted by the admission gate.",
	})

	locationRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardline_location_samples_rejected_total",
		Help: "Location samples rejected by the admission gate, by reason.",
	}, []string{"reason"})

	fanoutFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardline_alert_fanout_failures_total",
		Help: "Alert events that could not be published to the bus.",
	})
)
