// Package metrics exposes prometheus counters for the points ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PointsSpentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialspark",
			Name:      "points_spent_total",
			Help:      "Points debited from user balances",
		},
	)

	PointsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialspark",
			Name:      "points_granted_total",
			Help:      "Points credited to user balances",
		},
		[]string{"reason"},
	)

	SpendRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialspark",
			Name:      "points_spend_rejected_total",
			Help:      "Debits refused because the balance was too low",
		},
	)

	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialspark",
			Name:      "generations_total",
			Help:      "Generation requests by content type and outcome",
		},
		[]string{"content_type", "outcome"},
	)

	GenerationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialspark",
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of generation provider calls",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"content_type"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialspark",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by provider, event type and outcome",
		},
		[]string{"provider", "event_type", "outcome"},
	)
)
