// Package metrics exposes the daemon's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	hookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_hook_events_total",
			Help: "Webhook events accepted, by event type",
		},
		[]string{"type"},
	)

	hookRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_hook_rejections_total",
			Help: "Webhook requests rejected at the boundary, by reason",
		},
		[]string{"reason"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_deliveries_total",
			Help: "Input delivery attempts, by transport and outcome",
		},
		[]string{"transport", "outcome"},
	)

	deliveryRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_delivery_retries_total",
			Help: "Network delivery retries after a failed attempt",
		},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_notifications_total",
			Help: "Fan-out notifications, by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	sessionsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_sessions_live",
			Help: "Sessions currently held in the registry",
		},
	)

	inboxSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_inbox_swept_total",
			Help: "Stale drop-box entries removed by the sweeper",
		},
	)

	registerOnce sync.Once
)

// Register installs the collectors on the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			hookEventsTotal,
			hookRejectionsTotal,
			deliveriesTotal,
			deliveryRetriesTotal,
			notificationsTotal,
			sessionsLive,
			inboxSweptTotal,
		)
	})
}

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHookEvent(eventType string) {
	hookEventsTotal.WithLabelValues(eventType).Inc()
}

func RecordHookRejection(reason string) {
	hookRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordDelivery(transport, outcome string) {
	deliveriesTotal.WithLabelValues(transport, outcome).Inc()
}

func RecordDeliveryRetry() {
	deliveryRetriesTotal.Inc()
}

func RecordNotification(channel, outcome string) {
	notificationsTotal.WithLabelValues(channel, outcome).Inc()
}

func SetSessionsLive(count int) {
	sessionsLive.Set(float64(count))
}

func RecordInboxSweep(removed int) {
	if removed > 0 {
		inboxSweptTotal.Add(float64(removed))
	}
}
