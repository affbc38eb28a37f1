// Package metrics holds the Prometheus collectors for push delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FCMMessages counts per-token delivery attempts. outcome: success, failure.
	FCMMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fcm_messages_total",
			Help: "Push messages attempted, by outcome",
		},
		[]string{"outcome"},
	)

	FCMAccessTokenErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fcm_access_token_errors_total",
			Help: "Failures to obtain an FCM access token",
		},
	)

	FCMTokensPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fcm_tokens_pruned_total",
			Help: "Device tokens removed after a confirmed-invalid response",
		},
	)

	// ReservationNotifications counts notifier runs. outcome: sent, failed, skipped.
	ReservationNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_notifications_total",
			Help: "Reservation notifications, by change type and outcome",
		},
		[]string{"action", "outcome"},
	)
)

// RecordDelivery records one per-token delivery result.
func RecordDelivery(success bool) {
	if success {
		FCMMessages.WithLabelValues("success").Inc()
		return
	}
	FCMMessages.WithLabelValues("failure").Inc()
}
