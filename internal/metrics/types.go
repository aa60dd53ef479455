package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	Bookings            prometheus.Counter
	MatchesCreated      prometheus.Counter
	Cancellations       prometheus.Counter
	MatchConflicts      prometheus.Counter
	MatchDuration       prometheus.Histogram
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	StartupTimeSeconds  prometheus.Gauge
}
