package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Bookings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tonight_bookings_total",
			Help: "The total number of accepted booking requests.",
		}),
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tonight_matches_created_total",
			Help: "The total number of matches recorded.",
		}),
		Cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tonight_cancellations_total",
			Help: "The total number of cancelled slots.",
		}),
		MatchConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tonight_match_conflicts_total",
			Help: "The total number of match attempts that lost a slot to a concurrent booking.",
		}),
		MatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tonight_match_duration_seconds",
			Help:    "The duration of a booking including the match search.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tonight_notifications_sent_total",
			Help: "The total number of outcome notifications delivered.",
		}, []string{"channel"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tonight_notifications_failed_total",
			Help: "The total number of outcome notifications that failed to send.",
		}, []string{"channel"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tonight_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Bookings,
		s.MatchesCreated,
		s.Cancellations,
		s.MatchConflicts,
		s.MatchDuration,
		s.NotificationsSent,
		s.NotificationsFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncBookings() {
	s.Bookings.Inc()
}

func (s *Service) IncMatchesCreated() {
	s.MatchesCreated.Inc()
}

func (s *Service) IncCancellations() {
	s.Cancellations.Inc()
}

func (s *Service) IncMatchConflicts() {
	s.MatchConflicts.Inc()
}

func (s *Service) ObserveMatchDuration(duration float64) {
	s.MatchDuration.Observe(duration)
}

func (s *Service) IncNotificationsSent(channel string) {
	s.NotificationsSent.WithLabelValues(channel).Inc()
}

func (s *Service) IncNotificationsFailed(channel string) {
	s.NotificationsFailed.WithLabelValues(channel).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
