package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncBookings()
	IncMatchesCreated()
	IncCancellations()
	IncMatchConflicts()
	ObserveMatchDuration(duration float64)
	IncNotificationsSent(channel string)
	IncNotificationsFailed(channel string)
	SetStartupTime(duration float64)
}
