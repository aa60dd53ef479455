package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	bookings            int
	matchesCreated      int
	cancellations       int
	matchConflicts      int
	matchDurations      []float64
	notificationsSent   map[string]int
	notificationsFailed map[string]int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		matchDurations:      make([]float64, 0),
		notificationsSent:   make(map[string]int),
		notificationsFailed: make(map[string]int),
	}
}

func (m *Mock) IncBookings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings++
}

func (m *Mock) IncMatchesCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCreated++
}

func (m *Mock) IncCancellations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancellations++
}

func (m *Mock) IncMatchConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchConflicts++
}

func (m *Mock) ObserveMatchDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchDurations = append(m.matchDurations, duration)
}

func (m *Mock) IncNotificationsSent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsSent[channel]++
}

func (m *Mock) IncNotificationsFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsFailed[channel]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Bookings returns the number of times IncBookings was called.
func (m *Mock) Bookings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings
}

// MatchesCreated returns the number of times IncMatchesCreated was called.
func (m *Mock) MatchesCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCreated
}

// Cancellations returns the number of times IncCancellations was called.
func (m *Mock) Cancellations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancellations
}

// MatchConflicts returns the number of times IncMatchConflicts was called.
func (m *Mock) MatchConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchConflicts
}

// MatchDurations returns every observed match duration.
func (m *Mock) MatchDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.matchDurations...)
}

// NotificationsSent returns the sent count for channel.
func (m *Mock) NotificationsSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsSent[channel]
}

// NotificationsFailed returns the failed count for channel.
func (m *Mock) NotificationsFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsFailed[channel]
}

// StartupTime returns the last value passed to SetStartupTime.
func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
