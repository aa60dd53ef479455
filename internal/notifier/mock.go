package notifier

import (
	"context"
	"sync"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// NotifyFunc, when set, decides the result of Notify.
	NotifyFunc func(ctx context.Context, participantID string, outcome Outcome) error

	// Call records
	NotifyCalls []NotifyCall
}

// NotifyCall holds the arguments for a call to Notify.
type NotifyCall struct {
	ParticipantID string
	Outcome       Outcome
	DryRun        bool
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = nil
}

func (m *Mock) Notify(ctx context.Context, participantID string, outcome Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = append(m.NotifyCalls, NotifyCall{
		ParticipantID: participantID,
		Outcome:       outcome,
		DryRun:        IsDryRun(ctx),
	})
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, participantID, outcome)
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []NotifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NotifyCall(nil), m.NotifyCalls...)
}

// CallsFor returns the recorded calls addressed to participantID.
func (m *Mock) CallsFor(participantID string) []NotifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []NotifyCall
	for _, c := range m.NotifyCalls {
		if c.ParticipantID == participantID {
			calls = append(calls, c)
		}
	}
	return calls
}
