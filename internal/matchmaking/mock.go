package matchmaking

import (
	"context"
	"sync"

	"github.com/mauv0809/tonight/internal/ledger"
	"github.com/mauv0809/tonight/internal/slot"
)

var _ Service = (*Mock)(nil)

// Mock is a mock implementation of the Service interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	BookFunc            func(ctx context.Context, req BookingRequest) (*BookingResult, error)
	CancelFunc          func(ctx context.Context, slotID, participantID string) error
	MatchesForFunc      func(ctx context.Context, participantID string) ([]ledger.Match, error)
	WaitingSlotsForFunc func(ctx context.Context, participantID string) ([]slot.Slot, error)
	ResetFunc           func(ctx context.Context) error

	// Call records
	BookCalls   []BookingRequest
	CancelCalls []struct{ SlotID, ParticipantID string }
	ResetCalls  int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	m.mu.Lock()
	m.BookCalls = append(m.BookCalls, req)
	fn := m.BookFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &BookingResult{Slot: &slot.Slot{ParticipantID: req.ParticipantID, Status: slot.StatusWaiting}, Created: true}, nil
}

func (m *Mock) Cancel(ctx context.Context, slotID, participantID string) error {
	m.mu.Lock()
	m.CancelCalls = append(m.CancelCalls, struct{ SlotID, ParticipantID string }{slotID, participantID})
	fn := m.CancelFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, slotID, participantID)
	}
	return nil
}

func (m *Mock) MatchesFor(ctx context.Context, participantID string) ([]ledger.Match, error) {
	if m.MatchesForFunc != nil {
		return m.MatchesForFunc(ctx, participantID)
	}
	return []ledger.Match{}, nil
}

func (m *Mock) WaitingSlotsFor(ctx context.Context, participantID string) ([]slot.Slot, error) {
	if m.WaitingSlotsForFunc != nil {
		return m.WaitingSlotsForFunc(ctx, participantID)
	}
	return []slot.Slot{}, nil
}

func (m *Mock) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.ResetCalls++
	fn := m.ResetFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// Bookings returns a copy of the recorded Book calls.
func (m *Mock) Bookings() []BookingRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BookingRequest(nil), m.BookCalls...)
}
