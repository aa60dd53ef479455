package participant

import (
	"context"
	"fmt"
	"sync"

	"github.com/mauv0809/tonight/internal/apperrors"
)

// Mock is an in-memory Directory for testing.
// It is safe for concurrent use.
type Mock struct {
	mu           sync.Mutex
	participants map[string]Participant

	// GetParticipantFunc, when set, replaces the map lookup.
	GetParticipantFunc func(ctx context.Context, id string) (*Participant, error)

	GetParticipantCalls []string
}

// NewMock creates a mock directory holding the given participants.
func NewMock(participants ...Participant) *Mock {
	m := &Mock{participants: make(map[string]Participant)}
	for _, p := range participants {
		m.participants[p.ID] = p
	}
	return m
}

// Add registers or replaces a participant.
func (m *Mock) Add(p Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.ID] = p
}

func (m *Mock) GetParticipant(ctx context.Context, id string) (*Participant, error) {
	m.mu.Lock()
	m.GetParticipantCalls = append(m.GetParticipantCalls, id)
	fn := m.GetParticipantFunc
	p, ok := m.participants[id]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if !ok {
		return nil, fmt.Errorf("participant %s: %w", id, apperrors.ErrNotFound)
	}
	return &p, nil
}
