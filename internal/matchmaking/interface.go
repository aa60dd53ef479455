package matchmaking

import (
	"context"

	"github.com/mauv0809/tonight/internal/ledger"
	"github.com/mauv0809/tonight/internal/slot"
)

// Service is what the front ends (HTTP, Pub/Sub push, CLI) call into.
type Service interface {
	// Book registers the participant's slot for a key and tries to pair it
	// with a compatible waiting slot on the same key.
	Book(ctx context.Context, req BookingRequest) (*BookingResult, error)
	// Cancel withdraws a waiting slot owned by participantID.
	Cancel(ctx context.Context, slotID, participantID string) error
	MatchesFor(ctx context.Context, participantID string) ([]ledger.Match, error)
	WaitingSlotsFor(ctx context.Context, participantID string) ([]slot.Slot, error)
	// Reset removes every slot and match.
	Reset(ctx context.Context) error
}
