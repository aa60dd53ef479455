package ledger

import "context"

// Store is the append-only record of matches.
type Store interface {
	// RecordMatch persists m. It fails with apperrors.ErrDuplicateSlot when
	// either slot already belongs to a match.
	RecordMatch(ctx context.Context, m Match) (*Match, error)
	// MatchesFor lists matches involving participantID, newest first.
	MatchesFor(ctx context.Context, participantID string) ([]Match, error)
	// MatchForSlot returns the match holding slotID on either side.
	MatchForSlot(ctx context.Context, slotID string) (*Match, error)
	Clear(ctx context.Context) error
}
