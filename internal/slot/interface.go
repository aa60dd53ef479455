package slot

import "context"

// Store owns slot persistence and every slot status transition.
type Store interface {
	// BookSlot returns the participant's waiting slot for key, creating it
	// when none exists. The bool reports whether a new slot was created.
	BookSlot(ctx context.Context, participantID string, key Key) (*Slot, bool, error)
	// CancelSlot moves a waiting slot owned by participantID to cancelled.
	CancelSlot(ctx context.Context, slotID, participantID string) error
	GetSlot(ctx context.Context, slotID string) (*Slot, error)
	WaitingSlotsFor(ctx context.Context, participantID string) ([]Slot, error)
	// WaitingInPool lists the other waiting slots of a key, oldest first.
	WaitingInPool(ctx context.Context, key Key, excludeParticipantID string) ([]Slot, error)
	// Seal moves a waiting slot to matched. It fails with apperrors.ErrConflict
	// when the slot is no longer waiting.
	Seal(ctx context.Context, slotID string) error
	Clear(ctx context.Context) error
}
