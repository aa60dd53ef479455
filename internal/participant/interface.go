package participant

import "context"

// Directory is the read side of the participant profiles. The matchmaking
// core only ever reads from it.
type Directory interface {
	// GetParticipant returns the profile for id, or an error wrapping
	// apperrors.ErrNotFound when the participant is not registered.
	GetParticipant(ctx context.Context, id string) (*Participant, error)
}

// Store is the directory plus the registration write path used by the
// registration bridge and the seeder.
type Store interface {
	Directory
	Upsert(ctx context.Context, p Participant) (*Participant, error)
	GetAll(ctx context.Context) ([]Participant, error)
}
