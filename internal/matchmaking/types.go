package matchmaking

import (
	"github.com/mauv0809/tonight/internal/ledger"
	"github.com/mauv0809/tonight/internal/slot"
)

// BookingRequest asks for a slot. Empty Date means today in the engine's
// timezone and empty Location means the participant's preferred location.
type BookingRequest struct {
	ParticipantID string `json:"participant_id" msgpack:"participant_id"`
	Date          string `json:"date,omitempty" msgpack:"date"`
	Time          string `json:"time" msgpack:"time"`
	Location      string `json:"location,omitempty" msgpack:"location"`
}

// BookingResult is the slot the request resolved to and the match it is
// part of, if any. Created is false when an identical waiting slot already existed.
type BookingResult struct {
	Slot    *slot.Slot    `json:"slot"`
	Match   *ledger.Match `json:"match"`
	Created bool          `json:"created"`
}
