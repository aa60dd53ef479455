package notifier

// Kind tells a participant whether their booking produced a match.
type Kind string

const (
	KindMatchFound   Kind = "match-found"
	KindStillWaiting Kind = "still-waiting"
)

// CounterpartSummary is the part of the other participant's profile shared
// once a match is made.
type CounterpartSummary struct {
	ID          string `json:"id" msgpack:"id"`
	DisplayName string `json:"display_name" msgpack:"display_name"`
	Age         int    `json:"age" msgpack:"age"`
	Gender      string `json:"gender" msgpack:"gender"`
	Bio         string `json:"bio,omitempty" msgpack:"bio"`
}

// Outcome is the result of a booking as seen by one participant.
type Outcome struct {
	Kind        Kind                `json:"kind" msgpack:"kind"`
	SlotID      string              `json:"slot_id" msgpack:"slot_id"`
	MatchID     string              `json:"match_id,omitempty" msgpack:"match_id"`
	Date        string              `json:"date" msgpack:"date"`
	Time        string              `json:"time" msgpack:"time"`
	Location    string              `json:"location" msgpack:"location"`
	Counterpart *CounterpartSummary `json:"counterpart,omitempty" msgpack:"counterpart"`
}
