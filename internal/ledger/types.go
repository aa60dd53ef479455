package ledger

import "time"

// StatusMatched is the only status a recorded match carries.
const StatusMatched = "matched"

// Match pairs two slots that share a key. InitiatorID booked the slot whose
// arrival produced the match and CounterpartID had been waiting.
type Match struct {
	ID                string    `json:"id"`
	InitiatorID       string    `json:"initiator_id"`
	CounterpartID     string    `json:"counterpart_id"`
	SlotID            string    `json:"slot_id"`
	CounterpartSlotID string    `json:"counterpart_slot_id"`
	Date              string    `json:"date"`
	Time              string    `json:"time"`
	Location          string    `json:"location"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}
