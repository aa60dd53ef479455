package slot

import (
	"fmt"
	"time"

	"github.com/mauv0809/tonight/internal/apperrors"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Status represents the lifecycle state of a slot.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusMatched   Status = "matched"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusMatched || s == StatusCancelled
}

// Key groups slots into a candidate pool.
type Key struct {
	Date     string `json:"date"`     // YYYY-MM-DD
	Time     string `json:"time"`     // HH:MM
	Location string `json:"location"`
}

// Validate checks the date and time labels and that a location is present.
func (k Key) Validate() error {
	if _, err := time.Parse(DateLayout, k.Date); err != nil {
		return fmt.Errorf("date %q is not YYYY-MM-DD: %w", k.Date, apperrors.ErrInvalidArgument)
	}
	if _, err := time.Parse(TimeLayout, k.Time); err != nil {
		return fmt.Errorf("time %q is not HH:MM: %w", k.Time, apperrors.ErrInvalidArgument)
	}
	if k.Location == "" {
		return fmt.Errorf("location is required: %w", apperrors.ErrInvalidArgument)
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s @ %s", k.Date, k.Time, k.Location)
}

// Slot is one participant's open invitation for a key.
type Slot struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Location      string    `json:"location"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Key returns the pool the slot belongs to.
func (s Slot) Key() Key {
	return Key{Date: s.Date, Time: s.Time, Location: s.Location}
}
