package participant

import (
	"fmt"
	"time"

	"github.com/mauv0809/tonight/internal/apperrors"
)

const (
	MinAge = 18
	MaxAge = 100
)

// Participant is a registered profile.
type Participant struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Gender       string    `json:"gender"`
	Age          int       `json:"age"`
	GenderSought string    `json:"gender_sought"`
	AgeRangeMin  int       `json:"age_range_min"`
	AgeRangeMax  int       `json:"age_range_max"`
	Location     string    `json:"location"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the profile invariants.
func (p Participant) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("participant id is required: %w", apperrors.ErrInvalidArgument)
	case p.Gender == "" || p.GenderSought == "":
		return fmt.Errorf("gender and gender sought are required: %w", apperrors.ErrInvalidArgument)
	case p.Age < MinAge || p.Age > MaxAge:
		return fmt.Errorf("age %d outside %d-%d: %w", p.Age, MinAge, MaxAge, apperrors.ErrInvalidArgument)
	case p.AgeRangeMin > p.AgeRangeMax:
		return fmt.Errorf("age range %d-%d is empty: %w", p.AgeRangeMin, p.AgeRangeMax, apperrors.ErrInvalidArgument)
	}
	return nil
}

// Accepts reports whether other falls inside p's own preferences.
func (p Participant) Accepts(other Participant) bool {
	return other.Gender == p.GenderSought &&
		other.Age >= p.AgeRangeMin &&
		other.Age <= p.AgeRangeMax
}

// Compatible reports whether a and b accept each other.
func Compatible(a, b Participant) bool {
	return a.ID != b.ID && a.Accepts(b) && b.Accepts(a)
}
