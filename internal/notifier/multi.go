package notifier

import (
	"context"
	"errors"
)

var _ Notifier = Multi(nil)

// Multi fans an outcome out to every notifier. All notifiers are tried and
// their errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, participantID string, outcome Outcome) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, participantID, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
