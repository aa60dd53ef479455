package notifier

import "context"

// Notifier delivers match outcomes to participants.
// This decouples the matchmaking engine from the delivery channel (e.g., Slack, Pub/Sub).
type Notifier interface {
	Notify(ctx context.Context, participantID string, outcome Outcome) error
}

type dryRunKey struct{}

// WithDryRun marks ctx so notifiers log instead of delivering.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, dryRunKey{}, dryRun)
}

// IsDryRun reports whether ctx was marked with WithDryRun.
func IsDryRun(ctx context.Context) bool {
	dryRun, ok := ctx.Value(dryRunKey{}).(bool)
	return ok && dryRun
}
