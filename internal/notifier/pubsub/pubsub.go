// Package pubsub publishes match outcomes as Pub/Sub events so other
// services (chat, mobile push) can react to them.
package pubsub

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tonight/internal/metrics"
	"github.com/mauv0809/tonight/internal/notifier"
	"github.com/mauv0809/tonight/internal/pubsub"
)

// Channel is the metrics label for Pub/Sub deliveries.
const Channel = "pubsub"

var _ notifier.Notifier = (*Notifier)(nil)

// OutcomeEvent is the MessagePack payload published for every outcome.
type OutcomeEvent struct {
	Event         pubsub.EventType `msgpack:"event"`
	ParticipantID string           `msgpack:"participant_id"`
	Outcome       notifier.Outcome `msgpack:"outcome"`
}

// EventType implements the attribute hook of the pubsub client.
func (e OutcomeEvent) EventType() pubsub.EventType {
	return e.Event
}

// Notifier publishes outcomes to a topic.
type Notifier struct {
	client  pubsub.PubSubClient
	topic   string
	metrics metrics.Metrics
}

func NewNotifier(client pubsub.PubSubClient, topic string, metrics metrics.Metrics) *Notifier {
	return &Notifier{client: client, topic: topic, metrics: metrics}
}

func (n *Notifier) Notify(ctx context.Context, participantID string, outcome notifier.Outcome) error {
	event := OutcomeEvent{
		ParticipantID: participantID,
		Outcome:       outcome,
	}
	switch outcome.Kind {
	case notifier.KindMatchFound:
		event.Event = pubsub.EventMatchFound
	case notifier.KindStillWaiting:
		event.Event = pubsub.EventStillWaiting
	default:
		return fmt.Errorf("unknown outcome kind %q", outcome.Kind)
	}

	if notifier.IsDryRun(ctx) {
		log.Info("[Dry Run] Would publish outcome", "topic", n.topic, "event", event.Event, "participant_id", participantID)
		return nil
	}

	if err := n.client.SendMessage(ctx, n.topic, event); err != nil {
		n.metrics.IncNotificationsFailed(Channel)
		return fmt.Errorf("failed to publish %s for %s: %w", event.Event, participantID, err)
	}
	n.metrics.IncNotificationsSent(Channel)
	log.Debug("Published outcome", "topic", n.topic, "event", event.Event, "participant_id", participantID)
	return nil
}
