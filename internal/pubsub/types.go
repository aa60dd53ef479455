package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client *pubsub.Client
}

// EventType represents the type of event/message sent via pubsub.
// It travels as the "event" message attribute.
type EventType string

const (
	EventMatchFound       EventType = "match-found"
	EventStillWaiting     EventType = "still-waiting"
	EventBookingRequested EventType = "booking-requested"
)

// PushEnvelope is the JSON body of a Pub/Sub push delivery.
type PushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data       string            `json:"data"` // base64-encoded message payload
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
}
