package pubsub

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DecodePush extracts the raw payload from a push delivery body.
func DecodePush(body []byte) ([]byte, *PushEnvelope, error) {
	var envelope PushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, fmt.Errorf("invalid push envelope: %w", err)
	}
	rawData, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return rawData, &envelope, nil
}

// EncodePush builds a push delivery body around MessagePack-encoded payload.
// It mirrors what the Pub/Sub push endpoint sends.
func EncodePush(subscription string, payload []byte) ([]byte, error) {
	var envelope PushEnvelope
	envelope.Subscription = subscription
	envelope.Message.Data = base64.StdEncoding.EncodeToString(payload)
	return json.Marshal(envelope)
}
