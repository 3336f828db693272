// Package events delivers registry notifications to external observers: the process log,
// an in-memory feed, RabbitMQ, Redis pub/sub and Kafka.
//
// Every sink implements registry.Publisher. Delivery is fire-and-forget: a sink that fails
// logs the failure and drops the event, it never fails the registry operation.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"certregistry/model"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("certregistry.events")

// Envelope is the wire form of a notification shared by all sinks.
type Envelope struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	EmittedAt time.Time       `json:"emittedAt"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps event with a fresh id and the current time.
func NewEnvelope(event model.Event) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", event.EventName(), err)
	}
	return Envelope{
		ID:        uuid.NewString(),
		Name:      event.EventName(),
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	}, nil
}

// Marshal returns the JSON encoding of the envelope.
func (e Envelope) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope %s: %w", e.ID, err)
	}
	return b, nil
}

// encode builds and marshals the envelope of event, logging and reporting false on failure.
func encode(sink string, event model.Event) (Envelope, []byte, bool) {
	env, err := NewEnvelope(event)
	if err != nil {
		logger.Errorf("%s: dropping event: %v", sink, err)
		return Envelope{}, nil, false
	}
	body, err := env.Marshal()
	if err != nil {
		logger.Errorf("%s: dropping event %s: %v", sink, env.Name, err)
		return Envelope{}, nil, false
	}
	return env, body, true
}
