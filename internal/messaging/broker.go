// Package messaging carries domain events between the scheduling side and
// the notification side. The Broker interface hides the concrete bus; the
// delivery contract is at-least-once, ordered only within whatever
// partitioning the underlying broker applies to the message key.
package messaging

import "context"

// Message is a single delivery received from the broker.
type Message struct {
	Topic   string
	Key     string
	Offset  int64
	Payload []byte
}

// Handler processes one delivery. Returning nil acknowledges the message;
// returning an error leaves it unacknowledged so the broker redelivers it
// according to its own policy.
type Handler func(ctx context.Context, msg Message) error

// Broker is the publish/subscribe port.
type Broker interface {
	// Send publishes a payload to a topic under the given message key and
	// returns the broker-assigned offset where one exists (adapters that
	// cannot know it at send time return 0).
	Send(ctx context.Context, topic, key string, payload []byte) (int64, error)

	// Subscribe consumes the topic as a member of the named consumer
	// group, invoking the handler for every delivery. It blocks until the
	// context is cancelled or the subscription fails.
	Subscribe(ctx context.Context, topic, group string, handler Handler) error

	Close(ctx context.Context) error
}
