package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MemoryBroker is an in-process Broker for tests and single-node runs.
// It keeps the same at-least-once contract as the real adapters: a
// handler error leaves the message queued and it is delivered again.
type MemoryBroker struct {
	mu      sync.Mutex
	offsets map[string]int64
	subs    map[string]chan Message // keyed by topic/group
	closed  bool
}

// NewMemoryBroker creates an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		offsets: make(map[string]int64),
		subs:    make(map[string]chan Message),
	}
}

// Send appends the message to the topic and fans it out to every consumer
// group subscribed at the time of the send.
func (b *MemoryBroker) Send(ctx context.Context, topic, key string, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.offsets[topic]++
	offset := b.offsets[topic]

	msg := Message{Topic: topic, Key: key, Offset: offset, Payload: payload}
	for subKey, queue := range b.subs {
		if topicOf(subKey) != topic {
			continue
		}
		select {
		case queue <- msg:
		default:
			log.Warn().Str("topic", topic).Msg("Subscriber queue full, dropping message")
		}
	}
	return offset, nil
}

// Subscribe registers the group and delivers messages until the context
// is cancelled. Failed deliveries are retried after a short backoff.
func (b *MemoryBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	queue := make(chan Message, 1024)

	b.mu.Lock()
	b.subs[topic+"/"+group] = queue
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-queue:
			for {
				if err := handler(ctx, msg); err == nil {
					break
				} else {
					log.Error().Err(err).
						Str("topic", topic).
						Str("key", msg.Key).
						Msg("Handler failed, redelivering")
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(100 * time.Millisecond):
				}
			}
		}
	}
}

// Close drops all subscriptions.
func (b *MemoryBroker) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		b.subs = make(map[string]chan Message)
	}
	return nil
}

func topicOf(subKey string) string {
	for i := 0; i < len(subKey); i++ {
		if subKey[i] == '/' {
			return subKey[:i]
		}
	}
	return subKey
}
