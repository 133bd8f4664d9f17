package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/hospital/services/scheduling/internal/domain"
)

// capturingBroker records every send.
type capturingBroker struct {
	mu    sync.Mutex
	sends []Message
	err   error
}

func (b *capturingBroker) Send(ctx context.Context, topic, key string, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.sends = append(b.sends, Message{Topic: topic, Key: key, Offset: int64(len(b.sends) + 1), Payload: payload})
	return int64(len(b.sends)), nil
}

func (b *capturingBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *capturingBroker) Close(ctx context.Context) error { return nil }

func (b *capturingBroker) Sends() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.sends...)
}

func TestPublishKeysByEventID(t *testing.T) {
	broker := &capturingBroker{}
	publisher := NewEventPublisher(broker)

	event := domain.NewConsultationCancelled(10, 1, "patient request", "ana@example.com", "Ana")
	publisher.Publish(event)

	require.Eventually(t, func() bool {
		return len(broker.Sends()) == 1
	}, time.Second, 10*time.Millisecond)

	sent := broker.Sends()[0]
	assert.Equal(t, Topic, sent.Topic)
	assert.Equal(t, event.ID(), sent.Key)

	decoded, err := domain.DecodeEvent(sent.Payload)
	require.NoError(t, err)
	assert.Equal(t, domain.EventTypeConsultationCancelled, decoded.Type())
}

func TestPublishSwallowsBrokerFailure(t *testing.T) {
	broker := &capturingBroker{err: errors.New("broker unavailable")}
	publisher := NewEventPublisher(broker)

	event := domain.NewConsultationCreated(10, 1, 2, time.Now().Add(24*time.Hour), "ana@example.com", "Ana", "Dr. Silva")

	// Must not block nor panic; the failure is only logged.
	publisher.Publish(event)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, broker.Sends())
}

func TestMemoryBrokerDeliversToSubscriber(t *testing.T) {
	broker := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	go func() {
		_ = broker.Subscribe(ctx, "orders", "workers", func(ctx context.Context, msg Message) error {
			received <- msg
			return nil
		})
	}()

	// Let the subscriber register; messages sent before that are dropped.
	time.Sleep(50 * time.Millisecond)

	offset, err := broker.Send(ctx, "orders", "key-1", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), offset)

	select {
	case msg := <-received:
		assert.Equal(t, "orders", msg.Topic)
		assert.Equal(t, "key-1", msg.Key)
		assert.Equal(t, []byte("payload"), msg.Payload)
		assert.Equal(t, int64(1), msg.Offset)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestMemoryBrokerRedeliversOnHandlerError(t *testing.T) {
	broker := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	attempts := 0

	go func() {
		_ = broker.Subscribe(ctx, "orders", "workers", func(ctx context.Context, msg Message) error {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts < 3 {
				return errors.New("transient failure")
			}
			return nil
		})
	}()

	time.Sleep(50 * time.Millisecond)

	_, err := broker.Send(ctx, "orders", "key-1", []byte("payload"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 3
	}, 2*time.Second, 10*time.Millisecond)
}
