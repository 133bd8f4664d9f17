package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// ExchangeName is the topic exchange all domain events travel through.
// The logical topic becomes the routing key.
const ExchangeName = "domain-events"

// RabbitBroker implements Broker on RabbitMQ. Publishes run in confirm
// mode so the delivery tag serves as the offset; each topic/group pair
// gets its own durable queue bound to the topic exchange.
type RabbitBroker struct {
	conn *amqp.Connection

	mu      sync.Mutex
	pubChan *amqp.Channel
}

// NewRabbitBroker dials RabbitMQ with retries.
func NewRabbitBroker(url string) (*RabbitBroker, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 30; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return &RabbitBroker{conn: conn}, nil
		}
		log.Warn().Err(err).Msg("Failed to connect to RabbitMQ, retrying in 2s")
		time.Sleep(2 * time.Second)
	}
	return nil, errors.Wrap(err, "could not connect to RabbitMQ after 30 attempts")
}

func (b *RabbitBroker) publishChannel() (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pubChan != nil && !b.pubChan.IsClosed() {
		return b.pubChan, nil
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open channel")
	}
	if err := declareExchange(ch); err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		return nil, errors.Wrap(err, "failed to put channel in confirm mode")
	}

	b.pubChan = ch
	return ch, nil
}

// Send publishes the payload with the topic as routing key and the key as
// message id, then waits for the broker confirm. The confirmed delivery
// tag is returned as the offset.
func (b *RabbitBroker) Send(ctx context.Context, topic, key string, payload []byte) (int64, error) {
	ch, err := b.publishChannel()
	if err != nil {
		return 0, err
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		ExchangeName,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    key,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to publish to topic %s", topic)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "waiting for publish confirmation")
	}
	if !acked {
		return 0, errors.Errorf("broker rejected message for topic %s", topic)
	}
	return int64(confirmation.DeliveryTag), nil
}

// Subscribe consumes the queue shared by the consumer group. A handler
// error nacks with requeue so the broker redelivers; there is no
// dead-letter routing.
func (b *RabbitBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open channel")
	}
	defer ch.Close()

	if err := declareExchange(ch); err != nil {
		return err
	}

	queueName := fmt.Sprintf("%s.%s", topic, group)
	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", queueName)
	}

	if err := ch.QueueBind(queueName, topic, ExchangeName, false, nil); err != nil {
		return errors.Wrapf(err, "failed to bind queue %s", queueName)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return errors.Wrap(err, "failed to set prefetch")
	}

	deliveries, err := ch.Consume(
		queueName,
		group, // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to consume queue %s", queueName)
	}

	log.Info().Str("topic", topic).Str("group", group).Str("queue", queueName).Msg("Subscription started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}

			msg := Message{
				Topic:   topic,
				Key:     delivery.MessageId,
				Offset:  int64(delivery.DeliveryTag),
				Payload: delivery.Body,
			}

			if err := handler(ctx, msg); err != nil {
				log.Error().Err(err).
					Str("message_id", delivery.MessageId).
					Msg("Handler failed, requeueing message")
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the connection.
func (b *RabbitBroker) Close(ctx context.Context) error {
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	return errors.Wrap(err, "failed to declare exchange")
}
