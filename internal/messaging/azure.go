package messaging

import (
	"context"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AzureBroker implements Broker on Azure Service Bus. A logical topic maps
// to a Service Bus topic and a consumer group to a subscription on it; the
// delivery offset is the message sequence number.
type AzureBroker struct {
	client *azservicebus.Client

	mu      sync.Mutex
	senders map[string]*azservicebus.Sender
}

// NewAzureBroker connects to Azure Service Bus.
func NewAzureBroker(connStr string) (*AzureBroker, error) {
	client, err := azservicebus.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service bus client")
	}
	return &AzureBroker{
		client:  client,
		senders: make(map[string]*azservicebus.Sender),
	}, nil
}

func (b *AzureBroker) sender(topic string) (*azservicebus.Sender, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sender, ok := b.senders[topic]; ok {
		return sender, nil
	}
	sender, err := b.client.NewSender(topic, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create sender for topic %s", topic)
	}
	b.senders[topic] = sender
	return sender, nil
}

// Send publishes the payload to the topic. The key becomes both the
// message id and the partition key, so ordering follows the key, not the
// aggregate. The sequence number is assigned broker-side and is not
// visible at send time.
func (b *AzureBroker) Send(ctx context.Context, topic, key string, payload []byte) (int64, error) {
	sender, err := b.sender(topic)
	if err != nil {
		return 0, err
	}

	msg := &azservicebus.Message{
		Body:         payload,
		MessageID:    &key,
		PartitionKey: &key,
		ContentType:  contentTypeJSON(),
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		return 0, errors.Wrapf(err, "failed to send message to topic %s", topic)
	}
	return 0, nil
}

// Subscribe receives from the topic's subscription named after the
// consumer group. A handler error abandons the message so the bus
// redelivers it; success completes it.
func (b *AzureBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	receiver, err := b.client.NewReceiverForSubscription(topic, group, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create receiver for %s/%s", topic, group)
	}
	defer func() {
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error closing receiver")
		}
	}()

	log.Info().Str("topic", topic).Str("group", group).Msg("Subscription started")

	for {
		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to receive messages")
		}

		for _, message := range messages {
			delivery := Message{
				Topic:   topic,
				Key:     message.MessageID,
				Offset:  sequenceNumber(message),
				Payload: message.Body,
			}

			if err := handler(ctx, delivery); err != nil {
				log.Error().Err(err).
					Str("message_id", message.MessageID).
					Msg("Handler failed, abandoning message")
				if abandonErr := receiver.AbandonMessage(ctx, message, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Msg("Failed to abandon message")
				}
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Msg("Failed to complete message")
			}
		}
	}
}

// Close releases all senders and the underlying connection.
func (b *AzureBroker) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, sender := range b.senders {
		if err := sender.Close(ctx); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Error closing sender")
		}
	}
	return b.client.Close(ctx)
}

func sequenceNumber(message *azservicebus.ReceivedMessage) int64 {
	if message.SequenceNumber != nil {
		return *message.SequenceNumber
	}
	return 0
}

func contentTypeJSON() *string {
	ct := "application/json"
	return &ct
}
