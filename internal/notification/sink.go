// Package notification consumes consultation events and turns them into
// human-readable messages for a delivery sink. Delivery is best effort:
// the sink contract ends at "accepted for delivery".
package notification

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sink accepts a rendered message for a recipient. There is no delivery
// acknowledgment beyond the returned error.
type Sink interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogSink writes notifications to the log instead of a real gateway.
// Used in development and as the default when no transport is configured.
type LogSink struct{}

// NewLogSink creates a log-backed sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Send logs the notification.
func (s *LogSink) Send(ctx context.Context, recipient, subject, body string) error {
	log.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Str("body", body).
		Msg("Notification sent")
	return nil
}
