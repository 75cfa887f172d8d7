package dispatch

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes the message to the log instead of sending it.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", err
	}
	zerolog.Ctx(ctx).Info().
		Str("recipient", msg.Recipient).
		Str("subject", msg.Subject).
		Int("body_len", len(msg.Body)).
		Msg("dispatch logged")
	return "logged", nil
}
