// Package dispatch delivers a campaign message through an outbound channel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// Message is a rendered campaign ready to send.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Sender delivers a message and returns a provider reference or summary.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) (string, error)
}

var ErrNoRecipient = errors.New("dispatch message has no recipient")

func validate(msg Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	return nil
}

// Settings selects and configures a sender.
type Settings struct {
	Driver        string // pica, smtp or log
	PicaSecretKey string
	PicaEndpoint  string
	SMTP          SMTPConfig
}

func NewSender(s Settings) (Sender, error) {
	switch s.Driver {
	case "pica":
		return NewPicaSender(s.PicaSecretKey, s.PicaEndpoint, nil), nil
	case "smtp":
		return NewSMTPSender(s.SMTP), nil
	case "log", "":
		return LogSender{}, nil
	default:
		return nil, fmt.Errorf("unknown dispatch driver %q", s.Driver)
	}
}
