// Package mailer delivers transactional email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/afabl/decision-matrix/internal/config"
)

var ErrUnknownProvider = errors.New("unknown mail provider")

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Sender selected by cfg.Provider.
func New(cfg config.Mail) (Sender, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendClient(cfg)
	case "log", "":
		return LogSender{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// LogSender writes messages to the process log instead of sending them.
// Local development only: the body, including confirmation links, is logged.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("[mailer] to=%s subject=%q\n%s", msg.To, msg.Subject, msg.HTML)
	return nil
}
