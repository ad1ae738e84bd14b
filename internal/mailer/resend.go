package mailer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/afabl/decision-matrix/internal/config"
	"github.com/resend/resend-go/v2"
	"golang.org/x/time/rate"
)

// ResendClient sends mail through the Resend API.
type ResendClient struct {
	client  *resend.Client
	from    string
	limiter *rate.Limiter
}

// NewResendClient creates a client that sends at most cfg.RatePerSecond messages per second.
// cfg.ResendEndpoint overrides the API base URL.
func NewResendClient(cfg config.Mail) (*ResendClient, error) {
	client := resend.NewCustomClient(&http.Client{Timeout: 15 * time.Second}, cfg.ResendAPIKey)
	if cfg.ResendEndpoint != "" {
		base, err := url.Parse(strings.TrimRight(cfg.ResendEndpoint, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse resend endpoint: %w", err)
		}
		client.BaseURL = base
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &ResendClient{
		client:  client,
		from:    cfg.From,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// Send posts msg to the Resend API.
func (c *ResendClient) Send(ctx context.Context, msg Message) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("resend rate limit: %w", err)
	}

	start := time.Now()
	sent, err := c.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		log.Printf("[mailer] resend error: %v", err)
		return fmt.Errorf("resend send: %w", err)
	}

	log.Printf("[mailer] resend accepted id=%s duration=%dms", sent.Id, time.Since(start).Milliseconds())
	return nil
}
