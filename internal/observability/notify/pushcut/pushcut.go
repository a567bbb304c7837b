// Package pushcut posts ticket notifications to a Pushcut-style webhook.
package pushcut

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/ticketgate/internal/domain/model"
	"github.com/target/ticketgate/internal/observability/notify"
)

const (
	DefaultTitle      = "Novo Ticket Enviado"
	DefaultTextPrefix = "Ticket de €"
)

// Config captures the webhook message shape.
type Config struct {
	Title      string
	TextPrefix string
	Timeout    time.Duration
	Client     *http.Client
}

// Client delivers one notification per dispatch. It never retries.
type Client struct {
	title      string
	textPrefix string
	client     *http.Client
}

// Message is the JSON body posted to the destination.
type Message struct {
	Text         string `json:"text"`
	Title        string `json:"title"`
	DeliveryRate string `json:"delivery_rate"`
}

// NewClient builds a Client. A zero Config uses the default title, prefix and a 5s timeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		title:      notify.FallbackString(strings.TrimSpace(cfg.Title), DefaultTitle),
		textPrefix: notify.FallbackString(cfg.TextPrefix, DefaultTextPrefix),
		client:     hc,
	}
}

// BuildMessage renders the webhook body for a variant and rate.
func (c *Client) BuildMessage(variant model.Variant, rate model.DeliveryRate) Message {
	return Message{
		Text:         c.textPrefix + variant.Value.String(),
		Title:        c.title,
		DeliveryRate: rate.Percent(),
	}
}

// Notify posts the ticket message to variant.Destination. Any transport error, timeout or
// non-2xx status is returned wrapped in model.ErrNotifierFailure.
func (c *Client) Notify(ctx context.Context, variant model.Variant, rate model.DeliveryRate) error {
	if strings.TrimSpace(variant.Destination) == "" {
		return fmt.Errorf("%w: empty destination", model.ErrNotifierFailure)
	}
	body, err := json.Marshal(c.BuildMessage(variant, rate))
	if err != nil {
		return fmt.Errorf("%w: encode message: %w", model.ErrNotifierFailure, err)
	}
	if err := notify.PostJSON(ctx, c.client, variant.Destination, "pushcut", body); err != nil {
		return fmt.Errorf("%w: %w", model.ErrNotifierFailure, err)
	}
	return nil
}
