package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/target/ticketgate/internal/domain/model"
)

// DispatchConfig contains the catalog, notifier and trigger settings.
type DispatchConfig struct {
	// DestinationURL receives one webhook POST per dispatch.
	DestinationURL string `env:"DISPATCH_DESTINATION_URL"`

	// VariantValues lists the selectable ticket values in major units.
	VariantValues []string `env:"DISPATCH_VARIANT_VALUES" envDefault:"57.90,97.98,39.00"`

	NotifyTimeout    time.Duration `env:"DISPATCH_NOTIFY_TIMEOUT"     envDefault:"5s"`
	NotifyTitle      string        `env:"DISPATCH_NOTIFY_TITLE"       envDefault:"Novo Ticket Enviado"`
	NotifyTextPrefix string        `env:"DISPATCH_NOTIFY_TEXT_PREFIX" envDefault:"Ticket de €"`

	// TriggerInterval is how often the trigger service invokes the gate.
	TriggerInterval time.Duration `env:"DISPATCH_TRIGGER_INTERVAL" envDefault:"1m"`

	// ManualRateLimit is the sustained rate (per second) of POST /api/dispatch. Zero disables the limiter.
	ManualRateLimit float64 `env:"DISPATCH_MANUAL_RATE_LIMIT" envDefault:"1"`
	ManualRateBurst int     `env:"DISPATCH_MANUAL_RATE_BURST" envDefault:"3"`
}

const (
	minTriggerInterval = 5 * time.Second
	maxNotifyTimeout   = 30 * time.Second
)

// Sanitize applies guardrails to dispatch configuration values.
func (c *DispatchConfig) Sanitize() {
	c.DestinationURL = strings.TrimSpace(c.DestinationURL)
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 5 * time.Second
	}
	if c.NotifyTimeout > maxNotifyTimeout {
		c.NotifyTimeout = maxNotifyTimeout
	}
	if c.TriggerInterval < minTriggerInterval {
		c.TriggerInterval = minTriggerInterval
	}
	if c.ManualRateLimit < 0 {
		c.ManualRateLimit = 0
	}
	if c.ManualRateBurst < 1 {
		c.ManualRateBurst = 1
	}
}

// Values parses VariantValues. An empty list yields nil so callers fall back to the default catalog.
func (c *DispatchConfig) Values() ([]model.Amount, error) {
	out := make([]model.Amount, 0, len(c.VariantValues))
	for _, raw := range c.VariantValues {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		v, err := model.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("DISPATCH_VARIANT_VALUES: %w", err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("DISPATCH_VARIANT_VALUES: %s must be positive", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Validate checks the settings required to dispatch.
func (c *DispatchConfig) Validate() error {
	if c.DestinationURL == "" {
		return errors.New("DISPATCH_DESTINATION_URL is required")
	}
	u, err := url.Parse(c.DestinationURL)
	if err != nil {
		return fmt.Errorf("DISPATCH_DESTINATION_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("DISPATCH_DESTINATION_URL must use http or https scheme")
	}
	if u.Host == "" {
		return errors.New("DISPATCH_DESTINATION_URL must have a valid host")
	}
	if _, err := c.Values(); err != nil {
		return err
	}
	return nil
}
