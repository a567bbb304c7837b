package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// ReadTimeout bounds request header and body reads.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`

	// StreamHeartbeat is the comment interval on /api/dispatch/stream connections.
	StreamHeartbeat time.Duration `env:"HTTP_STREAM_HEARTBEAT" envDefault:"25s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 30 * time.Second
	}
	if h.StreamHeartbeat < time.Second {
		h.StreamHeartbeat = time.Second
	}
}
