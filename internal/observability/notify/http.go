package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s webhook %s", e.Service, e.Status)
	}
	return fmt.Sprintf("%s webhook %s: %s", e.Service, e.Status, e.Body)
}

const maxErrorBody = 4 << 10

// PostJSON sends body to url once and returns nil only for a 2xx response.
// service labels errors, e.g. "slack".
func PostJSON(ctx context.Context, hc *http.Client, url, service string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResponse(resp, service)
	}
	return drain(resp, service)
}

func drain(resp *http.Response, service string) error {
	_, copyErr := io.Copy(io.Discard, resp.Body)
	closeErr := resp.Body.Close()
	switch {
	case copyErr != nil && closeErr != nil:
		return errors.Join(
			fmt.Errorf("drain %s response body: %w", service, copyErr),
			fmt.Errorf("close response body: %w", closeErr),
		)
	case copyErr != nil:
		return fmt.Errorf("drain %s response body: %w", service, copyErr)
	case closeErr != nil:
		return fmt.Errorf("close response body: %w", closeErr)
	}
	return nil
}

func errorResponse(resp *http.Response, service string) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return errors.Join(
			fmt.Errorf("read %s error response: %w", service, readErr),
			closeErr,
		)
	}
	return &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(respBody)),
	}
}

// Retry calls fn up to attempts times with a linear backoff between failures.
func Retry(ctx context.Context, attempts int, fn func(context.Context) error) error {
	attempts = max(attempts, 1)
	var lastErr error
	for attempt := range attempts {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * 200 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// FallbackString returns fallback when value is blank.
func FallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
