package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/target/ticketgate/internal/observability/notify"
)

type memoryCache struct {
	mu   sync.Mutex
	keys map[string][]byte
	err  error
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = value
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memoryCache) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	delete(m.keys, key)
	return ok, nil
}

func (m *memoryCache) SetIfNotExists(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value
	return true, nil
}

func (m *memoryCache) Health(context.Context) error { return nil }

func captureSink(received *[]notify.DispatchFailurePayload) notify.Sink {
	var mu sync.Mutex
	return notify.SinkFunc(func(_ context.Context, payload notify.DispatchFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		*received = append(*received, payload)
		return nil
	})
}

func TestServiceNotifyDispatchFailure(t *testing.T) {
	var received []notify.DispatchFailurePayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{{Name: "capture", Sink: captureSink(&received)}, {Name: "nil"}},
	})

	svc.NotifyDispatchFailure(context.Background(), notify.DispatchFailurePayload{
		InvocationID: "123",
		Stage:        "recording",
	})

	if len(received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	svc.NotifyDispatchFailure(context.Background(), notify.DispatchFailurePayload{})
}

func TestServiceLogsErrors(t *testing.T) {
	// Ensure we don't panic when sink returns an error.
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(context.Context, notify.DispatchFailurePayload) error {
					return errors.New("boom")
				}),
			},
		},
	})

	svc.NotifyDispatchFailure(context.Background(), notify.DispatchFailurePayload{InvocationID: "123"})
}

func TestServiceSuppressesRepeatedErrorClass(t *testing.T) {
	var received []notify.DispatchFailurePayload
	cache := &memoryCache{keys: map[string][]byte{}}
	svc := NewService(Options{
		Sinks: []SinkRegistration{{Name: "capture", Sink: captureSink(&received)}},
		Dedup: cache,
	})

	ctx := context.Background()
	svc.NotifyDispatchFailure(ctx, notify.DispatchFailurePayload{InvocationID: "a", ErrorClass: "config_unavailable"})
	svc.NotifyDispatchFailure(ctx, notify.DispatchFailurePayload{InvocationID: "b", ErrorClass: "config_unavailable"})
	svc.NotifyDispatchFailure(ctx, notify.DispatchFailurePayload{InvocationID: "c", ErrorClass: "persistence_failure"})

	if len(received) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(received))
	}
	if received[0].InvocationID != "a" || received[1].InvocationID != "c" {
		t.Fatalf("unexpected payloads: %+v", received)
	}
}

func TestServiceDedupFailsOpen(t *testing.T) {
	var received []notify.DispatchFailurePayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{{Name: "capture", Sink: captureSink(&received)}},
		Dedup: &memoryCache{keys: map[string][]byte{}, err: errors.New("redis down")},
	})

	svc.NotifyDispatchFailure(context.Background(), notify.DispatchFailurePayload{InvocationID: "a", ErrorClass: "x"})
	if len(received) != 1 {
		t.Fatalf("expected delivery when dedup fails, got %d", len(received))
	}
}
