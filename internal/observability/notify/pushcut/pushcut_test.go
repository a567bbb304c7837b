package pushcut

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/ticketgate/internal/domain/model"
	"github.com/target/ticketgate/internal/observability/notify"
)

func TestBuildMessage(t *testing.T) {
	c := NewClient(Config{})
	msg := c.BuildMessage(model.Variant{Value: 5790}, 703)
	assert.Equal(t, Message{
		Text:         "Ticket de €57.90",
		Title:        "Novo Ticket Enviado",
		DeliveryRate: "70.3%",
	}, msg)

	custom := NewClient(Config{Title: "New ticket", TextPrefix: "Ticket $"})
	assert.Equal(t, "Ticket $39.00", custom.BuildMessage(model.Variant{Value: 3900}, 553).Text)
	assert.Equal(t, "New ticket", custom.BuildMessage(model.Variant{Value: 3900}, 553).Title)
}

func TestNotify_Success(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{Timeout: time.Second})
	err := c.Notify(context.Background(), model.Variant{Value: 9798, Destination: srv.URL}, 817)
	require.NoError(t, err)
	assert.Equal(t, "Ticket de €97.98", got.Text)
	assert.Equal(t, "81.7%", got.DeliveryRate)
}

func TestNotify_NonSuccessIsSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{Timeout: time.Second})
	err := c.Notify(context.Background(), model.Variant{Value: 3900, Destination: srv.URL}, 601)
	require.ErrorIs(t, err, model.ErrNotifierFailure)

	var statusErr *notify.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "nope", statusErr.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotify_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{Timeout: 50 * time.Millisecond})
	start := time.Now()
	err := c.Notify(context.Background(), model.Variant{Value: 3900, Destination: srv.URL}, 601)
	require.ErrorIs(t, err, model.ErrNotifierFailure)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNotify_Unreachable(t *testing.T) {
	c := NewClient(Config{Timeout: time.Second})
	err := c.Notify(context.Background(), model.Variant{Value: 3900, Destination: "http://127.0.0.1:1/hook"}, 601)
	require.ErrorIs(t, err, model.ErrNotifierFailure)

	err = c.Notify(context.Background(), model.Variant{Value: 3900}, 601)
	require.ErrorIs(t, err, model.ErrNotifierFailure)
}
