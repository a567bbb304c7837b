package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/target/ticketgate/internal/domain/model"
)

func postDispatch(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/dispatch", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTrigger_Dispatched(t *testing.T) {
	svc := &fakeDispatch{outcome: &model.DispatchOutcome{
		Status: model.DispatchStatusDispatched,
		Record: &model.DispatchRecord{
			ID:           "rec-1",
			Value:        5790,
			DeliveryRate: 703,
			NotifyStatus: model.NotifyStatusOK,
		},
		NextIntervalMinutes: 12,
	}}
	rec := postDispatch(t, NewRouter(RouterServices{Dispatch: svc}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"success":true,"value":57.90,"delivery_rate":"70.3","next_interval_minutes":12,"notify_status":"ok","record_id":"rec-1"}`,
		rec.Body.String())
}

func TestTrigger_Ineligible(t *testing.T) {
	svc := &fakeDispatch{outcome: &model.DispatchOutcome{
		Status:           model.DispatchStatusIneligible,
		MinutesRemaining: 3.5,
	}}
	rec := postDispatch(t, NewRouter(RouterServices{Dispatch: svc}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Not enough time passed since last send","minutes_remaining":3.5}`, rec.Body.String())
}

func TestTrigger_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"config unavailable", fmt.Errorf("%w: timeout", model.ErrConfigUnavailable), http.StatusServiceUnavailable},
		{"persistence failure", fmt.Errorf("%w: insert", model.ErrPersistenceFailure), http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postDispatch(t, NewRouter(RouterServices{Dispatch: &fakeDispatch{err: tt.err}}))
			require.Equal(t, tt.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestTrigger_RateLimited(t *testing.T) {
	svc := &fakeDispatch{outcome: &model.DispatchOutcome{Status: model.DispatchStatusIneligible}}
	router := NewRouter(RouterServices{Dispatch: svc, ManualLimiter: rate.NewLimiter(rate.Every(time.Hour), 2)})

	assert.Equal(t, http.StatusOK, postDispatch(t, router).Code)
	assert.Equal(t, http.StatusOK, postDispatch(t, router).Code)
	rec := postDispatch(t, router)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, svc.calls)
}

func TestTrigger_MethodNotAllowed(t *testing.T) {
	router := NewRouter(RouterServices{Dispatch: &fakeDispatch{}})
	req := httptest.NewRequest(http.MethodGet, "/api/dispatch", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConfigHandler(t *testing.T) {
	last := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	next := last.Add(10 * time.Minute)
	svc := &fakeDispatch{status: &model.GateStatus{
		Config:           model.DispatchConfig{ID: "cfg", LastSentAt: &last, IntervalMinutes: 10},
		NextEligibleAt:   &next,
		MinutesRemaining: 4,
	}}
	router := NewRouter(RouterServices{Dispatch: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/dispatch/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.GateStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 10, got.Config.IntervalMinutes)
	require.NotNil(t, got.NextEligibleAt)
	assert.True(t, next.Equal(*got.NextEligibleAt))
	assert.False(t, got.Eligible)
}

func TestConfigHandler_Unavailable(t *testing.T) {
	router := NewRouter(RouterServices{Dispatch: &fakeDispatch{err: model.ErrConfigUnavailable}})
	req := httptest.NewRequest(http.MethodGet, "/api/dispatch/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
