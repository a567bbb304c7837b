// Package httpx provides the HTTP API for triggering and inspecting ticket dispatches.
package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/ticketgate/internal/domain/model"
)

// DispatchRunner is the write side used by the trigger endpoint.
type DispatchRunner interface {
	Dispatch(ctx context.Context) (*model.DispatchOutcome, error)
	Status(ctx context.Context) (*model.GateStatus, error)
}

// IneligibleMessage is returned when the gate interval has not elapsed.
const IneligibleMessage = "Not enough time passed since last send"

// DispatchHandlers provides HTTP handlers for the dispatch gate.
type DispatchHandlers struct {
	Svc    DispatchRunner
	Logger *slog.Logger
}

type dispatchResponse struct {
	Success             bool               `json:"success"`
	Value               model.Amount       `json:"value"`
	DeliveryRate        model.DeliveryRate `json:"delivery_rate"`
	NextIntervalMinutes int                `json:"next_interval_minutes"`
	NotifyStatus        model.NotifyStatus `json:"notify_status"`
	RecordID            string             `json:"record_id"`
}

type ineligibleResponse struct {
	Message          string  `json:"message"`
	MinutesRemaining float64 `json:"minutes_remaining"`
}

// Trigger runs one dispatch invocation. Both a dispatch and an ineligible gate answer 200.
func (h *DispatchHandlers) Trigger(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Dispatch(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, DispatchResponseBody(out))
}

// DispatchResponseBody renders an outcome the way the trigger endpoint answers it.
func DispatchResponseBody(out *model.DispatchOutcome) any {
	if !out.Dispatched() {
		return ineligibleResponse{
			Message:          IneligibleMessage,
			MinutesRemaining: out.MinutesRemaining,
		}
	}
	return dispatchResponse{
		Success:             true,
		Value:               out.Record.Value,
		DeliveryRate:        out.Record.DeliveryRate,
		NextIntervalMinutes: out.NextIntervalMinutes,
		NotifyStatus:        out.Record.NotifyStatus,
		RecordID:            out.Record.ID,
	}
}

// Config returns the gate row and its computed next eligible time.
func (h *DispatchHandlers) Config(w http.ResponseWriter, r *http.Request) {
	st, err := h.Svc.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}
