package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/ticketgate/internal/domain/model"
	"github.com/target/ticketgate/internal/service"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 500

	defaultHeartbeat = 25 * time.Second
)

// RecordReader is the read side of the dispatch log.
type RecordReader interface {
	List(ctx context.Context, opts model.RecordListOptions) ([]*model.DispatchRecord, error)
	Stats(ctx context.Context, filter model.RecordFilter) (*model.RecordStats, error)
	DailyTotals(ctx context.Context, filter model.RecordFilter) ([]model.DailyTotal, error)
	Overview(ctx context.Context) (*model.DispatchOverview, error)
	Latest(ctx context.Context) (*model.DispatchRecord, error)
	Subscribe() (func(), <-chan struct{}, error)
}

// RecordHandlers provides HTTP handlers for dispatch history.
type RecordHandlers struct {
	Svc       RecordReader
	Heartbeat time.Duration
	Logger    *slog.Logger
}

type listResponse struct {
	Records []*model.DispatchRecord `json:"records"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

// List returns records newest first, filtered by time and value range.
func (h *RecordHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseRecordFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit, offset := ParseLimitOffset(r, defaultRecordLimit, maxRecordLimit)

	recs, err := h.Svc.List(r.Context(), model.RecordListOptions{Filter: filter, Limit: limit, Offset: offset})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []*model.DispatchRecord{}
	}
	WriteJSON(w, http.StatusOK, listResponse{Records: recs, Limit: limit, Offset: offset})
}

// Stats returns revenue, count and averages for the filtered records.
func (h *RecordHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseRecordFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats, err := h.Svc.Stats(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// Daily returns revenue and count grouped per UTC day.
func (h *RecordHandlers) Daily(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseRecordFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	days, err := h.Svc.DailyTotals(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if days == nil {
		days = []model.DailyTotal{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"days": days})
}

// Overview returns the gate, latest records and all-time stats in one response.
func (h *RecordHandlers) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Svc.Overview(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ov)
}

// Stream emits a Server-Sent "change" event carrying the newest record after every committed dispatch.
func (h *RecordHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	unsub, ch, err := h.Svc.Subscribe()
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, service.ErrChangeFeedDisabled) {
			code = http.StatusNotImplemented
		}
		WriteError(w, ErrorParams{Code: code, ErrCode: "stream_unavailable", Err: err})
		return
	}
	defer unsub()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger().WarnContext(r.Context(), "stream flush unsupported", "error", err)
		return
	}

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := h.writeChange(ctx, w); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h *RecordHandlers) writeChange(ctx context.Context, w http.ResponseWriter) error {
	payload := []byte("{}")
	rec, err := h.Svc.Latest(ctx)
	switch {
	case err != nil:
		h.logger().WarnContext(ctx, "stream could not load latest record", "error", err)
	case rec != nil:
		if b, err := json.Marshal(rec); err == nil {
			payload = b
		}
	}
	_, err = fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
	return err
}

func (h *RecordHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
