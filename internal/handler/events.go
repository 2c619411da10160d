package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/filipexyz/compass/internal/nats"
)

// EventQuerier reads the config change history.
type EventQuerier interface {
	Query(ctx context.Context, opts nats.QueryOptions) ([]nats.StoredEvent, error)
}

// EventsHandler serves the config change history.
type EventsHandler struct {
	reader EventQuerier
}

// NewEventsHandler creates a new EventsHandler. A nil reader answers 503.
func NewEventsHandler(reader EventQuerier) *EventsHandler {
	return &EventsHandler{reader: reader}
}

// List returns config events, oldest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "event history requires NATS")
		return
	}

	opts := nats.QueryOptions{
		ConfigKey: r.URL.Query().Get("configKey"),
		Limit:     100,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = min(l, 1000)
		}
	}

	// RFC3339 or unix seconds
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			opts.From = t
		} else if ts, err := strconv.ParseInt(fromStr, 10, 64); err == nil {
			opts.From = time.Unix(ts, 0)
		} else {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
	}

	events, err := h.reader.Query(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query events: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
