package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/filipexyz/compass/internal/datasource"
	"github.com/filipexyz/compass/internal/store"
	"github.com/go-chi/chi/v5"
)

// PageService renders monitor pages from stored configs.
type PageService interface {
	Render(ctx context.Context, key string, params map[string]any) (*datasource.Page, error)
	SelectOptions(ctx context.Context, key string, params map[string]any) (map[string][]string, error)
}

// DataHandler serves monitor page data.
type DataHandler struct {
	pages PageService
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(pages PageService) *DataHandler {
	return &DataHandler{pages: pages}
}

// Render returns the page data of a config key with its view model.
func (h *DataHandler) Render(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "configKey")
	params, ok := readParams(w, r)
	if !ok {
		return
	}

	page, err := h.pages.Render(r.Context(), key, params)
	if err != nil {
		writeDataError(w, key, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// SelectOptions returns the dynamic options of each select form item.
func (h *DataHandler) SelectOptions(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "configKey")
	params, ok := readParams(w, r)
	if !ok {
		return
	}

	options, err := h.pages.SelectOptions(r.Context(), key, params)
	if err != nil {
		writeDataError(w, key, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

func readParams(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	params := map[string]any{}
	if !readJSON(w, r, &params) {
		return nil, false
	}
	if params == nil {
		// body was a JSON null
		params = map[string]any{}
	}
	return params, true
}

func writeDataError(w http.ResponseWriter, key string, err error) {
	var upstream *datasource.UpstreamError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "config not found")
	case errors.Is(err, datasource.ErrDisabled):
		writeError(w, http.StatusForbidden, "config is disabled")
	case errors.Is(err, datasource.ErrNoSource):
		writeError(w, http.StatusUnprocessableEntity, "config has no configuration document")
	case errors.Is(err, datasource.ErrNoDatabase):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &upstream):
		slog.Warn("upstream data request failed", "config_key", key, "error", err)
		writeError(w, http.StatusBadGateway, upstream.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "data request timed out")
	default:
		slog.Error("failed to load page data", "config_key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load data: "+err.Error())
	}
}
