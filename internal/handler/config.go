package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/filipexyz/compass/internal/monitor"
	"github.com/filipexyz/compass/internal/store"
	"github.com/go-chi/chi/v5"
)

// apiOwner marks records written through the HTTP API.
const apiOwner = "api"

// ChangeNotifier is told about every committed config write.
type ChangeNotifier interface {
	ConfigChanged(ctx context.Context, action domain.ConfigAction, cfg *domain.MonitorConfig)
}

// ConfigHandler handles monitor config CRUD operations.
type ConfigHandler struct {
	store    store.Store
	notifier ChangeNotifier
}

// NewConfigHandler creates a new ConfigHandler. notifier may be nil.
func NewConfigHandler(st store.Store, notifier ChangeNotifier) *ConfigHandler {
	return &ConfigHandler{store: st, notifier: notifier}
}

// List lists config records matching the query filters.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := domain.ConfigQuery{
		Key:    q.Get("configKey"),
		Name:   q.Get("configName"),
		Status: q.Get("status"),
	}

	if v := q.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = l
	}
	if v := q.Get("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil || o < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		query.Offset = o
	}

	list, err := h.store.List(r.Context(), query)
	if err != nil {
		slog.Error("failed to list configs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list configs")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Get retrieves a config record by ID.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "configId"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid configId")
		return
	}

	cfg, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "get", err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// GetByKey retrieves a config record by its key.
func (h *ConfigHandler) GetByKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "configKey")
	if strings.TrimSpace(key) == "" {
		writeError(w, http.StatusBadRequest, "configKey is required")
		return
	}

	cfg, err := h.store.GetByKey(r.Context(), key)
	if err != nil {
		h.writeStoreError(w, "get", err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// Create creates a new config record.
func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	rec.ID = 0
	rec.CreateBy = apiOwner
	rec.UpdateBy = apiOwner

	created, err := h.store.Create(r.Context(), rec)
	if err != nil {
		h.writeStoreError(w, "create", err)
		return
	}

	h.notify(r.Context(), domain.ConfigCreated, created)
	writeJSON(w, http.StatusCreated, created)
}

// Update replaces the record identified by the configId of the body.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	if rec.ID <= 0 {
		writeError(w, http.StatusBadRequest, "configId is required")
		return
	}

	prev, err := h.store.Get(r.Context(), rec.ID)
	if err != nil {
		h.writeStoreError(w, "update", err)
		return
	}

	rec.UpdateBy = apiOwner

	updated, err := h.store.Update(r.Context(), rec)
	if err != nil {
		h.writeStoreError(w, "update", err)
		return
	}

	// A renamed key leaves the old key's cached data behind.
	if prev.Key != updated.Key {
		h.notify(r.Context(), domain.ConfigDeleted, prev)
	}
	h.notify(r.Context(), domain.ConfigUpdated, updated)
	writeJSON(w, http.StatusOK, updated)
}

// Delete soft-deletes the comma-separated list of config IDs.
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(chi.URLParam(r, "configIds"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.store.Delete(r.Context(), ids...)
	if err != nil {
		h.writeStoreError(w, "delete", err)
		return
	}
	if len(deleted) == 0 {
		writeError(w, http.StatusNotFound, "config not found")
		return
	}

	for _, cfg := range deleted {
		h.notify(r.Context(), domain.ConfigDeleted, cfg)
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": len(deleted)})
}

// decodeRecord reads a ConfigRequest and checks both the record fields and
// the configuration document. The stored document is normalized to JSON.
func (h *ConfigHandler) decodeRecord(w http.ResponseWriter, r *http.Request) (*domain.MonitorConfig, bool) {
	var req domain.ConfigRequest
	if !readJSON(w, r, &req) {
		return nil, false
	}

	rec, err := req.Record()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	if rec.ConfigJSON != "" {
		if res := monitor.ValidateDocument([]byte(rec.ConfigJSON)); !res.Valid {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "invalid configJson",
				"errors": res.Errors,
			})
			return nil, false
		}
		doc, err := monitor.ToJSON([]byte(rec.ConfigJSON))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid configJson: "+err.Error())
			return nil, false
		}
		rec.ConfigJSON = string(doc)
	}

	return rec, true
}

func (h *ConfigHandler) notify(ctx context.Context, action domain.ConfigAction, cfg *domain.MonitorConfig) {
	if h.notifier != nil {
		h.notifier.ConfigChanged(ctx, action, cfg)
	}
}

func (h *ConfigHandler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "config not found")
	case errors.Is(err, store.ErrDuplicateKey):
		writeError(w, http.StatusConflict, "config with this key already exists")
	default:
		slog.Error("config store failure", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op+" config")
	}
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("invalid configId: " + part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("configIds are required")
	}
	return ids, nil
}
