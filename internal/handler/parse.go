package handler

import (
	"encoding/json"
	"net/http"

	"github.com/filipexyz/compass/internal/monitor"
)

// ParseRequest is the body of a stateless preview. Config may be a
// configuration object or a string holding a JSON or YAML document.
type ParseRequest struct {
	Config json.RawMessage `json:"config"`
	Data   any             `json:"data"`
}

// ParseHandler renders configurations that are not stored.
type ParseHandler struct {
	parser *monitor.Parser
}

// NewParseHandler creates a new ParseHandler.
func NewParseHandler(parser *monitor.Parser) *ParseHandler {
	return &ParseHandler{parser: parser}
}

// Parse returns the view model of the posted config and data.
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !readJSON(w, r, &req) {
		return
	}

	doc := []byte(req.Config)
	var text string
	if err := json.Unmarshal(req.Config, &text); err == nil {
		doc = []byte(text)
	}

	if res := monitor.ValidateDocument(doc); !res.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid config",
			"errors": res.Errors,
		})
		return
	}

	cfg, err := monitor.DecodeConfig(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.parser.Parse(cfg, req.Data))
}
