package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/filipexyz/compass/internal/monitor"
)

// Record status values.
const (
	StatusEnabled  = "0"
	StatusDisabled = "1"
)

// Soft delete markers.
const (
	DelFlagLive    = "0"
	DelFlagDeleted = "2"
)

const (
	maxKeyLen  = 100
	maxNameLen = 200
)

// MonitorConfig is a stored monitor page configuration.
type MonitorConfig struct {
	ID         int64     `json:"configId"`
	Key        string    `json:"configKey"`
	Name       string    `json:"configName"`
	ConfigJSON string    `json:"configJson"`
	Status     string    `json:"status"`
	Remark     string    `json:"remark,omitempty"`
	CreateBy   string    `json:"createBy,omitempty"`
	CreateTime time.Time `json:"createTime"`
	UpdateBy   string    `json:"updateBy,omitempty"`
	UpdateTime time.Time `json:"updateTime"`
}

// Enabled reports whether the record may be served.
func (c *MonitorConfig) Enabled() bool {
	return c.Status == StatusEnabled
}

// Validate checks the record fields. Only the first problem is reported.
func (c *MonitorConfig) Validate() error {
	key := strings.TrimSpace(c.Key)
	switch {
	case key == "":
		return errors.New("configKey is required")
	case utf8.RuneCountInString(key) > maxKeyLen:
		return fmt.Errorf("configKey too long, max %d chars", maxKeyLen)
	case strings.TrimSpace(c.Name) == "":
		return errors.New("configName is required")
	case utf8.RuneCountInString(c.Name) > maxNameLen:
		return fmt.Errorf("configName too long, max %d chars", maxNameLen)
	case c.Status != StatusEnabled && c.Status != StatusDisabled:
		return fmt.Errorf("status must be %q or %q", StatusEnabled, StatusDisabled)
	}
	return nil
}

// Decode parses the stored configuration document.
func (c *MonitorConfig) Decode() (*monitor.MonitorConfig, error) {
	if strings.TrimSpace(c.ConfigJSON) == "" {
		return nil, fmt.Errorf("config %q has no configJson", c.Key)
	}
	cfg, err := monitor.DecodeConfig([]byte(c.ConfigJSON))
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", c.Key, err)
	}
	return cfg, nil
}

// ConfigRequest is the request body for creating or updating a config.
type ConfigRequest struct {
	ID         int64           `json:"configId,omitempty"`
	Key        string          `json:"configKey"`
	Name       string          `json:"configName"`
	ConfigJSON json.RawMessage `json:"configJson"`
	Status     string          `json:"status,omitempty"`
	Remark     string          `json:"remark,omitempty"`
}

// Record builds the record described by the request. configJson may be a
// JSON document or a JSON string holding one.
func (r *ConfigRequest) Record() (*MonitorConfig, error) {
	doc := strings.TrimSpace(string(r.ConfigJSON))
	if strings.HasPrefix(doc, `"`) {
		var s string
		if err := json.Unmarshal(r.ConfigJSON, &s); err != nil {
			return nil, fmt.Errorf("configJson: %w", err)
		}
		doc = s
	}
	if doc == "null" {
		doc = ""
	}

	status := r.Status
	if status == "" {
		status = StatusEnabled
	}

	return &MonitorConfig{
		ID:         r.ID,
		Key:        strings.TrimSpace(r.Key),
		Name:       r.Name,
		ConfigJSON: doc,
		Status:     status,
		Remark:     r.Remark,
	}, nil
}

// ConfigQuery filters config listings. Key and Name match by substring.
type ConfigQuery struct {
	Key    string
	Name   string
	Status string
	Limit  int
	Offset int
}

// Matches reports whether c passes the query filters.
func (q ConfigQuery) Matches(c *MonitorConfig) bool {
	if q.Key != "" && !strings.Contains(c.Key, q.Key) {
		return false
	}
	if q.Name != "" && !strings.Contains(c.Name, q.Name) {
		return false
	}
	if q.Status != "" && c.Status != q.Status {
		return false
	}
	return true
}

// ConfigList is a page of config records.
type ConfigList struct {
	Configs []*MonitorConfig `json:"configs"`
	Total   int              `json:"total"`
}
