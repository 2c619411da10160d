package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Page is the data of a monitor page with its view model.
type Page struct {
	Data json.RawMessage `json:"data"`
	View json.RawMessage `json:"view"`
}

// Render fetches the data of a config key and renders its view model.
func (c *Client) Render(ctx context.Context, key string, params map[string]any) (*Page, error) {
	var page Page
	if err := c.do(ctx, "POST", "/monitor/data/"+url.PathEscape(key), orEmpty(params), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SelectOptions returns the dynamic options of each select form item.
func (c *Client) SelectOptions(ctx context.Context, key string, params map[string]any) (map[string][]string, error) {
	var options map[string][]string
	path := "/monitor/data/" + url.PathEscape(key) + "/selectOptions"
	if err := c.do(ctx, "POST", path, orEmpty(params), &options); err != nil {
		return nil, err
	}
	return options, nil
}

// Parse renders a configuration document that is not stored. config is a
// JSON value or a JSON/YAML document string.
func (c *Client) Parse(ctx context.Context, config json.RawMessage, data any) (json.RawMessage, error) {
	body := map[string]any{"config": config, "data": data}
	var view json.RawMessage
	if err := c.do(ctx, "POST", "/monitor/parse", body, &view); err != nil {
		return nil, err
	}
	return view, nil
}

// Event is a config change event.
type Event struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ConfigID  int64     `json:"configId"`
	ConfigKey string    `json:"configKey"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StoredEvent is an event with its stream metadata.
type StoredEvent struct {
	Seq       uint64    `json:"seq"`
	Event     Event     `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// EventsListResponse is the response from listing events.
type EventsListResponse struct {
	Events []StoredEvent `json:"events"`
	Count  int           `json:"count"`
}

// Events lists config change events of key, or of every key when key is empty.
func (c *Client) Events(ctx context.Context, key string, from time.Time, limit int) (*EventsListResponse, error) {
	q := url.Values{}
	if key != "" {
		q.Set("configKey", key)
	}
	if !from.IsZero() {
		q.Set("from", from.Format(time.RFC3339))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/monitor/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result EventsListResponse
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func orEmpty(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	return params
}
