package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config is a stored monitor config record.
type Config struct {
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

// ConfigList is a page of config records.
type ConfigList struct {
	Configs []Config `json:"configs"`
	Total   int      `json:"total"`
}

// ConfigInput is the body of create and update calls. ConfigJSON holds the
// configuration document as a JSON value or as a JSON/YAML string.
type ConfigInput struct {
	ID         int64           `json:"configId,omitempty"`
	Key        string          `json:"configKey"`
	Name       string          `json:"configName"`
	ConfigJSON json.RawMessage `json:"configJson,omitempty"`
	Status     string          `json:"status,omitempty"`
	Remark     string          `json:"remark,omitempty"`
}

// ConfigListOptions filters config listings.
type ConfigListOptions struct {
	Key    string
	Name   string
	Status string
	Limit  int
	Offset int
}

// ConfigList lists config records.
func (c *Client) ConfigList(ctx context.Context, opts ConfigListOptions) (*ConfigList, error) {
	q := url.Values{}
	if opts.Key != "" {
		q.Set("configKey", opts.Key)
	}
	if opts.Name != "" {
		q.Set("configName", opts.Name)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/monitor/config/list"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result ConfigList
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ConfigGet retrieves a config record by ID.
func (c *Client) ConfigGet(ctx context.Context, id int64) (*Config, error) {
	var cfg Config
	if err := c.do(ctx, "GET", "/monitor/config/"+strconv.FormatInt(id, 10), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigGetByKey retrieves a config record by key.
func (c *Client) ConfigGetByKey(ctx context.Context, key string) (*Config, error) {
	var cfg Config
	if err := c.do(ctx, "GET", "/monitor/config/key/"+url.PathEscape(key), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigCreate creates a config record.
func (c *Client) ConfigCreate(ctx context.Context, in ConfigInput) (*Config, error) {
	var cfg Config
	if err := c.do(ctx, "POST", "/monitor/config", in, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigUpdate replaces the config record identified by in.ID.
func (c *Client) ConfigUpdate(ctx context.Context, in ConfigInput) (*Config, error) {
	var cfg Config
	if err := c.do(ctx, "PUT", "/monitor/config", in, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigDelete deletes config records and returns how many existed.
func (c *Client) ConfigDelete(ctx context.Context, ids ...int64) (int, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	var result struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(ctx, "DELETE", "/monitor/config/"+strings.Join(parts, ","), nil, &result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}
