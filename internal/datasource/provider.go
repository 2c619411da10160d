// Package datasource fetches, caches and renders the data behind monitor pages.
package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/filipexyz/compass/internal/monitor"
	"github.com/itchyny/gojq"
	"golang.org/x/time/rate"
)

const maxUpstreamBody = 4 << 20 // 4MB

// UpstreamError is returned when the upstream answers with a non-2xx status.
type UpstreamError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// ProviderConfig configures an HTTP Provider.
type ProviderConfig struct {
	Timeout time.Duration
	// RatePerSecond caps upstream calls across all configs. Zero disables it.
	RatePerSecond float64
	Burst         int
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:       10 * time.Second,
		RatePerSecond: 50,
		Burst:         100,
	}
}

// Provider obtains page data from the upstream named by a config.
type Provider struct {
	client  *http.Client
	limiter *rate.Limiter
	filters sync.Map // map[string]*gojq.Code
}

// NewProvider creates a Provider.
func NewProvider(cfg ProviderConfig) *Provider {
	p := &Provider{
		client: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return p
}

// Fetch returns the data of cfg for params. Without an upstream URL the
// params are the data. Upstream responses go through the optional jq
// transform; only its first output is kept.
func (p *Provider) Fetch(ctx context.Context, cfg *monitor.MonitorConfig, params map[string]any) (any, error) {
	if cfg.APIURL == "" {
		return maps.Clone(params), nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("upstream rate limit: %w", err)
		}
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	slog.Debug("upstream fetched",
		"url", cfg.APIURL,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"bytes", len(raw),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{URL: cfg.APIURL, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	var data any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode upstream response: %w", err)
		}
	}

	if cfg.APITransform == "" {
		return data, nil
	}
	return p.transform(ctx, cfg.APITransform, data)
}

func (p *Provider) transform(ctx context.Context, filter string, input any) (any, error) {
	code, err := p.compile(filter)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, input)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("apiTransform: %w", err)
	}
	return v, nil
}

func (p *Provider) compile(filter string) (*gojq.Code, error) {
	if c, ok := p.filters.Load(filter); ok {
		return c.(*gojq.Code), nil
	}

	code, err := CompileFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("apiTransform: %w", err)
	}
	actual, _ := p.filters.LoadOrStore(filter, code)
	return actual.(*gojq.Code), nil
}

// CompileFilter parses and compiles a jq filter.
func CompileFilter(filter string) (*gojq.Code, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("parse jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile jq expression: %w", err)
	}
	return code, nil
}
