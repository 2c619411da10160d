package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/filipexyz/compass/internal/monitor"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long fetched data stays cached.
const DefaultTTL = 5 * time.Minute

var (
	// ErrDisabled is returned for configs whose status is disabled.
	ErrDisabled = errors.New("config is disabled")
	// ErrNoSource is returned for configs without a configuration document.
	ErrNoSource = errors.New("config has no configuration document")
)

// ConfigSource looks up config records by key.
type ConfigSource interface {
	GetByKey(ctx context.Context, key string) (*domain.MonitorConfig, error)
}

// Fetcher obtains the raw data of a config.
type Fetcher interface {
	Fetch(ctx context.Context, cfg *monitor.MonitorConfig, params map[string]any) (any, error)
}

// Recorder observes cache and fetch outcomes.
type Recorder interface {
	CacheResult(hit bool)
	FetchDone(configKey string, d time.Duration, err error)
}

// Page is a rendered monitor page.
type Page struct {
	Data any                `json:"data"`
	View *monitor.ViewModel `json:"view"`
}

// Service resolves config keys to page data and view models.
type Service struct {
	configs  ConfigSource
	fetcher  Fetcher
	cache    Cache
	ttl      time.Duration
	parser   *monitor.Parser
	recorder Recorder
	logger   *slog.Logger

	group singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches fetched data in c for ttl. A zero ttl uses DefaultTTL.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithParser replaces the view model parser.
func WithParser(p *monitor.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithRecorder reports cache and fetch outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service.
func NewService(configs ConfigSource, fetcher Fetcher, opts ...Option) *Service {
	s := &Service{
		configs: configs,
		fetcher: fetcher,
		ttl:     DefaultTTL,
		parser:  monitor.NewParser(nil),
		logger:  slog.Default().With("component", "datasource"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config loads and decodes the configuration of key.
func (s *Service) Config(ctx context.Context, key string) (*monitor.MonitorConfig, error) {
	rec, err := s.configs.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !rec.Enabled() {
		return nil, ErrDisabled
	}
	if rec.ConfigJSON == "" {
		return nil, ErrNoSource
	}
	return rec.Decode()
}

// Data returns the page data of key for params.
func (s *Service) Data(ctx context.Context, key string, params map[string]any) (any, error) {
	cfg, err := s.Config(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.data(ctx, key, cfg, params)
}

// Render returns the page data and its view model.
func (s *Service) Render(ctx context.Context, key string, params map[string]any) (*Page, error) {
	cfg, err := s.Config(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := s.data(ctx, key, cfg, params)
	if err != nil {
		return nil, err
	}
	return &Page{Data: data, View: s.parser.Parse(cfg, data)}, nil
}

// SelectOptions returns the dynamic options of the select items of key.
func (s *Service) SelectOptions(ctx context.Context, key string, params map[string]any) (map[string][]string, error) {
	cfg, err := s.Config(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := s.data(ctx, key, cfg, params)
	if err != nil {
		return nil, err
	}
	return monitor.SelectOptions(cfg, data), nil
}

// Invalidate drops the cached data of key.
func (s *Service) Invalidate(ctx context.Context, key string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, key)
}

func (s *Service) data(ctx context.Context, key string, cfg *monitor.MonitorConfig, params map[string]any) (any, error) {
	cacheKey := CacheKey(key, params)

	if s.cache != nil {
		if v, ok := s.cached(ctx, cacheKey); ok {
			s.cacheResult(true)
			return v, nil
		}
		s.cacheResult(false)
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		start := time.Now()
		raw, err := s.fetcher.Fetch(ctx, cfg, params)
		if s.recorder != nil {
			s.recorder.FetchDone(key, time.Since(start), err)
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", key, err)
		}

		data := MergeParams(raw, params)
		if s.cache != nil {
			s.store(ctx, cacheKey, data)
		}
		return data, nil
	})
	return v, err
}

func (s *Service) cached(ctx context.Context, cacheKey string) (any, bool) {
	b, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.logger.Warn("cache read failed", "key", cacheKey, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		s.logger.Warn("cache entry corrupt", "key", cacheKey, "error", err)
		return nil, false
	}
	return v, true
}

func (s *Service) store(ctx context.Context, cacheKey string, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("cache encode failed", "key", cacheKey, "error", err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey, b, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", cacheKey, "error", err)
	}
}

func (s *Service) cacheResult(hit bool) {
	if s.recorder != nil {
		s.recorder.CacheResult(hit)
	}
}

// MergeParams exposes the request parameters under "params". Non-object data
// is wrapped under "value".
func MergeParams(data any, params map[string]any) map[string]any {
	p := maps.Clone(params)
	if p == nil {
		p = map[string]any{}
	}

	out, ok := data.(map[string]any)
	switch {
	case ok && out != nil:
		out = maps.Clone(out)
	case ok:
		out = map[string]any{}
	default:
		out = map[string]any{}
		if data != nil {
			out["value"] = data
		}
	}
	out["params"] = p
	return out
}
