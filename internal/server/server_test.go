package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filipexyz/compass/internal/config"
	"github.com/filipexyz/compass/internal/datasource"
	"github.com/filipexyz/compass/internal/domain"
	"github.com/filipexyz/compass/internal/metrics"
	"github.com/filipexyz/compass/internal/store"
	"github.com/filipexyz/compass/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*domain.ConfigEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event *domain.ConfigEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testEnv struct {
	srv       *Server
	handler   http.Handler
	cache     *datasource.MemoryCache
	publisher *fakePublisher
	hub       *websocket.Hub
	metrics   *metrics.Collector
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	m := metrics.New()
	cache := datasource.NewMemoryCache(time.Minute)
	t.Cleanup(func() { cache.Close() })

	pages := datasource.NewService(st, datasource.NewProvider(datasource.DefaultProviderConfig()),
		datasource.WithCache(cache, time.Minute),
		datasource.WithRecorder(m),
	)
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	pub := &fakePublisher{}
	changes := NewChanges(pages, pub, m, hub)

	srv := New(cfg, Deps{
		Store:   st,
		Pages:   pages,
		Changes: changes,
		Cache:   cache,
		Hub:     hub,
		Metrics: m,
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &testEnv{srv: srv, handler: srv.Handler(), cache: cache, publisher: pub, hub: hub, metrics: m}
}

func testConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		RateLimit:   1000,
		RateBurst:   1000,
		CORSOrigins: []string{"http://localhost:5173"},
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) scrape(t *testing.T) string {
	t.Helper()
	w := e.do(t, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	return string(body)
}

func TestServer_ConfigLifecycle(t *testing.T) {
	env := newTestEnv(t, testConfig())

	create := `{"configKey":"orders","configName":"Orders","configJson":{"code":"orders","name":"Orders","descItems":[{"label":"Region","expression":"params.region"}]}}`
	if w := env.do(t, "POST", "/monitor/config", create); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body)
	}

	for i := 0; i < 2; i++ {
		w := env.do(t, "POST", "/monitor/data/orders", `{"region":"eu"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("render %d status = %d, body %s", i, w.Code, w.Body)
		}
		if !strings.Contains(w.Body.String(), `"eu"`) {
			t.Errorf("render %d body lacks region: %s", i, w.Body)
		}
	}
	if env.cache.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", env.cache.Len())
	}

	update := `{"configId":1,"configKey":"orders","configName":"Orders v2","configJson":{"code":"orders","name":"Orders v2"}}`
	if w := env.do(t, "PUT", "/monitor/config", update); w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body)
	}
	if env.cache.Len() != 0 {
		t.Errorf("cache entries after update = %d, want 0", env.cache.Len())
	}

	if w := env.do(t, "DELETE", "/monitor/config/1", ""); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", w.Code, w.Body)
	}
	if w := env.do(t, "POST", "/monitor/data/orders", `{}`); w.Code != http.StatusNotFound {
		t.Errorf("render after delete status = %d, want 404", w.Code)
	}

	if got := env.publisher.count(); got != 3 {
		t.Errorf("published events = %d, want 3", got)
	}

	out := env.scrape(t)
	for _, want := range []string{
		`compass_data_cache_requests_total{result="hit"} 1`,
		`compass_data_cache_requests_total{result="miss"} 1`,
		`compass_config_events_total{action="created",origin="local"} 1`,
		`compass_config_events_total{action="updated",origin="local"} 1`,
		`compass_config_events_total{action="deleted",origin="local"} 1`,
		`compass_http_requests_total{method="POST",route="/monitor/data/{configKey}",status_code="200"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestServer_HealthRoutes(t *testing.T) {
	env := newTestEnv(t, testConfig())

	if w := env.do(t, "GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
	w := env.do(t, "GET", "/ready", "")
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"nats":"disabled"`) {
		t.Errorf("ready body %s", w.Body)
	}
	if w := env.do(t, "GET", "/monitor/events", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("events without NATS status = %d, want 503", w.Code)
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 2
	env := newTestEnv(t, cfg)

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, env.do(t, "GET", "/monitor/config/list", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Health routes are not limited.
	for i := 0; i < 5; i++ {
		if w := env.do(t, "GET", "/health", ""); w.Code != http.StatusOK {
			t.Fatalf("health %d status = %d", i, w.Code)
		}
	}
}

func TestServer_CORS(t *testing.T) {
	env := newTestEnv(t, testConfig())

	req := httptest.NewRequest("OPTIONS", "/monitor/config/list", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest("OPTIONS", "/monitor/config/list", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q", got)
	}
}

type fakeInvalidator struct {
	keys []string
	err  error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

type fakeRecorder struct{ got []string }

type fakeBroadcaster struct{ events []*domain.ConfigEvent }

func (f *fakeBroadcaster) Broadcast(event *domain.ConfigEvent) {
	f.events = append(f.events, event)
}

func (f *fakeRecorder) ConfigChanged(action, origin string) {
	f.got = append(f.got, action+"/"+origin)
}

func TestChanges(t *testing.T) {
	ctx := context.Background()
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	bc := &fakeBroadcaster{}
	c := NewChanges(inv, pub, rec, bc)

	c.ConfigChanged(ctx, domain.ConfigUpdated, &domain.MonitorConfig{ID: 3, Key: "orders"})
	c.Remote(ctx, &domain.ConfigEvent{Action: domain.ConfigDeleted, ConfigKey: "stock", Origin: "peer"})

	if strings.Join(inv.keys, ",") != "orders,stock" {
		t.Errorf("invalidated %v", inv.keys)
	}
	if strings.Join(rec.got, ",") != "updated/local,deleted/remote" {
		t.Errorf("recorded %v", rec.got)
	}
	if pub.count() != 1 || pub.events[0].ConfigID != 3 || pub.events[0].Action != domain.ConfigUpdated {
		t.Errorf("published %+v", pub.events)
	}
	// Both local and remote changes reach watchers; the local one is the
	// event that was published.
	if len(bc.events) != 2 || bc.events[0] != pub.events[0] || bc.events[1].Origin != "peer" {
		t.Errorf("broadcast %+v", bc.events)
	}

	// Failures are logged, not propagated.
	inv.err = errors.New("redis down")
	pub.err = errors.New("nats down")
	c.ConfigChanged(ctx, domain.ConfigCreated, &domain.MonitorConfig{Key: "x"})

	// Optional parts may be absent.
	NewChanges(inv, nil, nil, nil).ConfigChanged(ctx, domain.ConfigCreated, &domain.MonitorConfig{Key: "y"})
	if len(inv.keys) != 4 {
		t.Errorf("invalidations = %d, want 4", len(inv.keys))
	}
}

func TestServer_Watch(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/monitor/watch?configKey=orders"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("watch client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, key := range []string{"stock", "orders"} {
		body := `{"configKey":"` + key + `","configName":"` + key + `","configJson":{"code":"` + key + `","name":"` + key + `"}}`
		if w := env.do(t, "POST", "/monitor/config", body); w.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d, body %s", key, w.Code, w.Body)
		}
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.ChangeMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "change" || msg.ConfigKey != "orders" || msg.Action != domain.ConfigCreated {
		t.Errorf("message = %+v", msg)
	}

	// A browser origin outside the CORS list is refused.
	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, resp, err := ws.DefaultDialer.Dial(url, header); err == nil {
		t.Error("expected dial from foreign origin to fail")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign origin status = %d", resp.StatusCode)
	}
}
