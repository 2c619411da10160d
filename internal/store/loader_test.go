package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/filipexyz/compass/internal/domain"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []string
}

func (r *changeRecorder) record(_ context.Context, action domain.ConfigAction, cfg *domain.MonitorConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, string(action)+":"+cfg.Key)
}

func (r *changeRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changes...)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoader_Reload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := NewMemoryStore()
	rec := &changeRecorder{}

	writeFile(t, dir, "orders.yaml", "code: orders\nname: Orders\n")
	writeFile(t, dir, "users.json", `{"code":"users","name":"Users"}`)
	writeFile(t, dir, "broken.yaml", "code: [")
	writeFile(t, dir, "invalid.yaml", "name: no code\n")
	writeFile(t, dir, "malformed.yaml", "code: stock\nname: Stock\ndescItems:\n  - label: Total\n    expression: total\n    displayType: magic\n")
	writeFile(t, dir, "notes.txt", "ignored")

	l, err := NewLoader(ctx, dir, st, rec.record)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	defer l.Close()

	if got := len(l.Keys()); got != 2 {
		t.Fatalf("loaded %d keys, want 2", got)
	}
	if _, err := st.GetByKey(ctx, "stock"); !errors.Is(err, ErrNotFound) {
		t.Errorf("structurally invalid file was loaded: %v", err)
	}
	orders, err := st.GetByKey(ctx, "orders")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if orders.CreateBy != "file" || orders.Remark != "orders.yaml" {
		t.Errorf("unexpected record %+v", orders)
	}
	cfg, err := orders.Decode()
	if err != nil || cfg.Name != "Orders" {
		t.Fatalf("Decode = %+v, %v", cfg, err)
	}

	// Unchanged files do not produce updates.
	if err := l.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := len(rec.snapshot()); got != 2 {
		t.Fatalf("changes after no-op reload = %v", rec.snapshot())
	}

	writeFile(t, dir, "orders.yaml", "code: orders\nname: Orders v2\n")
	if err := os.Remove(filepath.Join(dir, "users.json")); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	orders, err = st.GetByKey(ctx, "orders")
	if err != nil || orders.Name != "Orders v2" {
		t.Fatalf("GetByKey after reload = %+v, %v", orders, err)
	}
	if _, err := st.GetByKey(ctx, "users"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("removed file still served: %v", err)
	}

	want := map[string]bool{
		"created:orders": true,
		"created:users":  true,
		"updated:orders": true,
		"deleted:users":  true,
	}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("changes = %v", got)
	}
	for _, c := range got {
		if !want[c] {
			t.Errorf("unexpected change %q", c)
		}
	}
}

func TestLoader_DoesNotOverwriteForeignRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := NewMemoryStore()

	if _, err := st.Create(ctx, newRecord("orders", "From API")); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "orders.yaml", "code: orders\nname: From file\n")

	l, err := NewLoader(ctx, dir, st, nil)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	defer l.Close()

	got, err := st.GetByKey(ctx, "orders")
	if err != nil || got.Name != "From API" {
		t.Fatalf("GetByKey = %+v, %v", got, err)
	}
	if len(l.Keys()) != 0 {
		t.Errorf("loader claimed foreign key: %v", l.Keys())
	}
}

func TestLoader_HotReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := NewMemoryStore()

	l, err := NewLoader(ctx, dir, st, nil)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	defer l.Close()

	writeFile(t, dir, "live.yaml", "code: live\nname: Live\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := st.GetByKey(ctx, "live"); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("timed out waiting for hot reload")
}
