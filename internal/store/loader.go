package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/filipexyz/compass/internal/monitor"
	"github.com/fsnotify/fsnotify"
)

// fileOwner marks records managed by a Loader.
const fileOwner = "file"

// ChangeFunc is called after the loader writes a record.
type ChangeFunc func(ctx context.Context, action domain.ConfigAction, cfg *domain.MonitorConfig)

// Loader syncs a directory of YAML/JSON monitor configs into a Store and
// hot-reloads it on change. Each file holds one config keyed by its code.
type Loader struct {
	dir      string
	store    Store
	onChange ChangeFunc
	logger   *slog.Logger

	mu    sync.Mutex
	owned map[string]int64 // config key -> record ID

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}
}

// NewLoader loads every config file in dir into st and starts watching dir.
func NewLoader(ctx context.Context, dir string, st Store, onChange ChangeFunc) (*Loader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	l := &Loader{
		dir:      dir,
		store:    st,
		onChange: onChange,
		logger:   slog.Default().With("component", "loader", "dir", dir),
		owned:    make(map[string]int64),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := l.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load configs: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	l.watcher = watcher

	go l.watch()

	return l, nil
}

// Reload syncs the directory into the store. Files that fail to parse or
// validate are logged and skipped; records of removed files are deleted.
func (l *Loader) Reload(ctx context.Context) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read config directory: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !isConfigFile(entry.Name()) {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		key, err := l.loadFile(ctx, path)
		if err != nil {
			l.logger.Error("failed to load config file", "file", entry.Name(), "error", err)
			continue
		}
		seen[key] = true
	}

	for key, id := range l.owned {
		if seen[key] {
			continue
		}
		deleted, err := l.store.Delete(ctx, id)
		if err != nil {
			l.logger.Error("failed to delete config", "key", key, "error", err)
			continue
		}
		delete(l.owned, key)
		for _, c := range deleted {
			l.notify(ctx, domain.ConfigDeleted, c)
		}
	}

	return nil
}

// loadFile upserts one file. Callers hold l.mu.
func (l *Loader) loadFile(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	if res := monitor.ValidateDocument(raw); !res.Valid {
		return "", fmt.Errorf("invalid config: %s", strings.Join(res.Errors, "; "))
	}
	cfg, err := monitor.DecodeConfig(raw)
	if err != nil {
		return "", err
	}

	doc, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	rec := &domain.MonitorConfig{
		Key:        cfg.Code,
		Name:       cfg.Name,
		ConfigJSON: string(doc),
		Status:     domain.StatusEnabled,
		Remark:     filepath.Base(path),
		CreateBy:   fileOwner,
		UpdateBy:   fileOwner,
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}

	existing, err := l.store.GetByKey(ctx, rec.Key)
	switch {
	case errors.Is(err, ErrNotFound):
		created, err := l.store.Create(ctx, rec)
		if err != nil {
			return "", fmt.Errorf("create config: %w", err)
		}
		l.owned[created.Key] = created.ID
		l.logger.Info("config loaded", "key", created.Key, "file", filepath.Base(path))
		l.notify(ctx, domain.ConfigCreated, created)
	case err != nil:
		return "", err
	default:
		if _, mine := l.owned[existing.Key]; !mine && existing.CreateBy != fileOwner {
			return "", fmt.Errorf("config key %q is owned by another source: %w", rec.Key, ErrDuplicateKey)
		}
		l.owned[existing.Key] = existing.ID
		if existing.ConfigJSON == rec.ConfigJSON && existing.Name == rec.Name {
			return existing.Key, nil
		}
		rec.ID = existing.ID
		updated, err := l.store.Update(ctx, rec)
		if err != nil {
			return "", fmt.Errorf("update config: %w", err)
		}
		l.logger.Info("config reloaded", "key", updated.Key, "file", filepath.Base(path))
		l.notify(ctx, domain.ConfigUpdated, updated)
	}

	return rec.Key, nil
}

func (l *Loader) notify(ctx context.Context, action domain.ConfigAction, cfg *domain.MonitorConfig) {
	if l.onChange != nil {
		l.onChange(ctx, action, cfg)
	}
}

// watch monitors the directory and reloads after 100ms of inactivity.
func (l *Loader) watch() {
	defer close(l.done)

	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				debounce.Reset(100 * time.Millisecond)
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("config watcher error", "error", err)

		case <-debounce.C:
			l.logger.Info("config files changed, reloading")
			if err := l.Reload(context.Background()); err != nil {
				l.logger.Error("failed to reload configs", "error", err)
			}

		case <-l.stopChan:
			return
		}
	}
}

// Keys returns the config keys currently managed by the loader.
func (l *Loader) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]string, 0, len(l.owned))
	for k := range l.owned {
		keys = append(keys, k)
	}
	return keys
}

// Close stops watching. Loaded records stay in the store.
func (l *Loader) Close() error {
	close(l.stopChan)
	err := l.watcher.Close()
	<-l.done
	return err
}

func isConfigFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
