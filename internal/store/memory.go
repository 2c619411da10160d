package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/filipexyz/compass/internal/domain"
)

type memoryRecord struct {
	cfg     domain.MonitorConfig
	deleted bool
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]*memoryRecord
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]*memoryRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns the live records matching q ordered by ID.
func (s *MemoryStore) List(_ context.Context, q domain.ConfigQuery) (*domain.ConfigList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.MonitorConfig
	for _, r := range s.records {
		if r.deleted || !q.Matches(&r.cfg) {
			continue
		}
		c := r.cfg
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	limit, offset := pageBounds(q)
	list := &domain.ConfigList{Configs: []*domain.MonitorConfig{}, Total: len(matched)}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		list.Configs = matched[offset:end]
	}
	return list, nil
}

// Get returns the live record with the given ID.
func (s *MemoryStore) Get(_ context.Context, id int64) (*domain.MonitorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.deleted {
		return nil, ErrNotFound
	}
	c := r.cfg
	return &c, nil
}

// GetByKey returns the live record with the given key.
func (s *MemoryStore) GetByKey(_ context.Context, key string) (*domain.MonitorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r := s.findKey(key, 0); r != nil {
		c := r.cfg
		return &c, nil
	}
	return nil, ErrNotFound
}

// findKey returns the live record owning key, ignoring the record excludeID.
// Callers hold s.mu.
func (s *MemoryStore) findKey(key string, excludeID int64) *memoryRecord {
	for id, r := range s.records {
		if !r.deleted && id != excludeID && r.cfg.Key == key {
			return r
		}
	}
	return nil
}

// Create inserts cfg with a fresh ID.
func (s *MemoryStore) Create(_ context.Context, cfg *domain.MonitorConfig) (*domain.MonitorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findKey(cfg.Key, 0) != nil {
		return nil, ErrDuplicateKey
	}

	s.nextID++
	now := s.now()
	c := *cfg
	c.ID = s.nextID
	c.CreateTime = now
	c.UpdateTime = now
	s.records[c.ID] = &memoryRecord{cfg: c}

	out := c
	return &out, nil
}

// Update replaces the mutable fields of the live record with cfg.ID.
func (s *MemoryStore) Update(_ context.Context, cfg *domain.MonitorConfig) (*domain.MonitorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[cfg.ID]
	if !ok || r.deleted {
		return nil, ErrNotFound
	}
	if s.findKey(cfg.Key, cfg.ID) != nil {
		return nil, ErrDuplicateKey
	}

	r.cfg.Key = cfg.Key
	r.cfg.Name = cfg.Name
	r.cfg.ConfigJSON = cfg.ConfigJSON
	r.cfg.Status = cfg.Status
	r.cfg.Remark = cfg.Remark
	r.cfg.UpdateBy = cfg.UpdateBy
	r.cfg.UpdateTime = s.now()

	out := r.cfg
	return &out, nil
}

// Delete flags the records as deleted.
func (s *MemoryStore) Delete(_ context.Context, ids ...int64) ([]*domain.MonitorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []*domain.MonitorConfig
	for _, id := range ids {
		r, ok := s.records[id]
		if !ok || r.deleted {
			continue
		}
		r.deleted = true
		r.cfg.UpdateTime = s.now()
		c := r.cfg
		deleted = append(deleted, &c)
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
