// Package store persists monitor config records.
package store

import (
	"context"
	"errors"

	"github.com/filipexyz/compass/internal/domain"
)

var (
	// ErrNotFound is returned when no live record matches.
	ErrNotFound = errors.New("config not found")
	// ErrDuplicateKey is returned when another live record owns the key.
	ErrDuplicateKey = errors.New("config key already exists")
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Store is the config record repository. Deleted records are kept with a
// deleted flag and are invisible to every read.
type Store interface {
	List(ctx context.Context, q domain.ConfigQuery) (*domain.ConfigList, error)
	Get(ctx context.Context, id int64) (*domain.MonitorConfig, error)
	GetByKey(ctx context.Context, key string) (*domain.MonitorConfig, error)
	Create(ctx context.Context, cfg *domain.MonitorConfig) (*domain.MonitorConfig, error)
	Update(ctx context.Context, cfg *domain.MonitorConfig) (*domain.MonitorConfig, error)
	// Delete soft-deletes the records and returns the ones that existed.
	Delete(ctx context.Context, ids ...int64) ([]*domain.MonitorConfig, error)
	Ping(ctx context.Context) error
}

func pageBounds(q domain.ConfigQuery) (limit, offset int) {
	limit = q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = q.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
