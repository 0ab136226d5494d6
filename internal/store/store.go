// Package store provides the document backends behind the feedback service
// and the process-wide handle to the configured one.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/mock-interview/internal/db"
	"github.com/jonathan/mock-interview/internal/feedback"
	"github.com/jonathan/mock-interview/internal/types"
)

// Backend names
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DefaultLatestLimit is used when ListLatestInterviews gets a non-positive limit
const DefaultLatestLimit = 20

// Backend is a repository that owns a connection
type Backend interface {
	feedback.Repository
	Close()
}

// Options selects and configures a backend
type Options struct {
	Backend       string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// Open connects to the configured backend
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis backend requires an address")
		}
		rs, err := NewRedisStore(ctx, opts)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires a database URL")
		}
		pg, err := db.Shared(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

var (
	sharedMu sync.Mutex
	shared   Backend
)

// Shared returns the process-wide backend, opening it on first use.
// Later calls return the same handle regardless of opts.
func Shared(ctx context.Context, opts Options) (Backend, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}
	b, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	shared = b
	return shared, nil
}

// resetShared drops the cached backend. Tests only.
func resetShared() {
	sharedMu.Lock()
	shared = nil
	sharedMu.Unlock()
}

// sortNewestFirst orders interviews by creation time, newest first
func sortNewestFirst(list []types.Interview) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// latestOf keeps finalized interviews of other users, newest first, up to limit
func latestOf(list []types.Interview, userID string, limit int) []types.Interview {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	out := []types.Interview{}
	for _, iv := range list {
		if iv.Finalized && iv.UserID != userID {
			out = append(out, iv)
		}
	}
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
