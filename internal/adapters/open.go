// Package adapters selects a state store backend from a location string.
package adapters

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/stepwise/internal/adapters/file"
	"github.com/aretw0/stepwise/internal/adapters/redis"
	"github.com/aretw0/stepwise/internal/adapters/sqlite"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/ports"
)

// Backend bundles a state store with its optional session locker.
type Backend struct {
	Store  ports.StateStore
	Locker ports.SessionLocker
	Kind   string

	close func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenOptions tunes remote backends.
type OpenOptions struct {
	// TTL expires Redis checkpoints; zero keeps them forever.
	TTL time.Duration
}

// Open resolves location to a backend:
//
//	redis://host:port/db, rediss://...  Redis (with distributed session lock)
//	sqlite://path/to/file.db            SQLite
//	memory://                           in-process (lost on exit)
//	file://dir or a plain path          one JSON file per session
func Open(location string, opts OpenOptions) (*Backend, error) {
	switch {
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		var ropts []redis.Option
		if opts.TTL > 0 {
			ropts = append(ropts, redis.WithTTL(opts.TTL))
		}
		store, err := redis.NewFromURL(location, ropts...)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), store.Prefix()),
			Kind:   "redis",
			close:  store.Close,
		}, nil

	case strings.HasPrefix(location, "sqlite://"):
		path := strings.TrimPrefix(location, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite store needs a path, e.g. sqlite://.stepwise/sessions.db")
		}
		store, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Kind: "sqlite", close: store.Close}, nil

	case strings.HasPrefix(location, "memory://"):
		return &Backend{Store: memory.NewStore(), Kind: "memory"}, nil

	case strings.Contains(location, "://") && !strings.HasPrefix(location, "file://"):
		return nil, fmt.Errorf("unsupported store location %q", location)

	default:
		return &Backend{Store: file.New(strings.TrimPrefix(location, "file://")), Kind: "file"}, nil
	}
}
