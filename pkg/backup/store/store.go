// Package store defines the pluggable offsite stores environment
// backups replicate to. Implementations register themselves by type
// name; the local filesystem store is always available, the cloud
// stores activate when their packages are imported.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("not found")

// Store is the interface backup stores implement.
type Store interface {
	// Type returns the store type name (local, s3, gcs, azurerm).
	Type() string

	// Read returns the content stored under the given key.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Write stores content under the given key, replacing any
	// previous content.
	Write(ctx context.Context, key string, data io.Reader) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// Factory creates a store from its configuration map.
type Factory func(config map[string]string) (Store, error)

// Config selects and configures a store.
type Config struct {
	Type   string
	Config map[string]string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a store type available by name. Called from the
// implementation packages' init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Create builds a store from config.
func Create(config Config) (Store, error) {
	registryMu.RLock()
	factory, ok := registry[config.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown store type %q (registered: %v)", config.Type, Types())
	}

	cfg := config.Config
	if cfg == nil {
		cfg = make(map[string]string)
	}
	return factory(cfg)
}

// Types returns the registered store type names, sorted.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
