package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter opens a Database for one provider.
type Adapter interface {
	Name() string
	Open(ctx context.Context, cfg Config) (Database, error)
}

var (
	regMu    sync.RWMutex
	registry = map[string]Adapter{}
)

// RegisterAdapter makes an adapter available to Open. Called from the
// adapter package's init(); cmd wiring imports adapters blank.
func RegisterAdapter(a Adapter) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[a.Name()] = a
}

// Open selects the adapter named by cfg.Provider and connects.
func Open(ctx context.Context, cfg Config) (Database, error) {
	regMu.RLock()
	a, ok := registry[cfg.Provider]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown provider %q (registered: %v)", cfg.Provider, registered())
	}
	return a.Open(ctx, cfg)
}

func registered() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
