package objstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atrium-pm/atrium/internal/config"
)

// Adapter constructs a Store from configuration. Implementations live
// in subpackages and register themselves from init.
type Adapter interface {
	Name() string
	Open(ctx context.Context, cfg *config.Config) (Store, error)
}

var (
	regMu    sync.RWMutex
	registry = map[string]Adapter{}
)

// RegisterAdapter makes an adapter selectable by provider name.
// Registering two adapters under the same name is a programming error.
func RegisterAdapter(a Adapter) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[a.Name()]; dup {
		panic(fmt.Sprintf("objstore: adapter %q registered twice", a.Name()))
	}
	registry[a.Name()] = a
}

// Open builds the Store selected by cfg.ObjectStore.Provider.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	regMu.RLock()
	a, ok := registry[cfg.ObjectStore.Provider]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("objstore: unknown provider %q (registered: %v)", cfg.ObjectStore.Provider, registered())
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
