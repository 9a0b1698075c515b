// Package registry maps source IDs to provider constructors. Provider packages
// register themselves in init(); import
// github.com/agentstation/gamemeta/internal/sources/providers to load them all.
package registry

import (
	"errors"
	"sync"

	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	pkgerrors "github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// Factory builds a provider from its configuration.
// It returns a *errors.ConfigError when a required credential is missing.
type Factory func(cfg baseclient.Config) (sources.Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[sources.ID]Factory)
)

// Register registers the constructor of a source.
func Register(id sources.ID, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[id] = f
}

// Has checks if a source has a registered constructor.
func Has(id sources.ID) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[id]
	return ok
}

// Supported returns the registered sources in source order.
func Supported() []sources.ID {
	mu.RLock()
	defer mu.RUnlock()
	ids := make([]sources.ID, 0, len(factories))
	for _, id := range sources.IDs() {
		if _, ok := factories[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// New builds a single provider.
func New(id sources.ID, cfg baseclient.Config) (sources.Provider, error) {
	mu.RLock()
	f, ok := factories[id]
	mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("source", id.String())
	}
	return f(cfg)
}

// Build constructs every requested provider. All construction failures are
// reported together so a run can list every missing credential at once.
func Build(ids []sources.ID, configs map[sources.ID]baseclient.Config) (*sources.Set, error) {
	set := sources.NewSet()
	var errs []error
	for _, id := range ids {
		p, err := New(id, configs[id])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set.Set(id, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return set, nil
}
