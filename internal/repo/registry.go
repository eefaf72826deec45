package repo

import (
	"fmt"
	"sync"

	"github.com/burakseven/takip/internal/errs"
	"github.com/burakseven/takip/internal/store"
	"github.com/burakseven/takip/internal/tablecfg"
)

// Factory builds a specialized repository for one table. Specializations
// register through WithSpecialization at registry construction.
type Factory func(st *store.Store, cfg tablecfg.Table) Repository

// Registry is the single composition root for repositories, bound to one
// store. Instances are memoized: Get called twice with the same name returns
// the identical Repository.
type Registry struct {
	st  *store.Store
	cfg *tablecfg.Set

	mu      sync.Mutex
	cache   map[string]Repository
	special map[string]Factory
}

// Option configures a Registry.
type Option func(*Registry)

// WithSpecialization registers a specialized repository factory for a table
// name. When present it is preferred over the generic implementation.
func WithSpecialization(name string, f Factory) Option {
	return func(r *Registry) {
		r.special[name] = f
	}
}

// NewRegistry creates a registry over one store and configuration set.
func NewRegistry(st *store.Store, cfg *tablecfg.Set, opts ...Option) *Registry {
	r := &Registry{
		st:      st,
		cfg:     cfg,
		cache:   make(map[string]Repository),
		special: make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the repository for a configured table. Requesting an
// unconfigured name is a programmer error and returns
// errs.ErrTableNotConfigured immediately.
func (r *Registry) Get(name string) (Repository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if repo, ok := r.cache[name]; ok {
		return repo, nil
	}

	cfg, ok := r.cfg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrTableNotConfigured, name)
	}

	var repo Repository
	if f, ok := r.special[name]; ok {
		repo = f(r.st, cfg)
	} else {
		repo = NewGeneric(r.st, cfg)
	}
	r.cache[name] = repo
	return repo, nil
}

// AllSyncable returns repositories for exactly the tables with the syncable
// flag and a declared primary key. This is the only legal input set for any
// push driver.
func (r *Registry) AllSyncable() []Repository {
	var out []Repository
	for _, name := range r.cfg.Names() {
		cfg, _ := r.cfg.Lookup(name)
		if !cfg.InSyncSet() {
			continue
		}
		repo, err := r.Get(name)
		if err != nil {
			continue // configured names cannot miss
		}
		out = append(out, repo)
	}
	return out
}

// All returns repositories for every configured table, for administrative
// tooling such as the maintenance pass.
func (r *Registry) All() []Repository {
	var out []Repository
	for _, name := range r.cfg.Names() {
		repo, err := r.Get(name)
		if err != nil {
			continue
		}
		out = append(out, repo)
	}
	return out
}
