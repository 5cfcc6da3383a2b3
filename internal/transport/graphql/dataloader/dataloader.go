// Package dataloader provides per-request DataLoaders for batching
// relationship resolvers into single Cypher calls. Loaders are created on
// demand, one per relationship field and argument combination, and cache
// results for the lifetime of a request.
package dataloader

import (
	"context"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

// Rows are the related records loaded for one parent key.
type Rows = []map[string]any

// Loader batches loads of Rows by parent key.
type Loader = dataloader.Loader[string, Rows]

// Thunk resolves one load once its batch has run.
type Thunk = dataloader.Thunk[Rows]

// BatchFn loads rows for many parent keys at once. Keys missing from the
// returned map resolve to an empty slice.
type BatchFn func(ctx context.Context, keys []string) (map[string]Rows, error)

// Registry holds the loaders of one request.
type Registry struct {
	mu      sync.Mutex
	loaders map[string]*Loader
}

// NewRegistry creates an empty registry. Must be called per-request.
func NewRegistry() *Registry {
	return &Registry{loaders: map[string]*Loader{}}
}

// Loader returns the loader registered under name, creating it from fn on
// first use. fn is ignored when the loader already exists, so name must
// identify everything fn depends on.
func (r *Registry) Loader(name string, fn BatchFn) *Loader {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loaders[name]; ok {
		return l
	}
	l := newLoader(fn)
	r.loaders[name] = l
	return l
}

// Len returns the number of loaders created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loaders)
}

// newLoader creates a dataloader.Loader with standard batch parameters.
func newLoader(fn BatchFn) *Loader {
	return dataloader.NewBatchedLoader(
		batchFunc(fn),
		dataloader.WithWait[string, Rows](wait),
		dataloader.WithBatchCapacity[string, Rows](maxBatch),
	)
}

func batchFunc(fn BatchFn) dataloader.BatchFunc[string, Rows] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[Rows] {
		grouped, err := fn(ctx, keys)
		if err != nil {
			return errorResults[Rows](len(keys), err)
		}
		return mapResults(keys, grouped, emptySlice[map[string]any])
	}
}

// Load schedules key on the request's loader called name. Without a
// registry in ctx (tests, direct schema execution) the batch runs
// immediately for the single key.
func Load(ctx context.Context, name, key string, fn BatchFn) Thunk {
	if r, ok := FromContext(ctx); ok {
		return r.Loader(name, fn).Load(ctx, key)
	}

	grouped, err := fn(ctx, []string{key})
	return func() (Rows, error) {
		if err != nil {
			return nil, err
		}
		if rows, ok := grouped[key]; ok {
			return rows, nil
		}
		return Rows{}, nil
	}
}

type contextKey string

const registryKey contextKey = "dataloaders"

// WithRegistry stores the registry in the context.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey, r)
}

// FromContext retrieves the registry from the context.
func FromContext(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryKey).(*Registry)
	return r, ok && r != nil
}
