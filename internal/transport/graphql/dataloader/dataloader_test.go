package dataloader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dl "github.com/heartmarshall/neographql/internal/transport/graphql/dataloader"
)

// recordingBatch returns a BatchFn that groups fixed rows by key and records
// every call it receives.
type recordingBatch struct {
	mu    sync.Mutex
	calls [][]string
	rows  map[string]dl.Rows
	err   error
}

func (b *recordingBatch) fn(_ context.Context, keys []string) (map[string]dl.Rows, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	b.calls = append(b.calls, sorted)
	if b.err != nil {
		return nil, b.err
	}
	return b.rows, nil
}

// ---------------------------------------------------------------------------
// Context / Middleware tests
// ---------------------------------------------------------------------------

func TestFromContext_ReturnsRegistry(t *testing.T) {
	reg := dl.NewRegistry()
	ctx := dl.WithRegistry(context.Background(), reg)

	got, ok := dl.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, reg, got)
}

func TestFromContext_MissingRegistry(t *testing.T) {
	_, ok := dl.FromContext(context.Background())
	assert.False(t, ok)
}

func TestMiddleware_InjectsFreshRegistryPerRequest(t *testing.T) {
	var got []*dl.Registry
	handler := dl.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		reg, ok := dl.FromContext(r.Context())
		require.True(t, ok)
		got = append(got, reg)
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}

	require.Len(t, got, 2)
	assert.NotSame(t, got[0], got[1])
}

// ---------------------------------------------------------------------------
// Batching
// ---------------------------------------------------------------------------

func TestRegistry_BatchesKeysIntoOneCall(t *testing.T) {
	batch := &recordingBatch{rows: map[string]dl.Rows{
		"m1": {{"name": "Keanu"}, {"name": "Carrie-Anne"}},
		"m2": {{"name": "Al"}},
	}}
	reg := dl.NewRegistry()
	ctx := dl.WithRegistry(context.Background(), reg)

	t1 := dl.Load(ctx, "Movie.actors|{}", "m1", batch.fn)
	t2 := dl.Load(ctx, "Movie.actors|{}", "m2", batch.fn)
	t3 := dl.Load(ctx, "Movie.actors|{}", "m3", batch.fn)

	rows1, err := t1()
	require.NoError(t, err)
	rows2, err := t2()
	require.NoError(t, err)
	rows3, err := t3()
	require.NoError(t, err)

	assert.Len(t, rows1, 2)
	assert.Len(t, rows2, 1)
	assert.NotNil(t, rows3, "missing keys resolve to an empty slice, not nil")
	assert.Empty(t, rows3)

	require.Len(t, batch.calls, 1)
	assert.Equal(t, []string{"m1", "m2", "m3"}, batch.calls[0])
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_SeparateLoadersPerName(t *testing.T) {
	batch := &recordingBatch{rows: map[string]dl.Rows{}}
	reg := dl.NewRegistry()

	a := reg.Loader(`Movie.actors|{"where":{"name":"Al"}}`, batch.fn)
	b := reg.Loader(`Movie.actors|{}`, batch.fn)
	again := reg.Loader(`Movie.actors|{}`, batch.fn)

	assert.NotSame(t, a, b)
	assert.Same(t, b, again)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_PropagatesError(t *testing.T) {
	boom := errors.New("neo4j down")
	batch := &recordingBatch{err: boom}
	ctx := dl.WithRegistry(context.Background(), dl.NewRegistry())

	_, err := dl.Load(ctx, "Movie.actors|{}", "m1", batch.fn)()
	assert.ErrorIs(t, err, boom)
}

func TestLoad_WithoutRegistryRunsDirectly(t *testing.T) {
	batch := &recordingBatch{rows: map[string]dl.Rows{"m1": {{"name": "Keanu"}}}}

	rows, err := dl.Load(context.Background(), "Movie.actors|{}", "m1", batch.fn)()
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = dl.Load(context.Background(), "Movie.actors|{}", "m2", batch.fn)()
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Len(t, batch.calls, 2)
}
