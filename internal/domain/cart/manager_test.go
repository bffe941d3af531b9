package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu      sync.Mutex
	snaps   map[string]*Snapshot
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{snaps: make(map[string]*Snapshot)}
}

func (f *fakeCache) Get(ctx context.Context, userID string) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snaps[userID]
	if !ok {
		return nil, context.Canceled // any error reads as a miss
	}
	return snap, nil
}

func (f *fakeCache) Set(ctx context.Context, userID string, snap *Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps[userID] = snap
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, userID)
	f.deletes = append(f.deletes, userID)
	return nil
}

func TestManagerReturnsSameEngineForUser(t *testing.T) {
	m := NewManager(newFakeGateway(), nil, testLogger(), time.Second)

	first := m.Engine("alice", "token-1")
	second := m.Engine("alice", "token-2")
	other := m.Engine("bob", "token-3")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	// the latest token wins for background refreshes
	assert.Equal(t, "token-2", first.authToken())
}

func TestManagerWarmStartsFromSnapshotCache(t *testing.T) {
	cache := newFakeCache()
	cache.snaps["alice"] = &Snapshot{
		Items: []CartLine{{ProductID: "P1", Quantity: 2}},
		Stock: map[string]StockRecord{"P1": {TotalStock: 5, ReservedInCart: 2, AvailableToAdd: 3}},
	}

	// hold the reconciliation on the network so the primed view is
	// observable
	gw := newFakeGateway()
	release := make(chan struct{})
	gw.blockFetchCart = release

	m := NewManager(gw, cache, testLogger(), time.Second)
	engine := m.Engine("alice", "token")

	snap := engine.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 3, engine.GetAvailableStock("P1"))

	close(release)
	engine.bg.Wait()
}

func TestManagerReconcilesAfterWarmStart(t *testing.T) {
	cache := newFakeCache()
	cache.snaps["alice"] = &Snapshot{
		Items: []CartLine{{ProductID: "P1", Quantity: 2}},
		Stock: map[string]StockRecord{"P1": {TotalStock: 5, ReservedInCart: 2, AvailableToAdd: 3}},
	}

	// the backend has since emptied the cart; the cached view must not
	// outlive the first reconciliation
	gw := newFakeGateway()
	m := NewManager(gw, cache, testLogger(), time.Second)
	engine := m.Engine("alice", "token")
	engine.bg.Wait()

	require.GreaterOrEqual(t, gw.callCount("fetchCart"), 1)
	assert.Empty(t, engine.Snapshot().Items)
}

func TestManagerDropDestroysEngineAndCacheEntry(t *testing.T) {
	cache := newFakeCache()
	m := NewManager(newFakeGateway(), cache, testLogger(), time.Second)

	first := m.Engine("alice", "token")
	m.Drop(context.Background(), "alice")

	assert.Contains(t, cache.deletes, "alice")
	assert.Empty(t, first.Snapshot().Items)

	// next access builds a fresh engine
	second := m.Engine("alice", "token")
	assert.NotSame(t, first, second)
}
