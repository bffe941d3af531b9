// internal/domain/cart/manager.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager owns the per-user cart engines. An engine is created on a
// user's first cart access, warm-started from the snapshot cache, and
// destroyed on logout. Consumers receive a reference; there is no
// ambient global cart.
type Manager struct {
	gateway        Gateway
	cache          SnapshotCache // may be nil
	logger         *logrus.Logger
	refreshTimeout time.Duration

	mu      sync.Mutex
	engines map[string]*Service
}

// NewManager creates an engine manager
func NewManager(gw Gateway, cache SnapshotCache, logger *logrus.Logger, refreshTimeout time.Duration) *Manager {
	return &Manager{
		gateway:        gw,
		cache:          cache,
		logger:         logger,
		refreshTimeout: refreshTimeout,
		engines:        make(map[string]*Service),
	}
}

// Engine returns the cart engine for a user, creating it on first use.
// The bearer token is recorded on every call so background refreshes
// always carry the user's latest credentials.
func (m *Manager) Engine(userID, token string) *Service {
	m.mu.Lock()
	svc, ok := m.engines[userID]
	if ok {
		m.mu.Unlock()
		svc.SetAuthToken(token)
		return svc
	}

	store := NewStore(m.gateway, m.cache, userID, m.logger)
	svc = NewService(store, m.gateway, m.logger, m.refreshTimeout)
	m.engines[userID] = svc
	m.mu.Unlock()

	svc.SetAuthToken(token)
	if m.warmStart(store, userID) {
		// the cached view is served right away, but it is only a
		// placeholder until reconciliation replaces it
		svc.refreshAsync()
	}
	return svc
}

// Drop destroys a user's engine on logout: the store is reset so any
// in-flight refresh result is discarded, and the cached snapshot is
// deleted
func (m *Manager) Drop(ctx context.Context, userID string) {
	m.mu.Lock()
	svc, ok := m.engines[userID]
	if ok {
		delete(m.engines, userID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	svc.store.Reset()

	if m.cache != nil {
		if err := m.cache.Delete(ctx, userID); err != nil {
			m.logger.WithError(err).WithField("user_id", userID).Debug("Snapshot cache delete failed")
		}
	}
}

// warmStart primes a fresh store from the snapshot cache so the first
// read serves the last known view while the first reconciliation is
// still in flight. Reports whether the store was primed.
func (m *Manager) warmStart(store *Store, userID string) bool {
	if m.cache == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	snap, err := m.cache.Get(ctx, userID)
	if err != nil {
		return false // cache miss or cache down, first refresh fills the store
	}
	store.Prime(snap)
	return true
}
