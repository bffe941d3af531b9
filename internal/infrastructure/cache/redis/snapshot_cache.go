// internal/infrastructure/cache/redis/snapshot_cache.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/cashback-cart/internal/domain/cart"
)

// ErrCacheMiss is returned when no snapshot is cached for a user
var ErrCacheMiss = errors.New("cache miss")

// SnapshotCache persists cart read-model snapshots in Redis with a TTL
// so a fresh engine can serve the last known view while the first
// reconciliation runs
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a snapshot cache on an existing connection
func NewSnapshotCache(client *Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		client: client.GetClient(),
		ttl:    ttl,
	}
}

// Get retrieves the cached snapshot for a user
func (s *SnapshotCache) Get(ctx context.Context, userID string) (*cart.Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(userID)).Result()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, err
	}

	var snap cart.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// Set stores the snapshot for a user with the configured expiration
func (s *SnapshotCache) Set(ctx context.Context, userID string, snap *cart.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, snapshotKey(userID), data, s.ttl).Err()
}

// Delete removes the cached snapshot for a user
func (s *SnapshotCache) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, snapshotKey(userID)).Err()
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("cart:snapshot:%s", userID)
}
