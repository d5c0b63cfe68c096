package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotArchive keeps the latest snapshot per room in Redis
// with a TTL. This is observability, not session persistence: a
// restarted process starts with empty rooms.
type RedisSnapshotArchive struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSnapshotArchive(rdb *redis.Client, ttl time.Duration) *RedisSnapshotArchive {
	return &RedisSnapshotArchive{rdb: rdb, ttl: ttl}
}

func (a *RedisSnapshotArchive) key(roomID string) string {
	return fmt.Sprintf("room:%s:snapshot", roomID)
}

func (a *RedisSnapshotArchive) Save(ctx context.Context, roomID string, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return a.rdb.Set(ctx, a.key(roomID), b, a.ttl).Err()
}

func (a *RedisSnapshotArchive) Load(ctx context.Context, roomID string) (Snapshot, bool, error) {
	val, err := a.rdb.Get(ctx, a.key(roomID)).Bytes()
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}
