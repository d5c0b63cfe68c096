//go:build integration

package game

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, rdb.Ping(ctx).Err(), "redis is not reachable")
	return rdb
}

func TestRedisArchive_SaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	archive := NewRedisSnapshotArchive(rdb, time.Hour)

	room := NewRoom("arch1", Config{})
	defer room.Stop()

	ok, _ := room.HandleAction(RolePlayer, "start", nil)
	require.True(t, ok)
	snap := room.Snapshot()

	require.NoError(t, archive.Save(ctx, "arch1", snap))

	got, found, err := archive.Load(ctx, "arch1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, snap.RoomID, got.RoomID)
	require.True(t, got.Started)
	require.Equal(t, snap.Player.Hand, got.Player.Hand)
	require.Equal(t, snap.CurrentTurn, got.CurrentTurn)
}

func TestRedisArchive_MissingRoom(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	archive := NewRedisSnapshotArchive(rdb, time.Hour)

	_, found, err := archive.Load(ctx, "ghost")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisArchive_SurvivesServiceRestart(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	archive := NewRedisSnapshotArchive(rdb, time.Hour)

	svc1 := NewRoomService(Config{}, archive, nil, nil)
	room := svc1.GetOrCreate("arch2")
	ok, _ := room.HandleAction(RolePlayer, "start", nil)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, found, err := archive.Load(ctx, "arch2")
		return err == nil && found
	}, 2*time.Second, 20*time.Millisecond)
	room.Stop()

	// a fresh service has no live room, but the archive still answers
	svc2 := NewRoomService(Config{}, archive, nil, nil)
	_, live := svc2.Get("arch2")
	require.False(t, live)

	snap, found, err := svc2.ArchivedSnapshot(ctx, "arch2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "arch2", snap.RoomID)
	require.True(t, snap.Started)
}
