package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memArchive struct {
	mu sync.Mutex
	m  map[string]Snapshot
}

func (a *memArchive) Save(ctx context.Context, roomID string, snap Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		a.m = make(map[string]Snapshot)
	}
	a.m[roomID] = snap
	return nil
}

func (a *memArchive) Load(ctx context.Context, roomID string) (Snapshot, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.m[roomID]
	return snap, ok, nil
}

type memResults struct {
	mu     sync.Mutex
	winner string
	loser  string
	calls  int
}

func (r *memResults) RecordResult(ctx context.Context, winnerID, loserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winner, r.loser = winnerID, loserID
	r.calls++
	return nil
}

func TestRoomService_Registry(t *testing.T) {
	svc := NewRoomService(Config{}, nil, nil, nil)

	r1 := svc.GetOrCreate("alpha")
	defer r1.Stop()
	r2 := svc.GetOrCreate("alpha")
	assert.Same(t, r1, r2, "same id resolves to the same room")

	_, ok := svc.Get("missing")
	assert.False(t, ok, "join mode must not create rooms")

	got, ok := svc.Get("alpha")
	require.True(t, ok)
	assert.Same(t, r1, got)
}

func TestRoomService_ReclaimsEmptyRooms(t *testing.T) {
	svc := NewRoomService(Config{}, nil, nil, nil)

	room := svc.GetOrCreate("alpha")
	cc := newTestConn()
	role := room.Attach(cc)

	svc.Detach(room, cc, role)

	_, ok := svc.Get("alpha")
	assert.False(t, ok, "empty room must be dropped from the registry")

	room.mu.Lock()
	assert.False(t, room.loopRunning, "timer must be stopped on reclaim")
	room.mu.Unlock()
}

func TestRoomService_DetachNotifiesRemainingClients(t *testing.T) {
	svc := NewRoomService(Config{}, nil, nil, nil)

	room := svc.GetOrCreate("alpha")
	defer room.Stop()

	c1 := newTestConn()
	c2 := newTestConn()
	role1 := room.Attach(c1)
	room.Attach(c2)

	svc.Detach(room, c1, role1)

	select {
	case b := <-c2.send:
		var msg systemMessage
		require.NoError(t, json.Unmarshal(b, &msg))
		assert.Equal(t, "system", msg.Type)
		assert.Contains(t, msg.Message, "player left")
	default:
		t.Fatal("remaining client did not hear about the departure")
	}
}

func TestRoomService_ArchivesSnapshots(t *testing.T) {
	archive := &memArchive{}
	svc := NewRoomService(Config{}, archive, nil, nil)

	room := svc.GetOrCreate("alpha")
	defer room.Stop()

	ok, _ := room.HandleAction(RolePlayer, "start", nil)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		snap, found, _ := archive.Load(context.Background(), "alpha")
		return found && snap.Started
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRoomService_RecordsGameResult(t *testing.T) {
	results := &memResults{}
	svc := NewRoomService(Config{}, nil, results, nil)

	room := svc.GetOrCreate("alpha")
	defer room.Stop()

	c1 := &ClientConn{send: make(chan []byte, 256), userID: "u-winner"}
	c2 := &ClientConn{send: make(chan []byte, 256), userID: "u-loser"}
	require.Equal(t, RolePlayer, room.Attach(c1))
	require.Equal(t, RoleOpponent, room.Attach(c2))

	ok, _ := room.HandleAction(RolePlayer, "start", nil)
	require.True(t, ok)
	skipMulligan(room)

	ok, _ = room.HandleAction(RolePlayer, "cheat", raw(t, CheatPayload{
		CheatType: "modify-hp",
		Data:      CheatData{Target: "opponent", Delta: -25},
	}))
	require.True(t, ok)

	require.Eventually(t, func() bool {
		results.mu.Lock()
		defer results.mu.Unlock()
		return results.calls == 1 && results.winner == "u-winner" && results.loser == "u-loser"
	}, 2*time.Second, 10*time.Millisecond)

	// a second game-over report must not fire for the same game
	ok, _ = room.HandleAction(RolePlayer, "end-turn", nil)
	assert.False(t, ok)

	results.mu.Lock()
	defer results.mu.Unlock()
	assert.Equal(t, 1, results.calls)
}
