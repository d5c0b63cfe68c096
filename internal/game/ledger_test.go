package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_TimestampsStrictlyIncrease(t *testing.T) {
	s := newGameState(Config{}.withDefaults())

	// appends faster than the wall clock can tick still get distinct,
	// ordered timestamps
	for i := 0; i < 500; i++ {
		s.logCheatLocked(RolePlayer, "add-own-hand", map[string]any{})
	}

	prev := 0.0
	for i, item := range s.CheatLog {
		require.Greater(t, item.TS, prev, "entry %d not strictly after its predecessor", i)
		prev = item.TS
	}
}

func TestLedger_CapEvictsOldestFirst(t *testing.T) {
	s := newGameState(Config{}.withDefaults())

	for i := 0; i < cheatLogRetain+20; i++ {
		s.logCheatLocked(RolePlayer, "add-own-hand", map[string]any{"seq": i})
	}

	require.Len(t, s.CheatLog, cheatLogRetain)
	assert.Equal(t, 20, s.CheatLog[0].Payload["seq"], "oldest entries are gone")
	assert.Equal(t, cheatLogRetain+19, s.CheatLog[len(s.CheatLog)-1].Payload["seq"])
}

func TestLedger_RecentQueryFiltersRoleAndWindow(t *testing.T) {
	s := newGameState(Config{}.withDefaults())

	s.logCheatLocked(RolePlayer, "add-own-hand", map[string]any{})
	s.logCheatLocked(RoleOpponent, "summon-own", map[string]any{})
	s.logCheatLocked(RoleOpponent, "modify-hp", map[string]any{})

	// age the first opponent entry out of the window
	s.CheatLog[1].TS -= 30

	now := wallSeconds()
	recent := s.recentCheatsByLocked(RoleOpponent, now, 10)

	require.Len(t, recent, 1)
	assert.Equal(t, "modify-hp", recent[0].Action)
}

func TestLedger_SnapshotExposesOnlyTheTail(t *testing.T) {
	r := NewRoom("r1", Config{})
	defer r.Stop()

	r.mu.Lock()
	for i := 0; i < cheatLogVisible+30; i++ {
		r.state.logCheatLocked(RolePlayer, "add-own-hand", map[string]any{"seq": i})
	}
	retained := len(r.state.CheatLog)
	r.mu.Unlock()

	snap := r.Snapshot()
	require.Len(t, snap.CheatLog, cheatLogVisible)
	assert.Equal(t, 30, snap.CheatLog[0].Payload["seq"],
		"snapshot starts where the retained log minus the visible window ends")
	assert.GreaterOrEqual(t, retained, cheatLogVisible)
}
