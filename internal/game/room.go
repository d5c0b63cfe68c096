package game

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

// Room is the session actor: it owns one GameState, the roster of
// connected clients and the background phase timer. Every mutation —
// actions, ticks, attach/detach — happens under mu; socket I/O never
// does (sends go through buffered per-connection channels).
type Room struct {
	id string
	mu sync.Mutex

	cfg    Config
	state  *GameState
	roster map[*ClientConn]Role

	started         bool
	firstAttackRole Role // fixed once per room lifetime, survives restarts

	rng *rand.Rand

	loopRunning bool
	quit        chan struct{}

	// hooks wired by RoomService; both optional and must not block
	onPersist  func(Snapshot)
	onGameOver func(winnerID, loserID string)

	gameOverReported bool
}

func NewRoom(id string, cfg Config) *Room {
	cfg = cfg.withDefaults()
	return &Room{
		id:     id,
		cfg:    cfg,
		state:  newGameState(cfg),
		roster: make(map[*ClientConn]Role),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (r *Room) ID() string { return r.id }

// Attach assigns the next free role ("player", then "opponent",
// everyone after that spectates) and registers the connection.
func (r *Room) Attach(cc *ClientConn) Role {
	r.mu.Lock()
	defer r.mu.Unlock()

	role := r.assignRoleLocked()
	r.roster[cc] = role
	return role
}

func (r *Room) assignRoleLocked() Role {
	used := make(map[Role]bool, len(r.roster))
	for _, role := range r.roster {
		used[role] = true
	}
	if !used[RolePlayer] {
		return RolePlayer
	}
	if !used[RoleOpponent] {
		return RoleOpponent
	}
	return RoleSpectator
}

// Detach removes the connection and reports how many remain, so the
// caller can reclaim an empty room.
func (r *Room) Detach(cc *ClientConn) (remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.roster, cc)
	return len(r.roster)
}

// Seated reports whether both active roles are taken.
func (r *Room) Seated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := make(map[Role]bool, len(r.roster))
	for _, role := range r.roster {
		used[role] = true
	}
	return used[RolePlayer] && used[RoleOpponent]
}

func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Stop cancels the timer goroutine. Safe to call repeatedly.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loopRunning {
		close(r.quit)
		r.loopRunning = false
	}
}

// startLocked is the only transition into the mulligan/active phases.
// No-op while a game is running; after game over it acts as the
// explicit restart and rebuilds the whole GameState.
func (r *Room) startLocked() {
	if r.started && !r.state.IsGameOver {
		return
	}

	r.started = true
	r.gameOverReported = false
	r.state = newGameState(r.cfg)

	// opening hands: first three catalog cards each
	r.state.Player.Hand = []int{CardDB[0].ID, CardDB[1].ID, CardDB[2].ID}
	r.state.Opponent.Hand = []int{CardDB[0].ID, CardDB[1].ID, CardDB[2].ID}

	// who attacks first is decided once and reused across restarts
	if r.firstAttackRole == "" {
		if r.rng.IntN(2) == 0 {
			r.firstAttackRole = RolePlayer
		} else {
			r.firstAttackRole = RoleOpponent
		}
	}

	r.state.IsMulliganPhase = true
	r.state.MulliganTimer = r.cfg.MulliganSeconds
}

func (r *Room) ensureLoopLocked() {
	if r.loopRunning {
		return
	}
	r.loopRunning = true
	r.quit = make(chan struct{})
	go r.loop(r.quit)
}

func (r *Room) loop(quit chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick advances the phase timers by one second and publishes a fresh
// snapshot. State is mutated under the lock; the broadcast happens
// after release.
func (r *Room) tick() {
	r.mu.Lock()

	if r.started && !r.state.IsGameOver {
		if r.state.IsMulliganPhase {
			r.state.MulliganTimer--
			if r.state.MulliganTimer <= 0 ||
				(r.state.PlayerMulliganDone && r.state.OpponentMulliganDone) {
				r.executeMulliganLocked()
			}
		} else {
			r.state.Timer--
			if r.state.Timer <= 0 {
				r.switchTurnLocked()
			}
		}
	}

	snap := r.snapshotLocked()
	conns := r.connsLocked()
	r.afterMutateLocked(snap)
	r.mu.Unlock()

	broadcast(conns, stateMsg(snap))
}

func (r *Room) switchTurnLocked() {
	r.state.CurrentTurn = otherRole(r.state.CurrentTurn)
	r.state.Timer = r.cfg.TurnSeconds
}

// executeMulliganLocked applies both sides' deferred mulligans
// atomically: discard the recorded hand positions in descending index
// order, then draw one replacement per discard.
func (r *Room) executeMulliganLocked() {
	if !r.state.IsMulliganPhase {
		return
	}

	apply := func(ps *PlayerState, indices []int) {
		if len(indices) == 0 {
			return
		}
		sorted := append([]int(nil), indices...)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		for _, idx := range sorted {
			if idx >= 0 && idx < len(ps.Hand) {
				ps.Hand = append(ps.Hand[:idx], ps.Hand[idx+1:]...)
			}
		}
		for range indices {
			ps.Hand = append(ps.Hand, r.drawLocked())
		}
	}

	apply(r.state.Player, r.state.PlayerMulliganCards)
	apply(r.state.Opponent, r.state.OpponentMulliganCards)

	r.state.IsMulliganPhase = false
	r.state.PlayerMulliganDone = false
	r.state.OpponentMulliganDone = false
	r.state.PlayerMulliganCards = nil
	r.state.OpponentMulliganCards = nil
	r.state.Timer = r.cfg.TurnSeconds
}

// drawLocked picks a uniform random catalog card id.
func (r *Room) drawLocked() int {
	return CardDB[r.rng.IntN(len(CardDB))].ID
}

// evaluateGameOverLocked checks loss conditions in fixed order: HP
// before penalty, player side before opponent. The first condition
// found decides the winner, so an HP-derived winner beats a
// simultaneous penalty-derived one.
func (r *Room) evaluateGameOverLocked() {
	s := r.state
	if s.IsGameOver {
		return
	}

	switch {
	case s.Player.HP <= 0:
		s.IsGameOver = true
		s.Winner = RoleOpponent
	case s.Opponent.HP <= 0:
		s.IsGameOver = true
		s.Winner = RolePlayer
	case s.Player.Penalty >= maxPenalty:
		s.IsGameOver = true
		s.Winner = RoleOpponent
	case s.Opponent.Penalty >= maxPenalty:
		s.IsGameOver = true
		s.Winner = RolePlayer
	}
}

// afterMutateLocked runs the persistence hook and, once per game,
// reports the result for stats.
func (r *Room) afterMutateLocked(snap Snapshot) {
	if r.onPersist != nil {
		r.onPersist(snap)
	}

	if r.state.IsGameOver && !r.gameOverReported && r.onGameOver != nil {
		r.gameOverReported = true
		winnerID := r.userIDForRoleLocked(r.state.Winner)
		loserID := r.userIDForRoleLocked(otherRole(r.state.Winner))
		r.onGameOver(winnerID, loserID)
	}
}

func (r *Room) userIDForRoleLocked(role Role) string {
	for cc, got := range r.roster {
		if got == role {
			return cc.userID
		}
	}
	return ""
}

func (r *Room) connsLocked() []*ClientConn {
	conns := make([]*ClientConn, 0, len(r.roster))
	for cc := range r.roster {
		conns = append(conns, cc)
	}
	return conns
}

// BroadcastState sends a fresh snapshot to every connected client.
// Fan-out is independent per recipient.
func (r *Room) BroadcastState() {
	r.mu.Lock()
	snap := r.snapshotLocked()
	conns := r.connsLocked()
	r.mu.Unlock()

	broadcast(conns, stateMsg(snap))
}

// Broadcast sends an arbitrary message to every connected client.
func (r *Room) Broadcast(msg any) {
	r.mu.Lock()
	conns := r.connsLocked()
	r.mu.Unlock()

	broadcast(conns, msg)
}

func broadcast(conns []*ClientConn, msg any) {
	for _, cc := range conns {
		cc.sendJSON(msg)
	}
}
