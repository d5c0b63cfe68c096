package game

import "time"

type Role string

const (
	RolePlayer    Role = "player"
	RoleOpponent  Role = "opponent"
	RoleSpectator Role = "spectator"
)

const (
	initialHP   = 20
	initialMana = 3
	defaultDeck = 10
	maxPenalty  = 3

	// retained in memory vs exposed in snapshots
	cheatLogRetain  = 100
	cheatLogVisible = 50
)

// Config holds per-room tunables. Zero values fall back to the
// gameplay defaults, so tests can shrink the timers.
type Config struct {
	TurnSeconds     int
	MulliganSeconds int
	AccuseWindow    time.Duration
}

func (c Config) withDefaults() Config {
	if c.TurnSeconds <= 0 {
		c.TurnSeconds = 60
	}
	if c.MulliganSeconds <= 0 {
		c.MulliganSeconds = 10
	}
	if c.AccuseWindow <= 0 {
		c.AccuseWindow = 10 * time.Second
	}
	return c
}

// PlayerState is one side of the board. Mutated only by the owning
// room under its mutex.
type PlayerState struct {
	HP      int
	Mana    int
	MaxMana int
	Hand    []int // card ids
	Field   []int // card ids
	Deck    int   // decorative counter, never drawn from
	Penalty int
}

func newPlayerState() *PlayerState {
	return &PlayerState{
		HP:      initialHP,
		Mana:    initialMana,
		MaxMana: initialMana,
		Hand:    []int{},
		Field:   []int{},
		Deck:    defaultDeck,
	}
}

// CheatLogItem is one permitted-illegal action. Immutable once
// appended; (TS, Action) is the identity accusations match against.
type CheatLogItem struct {
	TS      float64        `json:"ts"`
	By      Role           `json:"by"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
}

// GameState is the full mutable truth of one room. Created at room
// construction and fully rebuilt on every (re)start.
type GameState struct {
	CurrentTurn Role
	IsGameOver  bool
	Winner      Role // empty until decided
	Timer       int

	IsMulliganPhase       bool
	MulliganTimer         int
	PlayerMulliganDone    bool
	OpponentMulliganDone  bool
	PlayerMulliganCards   []int // hand indices to throw back
	OpponentMulliganCards []int

	Player   *PlayerState
	Opponent *PlayerState

	CheatLog []CheatLogItem
}

func newGameState(cfg Config) *GameState {
	return &GameState{
		CurrentTurn: RolePlayer,
		Timer:       cfg.TurnSeconds,
		Player:      newPlayerState(),
		Opponent:    newPlayerState(),
	}
}

func (s *GameState) side(role Role) *PlayerState {
	if role == RolePlayer {
		return s.Player
	}
	return s.Opponent
}

func (s *GameState) enemySide(role Role) *PlayerState {
	if role == RolePlayer {
		return s.Opponent
	}
	return s.Player
}

func otherRole(role Role) Role {
	if role == RolePlayer {
		return RoleOpponent
	}
	return RolePlayer
}

// wallSeconds is the ledger clock: wall time as float seconds with
// nanosecond resolution.
func wallSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
