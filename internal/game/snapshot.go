package game

// Snapshot is the client-facing projection of one room. Both hands
// are visible to both sides by design — there is no hidden
// information in this game, only unaccused cheating.
type Snapshot struct {
	RoomID      string `json:"roomId"`
	Started     bool   `json:"started"`
	CurrentTurn Role   `json:"currentTurn"`
	Timer       int    `json:"timer"`
	IsGameOver  bool   `json:"isGameOver"`
	Winner      Role   `json:"winner"`

	IsMulliganPhase      bool `json:"isMulliganPhase"`
	MulliganTimer        int  `json:"mulliganTimer"`
	PlayerMulliganDone   bool `json:"playerMulliganDone"`
	OpponentMulliganDone bool `json:"opponentMulliganDone"`

	Player   PlayerView `json:"player"`
	Opponent PlayerView `json:"opponent"`

	Cards           []Card         `json:"cards"`
	CheatLog        []CheatLogItem `json:"cheatLog"`
	FirstAttackRole Role           `json:"firstAttackRole"`
}

type PlayerView struct {
	HP      int   `json:"hp"`
	Mana    int   `json:"mana"`
	MaxMana int   `json:"maxMana"`
	Hand    []int `json:"hand"`
	Field   []int `json:"field"`
	Deck    int   `json:"deck"`
	Penalty int   `json:"penalty"`
}

// Snapshot builds the projection under the room's lock.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	s := r.state

	view := func(ps *PlayerState) PlayerView {
		return PlayerView{
			HP:      ps.HP,
			Mana:    ps.Mana,
			MaxMana: ps.MaxMana,
			Hand:    append([]int{}, ps.Hand...),
			Field:   append([]int{}, ps.Field...),
			Deck:    ps.Deck,
			Penalty: ps.Penalty,
		}
	}

	// only the tail of the retained ledger is exposed
	visible := s.CheatLog
	if len(visible) > cheatLogVisible {
		visible = visible[len(visible)-cheatLogVisible:]
	}
	cheatLog := append([]CheatLogItem{}, visible...)

	return Snapshot{
		RoomID:      r.id,
		Started:     r.started,
		CurrentTurn: s.CurrentTurn,
		Timer:       s.Timer,
		IsGameOver:  s.IsGameOver,
		Winner:      s.Winner,

		IsMulliganPhase:      s.IsMulliganPhase,
		MulliganTimer:        s.MulliganTimer,
		PlayerMulliganDone:   s.PlayerMulliganDone,
		OpponentMulliganDone: s.OpponentMulliganDone,

		Player:   view(s.Player),
		Opponent: view(s.Opponent),

		Cards:           CardDB,
		CheatLog:        cheatLog,
		FirstAttackRole: r.firstAttackRole,
	}
}
