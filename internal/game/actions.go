package game

import (
	"encoding/json"
	"fmt"
)

// HandleAction is the single entry point for gameplay commands. It
// validates fully before writing anything, so a failed action never
// leaves a partial mutation behind. Failures come back as
// (false, reason) — the transport turns them into acks, not errors.
func (r *Room) HandleAction(role Role, action string, payload json.RawMessage) (ok bool, reason string) {
	if role != RolePlayer && role != RoleOpponent {
		return false, "spectators cannot act"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// start is allowed in any phase: idempotent while a game is
	// running, explicit restart after game over.
	if action == "start" {
		r.startLocked()
		r.ensureLoopLocked()
		r.afterMutateLocked(r.snapshotLocked())
		return true, "started"
	}

	if !r.started {
		return false, "game has not started (send start first)"
	}
	if r.state.IsGameOver {
		return false, "game is already over"
	}

	// a failed accusation still mutates (accuser penalty), so persist
	// regardless of the verdict
	defer func() { r.afterMutateLocked(r.snapshotLocked()) }()

	switch action {
	case "play-card":
		return r.playCardLocked(role, payload)
	case "end-turn":
		return r.endTurnLocked(role)
	case "cheat":
		return r.cheatLocked(role, payload)
	case "accuse":
		return r.accuseLocked(role, payload)
	case "mulligan":
		return r.mulliganLocked(role, payload)
	default:
		return false, fmt.Sprintf("unknown action: %s", action)
	}
}

func (r *Room) playCardLocked(role Role, raw json.RawMessage) (bool, string) {
	if r.state.CurrentTurn != role {
		return false, "not your turn"
	}

	p := PlayCardPayload{HandIndex: -1}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return false, "invalid play-card payload"
		}
	}

	ps := r.state.side(role)
	if p.HandIndex < 0 || p.HandIndex >= len(ps.Hand) {
		return false, "handIndex out of range"
	}

	cardID := ps.Hand[p.HandIndex]
	card, found := cardByID(cardID)
	if !found {
		return false, "card is not in the catalog"
	}
	if ps.Mana < card.Cost {
		return false, "not enough mana"
	}

	ps.Mana -= card.Cost
	ps.Hand = append(ps.Hand[:p.HandIndex], ps.Hand[p.HandIndex+1:]...)
	ps.Field = append(ps.Field, cardID)

	r.evaluateGameOverLocked()
	return true, "played"
}

func (r *Room) endTurnLocked(role Role) (bool, string) {
	if r.state.CurrentTurn != role {
		return false, "not your turn"
	}
	r.switchTurnLocked()
	return true, "turn switched"
}

// cheatLocked applies one of the sanctioned illegal mutations and logs
// it. An out-of-range index degrades to a logged no-op on purpose: the
// cheat "happened" and is accusable even if it moved nothing.
func (r *Room) cheatLocked(role Role, raw json.RawMessage) (bool, string) {
	var p CheatPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return false, "invalid cheat payload"
		}
	}

	ps := r.state.side(role)
	enemy := r.state.enemySide(role)

	switch p.CheatType {
	case "summon-own":
		idx := p.Data.HandIndex
		if idx >= 0 && idx < len(ps.Hand) {
			cardID := ps.Hand[idx]
			ps.Hand = append(ps.Hand[:idx], ps.Hand[idx+1:]...)
			ps.Field = append(ps.Field, cardID)
		}
		r.state.logCheatLocked(role, p.CheatType, map[string]any{"handIndex": idx})

	case "destroy-opponent":
		idx := p.Data.FieldIndex
		if idx >= 0 && idx < len(enemy.Field) {
			enemy.Field = append(enemy.Field[:idx], enemy.Field[idx+1:]...)
		}
		r.state.logCheatLocked(role, p.CheatType, map[string]any{"fieldIndex": idx})

	case "steal-opponent":
		idx := p.Data.FieldIndex
		if idx >= 0 && idx < len(enemy.Field) {
			cardID := enemy.Field[idx]
			enemy.Field = append(enemy.Field[:idx], enemy.Field[idx+1:]...)
			ps.Field = append(ps.Field, cardID)
		}
		r.state.logCheatLocked(role, p.CheatType, map[string]any{"fieldIndex": idx})

	case "add-own-hand":
		ps.Hand = append(ps.Hand, r.drawLocked())
		r.state.logCheatLocked(role, p.CheatType, map[string]any{})

	case "add-opponent-hand":
		enemy.Hand = append(enemy.Hand, r.drawLocked())
		r.state.logCheatLocked(role, p.CheatType, map[string]any{})

	case "remove-own-hand":
		if len(ps.Hand) > 0 {
			ps.Hand = ps.Hand[:len(ps.Hand)-1]
		}
		r.state.logCheatLocked(role, p.CheatType, map[string]any{})

	case "remove-opponent-hand":
		if len(enemy.Hand) > 0 {
			enemy.Hand = enemy.Hand[:len(enemy.Hand)-1]
		}
		r.state.logCheatLocked(role, p.CheatType, map[string]any{})

	case "modify-hp":
		target := ps
		if p.Data.Target == "opponent" {
			target = enemy
		}
		target.HP += p.Data.Delta
		r.state.logCheatLocked(role, p.CheatType, map[string]any{
			"target": targetName(p.Data.Target),
			"delta":  p.Data.Delta,
		})

	case "modify-mana":
		target := ps
		if p.Data.Target == "opponent" {
			target = enemy
		}
		target.Mana = max(0, target.Mana+p.Data.Delta)
		if target.Mana > target.MaxMana {
			target.MaxMana = target.Mana
		}
		r.state.logCheatLocked(role, p.CheatType, map[string]any{
			"target": targetName(p.Data.Target),
			"delta":  p.Data.Delta,
		})

	default:
		return false, fmt.Sprintf("unknown cheatType: %s", p.CheatType)
	}

	r.evaluateGameOverLocked()
	return true, "cheated"
}

func targetName(t string) string {
	if t == "opponent" {
		return "opponent"
	}
	return "self"
}

// accuseLocked resolves an accusation against the opponent's recent
// ledger entries: exact timestamp match first, positional index into
// the filtered list second. A miss costs the accuser a penalty, a hit
// costs the cheater one.
func (r *Room) accuseLocked(role Role, raw json.RawMessage) (bool, string) {
	var p AccusePayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return false, "invalid accuse payload"
		}
	}

	now := wallSeconds()
	enemyRole := otherRole(role)
	window := r.cfg.AccuseWindow.Seconds()

	recent := r.state.recentCheatsByLocked(enemyRole, now, window)
	if len(recent) == 0 {
		r.state.side(role).Penalty++
		r.evaluateGameOverLocked()
		return false, "no opponent cheat in the accusation window (penalty on you)"
	}

	var chosen *CheatLogItem
	if p.TS != nil {
		for i := range recent {
			if abs(recent[i].TS-*p.TS) < 1e-4 {
				chosen = &recent[i]
				break
			}
		}
	}
	if chosen == nil && p.Index != nil {
		if i := *p.Index; i >= 0 && i < len(recent) {
			chosen = &recent[i]
		}
	}

	if chosen == nil {
		r.state.side(role).Penalty++
		r.evaluateGameOverLocked()
		return false, "accusation did not match any entry (penalty on you)"
	}

	r.state.side(enemyRole).Penalty++
	r.state.logCheatLocked(role, "accuse", map[string]any{
		"targetTs":     chosen.TS,
		"targetAction": chosen.Action,
	})

	r.evaluateGameOverLocked()
	return true, "accusation upheld (penalty on opponent)"
}

// mulliganLocked records which hand positions to throw back. The hand
// itself is untouched until the timer driver executes both sides
// together.
func (r *Room) mulliganLocked(role Role, raw json.RawMessage) (bool, string) {
	if !r.state.IsMulliganPhase {
		return false, "not in the mulligan phase"
	}
	if (role == RolePlayer && r.state.PlayerMulliganDone) ||
		(role == RoleOpponent && r.state.OpponentMulliganDone) {
		return false, "mulligan already submitted"
	}

	var p MulliganPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return false, "invalid mulligan payload"
		}
	}

	ps := r.state.side(role)
	for _, idx := range p.CardIndices {
		if idx < 0 || idx >= len(ps.Hand) {
			return false, fmt.Sprintf("card index out of range: %d", idx)
		}
	}

	indices := append([]int(nil), p.CardIndices...)
	if role == RolePlayer {
		r.state.PlayerMulliganCards = indices
		r.state.PlayerMulliganDone = true
	} else {
		r.state.OpponentMulliganCards = indices
		r.state.OpponentMulliganDone = true
	}

	return true, fmt.Sprintf("mulligan recorded: %d card(s)", len(indices))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
