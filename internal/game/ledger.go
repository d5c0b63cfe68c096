package game

// Cheat ledger: bounded, append-only, time-ordered. Appends and the
// recency query both run under the owning room's mutex.

// logCheatLocked appends one entry and trims the oldest past the
// retention cap. Timestamps are forced strictly increasing so that
// (TS, Action) is never ambiguous inside an accusation window.
func (s *GameState) logCheatLocked(by Role, action string, payload map[string]any) {
	ts := wallSeconds()
	if n := len(s.CheatLog); n > 0 && ts <= s.CheatLog[n-1].TS {
		ts = s.CheatLog[n-1].TS + 1e-6
	}

	s.CheatLog = append(s.CheatLog, CheatLogItem{
		TS:      ts,
		By:      by,
		Action:  action,
		Payload: payload,
	})

	if over := len(s.CheatLog) - cheatLogRetain; over > 0 {
		s.CheatLog = append(s.CheatLog[:0], s.CheatLog[over:]...)
	}
}

// recentCheatsByLocked returns entries by role with age <= window
// seconds, oldest to newest as stored. O(n) over the bounded log.
func (s *GameState) recentCheatsByLocked(by Role, now, windowSec float64) []CheatLogItem {
	var out []CheatLogItem
	for _, item := range s.CheatLog {
		if item.By == by && now-item.TS <= windowSec {
			out = append(out, item)
		}
	}
	return out
}
