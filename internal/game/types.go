package game

import "encoding/json"

// Wire messages are flat JSON objects tagged by "type", e.g.
// {"type":"action","action":"play-card","payload":{"handIndex":0}}.

// clientMessage covers everything a client may send.
type clientMessage struct {
	Type    string          `json:"type"`
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Token   string          `json:"token,omitempty"` // auth message only
}

// Server → client messages.

type helloMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Role   Role   `json:"role"`
}

type stateMessage struct {
	Type  string   `json:"type"`
	State Snapshot `json:"state"`
}

type ackMessage struct {
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

type systemMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type typeOnlyMessage struct {
	Type string `json:"type"`
}

func stateMsg(snap Snapshot) stateMessage { return stateMessage{Type: "state", State: snap} }
func systemMsg(text string) systemMessage { return systemMessage{Type: "system", Message: text} }
func errorMsg(text string) errorMessage   { return errorMessage{Type: "error", Message: text} }

// Typed action payloads. The free-form maps of the wire protocol stop
// here: everything past HandleAction works on these structs.

type PlayCardPayload struct {
	HandIndex int `json:"handIndex"`
}

type CheatPayload struct {
	CheatType string    `json:"cheatType"`
	Data      CheatData `json:"data"`
}

// CheatData covers every cheat variant; each cheat reads only its own
// fields. Target is "self" unless explicitly "opponent".
type CheatData struct {
	HandIndex  int    `json:"handIndex"`
	FieldIndex int    `json:"fieldIndex"`
	Target     string `json:"target"`
	Delta      int    `json:"delta"`
}

// AccusePayload: ts is the preferred selector, index the fallback.
// Pointers so "absent" and "zero" stay distinguishable.
type AccusePayload struct {
	Index *int     `json:"index"`
	TS    *float64 `json:"ts"`
}

type MulliganPayload struct {
	CardIndices []int `json:"cardIndices"`
}
