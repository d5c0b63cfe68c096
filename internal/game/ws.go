package game

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"example.com/ccg-mvp/internal/auth"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // MVP
}

// ClientConn wraps one websocket. The writer goroutine is the only
// thing touching the socket for writes; everyone else drops JSON into
// the buffered send channel.
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	userID      string
	displayName string

	mu     sync.Mutex // guards closed + the close/send race
	closed bool
}

func (c *ClientConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// sendJSON is non-blocking: a client that cannot keep up loses
// messages instead of stalling the room.
func (c *ClientConn) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// TokenVerifier lets tests stub out JWT verification.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// handleWS — websocket entry into a room: /ws/{roomId}?mode=create|join
//
// Auth comes either as a Bearer header (checked before upgrade, 401 on
// failure) or as a first {"type":"auth","token":...} message after the
// upgrade.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDFromWSPath(r.URL.Path)
	if !ok {
		http.Error(w, "bad room id", http.StatusBadRequest)
		return
	}
	mode := r.URL.Query().Get("mode")

	var claims *auth.Claims
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		c, err := s.verify.Verify(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		claims = c
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	if claims == nil {
		c, err := s.readAuthMessage(ws)
		if err != nil {
			_ = ws.WriteJSON(errorMsg("authentication required"))
			_ = ws.Close()
			return
		}
		claims = c
	}

	// join mode only enters existing rooms; create mode builds one
	var room *Room
	if mode == "join" {
		room, ok = s.rooms.Get(roomID)
		if !ok {
			_ = ws.WriteJSON(errorMsg("room not found"))
			_ = ws.Close()
			return
		}
	} else {
		room = s.rooms.GetOrCreate(roomID)
	}

	cc := &ClientConn{
		ws:          ws,
		send:        make(chan []byte, 64),
		userID:      claims.UserID,
		displayName: claims.DisplayName,
	}

	go writerLoop(cc)

	role := room.Attach(cc)
	cc.sendJSON(helloMessage{Type: "hello", RoomID: roomID, Role: role})

	switch role {
	case RolePlayer:
		room.Broadcast(systemMsg("waiting for an opponent..."))
	case RoleOpponent:
		room.Broadcast(systemMsg("an opponent has arrived"))
	}

	// both seats taken => the game starts itself
	if role != RoleSpectator && room.Seated() && !room.Started() {
		room.HandleAction(RolePlayer, "start", nil)
		room.BroadcastState()
	}

	cc.sendJSON(stateMsg(room.Snapshot()))

	s.readLoop(room, cc, role)

	s.rooms.Detach(room, cc, role)
	cc.Close()
}

func (s *Server) readAuthMessage(ws *websocket.Conn) (*auth.Claims, error) {
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer ws.SetReadDeadline(time.Time{})

	_, data, err := ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	var m clientMessage
	if err := json.Unmarshal(data, &m); err != nil || m.Type != "auth" {
		return nil, fmt.Errorf("expected auth message")
	}
	return s.verify.Verify(m.Token)
}

func writerLoop(cc *ClientConn) {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-cc.send:
			if !ok {
				return
			}
			_ = cc.ws.WriteMessage(websocket.TextMessage, msg)
		case <-ticker.C:
			_ = cc.ws.WriteMessage(websocket.PingMessage, []byte{})
		}
	}
}

func (s *Server) readLoop(room *Room, cc *ClientConn, role Role) {
	for {
		_, data, err := cc.ws.ReadMessage()
		if err != nil {
			return
		}

		var m clientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			cc.sendJSON(errorMsg("invalid json"))
			continue
		}

		switch m.Type {
		case "ping":
			cc.sendJSON(typeOnlyMessage{Type: "pong"})

		case "battle-ready":
			room.Broadcast(typeOnlyMessage{Type: "battle-ready"})

		case "action":
			ok, reason := room.HandleAction(role, m.Action, m.Payload)
			room.BroadcastState()
			cc.sendJSON(ackMessage{Type: "ack", OK: ok, Reason: reason})

		default:
			cc.sendJSON(errorMsg(fmt.Sprintf("unknown type: %s", m.Type)))
		}
	}
}

// roomIDFromWSPath extracts the id from "/ws/{roomID}". Ids are
// 1..64 lowercase alphanumerics, no extra path segments.
func roomIDFromWSPath(path string) (string, bool) {
	const prefix = "/ws/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := path[len(prefix):]
	if id == "" || len(id) > 64 || strings.Contains(id, "/") {
		return "", false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return "", false
		}
	}
	return id, true
}
