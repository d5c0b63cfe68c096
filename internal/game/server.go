package game

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strings"
)

type Server struct {
	cfg    Config
	rooms  *RoomService
	verify TokenVerifier
}

func NewServer(cfg Config, rooms *RoomService, verify TokenVerifier) *Server {
	return &Server{
		cfg:    cfg.withDefaults(),
		rooms:  rooms,
		verify: verify,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/", s.handleWS)
	mux.HandleFunc("/api/first-attack", s.handleFirstAttack)
	mux.HandleFunc("/api/rooms/", s.handleRoomSnapshot)
}

// handleFirstAttack is the stateless coin flip for who attacks first.
// Independent of any room.
func (s *Server) handleFirstAttack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	first := RolePlayer
	if rand.IntN(2) == 1 {
		first = RoleOpponent
	}
	writeJSON(w, http.StatusOK, map[string]Role{"first": first})
}

// handleRoomSnapshot serves a read-only view of a room: the live
// snapshot when the room is in memory, the archived one otherwise.
func (s *Server) handleRoomSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	roomID := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	if roomID == "" || strings.Contains(roomID, "/") {
		http.Error(w, "bad room id", http.StatusBadRequest)
		return
	}

	if room, ok := s.rooms.Get(roomID); ok {
		writeJSON(w, http.StatusOK, room.Snapshot())
		return
	}

	snap, found, err := s.rooms.ArchivedSnapshot(r.Context(), roomID)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
