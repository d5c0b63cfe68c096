package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SnapshotArchive stores the latest snapshot per room, best-effort.
type SnapshotArchive interface {
	Save(ctx context.Context, roomID string, snap Snapshot) error
	Load(ctx context.Context, roomID string) (Snapshot, bool, error)
}

// ResultRecorder receives finished-game results for the stats tables.
type ResultRecorder interface {
	RecordResult(ctx context.Context, winnerID, loserID string) error
}

// RoomService owns room creation and lookup. Its mutex guards only the
// registry map; each room keeps its own lock and the two never nest.
type RoomService struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg     Config
	archive SnapshotArchive // optional
	results ResultRecorder  // optional
	log     *slog.Logger
}

func NewRoomService(cfg Config, archive SnapshotArchive, results ResultRecorder, log *slog.Logger) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &RoomService{
		rooms:   make(map[string]*Room),
		cfg:     cfg,
		archive: archive,
		results: results,
		log:     log,
	}
}

// GetOrCreate returns the room, building it lazily on first use.
func (s *RoomService) GetOrCreate(roomID string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[roomID]; ok {
		return room
	}

	room := NewRoom(roomID, s.cfg)
	room.onPersist = func(snap Snapshot) {
		if s.archive == nil {
			return
		}
		// off the room lock; archive writes never slow gameplay
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.archive.Save(ctx, roomID, snap); err != nil {
				s.log.Warn("snapshot archive save failed", "roomId", roomID, "err", err)
			}
		}()
	}
	room.onGameOver = func(winnerID, loserID string) {
		if s.results == nil || winnerID == "" || loserID == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.results.RecordResult(ctx, winnerID, loserID); err != nil {
				s.log.Warn("result record failed", "roomId", roomID, "err", err)
			}
		}()
	}

	s.rooms[roomID] = room
	s.log.Info("room created", "roomId", roomID)
	return room
}

// Get looks up an existing room; missing rooms are the caller's error
// (join mode).
func (s *RoomService) Get(roomID string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// Detach removes the connection from the room. The last client out
// stops the timer and drops the room from the registry; otherwise the
// remaining clients hear about the departure.
func (s *RoomService) Detach(room *Room, cc *ClientConn, role Role) {
	remaining := room.Detach(cc)
	if remaining == 0 {
		room.Stop()
		s.mu.Lock()
		delete(s.rooms, room.ID())
		s.mu.Unlock()
		s.log.Info("room reclaimed", "roomId", room.ID())
		return
	}
	room.Broadcast(systemMsg(fmt.Sprintf("%s left the room", role)))
}

// ArchivedSnapshot reads the last stored snapshot for a room that may
// no longer be live.
func (s *RoomService) ArchivedSnapshot(ctx context.Context, roomID string) (Snapshot, bool, error) {
	if s.archive == nil {
		return Snapshot{}, false, nil
	}
	return s.archive.Load(ctx, roomID)
}
