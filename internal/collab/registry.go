package collab

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultGracePeriod is how long an empty room's state is kept around so a
// quick reconnect does not lose in-progress drawings.
const DefaultGracePeriod = 5 * time.Minute

// Registry is the process-wide mapping from room identifier to Room. It
// creates rooms lazily and destroys them only after their member set has
// been empty for a full grace period.
type Registry struct {
	grace  time.Duration
	logger *zap.SugaredLogger

	mu     sync.Mutex
	rooms  map[string]*Room
	timers map[string]*time.Timer
	closed bool
}

func NewRegistry(grace time.Duration, logger *zap.SugaredLogger) *Registry {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	return &Registry{
		grace:  grace,
		logger: logger,
		rooms:  make(map[string]*Room),
		timers: make(map[string]*time.Timer),
	}
}

// GetOrCreate returns the room for roomID, creating an empty one on first
// reference. Concurrent calls for the same unseen roomID observe a single
// Room instance.
func (reg *Registry) GetOrCreate(roomID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[roomID]
	if !ok {
		room = newRoom(roomID, func() { reg.scheduleCleanup(roomID) })
		reg.rooms[roomID] = room
		reg.logger.Infow("room created", "room", roomID)
	}
	return room
}

// Get returns the room for roomID without creating one.
func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[roomID]
	return room, ok
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// scheduleCleanup arms a one-shot timer for the grace period. When it fires,
// membership is re-checked before the room is removed: a rejoin in between
// makes the removal a no-op. Rearming replaces any pending timer so the
// grace period is measured from the most recent emptying.
func (reg *Registry) scheduleCleanup(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.closed {
		return
	}
	if t, ok := reg.timers[roomID]; ok {
		t.Stop()
	}
	reg.timers[roomID] = time.AfterFunc(reg.grace, func() { reg.removeIfEmpty(roomID) })
}

func (reg *Registry) removeIfEmpty(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.timers, roomID)

	room, ok := reg.rooms[roomID]
	if !ok || room.MemberCount() > 0 {
		return
	}

	delete(reg.rooms, roomID)
	reg.logger.Infow("empty room removed", "room", roomID)
}

// Close stops all pending cleanup timers. Rooms themselves are left to the
// garbage collector; the registry must not be used afterwards.
func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.closed = true
	for id, t := range reg.timers {
		t.Stop()
		delete(reg.timers, id)
	}
}
