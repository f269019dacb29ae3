package collab

import (
	"sync"

	"github.com/sketchrelay/server/internal/domain"
)

// Sender delivers one outbound message to a member's connection without
// blocking. It reports false when the message was dropped because the
// member's send buffer is full.
type Sender interface {
	Send(msg any) bool
}

type roomMember struct {
	meta   domain.Member
	sender Sender
}

// Room owns one document's authoritative element collection and its current
// member set. All mutation happens under a single per-room mutex; rooms are
// independent and never synchronize with each other.
type Room struct {
	ID string

	mu       sync.Mutex
	elements []domain.Element
	members  map[string]*roomMember

	// onEmpty is armed by the registry; invoked (outside the room lock)
	// whenever the member count transitions to zero.
	onEmpty func()
}

func newRoom(id string, onEmpty func()) *Room {
	return &Room{
		ID:      id,
		members: make(map[string]*roomMember),
		onEmpty: onEmpty,
	}
}

// Join registers the member and returns a snapshot of the room's current
// elements for the joining connection to initialize its local view. The
// snapshot may be empty. Joining twice with the same connection ID replaces
// the previous registration.
func (r *Room) Join(m domain.Member, sender Sender) []domain.Element {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[m.ConnID] = &roomMember{meta: m, sender: sender}

	return append([]domain.Element(nil), r.elements...)
}

// ApplyUpdate merges incoming into the authoritative collection and stores
// the result, as one atomic unit. This is the sole path by which the
// collection changes; there is no replace operation, so one client's partial
// view can never clobber another's concurrent edits.
func (r *Room) ApplyUpdate(incoming []domain.Element) []domain.Element {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.elements = Merge(r.elements, incoming)

	return append([]domain.Element(nil), r.elements...)
}

// Leave removes the member and reports the removed record. It is idempotent:
// removing an unknown or already-removed connection is a no-op with ok false.
// When the last member leaves, the registry's cleanup hook is armed.
func (r *Room) Leave(connID string) (domain.Member, bool) {
	r.mu.Lock()
	m, ok := r.members[connID]
	if ok {
		delete(r.members, connID)
	}
	empty := ok && len(r.members) == 0
	r.mu.Unlock()

	if !ok {
		return domain.Member{}, false
	}
	if empty && r.onEmpty != nil {
		r.onEmpty()
	}
	return m.meta, true
}

// Broadcast fans msg out to every member except senderID. Sends never block:
// a member whose buffer is full silently loses the message. It returns the
// number of drops.
func (r *Room) Broadcast(senderID string, msg any) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, m := range r.members {
		if id == senderID {
			continue
		}
		if !m.sender.Send(msg) {
			dropped++
		}
	}
	return dropped
}

// Member looks up the membership record for a connection.
func (r *Room) Member(connID string) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok {
		return domain.Member{}, false
	}
	return m.meta, true
}

// Members returns the current membership records in unspecified order.
func (r *Room) Members() []domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.meta)
	}
	return out
}

// MemberCount returns the number of currently joined connections.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Snapshot returns a copy of the authoritative element collection.
func (r *Room) Snapshot() []domain.Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Element(nil), r.elements...)
}
