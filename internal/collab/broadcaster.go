package collab

// Broadcaster is the stateless fan-out used for presence (pointer/cursor)
// payloads. Presence is never merged or stored: the server merely relays it,
// best effort, to everyone in the room except the sender.
type Broadcaster struct {
	registry *Registry
}

func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Broadcast delivers payload to every member of roomID except senderID.
// An unknown room is a no-op; there is no retry or buffering beyond the
// per-connection send buffer.
func (b *Broadcaster) Broadcast(roomID, senderID string, payload any) int {
	room, ok := b.registry.Get(roomID)
	if !ok {
		return 0
	}
	return room.Broadcast(senderID, payload)
}
