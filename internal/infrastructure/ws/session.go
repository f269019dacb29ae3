package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sketchrelay/server/internal/collab"
	"github.com/sketchrelay/server/internal/domain"
	"github.com/sketchrelay/server/internal/infrastructure/metrics"
	"github.com/sketchrelay/server/internal/infrastructure/tracing"
)

type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateClosed
)

const fallbackPointerColor = "#000000"

// Session mediates between one transport connection and a room. It moves
// Unjoined -> Joined on a well-formed join message and Joined/Unjoined ->
// Closed on disconnect; a connection belongs to at most one room for its
// lifetime. Handle and Close run on the connection's read goroutine, so
// session state needs no locking of its own.
type Session struct {
	connID      string
	sender      collab.Sender
	registry    *collab.Registry
	broadcaster *collab.Broadcaster
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
	ctx         context.Context

	state  sessionState
	room   *collab.Room
	member domain.Member
}

func NewSession(
	ctx context.Context,
	connID string,
	sender collab.Sender,
	registry *collab.Registry,
	broadcaster *collab.Broadcaster,
	logger *zap.SugaredLogger,
	m *metrics.Metrics,
) *Session {
	return &Session{
		ctx:         ctx,
		connID:      connID,
		sender:      sender,
		registry:    registry,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     m,
		state:       stateUnjoined,
	}
}

// Handle processes one inbound frame. Malformed frames are dropped and
// logged; the connection itself is never torn down over a bad message.
func (s *Session) Handle(raw []byte) {
	if s.state == stateClosed {
		return
	}

	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.dropMalformed("undecodable frame", err)
		return
	}

	switch envelope.Type {
	case EventJoinRoom:
		s.handleJoin(envelope.Data)
	case EventDrawingUpdate:
		s.handleDrawingUpdate(envelope.Data)
	case EventPointerUpdate:
		s.handlePointerUpdate(envelope.Data)
	default:
		s.logger.Debugw("unknown event dropped", "conn", s.connID, "type", envelope.Type)
	}
}

func (s *Session) handleJoin(data json.RawMessage) {
	if s.state != stateUnjoined {
		s.logger.Debugw("join ignored, already joined", "conn", s.connID, "room", s.roomID())
		return
	}

	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.dropMalformed("bad join payload", err)
		return
	}
	if payload.RoomID == "" {
		s.dropMalformed("join without roomId", domain.ErrInvalidRoomID)
		return
	}

	room := s.registry.GetOrCreate(payload.RoomID)
	member := domain.NewMember(s.connID, payload.UserName, payload.UserColor)

	snapshot := room.Join(member, s.sender)

	s.state = stateJoined
	s.room = room
	s.member = member

	// The joiner initializes from the snapshot; everyone else just hears
	// about the new member. An empty room sends no initial state.
	if len(snapshot) > 0 {
		s.sender.Send(NewInitialState(room.ID, snapshot))
	}
	s.countDrops(room.Broadcast(s.connID, NewUserJoined(room.ID, member)))

	s.logger.Infow("member joined", "conn", s.connID, "room", room.ID, "user", member.Name)
}

func (s *Session) handleDrawingUpdate(data json.RawMessage) {
	if s.state != stateJoined {
		return
	}

	var payload DrawingUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.dropMalformed("bad drawing payload", err)
		return
	}
	if payload.RoomID != s.room.ID || len(payload.Elements) == 0 {
		return
	}

	_, span := tracing.GetTracer("sketchrelay/ws").Start(s.ctx, "room.apply_update")
	merged := s.room.ApplyUpdate(payload.Elements)
	span.End()

	s.metrics.EditsApplied.Inc()

	// The sender already has at least as current a view; never echo back.
	s.countDrops(s.room.Broadcast(s.connID, NewDrawingUpdate(s.room.ID, merged, s.connID)))
}

func (s *Session) handlePointerUpdate(data json.RawMessage) {
	if s.state != stateJoined {
		return
	}

	var payload PointerUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.dropMalformed("bad pointer payload", err)
		return
	}
	if payload.RoomID != s.room.ID {
		return
	}

	payload.UserID = s.connID
	if payload.UserName == "" {
		payload.UserName = s.member.Name
	}
	if payload.UserColor == "" {
		payload.UserColor = s.member.Color
		if payload.UserColor == "" {
			payload.UserColor = fallbackPointerColor
		}
	}

	s.metrics.PresenceRelayed.Inc()
	s.countDrops(s.broadcaster.Broadcast(payload.RoomID, s.connID, NewPointerUpdate(payload)))
}

// Close ends the session. A connection that never joined a room leaves no
// trace; a joined one is removed from its room and the rest are notified.
// Safe to call more than once.
func (s *Session) Close() {
	if s.state == stateClosed {
		return
	}

	if s.state == stateJoined {
		if member, ok := s.room.Leave(s.connID); ok {
			s.countDrops(s.room.Broadcast(s.connID, NewUserLeft(s.room.ID, member)))
			s.logger.Infow("member left", "conn", s.connID, "room", s.room.ID, "user", member.Name)
		}
	}

	s.state = stateClosed
	s.metrics.ActiveConnections.Dec()
}

func (s *Session) roomID() string {
	if s.room == nil {
		return ""
	}
	return s.room.ID
}

func (s *Session) dropMalformed(reason string, err error) {
	s.metrics.MalformedMessages.Inc()
	s.logger.Warnw("message dropped", "conn", s.connID, "reason", reason, "err", err)
}

func (s *Session) countDrops(n int) {
	if n > 0 {
		s.metrics.BroadcastsDropped.Add(float64(n))
	}
}
