package ws_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sketchrelay/server/internal/collab"
	"github.com/sketchrelay/server/internal/domain"
	"github.com/sketchrelay/server/internal/infrastructure/metrics"
	"github.com/sketchrelay/server/internal/infrastructure/ws"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []*ws.Message
}

func (s *captureSender) Send(msg any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg.(*ws.Message))
	return true
}

func (s *captureSender) messages() []*ws.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ws.Message(nil), s.msgs...)
}

func (s *captureSender) ofType(eventType string) []*ws.Message {
	var out []*ws.Message
	for _, m := range s.messages() {
		if m.Type == eventType {
			out = append(out, m)
		}
	}
	return out
}

type harness struct {
	registry    *collab.Registry
	broadcaster *collab.Broadcaster
	metrics     *metrics.Metrics
	logger      *zap.SugaredLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	registry := collab.NewRegistry(time.Minute, zap.NewNop().Sugar())
	t.Cleanup(registry.Close)

	return &harness{
		registry:    registry,
		broadcaster: collab.NewBroadcaster(registry),
		metrics:     metrics.New(prometheus.NewRegistry()),
		logger:      zap.NewNop().Sugar(),
	}
}

func (h *harness) newSession(connID string) (*ws.Session, *captureSender) {
	sender := &captureSender{}
	session := ws.NewSession(context.Background(), connID, sender, h.registry, h.broadcaster, h.logger, h.metrics)
	return session, sender
}

func frame(t *testing.T, eventType string, payload any) []byte {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(ws.Envelope{Type: eventType, Data: data})
	require.NoError(t, err)
	return raw
}

func joinFrame(t *testing.T, roomID, name, color string) []byte {
	return frame(t, ws.EventJoinRoom, ws.JoinPayload{RoomID: roomID, UserName: name, UserColor: color})
}

func editFrame(t *testing.T, roomID string, elements ...string) []byte {
	els := make([]json.RawMessage, 0, len(elements))
	for i, id := range elements {
		els = append(els, json.RawMessage(fmt.Sprintf(`{"id":%q,"version":%d}`, id, i+1)))
	}
	return frame(t, ws.EventDrawingUpdate, map[string]any{"roomId": roomID, "elements": els})
}

func TestSession_MalformedFramesAreDroppedQuietly(t *testing.T) {
	h := newHarness(t)
	session, sender := h.newSession("c1")

	session.Handle([]byte(`not json`))
	session.Handle([]byte(`{"type":"join-room","data":"nope"}`))
	session.Handle(frame(t, ws.EventJoinRoom, ws.JoinPayload{})) // no roomId
	session.Handle(frame(t, "no-such-event", struct{}{}))

	assert.Empty(t, sender.messages())
	assert.Zero(t, h.registry.Len())
}

func TestSession_JoinEmptyRoomSendsNoInitialState(t *testing.T) {
	h := newHarness(t)
	session, sender := h.newSession("c1")

	session.Handle(joinFrame(t, "board", "", ""))

	assert.Empty(t, sender.messages())
	room, ok := h.registry.Get("board")
	require.True(t, ok)
	assert.Equal(t, 1, room.MemberCount())
}

func TestSession_JoinAfterEditsReceivesSnapshot(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newSession("a")
	a.Handle(joinFrame(t, "board", "", ""))
	a.Handle(editFrame(t, "board", "rect-1"))

	b, bSender := h.newSession("b")
	b.Handle(joinFrame(t, "board", "", ""))

	initial := bSender.ofType(ws.EventInitialState)
	require.Len(t, initial, 1)

	payload := initial[0].Data.(ws.InitialStatePayload)
	assert.Equal(t, "board", payload.RoomID)
	require.Len(t, payload.Elements, 1)
	assert.Equal(t, "rect-1", payload.Elements[0].ID)
}

func TestSession_JoinNotifiesOthersNotSelf(t *testing.T) {
	h := newHarness(t)
	a, aSender := h.newSession("a")
	a.Handle(joinFrame(t, "board", "Ada", "#112233"))

	b, bSender := h.newSession("b")
	b.Handle(joinFrame(t, "board", "", ""))

	joined := aSender.ofType(ws.EventUserJoined)
	require.Len(t, joined, 1)

	payload := joined[0].Data.(ws.UserJoinedPayload)
	assert.Equal(t, "b", payload.UserID)
	assert.Equal(t, domain.DefaultName("b"), payload.UserName)
	assert.Equal(t, domain.DefaultColor("b"), payload.UserColor)

	assert.Empty(t, bSender.ofType(ws.EventUserJoined))
}

func TestSession_EditBroadcastsMergedOnceToOthersOnly(t *testing.T) {
	h := newHarness(t)
	a, aSender := h.newSession("a")
	b, bSender := h.newSession("b")
	a.Handle(joinFrame(t, "board", "", ""))
	b.Handle(joinFrame(t, "board", "", ""))

	a.Handle(editFrame(t, "board", "rect-1"))

	updates := bSender.ofType(ws.EventDrawingUpdate)
	require.Len(t, updates, 1)

	payload := updates[0].Data.(ws.DrawingUpdatePayload)
	assert.Equal(t, "a", payload.UserID)
	require.Len(t, payload.Elements, 1)
	assert.Equal(t, "rect-1", payload.Elements[0].ID)

	assert.Empty(t, aSender.ofType(ws.EventDrawingUpdate))
}

func TestSession_EditBeforeJoinIsNoop(t *testing.T) {
	h := newHarness(t)
	session, sender := h.newSession("c1")

	session.Handle(editFrame(t, "board", "rect-1"))

	assert.Empty(t, sender.messages())
	assert.Zero(t, h.registry.Len())
}

func TestSession_EditForDifferentRoomIsNoop(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newSession("a")
	a.Handle(joinFrame(t, "board", "", ""))

	a.Handle(editFrame(t, "other-board", "rect-1"))

	room, _ := h.registry.Get("board")
	assert.Empty(t, room.Snapshot())
	_, ok := h.registry.Get("other-board")
	assert.False(t, ok)
}

func TestSession_SecondJoinIsIgnored(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newSession("a")
	a.Handle(joinFrame(t, "board", "", ""))

	a.Handle(joinFrame(t, "second", "", ""))

	_, ok := h.registry.Get("second")
	assert.False(t, ok)
}

func TestSession_PointerRelayAnnotatesSenderIdentity(t *testing.T) {
	h := newHarness(t)
	a, aSender := h.newSession("a")
	b, bSender := h.newSession("b")
	a.Handle(joinFrame(t, "board", "Ada", "#112233"))
	b.Handle(joinFrame(t, "board", "", ""))

	a.Handle(frame(t, ws.EventPointerUpdate, map[string]any{
		"roomId":  "board",
		"pointer": map[string]any{"x": 10, "y": 20, "tool": "pen"},
		"button":  "down",
	}))

	pointers := bSender.ofType(ws.EventPointerUpdate)
	require.Len(t, pointers, 1)

	payload := pointers[0].Data.(ws.PointerUpdatePayload)
	assert.Equal(t, "a", payload.UserID)
	assert.Equal(t, "Ada", payload.UserName)
	assert.Equal(t, "#112233", payload.UserColor)
	assert.JSONEq(t, `{"x":10,"y":20,"tool":"pen"}`, string(payload.Pointer))

	// Pointer updates are never mirrored back to the sender.
	assert.Empty(t, aSender.ofType(ws.EventPointerUpdate))
}

func TestSession_PointerPayloadIdentityOverridesMembership(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newSession("a")
	b, bSender := h.newSession("b")
	a.Handle(joinFrame(t, "board", "Ada", "#112233"))
	b.Handle(joinFrame(t, "board", "", ""))

	a.Handle(frame(t, ws.EventPointerUpdate, map[string]any{
		"roomId":   "board",
		"userName": "Override",
	}))

	pointers := bSender.ofType(ws.EventPointerUpdate)
	require.Len(t, pointers, 1)

	payload := pointers[0].Data.(ws.PointerUpdatePayload)
	assert.Equal(t, "Override", payload.UserName)
	assert.Equal(t, "#112233", payload.UserColor)
}

func TestSession_CloseNotifiesRemainingMembers(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newSession("a")
	b, bSender := h.newSession("b")
	a.Handle(joinFrame(t, "board", "Ada", ""))
	b.Handle(joinFrame(t, "board", "", ""))

	a.Close()

	left := bSender.ofType(ws.EventUserLeft)
	require.Len(t, left, 1)

	payload := left[0].Data.(ws.UserLeftPayload)
	assert.Equal(t, "a", payload.UserID)
	assert.Equal(t, "Ada", payload.UserName)

	room, _ := h.registry.Get("board")
	assert.Equal(t, 1, room.MemberCount())
}

func TestSession_CloseWithoutJoinIsNoop(t *testing.T) {
	h := newHarness(t)
	session, sender := h.newSession("c1")

	session.Close()
	session.Close() // double close must also be harmless

	assert.Empty(t, sender.messages())
	assert.Zero(t, h.registry.Len())
}

func TestSession_MessagesAfterCloseAreIgnored(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newSession("a")
	a.Handle(joinFrame(t, "board", "", ""))
	a.Close()

	a.Handle(editFrame(t, "board", "rect-1"))

	room, _ := h.registry.Get("board")
	assert.Empty(t, room.Snapshot())
}
