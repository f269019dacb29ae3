package rooms

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sketchrelay/server/internal/collab"
	"github.com/sketchrelay/server/internal/infrastructure/configs"
	"github.com/sketchrelay/server/internal/infrastructure/json"
	"github.com/sketchrelay/server/internal/infrastructure/metrics"
	"github.com/sketchrelay/server/internal/infrastructure/ws"
)

type Handler struct {
	registry    *collab.Registry
	broadcaster *collab.Broadcaster
	cfg         configs.WSConfig
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
	upgrader    websocket.Upgrader
}

func NewHandler(
	registry *collab.Registry,
	broadcaster *collab.Broadcaster,
	cfg configs.WSConfig,
	logger *zap.SugaredLogger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		registry:    registry,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin enforcement belongs to the deployment's proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and starts its pumps. The connection is
// Unjoined until a join-room message arrives; the session owns all further
// protocol handling.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()

	client := ws.NewClient(conn, connID, h.cfg.SendBuffer, h.logger)
	client.SetMaxMessageBytes(h.cfg.MaxMessageBytes)

	session := ws.NewSession(r.Context(), connID, client, h.registry, h.broadcaster, h.logger, h.metrics)

	h.metrics.ActiveConnections.Inc()
	h.logger.Infow("client connected", "conn", connID)

	go client.WriteMessage()
	go client.ReadMessage(session)
}

// GetRoomHandler reports a live room's membership and element count. It
// never creates rooms; an unseen ID is simply not found.
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errRoomIDMissing)
		return
	}

	room, ok := h.registry.Get(roomID)
	if !ok {
		json.WriteNotFoundError(w, "Room not found")
		return
	}

	members := room.Members()
	resp := roomResponse{
		ID:           room.ID,
		MemberCount:  len(members),
		ElementCount: len(room.Snapshot()),
		Members:      make([]memberResponse, 0, len(members)),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, memberResponse{
			UserID:    m.ConnID,
			UserName:  m.Name,
			UserColor: m.Color,
		})
	}

	json.Write(w, http.StatusOK, resp)
}
