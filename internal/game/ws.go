package game

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"arena/internal/models"
)

const writeWait = 5 * time.Second

// wsClient adapts a gorilla connection to the Client capability. Writes are
// serialized by the mutex because the broadcast tick and control messages can
// race on the same socket.
type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsClient) Identify() string { return c.id }

func (c *wsClient) Close() error { return c.conn.Close() }

// SocketHandler upgrades match viewer connections and pumps inbound paddle
// commands into the engine.
type SocketHandler struct {
	engine   *Engine
	registry *Registry
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewSocketHandler(engine *Engine, registry *Registry, logger *zap.Logger) *SocketHandler {
	return &SocketHandler{
		engine:   engine,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS handles GET /api/v1/match/ws/{matchID}. The connection is
// registered as a viewer for the match and every inbound message is treated
// as a paddle command. When the read loop ends for any reason the viewer is
// removed through the same path the broadcast loop uses for stale sockets.
func (h *SocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		http.Error(w, "matchID required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{id: uuid.New().String(), conn: conn}
	if err := h.registry.Add(r.Context(), matchID, client); err != nil {
		h.logger.Error("registering viewer", zap.String("matchId", matchID), zap.Error(err))
		conn.Close()
		return
	}

	for {
		var cmd models.PaddleCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		if err := h.engine.MovePaddle(r.Context(), matchID, cmd.Slot, cmd.Direction); err != nil {
			h.logger.Warn("paddle command rejected",
				zap.String("matchId", matchID),
				zap.String("slot", cmd.Slot),
				zap.Error(err))
		}
	}

	// The request context is tied to the socket; use a fresh one for cleanup.
	h.registry.Remove(context.Background(), matchID, client)
}
