// Package boards exposes the board surface over HTTP: the websocket
// entrypoint every protocol event flows through, and a REST snapshot of a
// room for tooling.
package boards

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/stelliform/sketchsphere/internal/infrastructure/configs"
	"github.com/stelliform/sketchsphere/internal/infrastructure/json"
	"github.com/stelliform/sketchsphere/internal/registry"
	"github.com/stelliform/sketchsphere/internal/ws"
)

type Handler struct {
	reg        *registry.Registry
	core       *ws.Core
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *zap.SugaredLogger
}

func NewHandler(reg *registry.Registry, core *ws.Core, cfg configs.Config, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		reg:  reg,
		core: core,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WS.ReadBufferSize,
			WriteBufferSize: cfg.WS.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.HTTP.AllowedOrigins),
		},
		sendBuffer: cfg.WS.SendBuffer,
		logger:     logger,
	}
}

// ServeWS upgrades the connection and hands it to the broadcast core. The
// session id is minted here, one per connection, and announced to the client
// in the first frame.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), h.sendBuffer)
	h.core.Register() <- client

	go client.WriteMessage(h.core)
	go client.ReadMessage(h.core)
}

// GetRoomHandler returns a point-in-time snapshot of a live room.
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteBadRequestError(w, "room ID is missing")
		return
	}

	if !h.reg.HasRoom(roomID) {
		json.WriteNotFoundError(w, "room not found")
		return
	}

	json.Write(w, http.StatusOK, roomResponse{
		RoomID:   roomID,
		Users:    h.reg.GetUsers(roomID),
		Elements: h.reg.GetElements(roomID),
	})
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients
		}
		_, ok := set[origin]
		return ok
	}
}
