package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware gates browser origins upstream.
	},
}

// Handler upgrades authenticated HTTP requests to WebSocket connections.
type Handler struct {
	hub *Hub
}

// NewHandler creates a new Handler bound to the given Hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers the WebSocket endpoint on the provided Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades the connection and registers the client with the
// identity resolved by the auth middleware. Patients are auto-subscribed to
// their own feed; admins to the global feed.
func (h *Handler) HandleConnect(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	roles := auth.RoleSetFromContext(ctx)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	topics := []string{PatientTopic(userID)}
	if roles.IsAdmin() {
		topics = append(topics, TopicConsultations)
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Admin:  roles.IsAdmin(),
		Topics: topics,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

// readPump reads messages from the WebSocket connection and processes them.
func (h *Handler) readPump(client *Client, ws *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}

		h.hub.ProcessMessage(client, msg)
	}
}

// writePump writes messages from the Send channel to the WebSocket connection.
func (h *Handler) writePump(client *Client, ws *websocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
