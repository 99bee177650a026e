package api

import (
	"net/http"
	"sync"

	"chorequest/internal/service"
	"chorequest/pkg/auth"
	"chorequest/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// EventsHub fans celebration events out to connected family clients over
// websockets. It implements service.Notifier.
type EventsHub struct {
	mu      sync.RWMutex
	clients map[*eventClient]struct{}
}

type eventClient struct {
	conn     *websocket.Conn
	parentID uuid.UUID
	send     chan []byte
}

type eventMessage struct {
	Type    string         `json:"type"`
	ChildID uuid.UUID      `json:"child_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

func NewEventsHub() *EventsHub {
	return &EventsHub{clients: make(map[*eventClient]struct{})}
}

func (h *EventsHub) Notify(e service.Event) {
	msg, err := json.Marshal(eventMessage{
		Type:    string(e.Type),
		ChildID: e.ChildID,
		Payload: e.Payload,
	})
	if err != nil {
		logger.Logger().Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.parentID != e.ParentID {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// slow client, drop the event rather than block a verify
		}
	}
}

func (h *EventsHub) register(c *eventClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *EventsHub) unregister(c *eventClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

type eventRoutes struct {
	hub *EventsHub
	cs  service.ChildServiceI
	a   *auth.Auth
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewEventRoutes(handler *gin.RouterGroup, hub *EventsHub, cs service.ChildServiceI, a *auth.Auth) {
	r := &eventRoutes{hub: hub, cs: cs, a: a}
	h := handler.Group("/events")
	h.Use(a.AuthMiddleware())
	{
		h.GET("/ws", r.Subscribe)
	}
}

func (r *eventRoutes) Subscribe(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Events are routed per household: children subscribe through their
	// parent's id.
	parentID := user.ID
	if user.Role == auth.RoleChild {
		child, err := r.cs.GetChild(c.Request.Context(), user.ID)
		if err != nil {
			log.Error("failed to resolve child household", zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"error": "child not found"})
			return
		}
		parentID = child.ParentID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	client := &eventClient{
		conn:     conn,
		parentID: parentID,
		send:     make(chan []byte, 16),
	}
	r.hub.register(client)

	go client.writePump()
	go client.readPump(r.hub)
}

func (c *eventClient) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *eventClient) readPump(hub *EventsHub) {
	defer func() {
		hub.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
