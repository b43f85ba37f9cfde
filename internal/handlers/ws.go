package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/eventease-dev/eventease/internal/access"
	"github.com/eventease-dev/eventease/internal/metrics"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/eventease-dev/eventease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Hub fans refresh notices out to the websocket clients watching each event.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uint]map[*wsClient]bool
}

// wsClient serializes writes; gorilla allows one concurrent writer per conn.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || types.OriginAllowed(allowedOrigins, origin)
			},
		},
		clients: make(map[uint]map[*wsClient]bool),
	}
}

func (hub *Hub) register(eventID uint, client *wsClient) {
	hub.mu.Lock()
	if hub.clients[eventID] == nil {
		hub.clients[eventID] = make(map[*wsClient]bool)
	}
	hub.clients[eventID][client] = true
	hub.mu.Unlock()

	metrics.Get().WSConnections.Inc()
}

func (hub *Hub) unregister(eventID uint, client *wsClient) {
	hub.mu.Lock()
	clients, exists := hub.clients[eventID]
	if exists && clients[client] {
		delete(clients, client)
		if len(clients) == 0 {
			delete(hub.clients, eventID)
		}
		metrics.Get().WSConnections.Dec()
	}
	hub.mu.Unlock()

	client.conn.Close()
}

// Clients reports how many connections watch an event.
func (hub *Hub) Clients(eventID uint) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients[eventID])
}

func (hub *Hub) BroadcastRefresh(eventID uint) {
	hub.mu.RLock()
	clients, exists := hub.clients[eventID]
	if !exists || len(clients) == 0 {
		hub.mu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing.
	targets := make([]*wsClient, 0, len(clients))
	for client := range clients {
		targets = append(targets, client)
	}
	hub.mu.RUnlock()

	for _, client := range targets {
		err := client.writeJSON(gin.H{
			"type":     "refresh",
			"message":  "Checklist updated",
			"event_id": eventID,
		})

		if err != nil {
			hub.logger.Warn("Failed to broadcast refresh to client",
				zap.Uint("event_id", eventID),
				zap.Error(err),
			)
			hub.unregister(eventID, client)
		}
	}
}

func (h *Handler) EventSocket(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	eventID, err := utils.GetEventID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	if _, _, err := h.Access.Authorize(h.DB, eventID, userID, access.ActionView); err != nil {
		h.accessError(ctx, err)
		return
	}

	h.Hub.Serve(ctx.Writer, ctx.Request, eventID)
}

// Serve upgrades the request and keeps the connection registered until it drops.
func (hub *Hub) Serve(w http.ResponseWriter, r *http.Request, eventID uint) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)

	if err != nil {
		hub.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		hub.logger.Warn("Failed to set initial read deadline", zap.Error(err))
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := &wsClient{conn: conn}

	hub.register(eventID, client)
	defer func() {
		hub.unregister(eventID, client)
		hub.logger.Debug("WebSocket connection closed", zap.Uint("event_id", eventID))
	}()

	err = client.writeJSON(gin.H{
		"type":     "connected",
		"message":  "WebSocket connection established",
		"event_id": eventID,
	})

	if err != nil {
		hub.logger.Warn("Failed to send welcome message", zap.Error(err))
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// WriteControl is safe alongside other writers.
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				hub.logger.Warn("WebSocket error", zap.Uint("event_id", eventID), zap.Error(err))
			}
			return
		}
	}
}
