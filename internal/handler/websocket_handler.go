// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"print-bridge/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WebSocketHandler streams job events to connected clients
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	eventBus    *EventBus
	logger      *utils.ServiceLogger
	done        chan struct{}
}

// NewWebSocketHandler creates a new WebSocket handler. An empty origin
// list accepts any origin, matching the CORS policy.
func NewWebSocketHandler(eventBus *EventBus, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
		connections: NewConnectionManager(),
		eventBus:    eventBus,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
		done:        make(chan struct{}),
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws/jobs", h.HandleJobEvents)
}

// Start forwards bus events to clients until the bus stops
func (h *WebSocketHandler) Start() {
	events := h.eventBus.Subscribe(AllEvents)
	go func() {
		defer close(h.done)
		for event := range events {
			h.Broadcast(event)
		}
	}()
}

// Done is closed once the forwarding loop has ended
func (h *WebSocketHandler) Done() <-chan struct{} {
	return h.done
}

// HandleJobEvents upgrades the request and streams job events
// @Summary Job event stream
// @Description WebSocket stream of job_received, job_printed, job_failed and printer events. Send {"type":"subscribe","data":{"topic":"job_failed"}} to filter.
// @Tags Events
// @Param token query string false "Bearer token when auth is enabled"
// @Success 101 {string} string "Switching Protocols"
// @Router /ws/jobs [get]
func (h *WebSocketHandler) HandleJobEvents(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Job event client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type:      "connected",
		Data:      map[string]interface{}{"client_id": client.ID},
		Timestamp: time.Now(),
		RequestID: utils.GetRequestID(c),
	})

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Debug("Job event client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadLimit(4096)
	client.Connection.SetReadDeadline(time.Now().Add(wsPongWait))
	client.Connection.SetPongHandler(func(string) error {
		return client.Connection.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}
		h.handleClientMessage(client, &message)
	}
}

func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe", "unsubscribe":
		topic := topicOf(message)
		if topic == "" {
			h.sendError(client, "topic is required")
			return
		}
		if message.Type == "subscribe" {
			client.Subscribe(topic)
		} else {
			client.Unsubscribe(topic)
		}
		h.sendMessage(client, &WebSocketMessage{
			Type:      message.Type + "d",
			Data:      map[string]interface{}{"topic": topic},
			Timestamp: time.Now(),
		})
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		})
	default:
		h.sendError(client, "unknown message type: "+message.Type)
	}
}

func topicOf(message *WebSocketMessage) string {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	topic, _ := data["topic"].(string)
	return topic
}

func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}
	if !h.connections.Send(client, messageBytes) {
		h.logger.Warn("Client send channel unavailable, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
	})
}

// Broadcast sends an event to every client subscribed to its type
func (h *WebSocketHandler) Broadcast(event Event) {
	messageBytes, err := json.Marshal(&WebSocketMessage{
		Type:      "job_event",
		Data:      event,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	for _, client := range h.connections.Clients() {
		if !client.Wants(event.Type) {
			continue
		}
		if !h.connections.Send(client, messageBytes) {
			h.logger.Warn("Client send channel full during broadcast",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
