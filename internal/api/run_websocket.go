package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/guildforge/guildforge/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RunHub fans run progress out to websocket clients watching the live view.
type RunHub struct {
	clients      map[*websocket.Conn]bool
	clientsMutex sync.RWMutex
	broadcast    chan RunEvent
	register     chan *websocket.Conn
	unregister   chan *websocket.Conn
	shutdownChan chan struct{}
}

// RunEvent is one progress message sent to clients.
type RunEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RunProgressData is the payload of a run.progress event.
type RunProgressData struct {
	RunID   string `json:"run_id"`
	GuildID string `json:"guild_id"`
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// NewRunHub creates a new run progress hub
func NewRunHub() *RunHub {
	return &RunHub{
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan RunEvent, 256),
		register:     make(chan *websocket.Conn),
		unregister:   make(chan *websocket.Conn),
		shutdownChan: make(chan struct{}),
	}
}

// Run starts the hub loop (run in goroutine)
func (h *RunHub) Run() {
	logger.Info("RunHub: starting websocket hub", nil)

	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.clientsMutex.Unlock()

			logger.Info("RunHub: client connected", map[string]interface{}{
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.clientsMutex.Unlock()

			logger.Info("RunHub: client disconnected", map[string]interface{}{
				"total_clients": total,
			})

		case event := <-h.broadcast:
			h.clientsMutex.RLock()
			for client := range h.clients {
				go h.sendToClient(client, event)
			}
			h.clientsMutex.RUnlock()

		case <-h.shutdownChan:
			logger.Info("RunHub: shutting down", nil)
			return
		}
	}
}

// HandleConnection handles GET /ws/runs
func (h *RunHub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("RunHub: failed to upgrade connection", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.register <- conn

	go h.readLoop(conn)
}

// readLoop keeps the connection alive and drains client messages.
func (h *RunHub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.unregister <- conn
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Info("RunHub: unexpected close", map[string]interface{}{
					"error": err.Error(),
				})
			}
			break
		}
	}
}

func (h *RunHub) sendToClient(client *websocket.Conn, event RunEvent) {
	client.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := client.WriteJSON(event); err != nil {
		h.unregister <- client
	}
}

// BroadcastProgress implements service.ProgressBroadcaster.
func (h *RunHub) BroadcastProgress(runID, guildID string, phase string, current, total int) {
	h.publish("run.progress", RunProgressData{
		RunID:   runID,
		GuildID: guildID,
		Phase:   phase,
		Current: current,
		Total:   total,
	})
}

// publish queues an event without blocking the caller.
func (h *RunHub) publish(eventType string, data interface{}) {
	event := RunEvent{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	select {
	case h.broadcast <- event:
	default:
		logger.Warn("RunHub: broadcast channel full, dropping event", map[string]interface{}{
			"event_type": eventType,
		})
	}
}

// Shutdown gracefully shuts down the hub
func (h *RunHub) Shutdown() {
	close(h.shutdownChan)

	h.clientsMutex.Lock()
	for client := range h.clients {
		client.Close()
	}
	h.clientsMutex.Unlock()
}
