package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"project-tracker/internal/realtime"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// wsClient implements realtime.Client by wrapping a websocket connection.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, message) == nil
}

func (c *wsClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteWait))
}

func (c *wsClient) Close() {
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is handled at the gin level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket handles GET /api/ws
// The connection receives every realtime.Event until it closes. Incoming
// messages are drained and ignored.
func (h *Handler) WebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warningf("websocket upgrade error: %s", err)
		return
	}

	client := &wsClient{conn: conn}
	h.hub.Register(client)
	// Tell the new client where the collection stands.
	if msg, err := (realtime.Event{Type: realtime.EventTasksLoaded, Data: h.ctrl.Status()}).Encode(); err == nil {
		client.Send(msg)
	}

	pingTicker := time.NewTicker(wsPingPeriod)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				if err := client.ping(); err != nil {
					return
				}
			}
		}
	}()
	defer func() {
		close(done)
		pingTicker.Stop()
		h.hub.Unregister(client)
		client.Close()
	}()

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
