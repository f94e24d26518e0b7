package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sipeed/taskclaw/pkg/bus"
	"github.com/sipeed/taskclaw/pkg/logger"
)

const WebSocketChannelName = "websocket"

// wsIncoming is a message posted by a client on a task thread.
type wsIncoming struct {
	TaskID int64  `json:"task_id"`
	Body   string `json:"body"`
}

type wsClient struct {
	conn  *websocket.Conn
	login string
	mu    sync.Mutex // gorilla allows one concurrent writer
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// WebSocketChannel serves chat clients on an HTTP route of the gateway.
// The sender login comes from the "login" query parameter, which the
// gateway's auth middleware has already vetted.
type WebSocketChannel struct {
	*BaseChannel
	upgrader websocket.Upgrader
	clients  map[string]*wsClient // chatID → client
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewWebSocketChannel(msgBus *bus.MessageBus, allowFrom []string) *WebSocketChannel {
	return &WebSocketChannel{
		BaseChannel: NewBaseChannel(WebSocketChannelName, msgBus, allowFrom),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*wsClient),
	}
}

func (c *WebSocketChannel) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.setRunning(true)
	logger.InfoC("websocket", "WebSocket channel started")
	return nil
}

func (c *WebSocketChannel) Stop(context.Context) error {
	c.setRunning(false)
	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	for chatID, client := range c.clients {
		logger.DebugCF("websocket", "Closing client connection", map[string]any{"chat_id": chatID})
		client.conn.Close()
	}
	c.clients = make(map[string]*wsClient)
	c.mu.Unlock()

	logger.InfoC("websocket", "WebSocket channel stopped")
	return nil
}

func (c *WebSocketChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("websocket channel not running")
	}

	c.mu.RLock()
	client, ok := c.clients[msg.ChatID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connection for chat %s", msg.ChatID)
	}

	if err := client.writeJSON(msg); err != nil {
		return fmt.Errorf("write to chat %s: %w", msg.ChatID, err)
	}
	return nil
}

// ServeHTTP upgrades the request and starts reading client messages.
func (c *WebSocketChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !c.IsRunning() {
		http.Error(w, "channel not running", http.StatusServiceUnavailable)
		return
	}
	login := strings.TrimSpace(r.URL.Query().Get("login"))
	if login == "" {
		http.Error(w, "login is required", http.StatusBadRequest)
		return
	}
	if !c.IsAllowed(login) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorCF("websocket", "Upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	chatID := "ws:" + clientID
	client := &wsClient{conn: conn, login: login}

	c.mu.Lock()
	if old, ok := c.clients[chatID]; ok {
		old.conn.Close()
	}
	c.clients[chatID] = client
	c.mu.Unlock()

	logger.InfoCF("websocket", "New WebSocket connection", map[string]any{
		"chat_id":     chatID,
		"login":       login,
		"remote_addr": r.RemoteAddr,
	})

	go c.readPump(client, chatID)
}

func (c *WebSocketChannel) readPump(client *wsClient, chatID string) {
	defer func() {
		c.mu.Lock()
		if c.clients[chatID] == client {
			delete(c.clients, chatID)
		}
		c.mu.Unlock()
		client.conn.Close()
		logger.InfoCF("websocket", "Client disconnected", map[string]any{"chat_id": chatID})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.ErrorCF("websocket", "Read error", map[string]any{"chat_id": chatID, "error": err.Error()})
			}
			return
		}

		var incoming wsIncoming
		if err := json.Unmarshal(message, &incoming); err != nil || incoming.TaskID == 0 {
			_ = client.writeJSON(bus.OutboundMessage{
				Channel: c.Name(),
				ChatID:  chatID,
				Kind:    "error",
				Content: "Expected {\"task_id\": <id>, \"body\": <text>}.",
			})
			continue
		}

		logger.DebugCF("websocket", "Received message", map[string]any{
			"chat_id": chatID,
			"task_id": incoming.TaskID,
		})
		c.HandleMessage(client.login, chatID, incoming.TaskID, incoming.Body, nil)
	}
}
