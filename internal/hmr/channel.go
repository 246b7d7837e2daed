package hmr

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/myvite-dev/myvite/internal/errors"
)

const writeWait = 5 * time.Second

// Channel is the realtime update channel: one websocket per browser tab,
// used server to client only. Delivery is best effort; a connection whose
// write fails is dropped and nothing is retried.
type Channel struct {
	clients  map[*client]struct{}
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// NewChannel creates an update channel.
func NewChannel(logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request, sends the connected message and holds the
// connection until the browser goes away.
func (ch *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ch.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ch.logger.Warn("hmr channel", "error", errors.New("E500").Wrap(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}

	// connected goes out before the client can receive any broadcast.
	data, _ := json.Marshal(Connected())
	if err := c.write(data); err != nil {
		conn.Close()
		return
	}

	ch.mu.Lock()
	ch.clients[c] = struct{}{}
	ch.mu.Unlock()
	ch.logger.Debug("hmr client connected", "id", c.id, "remote", r.RemoteAddr)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	ch.drop(c)
}

// Broadcast sends msg to every open connection and returns how many writes
// succeeded.
func (ch *Channel) Broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0
	}

	ch.mu.RLock()
	clients := make([]*client, 0, len(ch.clients))
	for c := range ch.clients {
		clients = append(clients, c)
	}
	ch.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.write(data); err != nil {
			ch.logger.Debug("hmr client dropped", "id", c.id, "error", err)
			ch.drop(c)
			continue
		}
		sent++
	}
	return sent
}

// ClientCount returns the number of connected clients.
func (ch *Channel) ClientCount() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.clients)
}

// Close closes all client connections.
func (ch *Channel) Close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	for c := range ch.clients {
		c.conn.Close()
		delete(ch.clients, c)
	}
}

func (ch *Channel) drop(c *client) {
	ch.mu.Lock()
	_, ok := ch.clients[c]
	delete(ch.clients, c)
	ch.mu.Unlock()
	if ok {
		c.conn.Close()
		ch.logger.Debug("hmr client disconnected", "id", c.id)
	}
}
