package broadcast

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

// Hub fans topic messages out to the websocket connections of overlay
// renderers attached to this instance. Renderers are anonymous; a
// connection only ever receives the single topic it subscribed to.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Client]bool)}
}

// Client is one renderer connection.
type Client struct {
	hub   *Hub
	topic string
	conn  *websocket.Conn
	send  chan []byte
}

func (h *Hub) Register(topic string, conn *websocket.Conn) *Client {
	client := &Client{
		hub:   h,
		topic: topic,
		conn:  conn,
		send:  make(chan []byte, clientSendBuffer),
	}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][client] = true
	h.mu.Unlock()

	return client
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if clients, ok := h.topics[c.topic]; ok {
		if clients[c] {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.topics, c.topic)
		}
	}
	h.mu.Unlock()
}

// Dispatch delivers a raw payload to every local subscriber of the topic.
// Slow consumers are dropped rather than allowed to block the hub.
func (h *Hub) Dispatch(topic string, payload []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("broadcast: dropping slow subscriber on %s", topic)
			h.unregister(c)
			_ = c.conn.Close()
		}
	}
}

// SubscriberCount reports the number of local subscribers of a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// WritePump pushes hub messages and pings to the socket until the client
// goes away.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains (and discards) inbound frames so pongs and close frames
// are processed; renderers never send application data.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
