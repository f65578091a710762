// Package realtime serves live twin sessions over WebSocket.
//
// Each connection owns one session.Session. The browser sends form changes
// as small JSON messages and receives two event streams back:
// - "twin" events with the derived metrics after every change
// - "persona" events as the debounced persona request progresses
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
	"github.com/emilio-vasquez/digitaltwin/internal/persona"
	"github.com/emilio-vasquez/digitaltwin/internal/session"
	"github.com/emilio-vasquez/digitaltwin/internal/twin"
)

// normalCloseCodes are WebSocket close codes that indicate an expected disconnect.
var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

// EventType for outbound events
type EventType string

const (
	EventTwin    EventType = "twin"
	EventPersona EventType = "persona"
	EventError   EventType = "error"
)

// Event is one outbound message.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// MessageType for inbound messages
type MessageType string

const (
	MessageInput      MessageType = "input"
	MessagePreset     MessageType = "preset"
	MessageReset      MessageType = "reset"
	MessageRegenerate MessageType = "regenerate"
)

// Message is one inbound form action.
type Message struct {
	Type   MessageType      `json:"type"`
	State  *twin.InputState `json:"state,omitempty"`
	Preset string           `json:"preset,omitempty"`
}

// ErrorData is the payload of an error event.
type ErrorData struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client represents a WebSocket connection and its twin session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *session.Session

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// MaxClients is the maximum number of concurrent WebSocket connections.
const MaxClients = 1000

// Hub manages all WebSocket connections
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
	done       chan struct{} // closed when Run exits; prevents upgrade race
	closers    sync.WaitGroup
	maxClients int

	fetcher     persona.Fetcher
	upgrader    websocket.Upgrader
	sessionOpts []session.Option

	// Stats
	totalEvents  atomic.Int64
	totalClients atomic.Int64
	peakClients  atomic.Int64
}

// Option configures a Hub.
type Option func(*Hub)

// WithCheckOrigin sets the upgrade origin check. The default only admits
// same-host pages and clients without an Origin header.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// WithSessionOptions passes options to every new session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(h *Hub) { h.sessionOpts = append(h.sessionOpts, opts...) }
}

// WithMaxClients overrides MaxClients.
func WithMaxClients(n int) Option {
	return func(h *Hub) { h.maxClients = n }
}

// NewHub creates a hub whose sessions fetch personas through f.
func NewHub(f persona.Fetcher, logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		done:       make(chan struct{}),
		maxClients: MaxClients,
		fetcher:    f,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameHost,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // Allow non-browser clients
	}
	host := r.Host
	return origin == "http://"+host || origin == "https://"+host
}

// Run starts the hub's main loop. It returns once every session has been
// closed.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("realtime hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("realtime hub shutting down, closing client connections")
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				h.release(client)
			}
			h.mu.Unlock()
			h.closers.Wait()
			metrics.ActiveWebSocketClients.Set(0)
			h.logger.Info("realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalClients.Add(1)
			if current := int64(len(h.clients)); current > h.peakClients.Load() {
				h.peakClients.Store(current)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Info("client connected", "twin_id", client.session.TwinID(), "total", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.release(client)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Info("client disconnected", "twin_id", client.session.TwinID(), "total", n)
		}
	}
}

// release closes the client's session off the hub goroutine, since that
// waits for in-flight persona requests, then closes its send channel.
func (h *Hub) release(c *Client) {
	h.closers.Add(1)
	go func() {
		defer h.closers.Done()
		c.session.Close()
		c.closeSend()
	}()
}

// Stats returns hub statistics
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"connectedClients": len(h.clients),
		"totalEvents":      h.totalEvents.Load(),
		"totalClients":     h.totalClients.Load(),
		"peakClients":      h.peakClients.Load(),
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and starts a twin session.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Reject upgrades after the hub has stopped to prevent orphaned connections.
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	// Enforce connection limit
	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n >= h.maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	opts := append([]session.Option{session.WithLogger(h.logger)}, h.sessionOpts...)
	client.session = session.New(h.fetcher, client, opts...)

	select {
	case h.register <- client:
	case <-h.done:
		client.session.Close()
		_ = conn.Close()
		return
	}

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// RenderDerived implements session.Renderer.
func (c *Client) RenderDerived(v session.View) {
	c.emit(EventTwin, v)
}

// RenderPersona implements session.Renderer.
func (c *Client) RenderPersona(u persona.Update) {
	c.emit(EventPersona, u)
}

func (c *Client) emit(t EventType, data interface{}) {
	msg, err := json.Marshal(&Event{Type: t, Timestamp: time.Now(), Data: data})
	if err != nil {
		c.hub.logger.Error("failed to encode event", "type", t, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
		c.hub.totalEvents.Add(1)
	default:
		c.hub.logger.Warn("client send buffer full, dropping event", "type", t)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send) // writePump sends CloseMessage on closed channel
	}
}

// handle applies one inbound message to the session.
func (c *Client) handle(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.emit(EventError, ErrorData{Error: "invalid_message", Message: "Message is not valid JSON."})
		return
	}

	switch msg.Type {
	case MessageInput:
		if msg.State == nil {
			c.emit(EventError, ErrorData{Error: "invalid_message", Message: "input requires a state."})
			return
		}
		c.session.Update(*msg.State, true)
	case MessagePreset:
		if _, err := c.session.ApplyPreset(msg.Preset); err != nil {
			c.emit(EventError, ErrorData{Error: "unknown_preset", Message: err.Error()})
		}
	case MessageReset:
		c.session.Reset()
	case MessageRegenerate:
		c.session.Regenerate()
	default:
		c.emit(EventError, ErrorData{Error: "invalid_message", Message: "Unknown message type."})
	}
}

// readPump starts the session and applies inbound messages
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	c.session.Start()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			break
		}
		c.handle(message)
	}
}

// writePump writes messages to WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}
