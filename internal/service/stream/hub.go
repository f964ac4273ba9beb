package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	applogger "MarketDash/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	sendBuffer = 16
)

// client is one websocket subscriber. Its writer goroutine owns conn writes.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans ticker frames out to websocket subscribers. Subscribers that fall
// behind by more than their send buffer are dropped.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}

	upgrader     websocket.Upgrader
	pingInterval time.Duration
	metrics      domrepo.Metrics
	logger       *applogger.Logger
}

type Option func(*Hub)

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 && d < pongWait {
			h.pingInterval = d
		}
	}
}

// WithCheckOrigin overrides the upgrader origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub creates a hub; call Run before serving connections.
func NewHub(metrics domrepo.Metrics, logger *applogger.Logger, opts ...Option) *Hub {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if logger == nil {
		logger = applogger.Nop()
	}
	h := &Hub{
		clients:      make(map[*client]struct{}),
		broadcast:    make(chan []byte, 64),
		register:     make(chan *client),
		unregister:   make(chan *client),
		done:         make(chan struct{}),
		pingInterval: 30 * time.Second,
		metrics:      metrics,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run is the hub event loop. It returns when ctx is done, closing every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.metrics.SetStreamClients(0)
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.metrics.SetStreamClients(len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.metrics.SetStreamClients(len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
					h.metrics.RecordError("stream_slow_client")
				}
			}
			h.metrics.SetStreamClients(len(h.clients))
		}
	}
}

// Broadcast queues a frame for every subscriber. Frames are dropped when the
// hub is saturated.
func (h *Hub) Broadcast(frame models.TickerFrame) {
	b, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("encode ticker frame", applogger.Error(err))
		return
	}
	select {
	case h.broadcast <- b:
	case <-h.done:
	default:
		h.metrics.RecordError("stream_broadcast_drop")
	}
}

// Serve upgrades the request and streams frames until the peer goes away.
// initial frames are sent before any broadcast.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial []models.TickerFrame) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer+len(initial))}
	for _, f := range initial {
		if b, err := json.Marshal(f); err == nil {
			c.send <- b
		}
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return nil
	}
	go c.writePump(h.pingInterval)
	c.readPump()
	return nil
}

// readPump discards client input and unregisters on close.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
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

func (c *client) writePump(ping time.Duration) {
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

var _ domrepo.TickerBroadcaster = (*Hub)(nil)
