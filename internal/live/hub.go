package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Hub manages WebSocket subscribers per debate. With a Redis client it
// publishes through pub/sub and relays what every instance publishes;
// without one it broadcasts in-process.
type Hub struct {
	rdb      *redis.Client
	upgrader websocket.Upgrader

	// relaying is set while the Redis subscription is live.
	relaying atomic.Bool
	retryMin time.Duration
	retryMax time.Duration

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// Client is one connected subscriber
type Client struct {
	hub      *Hub
	debateID string
	conn     *websocket.Conn
	send     chan []byte
}

// NewHub creates a hub. allowedOrigins restricts the WebSocket handshake;
// an empty list accepts any origin.
func NewHub(rdb *redis.Client, allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Hub{
		rdb:      rdb,
		rooms:    make(map[string]map[*Client]struct{}),
		retryMin: time.Second,
		retryMax: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Publish sends an event to every subscriber of debateID.
func (h *Hub) Publish(ctx context.Context, debateID, eventType string, payload interface{}) error {
	event, err := NewEvent(debateID, eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if h.rdb == nil {
		h.Broadcast(event)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	// Without a live subscription nothing relays the event back here.
	relayed := h.relaying.Load()
	if !relayed {
		h.Broadcast(event)
	}
	if err := h.rdb.Publish(ctx, ChannelName(debateID), data).Err(); err != nil {
		if relayed {
			h.Broadcast(event)
		}
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Relaying reports whether Redis events currently reach this hub.
func (h *Hub) Relaying() bool {
	return h.relaying.Load()
}

// Run relays Redis events to local subscribers until ctx is cancelled.
// A failed or dropped subscription is retried with backoff. Without Redis
// it just waits for cancellation.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		return nil
	}

	backoff := h.retryMin
	for {
		err := h.relay(ctx)
		h.relaying.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = h.retryMin
		}
		log.Warn().Err(err).Dur("retry_in", backoff).Msg("live relay interrupted")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > h.retryMax {
			backoff = h.retryMax
		}
	}
}

// relay holds one pattern subscription. It returns a nil error only when
// an established subscription was closed.
func (h *Hub) relay(ctx context.Context) error {
	sub := h.rdb.PSubscribe(ctx, channelPattern)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channelPattern, err)
	}
	h.relaying.Store(true)
	log.Info().Str("pattern", channelPattern).Msg("live hub subscribed to redis")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := UnmarshalEvent(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed live event")
				continue
			}
			h.Broadcast(event)
		}
	}
}

// Broadcast delivers event to the local subscribers of its debate. Clients
// whose buffers are full are disconnected.
func (h *Hub) Broadcast(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode live event")
		return
	}

	// Sends happen under the read lock so unregister cannot close a
	// channel mid-send.
	var slow []*Client
	h.mu.RLock()
	for c := range h.rooms[event.DebateID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.unregister(c)
	}
}

// Subscribers returns the number of local subscribers of debateID.
func (h *Hub) Subscribers(debateID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[debateID])
}

// ServeWS upgrades the request and subscribes the connection to debateID.
// initial, when non-nil, is sent before any broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, debateID string, initial *Event) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{hub: h, debateID: debateID, conn: conn, send: make(chan []byte, sendBuffer)}
	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			client.send <- data
		}
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.debateID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.debateID] = room
	}
	room[c] = struct{}{}
	count := len(room)
	h.mu.Unlock()

	h.broadcastPresence(c.debateID, count)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.debateID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room, c)
	close(c.send)
	count := len(room)
	if count == 0 {
		delete(h.rooms, c.debateID)
	}
	h.mu.Unlock()

	if count > 0 {
		h.broadcastPresence(c.debateID, count)
	}
}

// Presence is per instance and never goes through Redis.
func (h *Hub) broadcastPresence(debateID string, count int) {
	event, err := NewEvent(debateID, "presence", PresencePayload{Connected: count})
	if err != nil {
		return
	}
	h.Broadcast(event)
}

// readPump discards client messages and keeps the connection alive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("debate_id", c.debateID).Msg("live connection closed")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
