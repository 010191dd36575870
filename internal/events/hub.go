// internal/events/hub.go
//
// Per-game fan-out of session events to WebSocket clients.
//
// A Hub subscribes to one session as a session.Sink. Publish never blocks:
// events are queued on a buffered channel and the Run loop copies them to
// every client's send buffer. Clients whose buffer is full are dropped.
package events

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hanoi/internal/session"
)

type directMsg struct {
	c   *Client
	msg []byte
}

// Hub manages the WebSocket clients watching one game.
type Hub struct {
	gameID     string
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMsg
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub for gameID. Start it with Run.
func NewHub(gameID string) *Hub {
	return &Hub{
		gameID:     gameID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMsg, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until Stop is called.
func (h *Hub) Run() {
	defer func() {
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	}()
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					log.Warn().Str("game", h.gameID).Msg("dropping slow websocket client")
					delete(h.clients, c)
					close(c.send)
				}
			}
		case d := <-h.direct:
			if h.clients[d.c] {
				select {
				case d.c.send <- d.msg:
				default:
				}
			}
		case <-h.done:
			return
		}
	}
}

// Register adds c. Returns false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c; safe to call after Stop.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Stop ends Run and closes every client's send queue.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) sendTo(c *Client, msg []byte) {
	select {
	case h.direct <- directMsg{c: c, msg: msg}:
	case <-h.done:
	}
}

// Publish implements session.Sink.
func (h *Hub) Publish(ev session.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("game", h.gameID).Msg("marshal event")
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		log.Warn().Str("game", h.gameID).Str("type", ev.Type).Msg("event queue full, dropping")
	}
}

// Registry keeps one running hub per game.
type Registry struct {
	mu   sync.Mutex
	hubs map[string]*Hub
}

func NewRegistry() *Registry {
	return &Registry{hubs: make(map[string]*Hub)}
}

// Hub returns the hub for s, creating, subscribing and starting it on
// first use.
func (r *Registry) Hub(s *session.Session) *Hub {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hubs[s.ID]; ok {
		return h
	}
	h := NewHub(s.ID)
	r.hubs[s.ID] = h
	s.Subscribe(h)
	go h.Run()
	return h
}

// Close stops and forgets the hub for a game, if any.
func (r *Registry) Close(s *session.Session) {
	r.mu.Lock()
	h, ok := r.hubs[s.ID]
	delete(r.hubs, s.ID)
	r.mu.Unlock()
	if ok {
		s.Unsubscribe(h)
		h.Stop()
	}
}

// CloseAll stops every hub (shutdown).
func (r *Registry) CloseAll() {
	r.mu.Lock()
	hubs := r.hubs
	r.hubs = make(map[string]*Hub)
	r.mu.Unlock()
	for _, h := range hubs {
		h.Stop()
	}
}
