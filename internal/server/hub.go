package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/shared"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	eventQueue = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// welcome is the first message on every board connection. Events published
// after it arrives are guaranteed to reach the client.
type welcome struct {
	Type   string `json:"type"`
	BookID string `json:"book_id"`
}

type client struct {
	conn   *websocket.Conn
	bookID string
	userID string
	send   chan []byte
}

type published struct {
	bookID string
	msg    []byte
}

// Hub fans shared-book events out to the websocket clients watching each
// book. A single goroutine owns the subscriber map; clients whose buffer is
// full are dropped instead of blocking the others.
type Hub struct {
	register   chan *client
	unregister chan *client
	events     chan published
	done       chan struct{}
	rooms      map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan published, eventQueue),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*client]struct{}),
	}
}

// Publish implements shared.Notifier. It never blocks; events are discarded
// when the hub is backed up.
func (h *Hub) Publish(bookID string, ev shared.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to encode board event", "type", ev.Type, "error", err)
		return
	}
	select {
	case h.events <- published{bookID: bookID, msg: msg}:
	default:
		logger.Warn("Board event queue full, dropping event", "book_id", bookID, "type", ev.Type)
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case p := <-h.events:
			h.broadcast(p)
		case <-ctx.Done():
			for _, room := range h.rooms {
				for c := range room {
					h.remove(c)
				}
			}
			return
		}
	}
}

func (h *Hub) add(c *client) {
	room := h.rooms[c.bookID]
	if room == nil {
		room = make(map[*client]struct{})
		h.rooms[c.bookID] = room
	}
	room[c] = struct{}{}
	hello, _ := json.Marshal(welcome{Type: "subscribed", BookID: c.bookID})
	c.send <- hello
	logger.Debug("Board client connected", "book_id", c.bookID, "user_id", c.userID, "clients", len(room))
}

func (h *Hub) broadcast(p published) {
	for c := range h.rooms[p.bookID] {
		select {
		case c.send <- p.msg:
		default:
			logger.Warn("Board client too slow, disconnecting", "book_id", c.bookID, "user_id", c.userID)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	room, ok := h.rooms[c.bookID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.bookID)
	}
}

// serve attaches an upgraded connection to the hub and pumps messages until
// either side goes away.
func (h *Hub) serve(conn *websocket.Conn, bookID, userID string) {
	c := &client{conn: conn, bookID: bookID, userID: userID, send: make(chan []byte, constants.HubSendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	c.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Board client read error", "book_id", c.bookID, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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
