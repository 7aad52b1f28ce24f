package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/clothsim/internal/cloth"
)

const (
	sendBuffer   = 16
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Publisher fans a published state out to some audience.
type Publisher interface {
	Publish(ctx context.Context, st *cloth.State) error
}

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// InputData is the payload of an "input" message.
type InputData struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Cut  bool    `json:"cut"`
	Grab bool    `json:"grab"`
}

func (d InputData) Input() cloth.Input {
	return cloth.Input{Pointer: cloth.Vec2{X: d.X, Y: d.Y}, Cut: d.Cut, Grab: d.Grab}
}

func envelope(kind string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: kind, Data: raw})
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the connected websocket clients and the latest pointer input
// any of them sent.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	inputMu sync.Mutex
	latest  cloth.Input
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[stream] client connected (clients=%d)", n)

		case c := <-h.unregister:
			h.release()
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[stream] client disconnected (clients=%d)", n)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.release()
			return
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts the state to every client. Clients with a full buffer
// miss the frame.
func (h *Hub) Publish(ctx context.Context, st *cloth.State) error {
	data, err := envelope("state", st)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("[stream] send buffer full, dropping tick %d", st.Tick)
		}
	}
	return ctx.Err()
}

// Latest returns the most recent input received from any client.
func (h *Hub) Latest() cloth.Input {
	h.inputMu.Lock()
	defer h.inputMu.Unlock()
	return h.latest
}

func (h *Hub) setLatest(in cloth.Input) {
	h.inputMu.Lock()
	h.latest = in
	h.inputMu.Unlock()
}

// release lets go of both buttons, keeping the last pointer position. A
// departed client must not keep cutting or holding the cloth.
func (h *Hub) release() {
	h.inputMu.Lock()
	h.latest.Cut = false
	h.latest.Grab = false
	h.inputMu.Unlock()
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] upgrade: %v", err)
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[stream] read error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[stream] invalid message: %v", err)
			continue
		}
		if msg.Type != "input" {
			continue
		}
		var data InputData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			log.Printf("[stream] invalid input: %v", err)
			continue
		}
		c.hub.setLatest(data.Input())
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[stream] write error: %v", err)
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
