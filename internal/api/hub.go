package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/metrics"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/scripting"
)

// Message types pushed over /ws.
const (
	MsgOutcome       = "OUTCOME"
	MsgLedger        = "LEDGER_UPDATE"
	MsgAutoplayState = "AUTOPLAY_STATE"
	MsgAutoplayLog   = "AUTOPLAY_LOG"
	MsgPing          = "PING"
	MsgPong          = "PONG"
)

const (
	clientBuffer = 64
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// Message is one websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// send is closed by the hub; reply is only written by the client's own
// read loop and is never closed.
type client struct {
	conn  *websocket.Conn
	send  chan []byte
	reply chan []byte
}

// Hub fans engine events out to websocket clients. Slow clients lose
// frames rather than block the engine.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub builds a hub accepting connections from the given origins.
// An empty list accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c.send)
		}
		h.clients = nil
		metrics.WebsocketClients.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.WebsocketClients.Set(float64(len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				metrics.WebsocketClients.Set(float64(len(h.clients)))
			}
		case frame := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					delete(h.clients, c)
					close(c.send)
					metrics.WebsocketClients.Set(float64(len(h.clients)))
				}
			}
		}
	}
}

// Broadcast queues msg for every client. It never blocks.
func (h *Hub) Broadcast(msg Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode websocket message", "type", msg.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		slog.Warn("websocket broadcast dropped", "type", msg.Type)
	}
}

// OutcomeResolved implements casino.Notifier.
func (h *Hub) OutcomeResolved(_ context.Context, out games.Outcome) {
	h.Broadcast(Message{Type: MsgOutcome, Data: out})
}

// LedgerChanged implements casino.Notifier.
func (h *Hub) LedgerChanged(_ context.Context, snap ledger.Snapshot) {
	h.Broadcast(Message{Type: MsgLedger, Data: snap})
}

// EmitScriptState implements scripting.EventEmitter.
func (h *Hub) EmitScriptState(state scripting.EngineSnapshot) {
	h.Broadcast(Message{Type: MsgAutoplayState, Data: state})
}

// EmitScriptLog implements scripting.EventEmitter.
func (h *Hub) EmitScriptLog(entries []scripting.LogEntry) {
	h.Broadcast(Message{Type: MsgAutoplayLog, Data: entries})
}

// Serve upgrades the request and pumps frames until the client leaves.
// hello, when non-nil, is the first frame the client receives.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, hello *Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer), reply: make(chan []byte, 4)}
	if hello != nil {
		if frame, err := json.Marshal(hello); err == nil {
			c.send <- frame
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
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

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read failed", "error", err)
			}
			return
		}
		if msg.Type == MsgPing {
			frame, _ := json.Marshal(Message{Type: MsgPong, Data: map[string]int64{"timestamp": time.Now().Unix()}})
			select {
			case c.reply <- frame:
			default:
			}
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
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case frame := <-c.reply:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
