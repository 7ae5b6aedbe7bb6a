package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/spiritengine/skein/internal/types"
)

// wsSendBuffer bounds how many pending broadcast messages a slow
// client can queue before it is dropped, matching teacher
// internal/server/hub.go's WebSocketBufferSize.
const wsSendBuffer = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsClient is one connected /ws live-feed subscriber, adapted from
// teacher internal/server/hub.go's Client.
type wsClient struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// hub broadcasts thread appends, yield creations and folio updates to
// every connected live-feed client (§4.9's optional `/ws` endpoint);
// one hub serves every project of the server. Adapted from teacher
// internal/server/hub.go's Hub.
type hub struct {
	mu         sync.RWMutex
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
}

func newHub() *hub {
	h := &hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, wsSendBuffer),
	}
	go h.run()
	return h
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *hub) broadcastJSON(msgType string, data interface{}) {
	payload, err := json.Marshal(types.WSMessage{Type: msgType, Data: data})
	if err != nil {
		return
	}
	h.broadcast <- payload
}

func (h *hub) broadcastThread(t interface{}) {
	h.broadcastJSON(types.WSTypeThreadAppended, t)
}

func (h *hub) broadcastYield(y interface{}) {
	h.broadcastJSON(types.WSTypeYieldCreated, y)
}

func (h *hub) broadcastFolio(f interface{}) {
	h.broadcastJSON(types.WSTypeFolioUpdated, f)
}

// handleWS upgrades the connection and registers a client, the
// endpoint behind `/ws` (§4.9).
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &wsClient{hub: s.hub, conn: conn, send: make(chan []byte, wsSendBuffer)}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
