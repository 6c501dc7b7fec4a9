package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/service"
	"github.com/wricardo/connect-four-arena/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound messages buffered per client before it is dropped.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope is the wire format of every message in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives inbound events. service.Service implements it.
type Handler interface {
	Join(ctx context.Context, clientID, username string) error
	FindMatch(ctx context.Context, clientID, username string) error
	LeaveQueue(ctx context.Context, clientID, username string) error
	MakeMove(ctx context.Context, clientID, gameID, username string, column int) (*service.MoveMade, error)
	QuitGame(ctx context.Context, clientID, gameID, username string) error
	SendGameState(ctx context.Context, clientID, gameID string) error
	Disconnect(ctx context.Context, clientID string)
}

// Client represents a WebSocket client
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// delivery is an outbound message addressed to a client or a game room, or a
// room join or close. Room changes share the queue with messages so they keep
// their order.
type delivery struct {
	clientID string
	gameID   string
	except   string
	data     []byte
	join     bool
	close    bool
}

// Hub maintains the set of active clients and the game rooms they belong to.
// All hub state is owned by the Run goroutine.
type Hub struct {
	clients map[string]*Client
	rooms   map[string]map[*Client]bool

	outbound   chan *delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	handler   Handler
	logger    *zap.Logger
	metrics   *metrics.Metrics
	connected atomic.Int64
}

var _ service.Notifier = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]bool),
		outbound:   make(chan *delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// SetHandler sets the receiver of inbound events. Call before serving.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, client := range h.clients {
				h.unregisterClient(client)
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.outbound:
			switch {
			case d.join:
				h.joinRoom(d)
			case d.close:
				h.closeRoom(d.gameID)
			default:
				h.deliver(d)
			}
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// SendToClient sends an event to one client
func (h *Hub) SendToClient(clientID, event string, data interface{}) {
	if clientID == "" {
		return
	}
	h.enqueue(&delivery{clientID: clientID}, event, data)
}

// BroadcastToGame sends an event to every client in a game room
func (h *Hub) BroadcastToGame(gameID, event string, data interface{}) {
	h.enqueue(&delivery{gameID: gameID}, event, data)
}

// BroadcastToGameExcept sends an event to a game room, skipping one client
func (h *Hub) BroadcastToGameExcept(gameID, exceptClientID, event string, data interface{}) {
	h.enqueue(&delivery{gameID: gameID, except: exceptClientID}, event, data)
}

// JoinGame adds a client to a game room
func (h *Hub) JoinGame(clientID, gameID string) {
	select {
	case h.outbound <- &delivery{clientID: clientID, gameID: gameID, join: true}:
	case <-h.done:
	}
}

// CloseGame removes a game room. Members stay connected.
func (h *Hub) CloseGame(gameID string) {
	select {
	case h.outbound <- &delivery{gameID: gameID, close: true}:
	case <-h.done:
	}
}

func (h *Hub) enqueue(d *delivery, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	d.data, err = json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("failed to marshal envelope", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case h.outbound <- d:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client.id] = client
	h.connected.Add(1)
	h.metrics.ConnectedClients.Inc()

	h.logger.Debug("client registered",
		zap.String("client_id", client.id),
		zap.Int("clients", len(h.clients)))
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client.id]; !ok {
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	h.connected.Add(-1)
	h.metrics.ConnectedClients.Dec()

	for gameID, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, gameID)
		}
	}

	h.logger.Debug("client unregistered",
		zap.String("client_id", client.id),
		zap.Int("clients", len(h.clients)))
}

func (h *Hub) joinRoom(j *delivery) {
	client, ok := h.clients[j.clientID]
	if !ok {
		return
	}
	if h.rooms[j.gameID] == nil {
		h.rooms[j.gameID] = make(map[*Client]bool)
	}
	h.rooms[j.gameID][client] = true
}

func (h *Hub) closeRoom(gameID string) {
	if _, ok := h.rooms[gameID]; !ok {
		return
	}
	delete(h.rooms, gameID)
	h.logger.Debug("room closed", zap.String("game_id", gameID))
}

func (h *Hub) deliver(d *delivery) {
	if d.clientID != "" {
		if client, ok := h.clients[d.clientID]; ok {
			h.push(client, d.data)
		}
		return
	}

	for client := range h.rooms[d.gameID] {
		if client.id == d.except {
			continue
		}
		h.push(client, d.data)
	}
}

// push queues data on client, dropping clients that cannot keep up
func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client send buffer full", zap.String("client_id", client.id))
		h.unregisterClient(client)
	}
}

// dispatch decodes an inbound envelope and calls the handler
func (c *Client) dispatch(ctx context.Context, env *Envelope) {
	h := c.hub.handler
	if h == nil {
		return
	}

	invalid := func(err error) {
		c.hub.logger.Debug("invalid payload", zap.String("event", env.Event), zap.Error(err))
		c.hub.SendToClient(c.id, service.EventError, service.MessagePayload{Message: "Invalid payload"})
	}

	switch env.Event {
	case service.EventJoin, service.EventFindMatch, service.EventLeaveQueue:
		var req service.UsernameRequest
		if err := decode(env.Data, &req); err != nil {
			invalid(err)
			return
		}
		switch env.Event {
		case service.EventJoin:
			_ = h.Join(ctx, c.id, req.Username)
		case service.EventFindMatch:
			_ = h.FindMatch(ctx, c.id, req.Username)
		default:
			_ = h.LeaveQueue(ctx, c.id, req.Username)
		}

	case service.EventMakeMove:
		var req service.MoveRequest
		if err := decode(env.Data, &req); err != nil {
			invalid(err)
			return
		}
		_, _ = h.MakeMove(ctx, c.id, req.GameID, req.Username, req.ColumnValue())

	case service.EventQuitGame, service.EventGetGameState:
		var req service.GameRequest
		if err := decode(env.Data, &req); err != nil {
			invalid(err)
			return
		}
		if env.Event == service.EventQuitGame {
			_ = h.QuitGame(ctx, c.id, req.GameID, req.Username)
		} else {
			_ = h.SendGameState(ctx, c.id, req.GameID)
		}

	default:
		c.hub.SendToClient(c.id, service.EventError, service.MessagePayload{Message: "Unknown event: " + env.Event})
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// readPump pumps messages from the WebSocket connection to the handler
func (c *Client) readPump() {
	ctx := context.Background()
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		if c.hub.handler != nil {
			c.hub.handler.Disconnect(ctx, c.id)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket closed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			c.hub.SendToClient(c.id, service.EventError, service.MessagePayload{Message: "Invalid message"})
			continue
		}
		c.dispatch(ctx, &env)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// Every event goes out as its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
