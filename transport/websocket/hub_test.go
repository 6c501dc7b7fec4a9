package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/connect-four-arena/game/service"
)

// fakeHandler records inbound events and echoes joins back through the hub
type fakeHandler struct {
	hub *Hub

	mu           sync.Mutex
	moves        []service.MoveRequest
	joined       chan string
	disconnected chan string
	quits        []string
}

func newFakeHandler(hub *Hub) *fakeHandler {
	return &fakeHandler{
		hub:          hub,
		joined:       make(chan string, 8),
		disconnected: make(chan string, 8),
	}
}

func (f *fakeHandler) Join(ctx context.Context, clientID, username string) error {
	f.hub.SendToClient(clientID, service.EventJoined, service.JoinedPayload{Username: username})
	f.joined <- clientID
	return nil
}

func (f *fakeHandler) FindMatch(ctx context.Context, clientID, username string) error {
	f.hub.SendToClient(clientID, service.EventMatchmakingWaiting, service.MessagePayload{Message: "waiting"})
	return nil
}

func (f *fakeHandler) LeaveQueue(ctx context.Context, clientID, username string) error {
	f.hub.SendToClient(clientID, service.EventLeftQueue, service.MessagePayload{Message: "Left queue"})
	return nil
}

func (f *fakeHandler) MakeMove(ctx context.Context, clientID, gameID, username string, column int) (*service.MoveMade, error) {
	f.mu.Lock()
	f.moves = append(f.moves, service.MoveRequest{GameID: gameID, Username: username, Column: &column})
	f.mu.Unlock()
	f.hub.SendToClient(clientID, service.EventMoveMade, service.MoveMade{GameID: gameID, Player: username})
	return nil, nil
}

func (f *fakeHandler) QuitGame(ctx context.Context, clientID, gameID, username string) error {
	f.mu.Lock()
	f.quits = append(f.quits, gameID)
	f.mu.Unlock()
	f.hub.SendToClient(clientID, service.EventGameOver, service.GameOverPayload{GameOver: true})
	return nil
}

func (f *fakeHandler) SendGameState(ctx context.Context, clientID, gameID string) error {
	f.hub.SendToClient(clientID, service.EventGameState, map[string]string{"gameId": gameID})
	return nil
}

func (f *fakeHandler) Disconnect(ctx context.Context, clientID string) {
	f.disconnected <- clientID
}

type testServer struct {
	hub     *Hub
	handler *fakeHandler
	url     string
}

func startServer(t *testing.T) *testServer {
	t.Helper()

	hub := NewHub(nil, nil)
	handler := newFakeHandler(hub)
	hub.SetHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return &testServer{
		hub:     hub,
		handler: handler,
		url:     "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// join sends a join event and returns the hub's id for the connection
func (ts *testServer) join(t *testing.T, conn *websocket.Conn, username string) string {
	t.Helper()
	send(t, conn, service.EventJoin, map[string]string{"username": username})
	env := read(t, conn)
	require.Equal(t, service.EventJoined, env.Event)

	select {
	case id := <-ts.handler.joined:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("join not dispatched")
		return ""
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: payload}))
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected no message")
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, nil)

	require.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.rooms)
	assert.NotNil(t, hub.outbound)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_JoinRoundTrip(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)

	send(t, conn, service.EventJoin, map[string]string{"username": "alice"})
	env := read(t, conn)
	assert.Equal(t, service.EventJoined, env.Event)

	var payload service.JoinedPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, 1, ts.hub.ClientCount())
}

func TestHub_DispatchesEvents(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)

	send(t, conn, service.EventFindMatch, map[string]string{"username": "alice"})
	assert.Equal(t, service.EventMatchmakingWaiting, read(t, conn).Event)

	send(t, conn, service.EventLeaveQueue, map[string]string{"username": "alice"})
	assert.Equal(t, service.EventLeftQueue, read(t, conn).Event)

	send(t, conn, service.EventMakeMove, map[string]interface{}{"gameId": "g1", "username": "alice", "column": 3})
	assert.Equal(t, service.EventMoveMade, read(t, conn).Event)

	// legacy payloads name the column "col"
	send(t, conn, service.EventMakeMove, map[string]interface{}{"gameId": "g1", "username": "alice", "col": 5})
	assert.Equal(t, service.EventMoveMade, read(t, conn).Event)

	send(t, conn, service.EventGetGameState, map[string]string{"gameId": "g1"})
	assert.Equal(t, service.EventGameState, read(t, conn).Event)

	send(t, conn, service.EventQuitGame, map[string]string{"gameId": "g1", "username": "alice"})
	assert.Equal(t, service.EventGameOver, read(t, conn).Event)

	ts.handler.mu.Lock()
	defer ts.handler.mu.Unlock()
	require.Len(t, ts.handler.moves, 2)
	assert.Equal(t, 3, *ts.handler.moves[0].Column)
	assert.Equal(t, 5, *ts.handler.moves[1].Column)
	assert.Equal(t, []string{"g1"}, ts.handler.quits)
}

func TestHub_InvalidMessages(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	env := read(t, conn)
	assert.Equal(t, service.EventError, env.Event)
	assert.JSONEq(t, `{"message":"Invalid message"}`, string(env.Data))

	send(t, conn, "dance", nil)
	env = read(t, conn)
	assert.Equal(t, service.EventError, env.Event)
	assert.JSONEq(t, `{"message":"Unknown event: dance"}`, string(env.Data))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"make-move","data":{"column":"three"}}`)))
	env = read(t, conn)
	assert.JSONEq(t, `{"message":"Invalid payload"}`, string(env.Data))
}

func TestHub_Rooms(t *testing.T) {
	ts := startServer(t)
	alice := ts.dial(t)
	bob := ts.dial(t)
	carol := ts.dial(t)

	aliceID := ts.join(t, alice, "alice")
	bobID := ts.join(t, bob, "bob")
	ts.join(t, carol, "carol")

	ts.hub.JoinGame(aliceID, "g1")
	ts.hub.JoinGame(bobID, "g1")
	ts.hub.BroadcastToGame("g1", service.EventMoveMade, service.MoveMade{GameID: "g1"})

	assert.Equal(t, service.EventMoveMade, read(t, alice).Event)
	assert.Equal(t, service.EventMoveMade, read(t, bob).Event)
	expectSilence(t, carol)

	ts.hub.BroadcastToGameExcept("g1", bobID, service.EventOpponentDisconnected, service.PresencePayload{Username: "bob"})
	assert.Equal(t, service.EventOpponentDisconnected, read(t, alice).Event)
	expectSilence(t, bob)
}

func TestHub_CloseGame(t *testing.T) {
	ts := startServer(t)
	alice := ts.dial(t)
	aliceID := ts.join(t, alice, "alice")

	ts.hub.JoinGame(aliceID, "g1")
	ts.hub.JoinGame(aliceID, "g2")
	ts.hub.CloseGame("g1")

	// room changes and messages share one queue, so g1 is gone by now
	ts.hub.BroadcastToGame("g1", service.EventMoveMade, service.MoveMade{GameID: "g1"})
	ts.hub.BroadcastToGame("g2", service.EventMoveMade, service.MoveMade{GameID: "g2"})

	env := read(t, alice)
	var made service.MoveMade
	require.NoError(t, json.Unmarshal(env.Data, &made))
	assert.Equal(t, "g2", made.GameID)
	expectSilence(t, alice)

	// the connection itself stays open
	send(t, alice, service.EventGetGameState, map[string]string{"gameId": "g2"})
	assert.Equal(t, service.EventGameState, read(t, alice).Event)
}

func TestHub_CloseRoomKeepsClients(t *testing.T) {
	hub := NewHub(nil, nil)
	client := &Client{id: "c1", hub: hub, send: make(chan []byte, 4)}
	hub.registerClient(client)
	hub.joinRoom(&delivery{clientID: "c1", gameID: "g1"})
	hub.joinRoom(&delivery{clientID: "c1", gameID: "g2"})

	hub.closeRoom("g1")
	hub.closeRoom("unknown")

	assert.NotContains(t, hub.rooms, "g1")
	assert.Contains(t, hub.rooms, "g2")
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_DisconnectNotifiesHandler(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)
	id := ts.join(t, conn, "alice")

	require.NoError(t, conn.Close())

	select {
	case got := <-ts.handler.disconnected:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect not reported")
	}

	assert.Eventually(t, func() bool {
		return ts.hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub(nil, nil)
	client := &Client{id: "c1", hub: hub, send: make(chan []byte, 1)}
	hub.registerClient(client)
	hub.joinRoom(&delivery{clientID: "c1", gameID: "g1"})

	hub.deliver(&delivery{gameID: "g1", data: []byte("one")})
	assert.Equal(t, 1, hub.ClientCount())

	// the buffer is full: the client is unregistered and its channel closed
	hub.deliver(&delivery{gameID: "g1", data: []byte("two")})
	assert.Equal(t, 0, hub.ClientCount())
	assert.Empty(t, hub.rooms)

	assert.Equal(t, []byte("one"), <-client.send)
	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_SendToUnknownClientIsIgnored(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.deliver(&delivery{clientID: "ghost", data: []byte("x")})
	hub.joinRoom(&delivery{clientID: "ghost", gameID: "g1"})
	assert.Empty(t, hub.rooms)
}
