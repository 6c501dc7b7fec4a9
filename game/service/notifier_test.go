package service

import (
	"sync"
	"time"
)

// sent is one notification captured by fakeNotifier
type sent struct {
	To     string
	Game   string
	Except string
	Event  string
	Data   interface{}
}

// fakeNotifier records every outbound event
type fakeNotifier struct {
	mu     sync.Mutex
	events []sent
	rooms  map[string][]string
	closed []string
	ch     chan sent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		rooms: make(map[string][]string),
		ch:    make(chan sent, 256),
	}
}

func (n *fakeNotifier) record(e sent) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
	n.ch <- e
}

func (n *fakeNotifier) SendToClient(clientID, event string, data interface{}) {
	n.record(sent{To: clientID, Event: event, Data: data})
}

func (n *fakeNotifier) BroadcastToGame(gameID, event string, data interface{}) {
	n.record(sent{Game: gameID, Event: event, Data: data})
}

func (n *fakeNotifier) BroadcastToGameExcept(gameID, exceptClientID, event string, data interface{}) {
	n.record(sent{Game: gameID, Except: exceptClientID, Event: event, Data: data})
}

func (n *fakeNotifier) JoinGame(clientID, gameID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms[gameID] = append(n.rooms[gameID], clientID)
}

func (n *fakeNotifier) CloseGame(gameID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.rooms, gameID)
	n.closed = append(n.closed, gameID)
}

func (n *fakeNotifier) closedGames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.closed...)
}

func (n *fakeNotifier) room(gameID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.rooms[gameID]...)
}

// next returns the next captured event, or false after timeout
func (n *fakeNotifier) next(timeout time.Duration) (sent, bool) {
	select {
	case e := <-n.ch:
		return e, true
	case <-time.After(timeout):
		return sent{}, false
	}
}

// drain discards every pending event
func (n *fakeNotifier) drain() {
	for {
		select {
		case <-n.ch:
		default:
			return
		}
	}
}
