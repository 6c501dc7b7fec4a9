package matchmaking

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/models"
)

// DefaultFallbackDelay is how long a player waits for a human before being
// matched against the bot
const DefaultFallbackDelay = 10 * time.Second

// WaitingMessage is reported to players placed in the queue
const WaitingMessage = "Waiting for opponent... Will match with bot in 10 seconds"

// Sessions is the part of the session store the matchmaker needs
type Sessions interface {
	Create(player1, player2 string, isBot bool) (*models.GameSnapshot, error)
	HasActiveGame(username string) bool
}

// Config holds matchmaker dependencies
type Config struct {
	Sessions      Sessions
	Clock         clockwork.Clock
	Logger        *zap.Logger
	FallbackDelay time.Duration

	// OnBotMatch receives games created by the fallback timer. It runs on the
	// timer goroutine after the matchmaker lock is released.
	OnBotMatch func(*Match)
}

// Participant is a matched player and the channel it queued from
type Participant struct {
	Username string
	Channel  string
}

// Match is a newly created game
type Match struct {
	Game    *models.GameSnapshot
	Player1 Participant
	// Player2 is empty for bot games
	Player2 Participant
	IsBot   bool
}

// JoinResult is the outcome of Join. Exactly one of Match and Waiting is set.
type JoinResult struct {
	Match   *Match
	Waiting bool
	Message string
}

// QueueStatus is a read-only view of the queue
type QueueStatus struct {
	PlayersWaiting int      `json:"playersWaiting"`
	Players        []string `json:"players"`
}

type entry struct {
	username string
	channel  string
	joinedAt time.Time
	timer    clockwork.Timer
}

// cancel stops the fallback timer; safe to call more than once
func (e *entry) cancel() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Matchmaker pairs queued players. The queue keeps join order; every entry
// owns a fallback timer that is cancelled on every exit path.
type Matchmaker struct {
	mu    sync.Mutex
	queue []*entry
	index map[string]*entry

	sessions   Sessions
	clock      clockwork.Clock
	logger     *zap.Logger
	delay      time.Duration
	onBotMatch func(*Match)
}

// New creates a matchmaker
func New(cfg *Config) (*Matchmaker, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Sessions == nil {
		return nil, ErrNilSessions
	}

	m := &Matchmaker{
		index:      make(map[string]*entry),
		sessions:   cfg.Sessions,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		delay:      cfg.FallbackDelay,
		onBotMatch: cfg.OnBotMatch,
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.delay <= 0 {
		m.delay = DefaultFallbackDelay
	}

	return m, nil
}

// Join queues username or pairs it with the first other queued player
func (m *Matchmaker) Join(username, channel string) (*JoinResult, error) {
	if username == "" || username == models.BotUsername {
		return nil, errors.Wrapf(ErrInvalidUsername, "%q", username)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions.HasActiveGame(username) {
		return nil, ErrAlreadyInActiveGame
	}
	if _, ok := m.index[username]; ok {
		return nil, ErrAlreadyQueued
	}

	for i, opponent := range m.queue {
		if opponent.username == username {
			continue
		}

		game, err := m.sessions.Create(opponent.username, username, false)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create game")
		}

		opponent.cancel()
		m.removeAt(i)

		m.logger.Info("players paired",
			zap.String("game_id", game.ID),
			zap.String("player1", opponent.username),
			zap.String("player2", username),
			zap.Duration("waited", m.clock.Since(opponent.joinedAt)))

		return &JoinResult{
			Match: &Match{
				Game:    game,
				Player1: Participant{Username: opponent.username, Channel: opponent.channel},
				Player2: Participant{Username: username, Channel: channel},
			},
		}, nil
	}

	e := &entry{
		username: username,
		channel:  channel,
		joinedAt: m.clock.Now(),
	}
	e.timer = m.clock.AfterFunc(m.delay, func() {
		m.fallback(e)
	})
	m.queue = append(m.queue, e)
	m.index[username] = e

	m.logger.Debug("player queued", zap.String("username", username), zap.Int("queue", len(m.queue)))

	return &JoinResult{Waiting: true, Message: WaitingMessage}, nil
}

// fallback matches e against the bot if it is still queued
func (m *Matchmaker) fallback(e *entry) {
	m.mu.Lock()

	current, ok := m.index[e.username]
	if !ok || current != e {
		m.mu.Unlock()
		return
	}
	m.removeEntry(e)
	e.timer = nil

	game, err := m.sessions.Create(e.username, "", true)
	callback := m.onBotMatch
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("bot fallback failed", zap.String("username", e.username), zap.Error(err))
		return
	}

	m.logger.Info("matched with bot", zap.String("game_id", game.ID), zap.String("username", e.username))

	if callback != nil {
		callback(&Match{
			Game:    game,
			Player1: Participant{Username: e.username, Channel: e.channel},
			Player2: Participant{Username: models.BotUsername},
			IsBot:   true,
		})
	}
}

// Leave removes username from the queue
func (m *Matchmaker) Leave(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.index[username]
	if !ok {
		return ErrNotQueued
	}
	e.cancel()
	m.removeEntry(e)
	return nil
}

// LeaveChannel removes every entry queued from channel and returns their usernames
func (m *Matchmaker) LeaveChannel(channel string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	gone := lo.Filter(m.queue, func(e *entry, _ int) bool {
		return e.channel == channel
	})
	for _, e := range gone {
		e.cancel()
		m.removeEntry(e)
	}

	return lo.Map(gone, func(e *entry, _ int) string {
		return e.username
	})
}

// IsQueued reports whether username is waiting
func (m *Matchmaker) IsQueued(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[username]
	return ok
}

// Status returns the queued players in join order
func (m *Matchmaker) Status() QueueStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	return QueueStatus{
		PlayersWaiting: len(m.queue),
		Players: lo.Map(m.queue, func(e *entry, _ int) string {
			return e.username
		}),
	}
}

// Len returns the queue length
func (m *Matchmaker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close cancels every pending fallback and empties the queue
func (m *Matchmaker) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.queue {
		e.cancel()
	}
	m.queue = nil
	m.index = make(map[string]*entry)
}

func (m *Matchmaker) removeEntry(e *entry) {
	for i, q := range m.queue {
		if q == e {
			m.removeAt(i)
			return
		}
	}
}

func (m *Matchmaker) removeAt(i int) {
	e := m.queue[i]
	m.queue = append(m.queue[:i], m.queue[i+1:]...)
	delete(m.index, e.username)
}
