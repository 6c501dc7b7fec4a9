package session

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/bot"
	"github.com/wricardo/connect-four-arena/game/engine"
	"github.com/wricardo/connect-four-arena/game/models"
)

// Config holds store dependencies. Every field is optional.
type Config struct {
	Clock  clockwork.Clock
	Logger *zap.Logger

	// NewID allocates game ids. Defaults to uuid.NewString.
	NewID func() string

	// Bot configures the opponent of bot games. Player is always forced to
	// player two.
	Bot *bot.Config
}

// Store owns every live game. The maps are guarded by mu; each game carries
// its own mutex that serializes moves, connectivity changes and sweep visits.
// Lock order is always store before game.
type Store struct {
	mu       sync.RWMutex
	games    map[string]*game
	byPlayer map[string]string

	clock  clockwork.Clock
	logger *zap.Logger
	newID  func() string
	botCfg bot.Config
}

// slot is one seat of a game
type slot struct {
	username  string
	number    engine.Cell
	connected bool
	lastSeen  time.Time
	bot       bool
}

type game struct {
	mu sync.Mutex

	id     string
	board  *engine.Board
	slots  [2]*slot
	turn   engine.Cell
	status models.Status
	winner string
	reason models.EndReason
	isBot  bool

	bot      *bot.Bot
	botTimer clockwork.Timer

	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time
	moves     []models.Move
}

// MoveResult describes an applied move
type MoveResult struct {
	GameID   string
	Move     models.Move
	Board    [][]int
	NextTurn int
	GameOver bool
	Winner   string
	Reason   models.EndReason

	// BotTurn is set when the next turn belongs to the bot. The caller must
	// trigger the bot path.
	BotTurn bool

	// Completed is set when the move ended the game
	Completed *models.CompletedGame
}

// NewStore creates an empty store
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = &Config{}
	}

	s := &Store{
		games:    make(map[string]*game),
		byPlayer: make(map[string]string),
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		newID:    cfg.NewID,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if cfg.Bot != nil {
		s.botCfg = *cfg.Bot
	}
	s.botCfg.Player = engine.PlayerTwo
	if s.botCfg.Clock == nil {
		s.botCfg.Clock = s.clock
	}
	if s.botCfg.Logger == nil {
		s.botCfg.Logger = s.logger
	}

	return s
}

// Create starts a game for player1. With player2 or isBot the game is Active
// immediately, otherwise it waits for a second player.
func (s *Store) Create(player1, player2 string, isBot bool) (*models.GameSnapshot, error) {
	if player1 == "" || player1 == models.BotUsername {
		return nil, errors.Wrapf(ErrInvalidPlayer, "player one %q", player1)
	}
	if isBot {
		player2 = models.BotUsername
	}
	if player2 == player1 {
		return nil, errors.Wrapf(ErrInvalidPlayer, "player %q cannot play itself", player1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{player1, player2} {
		if name == "" || name == models.BotUsername {
			continue
		}
		if s.liveGameLocked(name) != nil {
			return nil, errors.Wrapf(ErrAlreadyInGame, "player %q", name)
		}
	}

	now := s.clock.Now()
	g := &game{
		id:        s.newID(),
		board:     engine.NewBoard(),
		turn:      engine.PlayerOne,
		status:    models.StatusWaiting,
		isBot:     isBot,
		createdAt: now,
	}
	g.slots[0] = &slot{username: player1, number: engine.PlayerOne, connected: true, lastSeen: now}
	if player2 != "" {
		g.slots[1] = &slot{username: player2, number: engine.PlayerTwo, connected: true, lastSeen: now, bot: isBot}
		g.status = models.StatusActive
		g.startedAt = now
	}
	if isBot {
		g.bot = bot.New(&s.botCfg)
	}

	s.games[g.id] = g
	s.byPlayer[player1] = g.id
	if player2 != "" && !isBot {
		s.byPlayer[player2] = g.id
	}

	s.logger.Info("game created",
		zap.String("game_id", g.id),
		zap.String("player1", player1),
		zap.String("player2", player2),
		zap.Bool("bot", isBot))

	return g.snapshot(), nil
}

// Join seats username in the empty second slot of a waiting game
func (s *Store) Join(gameID, username string) (*models.GameSnapshot, error) {
	if username == "" || username == models.BotUsername {
		return nil, errors.Wrapf(ErrInvalidPlayer, "player %q", username)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if other := s.liveGameLocked(username); other != nil && other != g {
		return nil, errors.Wrapf(ErrAlreadyInGame, "player %q", username)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != models.StatusWaiting {
		return nil, ErrGameFull
	}
	if g.slots[0].username == username {
		return nil, errors.Wrapf(ErrInvalidPlayer, "player %q cannot play itself", username)
	}

	now := s.clock.Now()
	g.slots[1] = &slot{username: username, number: engine.PlayerTwo, connected: true, lastSeen: now}
	g.status = models.StatusActive
	g.startedAt = now
	s.byPlayer[username] = g.id

	return g.snapshot(), nil
}

// liveGameLocked returns username's waiting or active game. Caller holds s.mu.
func (s *Store) liveGameLocked(username string) *game {
	id, ok := s.byPlayer[username]
	if !ok {
		return nil
	}
	g, ok := s.games[id]
	if !ok {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == models.StatusFinished {
		return nil
	}
	return g
}

func (s *Store) get(gameID string) (*game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// ApplyMove drops username's disc into col
func (s *Store) ApplyMove(gameID, username string, col int) (*MoveResult, error) {
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != models.StatusActive {
		return nil, ErrGameNotActive
	}
	sl := g.slotOf(username)
	if sl == nil || sl.bot {
		return nil, ErrPlayerNotInGame
	}
	if sl.number != g.turn {
		return nil, ErrNotYourTurn
	}

	return s.applyLocked(g, sl, col)
}

// ApplyBotMove asks the game's bot for a column and applies it immediately
func (s *Store) ApplyBotMove(gameID string) (*MoveResult, error) {
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	sl, err := g.botSlotForTurn()
	if err != nil {
		return nil, err
	}

	col, ok := g.bot.GetBestMove(g.board)
	return s.applyBotLocked(g, sl, col, ok)
}

// RequestBotMove schedules the bot's move after its think time and reports the
// outcome to fn from the timer goroutine. No lock is held while the bot thinks.
// A second request while one is pending is a no-op.
func (s *Store) RequestBotMove(gameID string, fn func(*MoveResult, error)) error {
	g, err := s.get(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.botSlotForTurn(); err != nil {
		return err
	}
	if g.botTimer != nil {
		return nil
	}

	g.botTimer = g.bot.MakeMove(g.board, func(col int, ok bool) {
		res, err := s.completeBotMove(g, col, ok)
		if fn != nil {
			fn(res, err)
		}
	})

	return nil
}

func (s *Store) completeBotMove(g *game, col int, ok bool) (*MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.botTimer = nil
	sl, err := g.botSlotForTurn()
	if err != nil {
		return nil, err
	}
	return s.applyBotLocked(g, sl, col, ok)
}

func (s *Store) applyBotLocked(g *game, sl *slot, col int, ok bool) (*MoveResult, error) {
	if !ok {
		// no move left for the bot
		now := s.clock.Now()
		completed := s.finishLocked(g, "", models.EndReasonDraw, now)
		return &MoveResult{
			GameID:    g.id,
			Board:     g.board.Grid(),
			NextTurn:  g.turn.Number(),
			GameOver:  true,
			Reason:    models.EndReasonDraw,
			Completed: completed,
		}, nil
	}
	return s.applyLocked(g, sl, col)
}

// applyLocked drops the disc and runs terminal detection. Caller holds g.mu.
func (s *Store) applyLocked(g *game, sl *slot, col int) (*MoveResult, error) {
	row, err := g.board.DropDisc(col, sl.number)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidColumn, "column %d", col)
	}

	now := s.clock.Now()
	mv := models.Move{
		Username:     sl.username,
		PlayerNumber: sl.number.Number(),
		Column:       col,
		Row:          row,
		Timestamp:    now,
	}
	g.moves = append(g.moves, mv)
	if !sl.bot {
		sl.lastSeen = now
	}

	res := &MoveResult{GameID: g.id, Move: mv}

	switch {
	case engine.CheckWinner(g.board, row, col) == sl.number:
		res.Completed = s.finishLocked(g, sl.username, models.EndReasonWin, now)
	case g.board.IsFull():
		res.Completed = s.finishLocked(g, "", models.EndReasonDraw, now)
	default:
		g.turn = g.turn.Opponent()
		if next := g.slots[g.turn.Number()-1]; next != nil && next.bot {
			res.BotTurn = true
		}
	}

	res.Board = g.board.Grid()
	res.NextTurn = g.turn.Number()
	res.GameOver = g.status == models.StatusFinished
	res.Winner = g.winner
	res.Reason = g.reason

	return res, nil
}

// finishLocked moves g to Finished exactly once and returns its summary.
// The turn is left as it was.
func (s *Store) finishLocked(g *game, winner string, reason models.EndReason, now time.Time) *models.CompletedGame {
	if g.status == models.StatusFinished {
		return nil
	}
	if g.botTimer != nil {
		g.botTimer.Stop()
		g.botTimer = nil
	}

	g.status = models.StatusFinished
	g.winner = winner
	g.reason = reason
	g.endedAt = now

	s.logger.Info("game finished",
		zap.String("game_id", g.id),
		zap.String("winner", winner),
		zap.String("reason", string(reason)),
		zap.Int("moves", len(g.moves)))

	return g.completed()
}

// Forfeit ends an active game with username as the loser
func (s *Store) Forfeit(gameID, username string) (*Forfeit, error) {
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != models.StatusActive {
		return nil, ErrGameNotActive
	}
	sl := g.slotOf(username)
	if sl == nil || sl.bot {
		return nil, ErrPlayerNotInGame
	}

	return s.forfeitLocked(g, sl, s.clock.Now()), nil
}

// Forfeit describes a game ended by forfeit
type Forfeit struct {
	GameID    string
	Loser     string
	Winner    string
	Game      *models.GameSnapshot
	Completed *models.CompletedGame
}

func (s *Store) forfeitLocked(g *game, loser *slot, now time.Time) *Forfeit {
	winner := g.other(loser)
	completed := s.finishLocked(g, winner.username, models.EndReasonForfeit, now)
	return &Forfeit{
		GameID:    g.id,
		Loser:     loser.username,
		Winner:    winner.username,
		Game:      g.snapshot(),
		Completed: completed,
	}
}

// Disconnection describes a player marked offline
type Disconnection struct {
	GameID   string
	Username string
	Opponent string
}

// Disconnect marks username offline in its live game. The game keeps its
// status; the abandonment sweep decides whether it is forfeited.
func (s *Store) Disconnect(username string) (*Disconnection, error) {
	s.mu.RLock()
	g := s.liveGameLocked(username)
	s.mu.RUnlock()
	if g == nil {
		return nil, ErrGameNotFound
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	sl := g.slotOf(username)
	if sl == nil {
		return nil, ErrPlayerNotInGame
	}
	sl.connected = false
	sl.lastSeen = s.clock.Now()

	d := &Disconnection{GameID: g.id, Username: username}
	if other := g.other(sl); other != nil {
		d.Opponent = other.username
	}
	return d, nil
}

// Reconnect marks username online again. Only live games accept reconnects.
func (s *Store) Reconnect(gameID, username string) (*models.GameSnapshot, error) {
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == models.StatusFinished {
		return nil, ErrGameNotActive
	}
	sl := g.slotOf(username)
	if sl == nil || sl.bot {
		return nil, ErrPlayerNotInGame
	}
	sl.connected = true
	sl.lastSeen = s.clock.Now()

	return g.snapshot(), nil
}

// LiveGame returns the snapshot of username's waiting or active game
func (s *Store) LiveGame(username string) (*models.GameSnapshot, bool) {
	s.mu.RLock()
	g := s.liveGameLocked(username)
	s.mu.RUnlock()
	if g == nil {
		return nil, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot(), true
}

// HasActiveGame reports whether username is seated in an active game
func (s *Store) HasActiveGame(username string) bool {
	snap, ok := s.LiveGame(username)
	return ok && snap.Status == models.StatusActive
}

// Snapshot returns the client-safe view of a game
func (s *Store) Snapshot(gameID string) (*models.GameSnapshot, error) {
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot(), nil
}

// History returns a copy of the game's moves
func (s *Store) History(gameID string) ([]models.Move, error) {
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Move(nil), g.moves...), nil
}

// List returns snapshots of every stored game, oldest first
func (s *Store) List() []*models.GameSnapshot {
	games := s.all()
	sort.Slice(games, func(i, j int) bool {
		return games[i].createdAt.Before(games[j].createdAt)
	})

	return lo.Map(games, func(g *game, _ int) *models.GameSnapshot {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.snapshot()
	})
}

// Counts returns the number of games per status
func (s *Store) Counts() map[models.Status]int {
	counts := map[models.Status]int{
		models.StatusWaiting:  0,
		models.StatusActive:   0,
		models.StatusFinished: 0,
	}
	for _, g := range s.all() {
		g.mu.Lock()
		counts[g.status]++
		g.mu.Unlock()
	}
	return counts
}

// Count returns the number of stored games
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func (s *Store) all() []*game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Values(s.games)
}

func (g *game) slotOf(username string) *slot {
	for _, sl := range g.slots {
		if sl != nil && sl.username == username {
			return sl
		}
	}
	return nil
}

func (g *game) other(sl *slot) *slot {
	if g.slots[0] == sl {
		return g.slots[1]
	}
	return g.slots[0]
}

// botSlotForTurn validates that the bot is due to move
func (g *game) botSlotForTurn() (*slot, error) {
	if !g.isBot || g.bot == nil {
		return nil, ErrNotBotGame
	}
	if g.status != models.StatusActive {
		return nil, ErrGameNotActive
	}
	sl := g.slots[g.turn.Number()-1]
	if sl == nil || !sl.bot {
		return nil, ErrNotYourTurn
	}
	return sl, nil
}

func (g *game) snapshot() *models.GameSnapshot {
	snap := &models.GameSnapshot{
		ID:          g.id,
		Board:       g.board.Grid(),
		CurrentTurn: g.turn.Number(),
		Status:      g.status,
		IsBot:       g.isBot,
		Winner:      g.winner,
		WinReason:   g.reason,
		ValidMoves:  []int{},
		MoveCount:   len(g.moves),
	}
	if g.status == models.StatusActive {
		snap.ValidMoves = g.board.ValidMoves()
	}
	if g.slots[0] != nil {
		snap.Player1 = g.slots[0].view()
	}
	if g.slots[1] != nil {
		snap.Player2 = g.slots[1].view()
	}
	if !g.startedAt.IsZero() {
		started := g.startedAt
		snap.StartedAt = &started
	}
	if !g.endedAt.IsZero() {
		ended := g.endedAt
		snap.EndedAt = &ended
	}
	return snap
}

func (g *game) completed() *models.CompletedGame {
	c := &models.CompletedGame{
		GameID:      g.id,
		Winner:      g.winner,
		WinReason:   g.reason,
		IsBot:       g.isBot,
		StartTime:   g.startedAt,
		EndTime:     g.endedAt,
		MoveCount:   len(g.moves),
		MoveHistory: append([]models.Move(nil), g.moves...),
	}
	if g.startedAt.IsZero() {
		c.StartTime = g.createdAt
	}
	c.Duration = c.EndTime.Sub(c.StartTime)
	if g.slots[0] != nil {
		c.Player1 = g.slots[0].username
	}
	if g.slots[1] != nil {
		c.Player2 = g.slots[1].username
	}
	return c
}

func (sl *slot) view() *models.PlayerView {
	return &models.PlayerView{
		Username:     sl.username,
		PlayerNumber: sl.number.Number(),
		Connected:    sl.connected,
		IsBot:        sl.bot,
	}
}
