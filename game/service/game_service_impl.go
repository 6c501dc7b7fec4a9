package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/matchmaking"
	"github.com/wricardo/connect-four-arena/game/models"
	"github.com/wricardo/connect-four-arena/game/session"
	"github.com/wricardo/connect-four-arena/metrics"
)

// Service implements GameService on top of the session store and matchmaker
type Service struct {
	store    *session.Store
	mm       *matchmaking.Matchmaker
	notifier Notifier
	recorder Recorder
	metrics  *metrics.Metrics
	pool     *ants.Pool
	clock    clockwork.Clock
	logger   *zap.Logger

	sweepInterval  time.Duration
	abandonTimeout time.Duration
	retention      time.Duration
	persistTimeout time.Duration
	startedAt      time.Time

	mu      sync.RWMutex
	clients map[string]string // client id -> username
	players map[string]string // username -> client id
}

var _ GameService = (*Service)(nil)

// NewGameService creates a new game service instance
func NewGameService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Notifier == nil {
		return nil, ErrNilNotifier
	}

	s := &Service{
		store:          cfg.Store,
		notifier:       cfg.Notifier,
		recorder:       cfg.Recorder,
		metrics:        cfg.Metrics,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		sweepInterval:  cfg.SweepInterval,
		abandonTimeout: cfg.AbandonTimeout,
		retention:      cfg.Retention,
		persistTimeout: cfg.PersistTimeout,
		clients:        make(map[string]string),
		players:        make(map[string]string),
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	if s.store == nil {
		s.store = session.NewStore(&session.Config{Clock: s.clock, Logger: s.logger})
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = DefaultSweepInterval
	}
	if s.abandonTimeout <= 0 {
		s.abandonTimeout = DefaultAbandonTimeout
	}
	if s.retention <= 0 {
		s.retention = DefaultRetention
	}
	if s.persistTimeout <= 0 {
		s.persistTimeout = DefaultPersistTimeout
	}
	s.startedAt = s.clock.Now()

	mm, err := matchmaking.New(&matchmaking.Config{
		Sessions:      s.store,
		Clock:         s.clock,
		Logger:        s.logger.Named("matchmaking"),
		FallbackDelay: cfg.FallbackDelay,
		OnBotMatch:    s.onBotMatch,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create matchmaker")
	}
	s.mm = mm

	if s.recorder != nil {
		size := cfg.PoolSize
		if size <= 0 {
			size = DefaultPoolSize
		}
		pool, err := ants.NewPool(size,
			ants.WithNonblocking(true),
			ants.WithPanicHandler(func(p interface{}) {
				s.metrics.PersistFailures.Inc()
				s.logger.Error("persistence task panicked", zap.Any("panic", p))
			}))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create persistence pool")
		}
		s.pool = pool
	}

	return s, nil
}

// Close cancels pending matchmaking timers and drains the persistence pool
func (s *Service) Close() {
	s.mm.Close()
	if s.pool != nil {
		if err := s.pool.ReleaseTimeout(s.persistTimeout); err != nil {
			s.logger.Warn("persistence pool did not drain", zap.Error(err))
		}
	}
}

// Join binds clientID to username and resumes the player's live game, if any
func (s *Service) Join(ctx context.Context, clientID, username string) error {
	if username == "" {
		s.notifier.SendToClient(clientID, EventError, MessagePayload{Message: ErrUsernameRequired.Error()})
		return ErrUsernameRequired
	}

	s.bind(clientID, username)

	if live, ok := s.store.LiveGame(username); ok && live.Status == models.StatusActive {
		snap, err := s.store.Reconnect(live.ID, username)
		if err == nil {
			s.notifier.JoinGame(clientID, snap.ID)
			s.notifier.SendToClient(clientID, EventGameReconnected, GamePayload{Game: snap})
			s.notifier.BroadcastToGameExcept(snap.ID, clientID, EventOpponentReconnected, PresencePayload{Username: username})
			s.logger.Info("player reconnected", zap.String("game_id", snap.ID), zap.String("username", username))
		}
	}

	s.notifier.SendToClient(clientID, EventJoined, JoinedPayload{
		Username: username,
		Stats:    s.lookupStats(ctx, username),
	})
	return nil
}

// FindMatch queues username or pairs it with a waiting player
func (s *Service) FindMatch(ctx context.Context, clientID, username string) error {
	if username == "" {
		s.notifier.SendToClient(clientID, EventMatchmakingError, ErrorPayload{Error: ErrUsernameRequired.Error()})
		return ErrUsernameRequired
	}
	s.bind(clientID, username)

	res, err := s.mm.Join(username, clientID)
	if err != nil {
		s.notifier.SendToClient(clientID, EventMatchmakingError, ErrorPayload{Error: errors.UnwrapAll(err).Error()})
		return err
	}
	s.metrics.QueueSize.Set(float64(s.mm.Len()))

	if res.Waiting {
		s.notifier.SendToClient(clientID, EventMatchmakingWaiting, MessagePayload{Message: res.Message})
		return nil
	}

	s.startMatch(res.Match)
	return nil
}

// onBotMatch runs on the fallback timer goroutine
func (s *Service) onBotMatch(m *matchmaking.Match) {
	s.metrics.QueueSize.Set(float64(s.mm.Len()))
	s.startMatch(m)
}

func (s *Service) startMatch(m *matchmaking.Match) {
	game := m.Game
	s.notifier.JoinGame(m.Player1.Channel, game.ID)
	s.notifier.SendToClient(m.Player1.Channel, EventMatchFound, MatchFoundPayload{
		GameID:       game.ID,
		Opponent:     m.Player2.Username,
		PlayerNumber: 1,
		IsBot:        m.IsBot,
		Game:         game,
	})
	if !m.IsBot {
		s.notifier.JoinGame(m.Player2.Channel, game.ID)
		s.notifier.SendToClient(m.Player2.Channel, EventMatchFound, MatchFoundPayload{
			GameID:       game.ID,
			Opponent:     m.Player1.Username,
			PlayerNumber: 2,
			IsBot:        false,
			Game:         game,
		})
	}

	s.metrics.GamesStarted.WithLabelValues(metrics.GameMode(m.IsBot)).Inc()
	s.metrics.ActiveGames.Inc()
	s.logger.Info("game started",
		zap.String("game_id", game.ID),
		zap.String("player1", m.Player1.Username),
		zap.String("player2", m.Player2.Username),
		zap.Bool("is_bot", m.IsBot))

	s.logEvent(&models.AnalyticsEvent{
		Type:     models.EventGameStarted,
		GameID:   game.ID,
		Username: m.Player1.Username,
		Data: map[string]any{
			"player1": m.Player1.Username,
			"player2": m.Player2.Username,
			"isBot":   m.IsBot,
		},
		CreatedAt: s.clock.Now(),
	})
}

// LeaveQueue removes username from the matchmaking queue
func (s *Service) LeaveQueue(ctx context.Context, clientID, username string) error {
	if err := s.mm.Leave(username); err != nil {
		s.notifier.SendToClient(clientID, EventMatchmakingError, ErrorPayload{Error: err.Error()})
		return err
	}
	s.metrics.QueueSize.Set(float64(s.mm.Len()))
	s.notifier.SendToClient(clientID, EventLeftQueue, MessagePayload{Message: "Left queue"})
	return nil
}

// MakeMove applies a human move and broadcasts it to the game
func (s *Service) MakeMove(ctx context.Context, clientID, gameID, username string, column int) (*MoveMade, error) {
	res, err := s.store.ApplyMove(gameID, username, column)
	if err != nil {
		s.notifier.SendToClient(clientID, EventMoveError, ErrorPayload{Error: errors.UnwrapAll(err).Error()})
		return nil, err
	}

	made := s.publishMove(res, metrics.ActorUser)

	if res.BotTurn {
		s.requestBotMove(gameID)
	}
	return made, nil
}

func (s *Service) requestBotMove(gameID string) {
	err := s.store.RequestBotMove(gameID, func(res *session.MoveResult, err error) {
		if err != nil {
			// the game ended or was evicted while the bot was thinking
			s.logger.Debug("bot move dropped", zap.String("game_id", gameID), zap.Error(err))
			return
		}
		s.publishMove(res, metrics.ActorBot)
	})
	if err != nil {
		s.logger.Warn("failed to schedule bot move", zap.String("game_id", gameID), zap.Error(err))
	}
}

// publishMove broadcasts a move, records it and finishes the game when it ended
func (s *Service) publishMove(res *session.MoveResult, actor string) *MoveMade {
	made := newMoveMade(res)
	s.notifier.BroadcastToGame(res.GameID, EventMoveMade, made)

	if res.Move.Username != "" {
		s.metrics.MovesTotal.WithLabelValues(actor).Inc()
		s.logEvent(&models.AnalyticsEvent{
			Type:     models.EventMoveMade,
			GameID:   res.GameID,
			Username: res.Move.Username,
			Data: map[string]any{
				"column":       res.Move.Column,
				"row":          res.Move.Row,
				"playerNumber": res.Move.PlayerNumber,
			},
			CreatedAt: res.Move.Timestamp,
		})
	}

	if res.Completed != nil {
		s.finish(res.Completed)
	}
	return made
}

// QuitGame forfeits username's game
func (s *Service) QuitGame(ctx context.Context, clientID, gameID, username string) error {
	f, err := s.store.Forfeit(gameID, username)
	if err != nil {
		s.notifier.SendToClient(clientID, EventError, MessagePayload{Message: errors.UnwrapAll(err).Error()})
		return err
	}

	s.logger.Info("player quit", zap.String("game_id", gameID), zap.String("username", username))
	s.publishForfeit(f)
	return nil
}

func (s *Service) publishForfeit(f *session.Forfeit) {
	s.notifier.BroadcastToGame(f.GameID, EventGameOver, GameOverPayload{
		Game:      f.Game,
		GameOver:  true,
		Winner:    f.Winner,
		WinReason: models.EndReasonForfeit,
	})
	s.finish(f.Completed)
}

// SendGameState sends the current snapshot of gameID to clientID
func (s *Service) SendGameState(ctx context.Context, clientID, gameID string) error {
	snap, err := s.store.Snapshot(gameID)
	if err != nil {
		s.notifier.SendToClient(clientID, EventError, MessagePayload{Message: "Game not found"})
		return err
	}
	s.notifier.SendToClient(clientID, EventGameState, GamePayload{Game: snap})
	return nil
}

// Disconnect runs when a client's connection closes. The player leaves the
// queue and its live game starts the reconnect window.
func (s *Service) Disconnect(ctx context.Context, clientID string) {
	s.mm.LeaveChannel(clientID)
	s.metrics.QueueSize.Set(float64(s.mm.Len()))

	username, current := s.unbind(clientID)
	if !current {
		return
	}

	d, err := s.store.Disconnect(username)
	if err != nil {
		return
	}

	s.logger.Info("player disconnected", zap.String("game_id", d.GameID), zap.String("username", username))
	s.notifier.BroadcastToGameExcept(d.GameID, clientID, EventOpponentDisconnected, PresencePayload{
		Username: username,
		Message:  fmt.Sprintf("Opponent disconnected. %ds to reconnect.", int(s.abandonTimeout.Seconds())),
	})
}

// finish records a game that just ended
func (s *Service) finish(completed *models.CompletedGame) {
	s.metrics.GamesFinished.WithLabelValues(string(completed.WinReason)).Inc()
	s.metrics.GameDuration.Observe(completed.Duration.Seconds())
	s.metrics.ActiveGames.Dec()

	s.logger.Info("game ended",
		zap.String("game_id", completed.GameID),
		zap.String("winner", completed.Winner),
		zap.String("reason", string(completed.WinReason)),
		zap.Int("moves", completed.MoveCount))

	s.submit("save game", func(ctx context.Context) error {
		if err := s.recorder.SaveGame(ctx, completed); err != nil {
			return err
		}
		return s.recorder.LogEvent(ctx, &models.AnalyticsEvent{
			Type:   models.EventGameEnded,
			GameID: completed.GameID,
			Data: map[string]any{
				"winner":   completed.Winner,
				"reason":   string(completed.WinReason),
				"moves":    completed.MoveCount,
				"duration": completed.Duration.Seconds(),
			},
			CreatedAt: completed.EndTime,
		})
	})
}

func (s *Service) logEvent(event *models.AnalyticsEvent) {
	s.submit("log event", func(ctx context.Context) error {
		return s.recorder.LogEvent(ctx, event)
	})
}

// submit runs task on the persistence pool. Failures are logged and counted,
// never returned.
func (s *Service) submit(name string, task func(ctx context.Context) error) {
	if s.recorder == nil || s.pool == nil {
		return
	}

	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		if err := task(ctx); err != nil {
			s.metrics.PersistFailures.Inc()
			s.logger.Error("persistence failed", zap.String("task", name), zap.Error(err))
		}
	})
	if err != nil {
		s.metrics.PersistFailures.Inc()
		s.logger.Warn("persistence task dropped", zap.String("task", name), zap.Error(err))
	}
}

func (s *Service) lookupStats(ctx context.Context, username string) *models.PlayerStats {
	if s.recorder == nil {
		return nil
	}
	stats, err := s.recorder.GetPlayer(ctx, username)
	if err != nil {
		s.logger.Debug("no stats for player", zap.String("username", username), zap.Error(err))
		return nil
	}
	return stats
}

// bind maps clientID to username, replacing an older connection of the same player
func (s *Service) bind(clientID, username string) {
	if clientID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.clients[clientID]; ok && prev != username && s.players[prev] == clientID {
		delete(s.players, prev)
	}
	s.clients[clientID] = username
	s.players[username] = clientID
}

// unbind forgets clientID. current reports whether it was still the player's
// newest connection.
func (s *Service) unbind(clientID string) (username string, current bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.clients[clientID]
	if !ok {
		return "", false
	}
	delete(s.clients, clientID)
	if s.players[username] != clientID {
		return username, false
	}
	delete(s.players, username)
	return username, true
}

// ClientFor returns the connection currently bound to username
func (s *Service) ClientFor(username string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.players[username]
	return id, ok
}

// GetGame returns a live game snapshot
func (s *Service) GetGame(ctx context.Context, gameID string) (*models.GameSnapshot, error) {
	return s.store.Snapshot(gameID)
}

// GetHistory returns the moves of a game held in memory, oldest first
func (s *Service) GetHistory(ctx context.Context, gameID string) ([]models.Move, error) {
	return s.store.History(gameID)
}

// ListGames returns every game held in memory
func (s *Service) ListGames(ctx context.Context) ([]*models.GameSnapshot, error) {
	return s.store.List(), nil
}

// QueueStatus returns the queued players
func (s *Service) QueueStatus(ctx context.Context) matchmaking.QueueStatus {
	return s.mm.Status()
}

// Health reports liveness figures
func (s *Service) Health(ctx context.Context) *HealthInfo {
	counts := s.store.Counts()

	s.mu.RLock()
	connected := len(s.players)
	s.mu.RUnlock()

	return &HealthInfo{
		Status:           "ok",
		LiveGames:        counts[models.StatusWaiting] + counts[models.StatusActive],
		ActiveGames:      counts[models.StatusActive],
		QueueLength:      s.mm.Len(),
		ConnectedPlayers: connected,
		Uptime:           s.clock.Since(s.startedAt).Truncate(time.Second).String(),
		StatsEnabled:     s.recorder != nil,
	}
}

// GetStats returns aggregate game stats
func (s *Service) GetStats(ctx context.Context) (*models.GameStats, error) {
	if s.recorder == nil {
		return nil, ErrStatsUnavailable
	}
	return s.recorder.GetGameStats(ctx)
}

// GetLeaderboard returns the top players
func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if s.recorder == nil {
		return nil, ErrStatsUnavailable
	}
	return s.recorder.GetLeaderboard(ctx, limit)
}

// GetPlayer returns a player's stats and ten most recent games
func (s *Service) GetPlayer(ctx context.Context, username string) (*PlayerProfile, error) {
	if s.recorder == nil {
		return nil, ErrStatsUnavailable
	}

	stats, err := s.recorder.GetPlayer(ctx, username)
	if err != nil {
		return nil, err
	}
	games, err := s.recorder.GetPlayerGames(ctx, username, 10)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load games of %s", username)
	}

	return &PlayerProfile{Stats: stats, RecentGames: games}, nil
}

// GetAnalytics returns recent analytics events
func (s *Service) GetAnalytics(ctx context.Context, eventType string, limit int) ([]*models.AnalyticsEvent, error) {
	if s.recorder == nil {
		return nil, ErrStatsUnavailable
	}
	return s.recorder.GetEvents(ctx, eventType, limit)
}
