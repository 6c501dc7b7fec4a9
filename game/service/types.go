package service

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/models"
	"github.com/wricardo/connect-four-arena/game/session"
	"github.com/wricardo/connect-four-arena/metrics"
)

// Defaults for the background sweeps and persistence
const (
	DefaultSweepInterval  = 5 * time.Second
	DefaultAbandonTimeout = 30 * time.Second
	DefaultRetention      = 300 * time.Second
	DefaultPoolSize       = 16
	DefaultPersistTimeout = 5 * time.Second
)

// Config holds service dependencies. Store and Notifier are required.
type Config struct {
	Store    *session.Store
	Notifier Notifier

	// Recorder is optional; without it nothing is persisted and stats
	// queries return ErrStatsUnavailable
	Recorder Recorder

	Metrics *metrics.Metrics
	Clock   clockwork.Clock
	Logger  *zap.Logger

	FallbackDelay  time.Duration
	SweepInterval  time.Duration
	AbandonTimeout time.Duration
	Retention      time.Duration
	PoolSize       int
	PersistTimeout time.Duration
}

// Request payloads decoded by the transport
type (
	UsernameRequest struct {
		Username string `json:"username"`
	}

	MoveRequest struct {
		GameID   string `json:"gameId"`
		Username string `json:"username"`
		Column   *int   `json:"column,omitempty"`
		// Col is the legacy name of Column
		Col *int `json:"col,omitempty"`
	}

	GameRequest struct {
		GameID   string `json:"gameId"`
		Username string `json:"username,omitempty"`
	}
)

// ColumnValue returns the requested column, preferring column over col.
// Missing columns map to -1 so they fail validation.
func (r *MoveRequest) ColumnValue() int {
	switch {
	case r.Column != nil:
		return *r.Column
	case r.Col != nil:
		return *r.Col
	default:
		return -1
	}
}

// Outbound payloads
type (
	JoinedPayload struct {
		Username string              `json:"username"`
		Stats    *models.PlayerStats `json:"stats,omitempty"`
	}

	MessagePayload struct {
		Message string `json:"message"`
	}

	ErrorPayload struct {
		Error string `json:"error"`
	}

	MatchFoundPayload struct {
		GameID       string               `json:"gameId"`
		Opponent     string               `json:"opponent"`
		PlayerNumber int                  `json:"playerNumber"`
		IsBot        bool                 `json:"isBot"`
		Game         *models.GameSnapshot `json:"game"`
	}

	GameOverPayload struct {
		Game      *models.GameSnapshot `json:"game"`
		GameOver  bool                 `json:"gameOver"`
		Winner    string               `json:"winner,omitempty"`
		WinReason models.EndReason     `json:"winReason"`
	}

	PresencePayload struct {
		Username string `json:"username"`
		Message  string `json:"message,omitempty"`
	}

	GamePayload struct {
		Game *models.GameSnapshot `json:"game"`
	}
)

// MoveMade is broadcast after every applied move and returned to REST callers
type MoveMade struct {
	GameID    string           `json:"gameId"`
	Player    string           `json:"player"`
	Move      models.Move      `json:"move"`
	Board     [][]int          `json:"board"`
	NextTurn  int              `json:"nextTurn"`
	GameOver  bool             `json:"gameOver"`
	Winner    string           `json:"winner,omitempty"`
	WinReason models.EndReason `json:"winReason,omitempty"`
}

func newMoveMade(res *session.MoveResult) *MoveMade {
	return &MoveMade{
		GameID:    res.GameID,
		Player:    res.Move.Username,
		Move:      res.Move,
		Board:     res.Board,
		NextTurn:  res.NextTurn,
		GameOver:  res.GameOver,
		Winner:    res.Winner,
		WinReason: res.Reason,
	}
}

// HealthInfo is the /health response
type HealthInfo struct {
	Status           string `json:"status"`
	LiveGames        int    `json:"liveGames"`
	ActiveGames      int    `json:"activeGames"`
	QueueLength      int    `json:"queueLength"`
	ConnectedPlayers int    `json:"connectedPlayers"`
	Uptime           string `json:"uptime"`
	StatsEnabled     bool   `json:"statsEnabled"`
}

// PlayerProfile is a player's stats with recent games
type PlayerProfile struct {
	Stats       *models.PlayerStats     `json:"stats"`
	RecentGames []*models.CompletedGame `json:"recentGames"`
}
