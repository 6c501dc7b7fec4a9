package service

import (
	"context"

	"github.com/wricardo/connect-four-arena/game/matchmaking"
	"github.com/wricardo/connect-four-arena/game/models"
)

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks github.com/wricardo/connect-four-arena/game/service Recorder

// GameService defines every game operation reachable from a transport
type GameService interface {
	// Message channel. Outcomes are delivered through the Notifier; the
	// returned error only tells the transport the event was rejected.
	Join(ctx context.Context, clientID, username string) error
	FindMatch(ctx context.Context, clientID, username string) error
	LeaveQueue(ctx context.Context, clientID, username string) error
	MakeMove(ctx context.Context, clientID, gameID, username string, column int) (*MoveMade, error)
	QuitGame(ctx context.Context, clientID, gameID, username string) error
	SendGameState(ctx context.Context, clientID, gameID string) error
	Disconnect(ctx context.Context, clientID string)

	// Queries
	GetGame(ctx context.Context, gameID string) (*models.GameSnapshot, error)
	GetHistory(ctx context.Context, gameID string) ([]models.Move, error)
	ListGames(ctx context.Context) ([]*models.GameSnapshot, error)
	QueueStatus(ctx context.Context) matchmaking.QueueStatus
	Health(ctx context.Context) *HealthInfo
	GetStats(ctx context.Context) (*models.GameStats, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetPlayer(ctx context.Context, username string) (*PlayerProfile, error)
	GetAnalytics(ctx context.Context, eventType string, limit int) ([]*models.AnalyticsEvent, error)
}

// Notifier delivers outbound events to connected clients. Unknown client or
// game ids are ignored.
type Notifier interface {
	SendToClient(clientID, event string, data interface{})
	BroadcastToGame(gameID, event string, data interface{})
	BroadcastToGameExcept(gameID, exceptClientID, event string, data interface{})
	JoinGame(clientID, gameID string)
	// CloseGame drops the game's room once the game is evicted
	CloseGame(gameID string)
}

// Recorder persists finished games and analytics and answers stats queries
type Recorder interface {
	SaveGame(ctx context.Context, game *models.CompletedGame) error
	LogEvent(ctx context.Context, event *models.AnalyticsEvent) error
	GetPlayer(ctx context.Context, username string) (*models.PlayerStats, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetPlayerGames(ctx context.Context, username string, limit int) ([]*models.CompletedGame, error)
	GetEvents(ctx context.Context, eventType string, limit int) ([]*models.AnalyticsEvent, error)
	GetGameStats(ctx context.Context) (*models.GameStats, error)
}
