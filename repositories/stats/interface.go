package stats

import (
	"context"

	"github.com/wricardo/connect-four-arena/game/models"
)

// Repository defines the interface for game and player stats persistence
type Repository interface {
	// SaveGame stores a finished game and updates every human player's counters
	SaveGame(ctx context.Context, game *models.CompletedGame) error

	// LogEvent appends an analytics event
	LogEvent(ctx context.Context, event *models.AnalyticsEvent) error

	// GetPlayer returns a player's counters and leaderboard rank
	GetPlayer(ctx context.Context, username string) (*models.PlayerStats, error)

	// GetLeaderboard returns the top players by wins, then win rate
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)

	// GetPlayerGames returns a player's most recent games, newest first
	GetPlayerGames(ctx context.Context, username string, limit int) ([]*models.CompletedGame, error)

	// GetEvents returns recent events, newest first. An empty type means all.
	GetEvents(ctx context.Context, eventType string, limit int) ([]*models.AnalyticsEvent, error)

	// GetGameStats aggregates over every recorded game
	GetGameStats(ctx context.Context) (*models.GameStats, error)
}
