package models

import "time"

// PlayerStats are cumulative per-player counters
type PlayerStats struct {
	Username    string    `json:"username"`
	GamesPlayed int64     `json:"gamesPlayed"`
	GamesWon    int64     `json:"gamesWon"`
	GamesLost   int64     `json:"gamesLost"`
	GamesDrawn  int64     `json:"gamesDrawn"`
	WinRate     float64   `json:"winRate"`
	Rank        int64     `json:"rank,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LeaderboardEntry is one leaderboard row
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	Username    string  `json:"username"`
	GamesPlayed int64   `json:"gamesPlayed"`
	GamesWon    int64   `json:"gamesWon"`
	WinRate     float64 `json:"winRate"`
}

// GameStats aggregates over every recorded game
type GameStats struct {
	TotalGames      int64         `json:"totalGames"`
	BotGames        int64         `json:"botGames"`
	PvPGames        int64         `json:"pvpGames"`
	RecentGames     int64         `json:"recentGames"`
	TotalPlayers    int64         `json:"totalPlayers"`
	AverageDuration time.Duration `json:"averageDuration"`
	AverageMoves    float64       `json:"averageMoves"`
}

// Analytics event types
const (
	EventGameStarted = "game_started"
	EventMoveMade    = "move_made"
	EventGameEnded   = "game_ended"
)

// AnalyticsEvent is a single analytics record
type AnalyticsEvent struct {
	Type      string         `json:"type"`
	GameID    string         `json:"gameId,omitempty"`
	Username  string         `json:"username,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
