package models

import "time"

// Status is the lifecycle state of a game
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// EndReason records why a finished game ended
type EndReason string

const (
	EndReasonWin     EndReason = "win"
	EndReasonDraw    EndReason = "draw"
	EndReasonForfeit EndReason = "forfeit"
)

// BotUsername is the identity occupying the bot's slot
const BotUsername = "Bot"

// Move is one applied move. Moves are append-only.
type Move struct {
	Username     string    `json:"username"`
	PlayerNumber int       `json:"playerNumber"`
	Column       int       `json:"column"`
	Row          int       `json:"row"`
	Timestamp    time.Time `json:"timestamp"`
}

// PlayerView is the client-safe view of a player slot
type PlayerView struct {
	Username     string `json:"username"`
	PlayerNumber int    `json:"playerNumber"`
	Connected    bool   `json:"connected"`
	IsBot        bool   `json:"isBot,omitempty"`
}

// GameSnapshot is the read-only projection of a game sent to clients
type GameSnapshot struct {
	ID          string      `json:"id"`
	Board       [][]int     `json:"board"`
	CurrentTurn int         `json:"currentTurn"`
	Status      Status      `json:"status"`
	Player1     *PlayerView `json:"player1,omitempty"`
	Player2     *PlayerView `json:"player2,omitempty"`
	IsBot       bool        `json:"isBot"`
	Winner      string      `json:"winner,omitempty"`
	WinReason   EndReason   `json:"winReason,omitempty"`
	ValidMoves  []int       `json:"validMoves"`
	MoveCount   int         `json:"moveCount"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	EndedAt     *time.Time  `json:"endedAt,omitempty"`
}

// CompletedGame summarizes a finished game for persistence
type CompletedGame struct {
	GameID      string        `json:"gameId"`
	Player1     string        `json:"player1"`
	Player2     string        `json:"player2"`
	Winner      string        `json:"winner,omitempty"`
	WinReason   EndReason     `json:"winReason"`
	IsBot       bool          `json:"isBot"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	Duration    time.Duration `json:"duration"`
	MoveCount   int           `json:"moveCount"`
	MoveHistory []Move        `json:"moveHistory"`
}

// Outcome returns the result for username: "win", "loss" or "draw".
// Empty when username did not play.
func (g *CompletedGame) Outcome(username string) string {
	if username != g.Player1 && username != g.Player2 {
		return ""
	}
	switch {
	case g.Winner == "":
		return "draw"
	case g.Winner == username:
		return "win"
	default:
		return "loss"
	}
}

// Humans returns the non-bot participants
func (g *CompletedGame) Humans() []string {
	out := make([]string, 0, 2)
	for _, p := range []string{g.Player1, g.Player2} {
		if p != "" && p != BotUsername {
			out = append(out, p)
		}
	}
	return out
}
