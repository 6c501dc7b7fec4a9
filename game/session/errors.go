package session

import "github.com/wricardo/connect-four-arena/game/engine"

// GameError is a custom error type for session rule violations
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

const (
	ErrGameNotFound    GameError = "Game not found"
	ErrGameNotActive   GameError = "Game is not active"
	ErrPlayerNotInGame GameError = "Player not in this game"
	ErrNotYourTurn     GameError = "Not your turn"
	ErrNotBotGame      GameError = "game is not bot-controlled"
	ErrAlreadyInGame   GameError = "player already in an active game"
	ErrInvalidPlayer   GameError = "invalid player"
	ErrGameFull        GameError = "game is full"
)

// ErrInvalidColumn is returned for out-of-range or full columns
var ErrInvalidColumn = engine.ErrInvalidColumn
