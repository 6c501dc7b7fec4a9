package engine

import "github.com/cockroachdb/errors"

const (
	// Rows is the board height. Row 0 is the top row.
	Rows = 6
	// Cols is the board width.
	Cols = 7
	// ConnectLength is the run length that wins a game.
	ConnectLength = 4
)

// Cell represents the occupancy of a single board position
type Cell uint8

const (
	Empty Cell = iota
	PlayerOne
	PlayerTwo
)

// IsPlayer reports whether the cell holds a disc
func (c Cell) IsPlayer() bool {
	return c == PlayerOne || c == PlayerTwo
}

// Opponent returns the other player. Empty has no opponent and returns Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		return Empty
	}
}

// Number returns the player number (1 or 2), or 0 for Empty
func (c Cell) Number() int {
	return int(c)
}

func (c Cell) String() string {
	switch c {
	case PlayerOne:
		return "player1"
	case PlayerTwo:
		return "player2"
	default:
		return "empty"
	}
}

// PlayerFromNumber converts a 1-based player number to its Cell
func PlayerFromNumber(n int) (Cell, error) {
	switch n {
	case 1:
		return PlayerOne, nil
	case 2:
		return PlayerTwo, nil
	default:
		return Empty, errors.Wrapf(ErrInvalidPlayer, "%d", n)
	}
}

// GameError is a custom error type for board and rule violations
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

const (
	ErrInvalidColumn GameError = "Invalid move"
	ErrInvalidPlayer GameError = "invalid player"
	ErrInvalidBoard  GameError = "invalid board"
)
