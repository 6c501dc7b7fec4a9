// Package engine provides the board and rules of connect four.
//
// The engine package implements:
//   - A 6x7 Board with gravity-based disc placement
//   - Incremental win detection anchored at the last placed disc
//   - Draw detection on a full board
//   - A window-based heuristic used by the bot's search
//
// Core Types:
//
// Board holds the grid and is owned by a single game session. Cell is the
// tagged occupancy of one position: Empty, PlayerOne or PlayerTwo. Row 0 is
// the top row and row 5 the bottom.
//
// Usage:
//
//	b := engine.NewBoard()
//	row, err := b.DropDisc(3, engine.PlayerOne)
//	if err != nil {
//		return err
//	}
//	if engine.CheckWinner(b, row, 3) == engine.PlayerOne {
//		// player one wins
//	}
//
// The functions in this package are stateless and operate on the Board they
// are given. Search code works on clones and never touches a live board.
package engine
