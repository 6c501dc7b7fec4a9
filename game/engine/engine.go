package engine

// direction is a line step (row delta, col delta)
type direction struct {
	dr, dc int
}

// lineDirections covers horizontal, vertical, diagonal down-right and diagonal up-right.
// Each is scanned in both signs.
var lineDirections = [4]direction{
	{0, 1},
	{1, 0},
	{1, 1},
	{-1, 1},
}

// CheckWinner returns the player owning the disc at (row, col) when it is part of
// a run of at least ConnectLength in any direction, else Empty. It only inspects
// lines through the given cell, so it is meant to be called with the landing cell
// of the last move.
func CheckWinner(b *Board, row, col int) Cell {
	player := b.Cell(row, col)
	if player == Empty {
		return Empty
	}

	for _, d := range lineDirections {
		count := 1
		count += countRun(b, row, col, d.dr, d.dc, player)
		count += countRun(b, row, col, -d.dr, -d.dc, player)
		if count >= ConnectLength {
			return player
		}
	}

	return Empty
}

// countRun counts consecutive player cells starting next to (row, col) along (dr, dc)
func countRun(b *Board, row, col, dr, dc int, player Cell) int {
	n := 0
	r, c := row+dr, col+dc
	for inBounds(r, c) && b.cells[r][c] == player {
		n++
		r += dr
		c += dc
	}
	return n
}

// HasWinner scans the whole board for any completed line
func HasWinner(b *Board) Cell {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if w := CheckWinner(b, row, col); w != Empty {
				return w
			}
		}
	}
	return Empty
}

// IsDraw reports whether the board is full without a completed line
func IsDraw(b *Board) bool {
	return b.IsFull() && HasWinner(b) == Empty
}

// IsWinningMove reports whether dropping player's disc into col wins immediately.
// The check runs on a clone; b is not modified.
func IsWinningMove(b *Board, col int, player Cell) bool {
	if !b.IsValidMove(col) {
		return false
	}
	probe := b.Clone()
	row, err := probe.DropDisc(col, player)
	if err != nil {
		return false
	}
	return CheckWinner(probe, row, col) == player
}

const (
	scoreFour          = 100
	scoreThree         = 5
	scoreTwo           = 2
	scoreOpponentThree = -4
)

// EvaluatePosition scores the board for player by sliding a window of
// ConnectLength cells over every horizontal, vertical and diagonal line.
func EvaluatePosition(b *Board, player Cell) int {
	opponent := player.Opponent()
	score := 0
	var window [ConnectLength]Cell

	for _, d := range lineDirections {
		for row := 0; row < Rows; row++ {
			for col := 0; col < Cols; col++ {
				endRow := row + d.dr*(ConnectLength-1)
				endCol := col + d.dc*(ConnectLength-1)
				if !inBounds(endRow, endCol) {
					continue
				}
				for i := 0; i < ConnectLength; i++ {
					window[i] = b.cells[row+d.dr*i][col+d.dc*i]
				}
				score += evaluateWindow(window, player, opponent)
			}
		}
	}

	return score
}

func evaluateWindow(window [ConnectLength]Cell, player, opponent Cell) int {
	own, opp, empty := 0, 0, 0
	for _, c := range window {
		switch c {
		case player:
			own++
		case opponent:
			opp++
		default:
			empty++
		}
	}

	score := 0
	switch {
	case own == 4:
		score += scoreFour
	case own == 3 && empty == 1:
		score += scoreThree
	case own == 2 && empty == 2:
		score += scoreTwo
	}
	if opp == 3 && empty == 1 {
		score += scoreOpponentThree
	}
	return score
}
