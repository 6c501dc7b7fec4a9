package engine

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Board is a 6x7 connect-four grid. Discs fall to the lowest empty row of a
// column, so every column is a contiguous run of discs anchored at the bottom.
type Board struct {
	cells [Rows][Cols]Cell
}

// NewBoard returns an empty board
func NewBoard() *Board {
	return &Board{}
}

// Cell returns the occupancy at (row, col). Out-of-range positions read as Empty.
func (b *Board) Cell(row, col int) Cell {
	if !inBounds(row, col) {
		return Empty
	}
	return b.cells[row][col]
}

// IsValidMove reports whether a disc can be dropped into col
func (b *Board) IsValidMove(col int) bool {
	return col >= 0 && col < Cols && b.cells[0][col] == Empty
}

// DropDisc places player's disc in the lowest empty row of col and returns that row
func (b *Board) DropDisc(col int, player Cell) (int, error) {
	if !player.IsPlayer() {
		return -1, ErrInvalidPlayer
	}
	if !b.IsValidMove(col) {
		return -1, errors.Wrapf(ErrInvalidColumn, "column %d", col)
	}

	for row := Rows - 1; row >= 0; row-- {
		if b.cells[row][col] == Empty {
			b.cells[row][col] = player
			return row, nil
		}
	}

	// unreachable: IsValidMove guarantees an empty top cell
	return -1, errors.Wrapf(ErrInvalidColumn, "column %d", col)
}

// Undo removes the topmost disc of col and returns the row it occupied.
// It returns -1 when the column is empty.
func (b *Board) Undo(col int) int {
	if col < 0 || col >= Cols {
		return -1
	}
	for row := 0; row < Rows; row++ {
		if b.cells[row][col] != Empty {
			b.cells[row][col] = Empty
			return row
		}
	}
	return -1
}

// ValidMoves returns the droppable columns in ascending order
func (b *Board) ValidMoves() []int {
	moves := make([]int, 0, Cols)
	for col := 0; col < Cols; col++ {
		if b.IsValidMove(col) {
			moves = append(moves, col)
		}
	}
	return moves
}

// IsFull reports whether the top row has no empty cell
func (b *Board) IsFull() bool {
	for col := 0; col < Cols; col++ {
		if b.cells[0][col] == Empty {
			return false
		}
	}
	return true
}

// DiscCount returns the number of occupied cells
func (b *Board) DiscCount() int {
	n := 0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if b.cells[row][col] != Empty {
				n++
			}
		}
	}
	return n
}

// Clone returns an independent deep copy
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Grid returns a copy of the cells as player numbers (0 empty, 1, 2), row 0 first
func (b *Board) Grid() [][]int {
	grid := make([][]int, Rows)
	for row := 0; row < Rows; row++ {
		grid[row] = make([]int, Cols)
		for col := 0; col < Cols; col++ {
			grid[row][col] = b.cells[row][col].Number()
		}
	}
	return grid
}

// String renders the board top row first, '.' for empty, 'X' for player one
// and 'O' for player two.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			sb.WriteByte(cellChar(b.cells[row][col]))
		}
		if row < Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ParseBoard parses the String form. Blank lines and surrounding whitespace are
// ignored. The result must respect gravity.
func ParseBoard(s string) (*Board, error) {
	lines := make([]string, 0, Rows)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != Rows {
		return nil, errors.Wrapf(ErrInvalidBoard, "expected %d rows, got %d", Rows, len(lines))
	}

	b := NewBoard()
	for row, line := range lines {
		if len(line) != Cols {
			return nil, errors.Wrapf(ErrInvalidBoard, "row %d has %d columns", row, len(line))
		}
		for col := 0; col < Cols; col++ {
			switch line[col] {
			case '.':
				b.cells[row][col] = Empty
			case 'X', 'x', '1':
				b.cells[row][col] = PlayerOne
			case 'O', 'o', '2':
				b.cells[row][col] = PlayerTwo
			default:
				return nil, errors.Wrapf(ErrInvalidBoard, "unexpected %q at row %d col %d", line[col], row, col)
			}
		}
	}

	// floating discs are not reachable by play
	for col := 0; col < Cols; col++ {
		for row := 1; row < Rows; row++ {
			if b.cells[row-1][col] != Empty && b.cells[row][col] == Empty {
				return nil, errors.Wrapf(ErrInvalidBoard, "floating disc in column %d", col)
			}
		}
	}

	return b, nil
}

func cellChar(c Cell) byte {
	switch c {
	case PlayerOne:
		return 'X'
	case PlayerTwo:
		return 'O'
	default:
		return '.'
	}
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}
