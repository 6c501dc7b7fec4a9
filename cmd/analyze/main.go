// Command analyze prints a human-readable breakdown of a Connect Four
// position: whose turn it is, the winner if any, and for every column whether
// dropping there wins, blocks an opponent win, and how the resulting position
// scores. It finishes with the column the bot would choose.
//
// The board is read from a file argument or stdin, six rows of seven cells
// using X, O and '.' with the top row first.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/connect-four-arena/game/bot"
	"github.com/wricardo/connect-four-arena/game/engine"
)

// ColumnReport is the analysis of one column for the player to move
type ColumnReport struct {
	Column int
	Valid  bool
	Wins   bool
	Blocks bool
	Score  int
}

// Analysis describes a position from the point of view of the player to move
type Analysis struct {
	Board   *engine.Board
	ToMove  engine.Cell
	Discs   int
	Winner  engine.Cell
	Draw    bool
	Columns []ColumnReport

	BestMove    int
	HasBestMove bool
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a Connect Four position",
		ArgsUsage: "[board-file]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Bot search depth",
				Value: bot.DefaultDepth,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input := io.Reader(os.Stdin)
			if path := cmd.Args().First(); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return errors.Wrap(err, "failed to open board file")
				}
				defer f.Close()
				input = f
			}

			data, err := io.ReadAll(input)
			if err != nil {
				return errors.Wrap(err, "failed to read board")
			}

			board, err := engine.ParseBoard(string(data))
			if err != nil {
				return err
			}

			analysis, err := analyzeBoard(board, cmd.Int("depth"))
			if err != nil {
				return err
			}
			printAnalysis(cmd.Root().Writer, analysis)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// playerToMove infers the mover from disc counts; X always starts
func playerToMove(b *engine.Board) (engine.Cell, error) {
	var x, o int
	for row := 0; row < engine.Rows; row++ {
		for col := 0; col < engine.Cols; col++ {
			switch b.Cell(row, col) {
			case engine.PlayerOne:
				x++
			case engine.PlayerTwo:
				o++
			}
		}
	}

	switch x - o {
	case 0:
		return engine.PlayerOne, nil
	case 1:
		return engine.PlayerTwo, nil
	default:
		return engine.Empty, errors.Wrapf(engine.ErrInvalidBoard, "unreachable disc counts X=%d O=%d", x, o)
	}
}

func analyzeBoard(b *engine.Board, depth int) (*Analysis, error) {
	toMove, err := playerToMove(b)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Board:  b,
		ToMove: toMove,
		Discs:  b.DiscCount(),
		Winner: engine.HasWinner(b),
	}
	if a.Winner != engine.Empty {
		return a, nil
	}
	if engine.IsDraw(b) {
		a.Draw = true
		return a, nil
	}

	opponent := toMove.Opponent()
	for col := 0; col < engine.Cols; col++ {
		report := ColumnReport{Column: col, Valid: b.IsValidMove(col)}
		if report.Valid {
			report.Wins = engine.IsWinningMove(b, col, toMove)
			report.Blocks = engine.IsWinningMove(b, col, opponent)

			next := b.Clone()
			if _, err := next.DropDisc(col, toMove); err != nil {
				return nil, err
			}
			report.Score = engine.EvaluatePosition(next, toMove)
		}
		a.Columns = append(a.Columns, report)
	}

	// ThinkMin only affects scheduled moves, not GetBestMove
	searcher := bot.New(&bot.Config{Player: toMove, Depth: depth})
	a.BestMove, a.HasBestMove = searcher.GetBestMove(b)

	return a, nil
}

func discName(c engine.Cell) string {
	switch c {
	case engine.PlayerOne:
		return "X (player 1)"
	case engine.PlayerTwo:
		return "O (player 2)"
	default:
		return "nobody"
	}
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintln(w, "0123456")
	fmt.Fprintln(w, a.Board.String())
	fmt.Fprintf(w, "\nDiscs: %d\n", a.Discs)

	if a.Winner != engine.Empty {
		fmt.Fprintf(w, "Winner: %s\n", discName(a.Winner))
		return
	}
	if a.Draw {
		fmt.Fprintln(w, "Result: draw (board full)")
		return
	}

	fmt.Fprintf(w, "To move: %s\n\n", discName(a.ToMove))
	for _, c := range a.Columns {
		if !c.Valid {
			fmt.Fprintf(w, "  column %d: full\n", c.Column)
			continue
		}

		note := ""
		switch {
		case c.Wins:
			note = "  WINS"
		case c.Blocks:
			note = "  blocks opponent"
		}
		fmt.Fprintf(w, "  column %d: score %6d%s\n", c.Column, c.Score, note)
	}

	if a.HasBestMove {
		fmt.Fprintf(w, "\nBot choice: column %d\n", a.BestMove)
	}
}
