package bot

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/engine"
)

const (
	// DefaultDepth is the minimax search depth in plies, counting the bot's own move.
	DefaultDepth = 4

	DefaultThinkMin = 100 * time.Millisecond
	DefaultThinkMax = 500 * time.Millisecond
)

// Config holds the bot's settings. Zero values fall back to defaults.
type Config struct {
	// Player is the disc the bot plays. Defaults to engine.PlayerTwo.
	Player engine.Cell
	Depth  int

	ThinkMin time.Duration
	ThinkMax time.Duration

	Clock  clockwork.Clock
	Logger *zap.Logger
}

// Bot picks columns with an immediate win/block shortcut followed by a
// depth-bounded minimax search with alpha-beta pruning.
type Bot struct {
	player   engine.Cell
	opponent engine.Cell
	depth    int
	thinkMin time.Duration
	thinkMax time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
}

// New creates a bot from cfg. A nil cfg yields a player-two bot with defaults.
func New(cfg *Config) *Bot {
	if cfg == nil {
		cfg = &Config{}
	}

	b := &Bot{
		player:   cfg.Player,
		depth:    cfg.Depth,
		thinkMin: cfg.ThinkMin,
		thinkMax: cfg.ThinkMax,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if !b.player.IsPlayer() {
		b.player = engine.PlayerTwo
	}
	b.opponent = b.player.Opponent()
	if b.depth <= 0 {
		b.depth = DefaultDepth
	}
	if b.thinkMin <= 0 && b.thinkMax <= 0 {
		b.thinkMin, b.thinkMax = DefaultThinkMin, DefaultThinkMax
	}
	if b.thinkMax < b.thinkMin {
		b.thinkMax = b.thinkMin
	}
	if b.clock == nil {
		b.clock = clockwork.NewRealClock()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}

	return b
}

// Player returns the disc the bot plays
func (b *Bot) Player() engine.Cell {
	return b.player
}

// GetBestMove returns the column the bot would play on board. ok is false when
// the board has no valid moves. The board is never modified.
func (b *Bot) GetBestMove(board *engine.Board) (col int, ok bool) {
	moves := board.ValidMoves()
	if len(moves) == 0 {
		return -1, false
	}

	for _, c := range moves {
		if engine.IsWinningMove(board, c, b.player) {
			return c, true
		}
	}

	for _, c := range moves {
		if engine.IsWinningMove(board, c, b.opponent) {
			return c, true
		}
	}

	scratch := board.Clone()
	col, score := b.search(scratch, moves)

	b.logger.Debug("bot search finished",
		zap.Int("column", col),
		zap.Int("score", score),
		zap.Int("depth", b.depth))

	return col, true
}

// search runs the maximizing root of minimax and returns the chosen column.
// Ties keep the earliest column.
func (b *Bot) search(board *engine.Board, moves []int) (int, int) {
	alpha, beta := math.MinInt, math.MaxInt
	bestCol, bestScore := moves[0], math.MinInt

	for _, col := range moves {
		if _, err := board.DropDisc(col, b.player); err != nil {
			continue
		}
		score := b.minimax(board, b.depth-1, alpha, beta, false)
		board.Undo(col)

		if score > bestScore {
			bestScore = score
			bestCol = col
		}
		alpha = max(alpha, score)
		if beta <= alpha {
			break
		}
	}

	return bestCol, bestScore
}

// minimax mutates board in place and undoes every drop before returning
func (b *Bot) minimax(board *engine.Board, depth, alpha, beta int, maximizing bool) int {
	moves := board.ValidMoves()
	if depth == 0 || len(moves) == 0 {
		return engine.EvaluatePosition(board, b.player)
	}

	if maximizing {
		best := math.MinInt
		for _, col := range moves {
			if _, err := board.DropDisc(col, b.player); err != nil {
				continue
			}
			score := b.minimax(board, depth-1, alpha, beta, false)
			board.Undo(col)

			best = max(best, score)
			alpha = max(alpha, score)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := math.MaxInt
	for _, col := range moves {
		if _, err := board.DropDisc(col, b.opponent); err != nil {
			continue
		}
		score := b.minimax(board, depth-1, alpha, beta, true)
		board.Undo(col)

		best = min(best, score)
		beta = min(beta, score)
		if beta <= alpha {
			break
		}
	}
	return best
}

// ThinkTime returns a random delay in [ThinkMin, ThinkMax]
func (b *Bot) ThinkTime() time.Duration {
	spread := b.thinkMax - b.thinkMin
	if spread <= 0 {
		return b.thinkMin
	}
	return b.thinkMin + time.Duration(rand.Int64N(int64(spread)+1))
}

// MakeMove schedules GetBestMove on a snapshot of board after the think time and
// delivers the result to fn on the timer's goroutine. It returns immediately;
// the returned timer can be stopped to abandon the move.
func (b *Bot) MakeMove(board *engine.Board, fn func(col int, ok bool)) clockwork.Timer {
	snapshot := board.Clone()
	return b.clock.AfterFunc(b.ThinkTime(), func() {
		fn(b.GetBestMove(snapshot))
	})
}
