// Command selfplay drives scripted players against a running server over the
// WebSocket channel. Each player joins, queues for matches and plays every
// game to the end with the bot's search, which makes it a quick smoke test
// for matchmaking, move broadcasting and the bot fallback.
//
// An odd player count leaves one player unpaired, so it is matched against
// the server bot after the fallback delay.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// Options controls a selfplay run
type Options struct {
	URL     string
	Players int
	Games   int
	Depth   int
	Prefix  string
	Timeout time.Duration
}

// Result is one player's tally
type Result struct {
	Username string
	Games    int
	Wins     int
	Losses   int
	Draws    int
	Moves    int
	Err      error
}

func main() {
	cmd := &cli.Command{
		Name:  "selfplay",
		Usage: "Play scripted games against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://localhost:8080/ws", Usage: "WebSocket endpoint"},
			&cli.IntFlag{Name: "players", Value: 2, Usage: "Concurrent players"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Games per player"},
			&cli.IntFlag{Name: "depth", Value: 2, Usage: "Search depth for player moves"},
			&cli.StringFlag{Name: "prefix", Value: "selfplay", Usage: "Username prefix"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "Per-event timeout"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := zap.NewProduction()
			if cmd.Bool("debug") {
				logger, err = zap.NewDevelopment()
			}
			if err != nil {
				return err
			}
			defer logger.Sync()

			results, err := Run(ctx, Options{
				URL:     cmd.String("url"),
				Players: cmd.Int("players"),
				Games:   cmd.Int("games"),
				Depth:   cmd.Int("depth"),
				Prefix:  cmd.String("prefix"),
				Timeout: cmd.Duration("timeout"),
			}, logger)
			if err != nil {
				return err
			}

			printSummary(results)
			if lo.SomeBy(results, func(r Result) bool { return r.Err != nil }) {
				return errors.New("some players failed")
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Run plays opts.Games games for each of opts.Players players concurrently
func Run(ctx context.Context, opts Options, logger *zap.Logger) ([]Result, error) {
	if opts.Players < 1 || opts.Games < 1 {
		return nil, errors.New("players and games must be positive")
	}

	pool, err := ants.NewPool(opts.Players)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create player pool")
	}
	defer pool.Release()

	results := make([]Result, opts.Players)
	var wg sync.WaitGroup
	for i := 0; i < opts.Players; i++ {
		i := i
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = play(ctx, opts, fmt.Sprintf("%s-%d", opts.Prefix, i+1), logger)
		})
		if err != nil {
			wg.Done()
			results[i] = Result{Username: fmt.Sprintf("%s-%d", opts.Prefix, i+1), Err: err}
		}
	}
	wg.Wait()

	return results, nil
}

func play(ctx context.Context, opts Options, username string, logger *zap.Logger) Result {
	result := Result{Username: username}

	p, err := Dial(ctx, opts.URL, username, opts.Depth, opts.Timeout, logger)
	if err != nil {
		result.Err = err
		return result
	}
	defer p.Close()

	if err := p.Join(); err != nil {
		result.Err = err
		return result
	}

	for g := 0; g < opts.Games; g++ {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}

		outcome, moves, err := p.PlayGame()
		if err != nil {
			result.Err = err
			return result
		}

		result.Games++
		result.Moves += moves
		switch outcome {
		case OutcomeWin:
			result.Wins++
		case OutcomeLoss:
			result.Losses++
		case OutcomeDraw:
			result.Draws++
		}
	}
	return result
}

func printSummary(results []Result) {
	fmt.Printf("%-16s %5s %5s %6s %5s %5s\n", "player", "games", "wins", "losses", "draws", "moves")
	for _, r := range results {
		fmt.Printf("%-16s %5d %5d %6d %5d %5d", r.Username, r.Games, r.Wins, r.Losses, r.Draws, r.Moves)
		if r.Err != nil {
			fmt.Printf("  error: %v", r.Err)
		}
		fmt.Println()
	}
}
