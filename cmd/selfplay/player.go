package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/bot"
	"github.com/wricardo/connect-four-arena/game/engine"
	"github.com/wricardo/connect-four-arena/game/service"
)

// ErrServer is returned when the server answers with an error event
var ErrServer = errors.New("server error")

// Outcome is the result of one game from the player's side
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Player is one scripted client on the WebSocket channel. It picks moves
// with the same search the server bot uses.
type Player struct {
	username string
	conn     *websocket.Conn
	depth    int
	timeout  time.Duration
	logger   *zap.Logger
}

// Dial connects a player to the game channel at url
func Dial(ctx context.Context, url, username string, depth int, timeout time.Duration, logger *zap.Logger) (*Player, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", url)
	}

	return &Player{
		username: username,
		conn:     conn,
		depth:    depth,
		timeout:  timeout,
		logger:   logger.With(zap.String("username", username)),
	}, nil
}

// Close closes the connection
func (p *Player) Close() error {
	return p.conn.Close()
}

func (p *Player) send(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
	return p.conn.WriteJSON(envelope{Event: event, Data: raw})
}

// next reads until one of the wanted events arrives. Error events fail the
// read; anything else is skipped.
func (p *Player) next(want ...string) (*envelope, error) {
	for {
		p.conn.SetReadDeadline(time.Now().Add(p.timeout))

		var env envelope
		if err := p.conn.ReadJSON(&env); err != nil {
			return nil, errors.Wrapf(err, "waiting for %s", strings.Join(want, "/"))
		}

		switch env.Event {
		case service.EventError, service.EventMatchmakingError, service.EventMoveError:
			var payload service.ErrorPayload
			json.Unmarshal(env.Data, &payload)
			return nil, errors.Wrapf(ErrServer, "%s: %s", env.Event, payload.Error)
		}

		if lo.Contains(want, env.Event) {
			return &env, nil
		}
		p.logger.Debug("skipping event", zap.String("event", env.Event))
	}
}

// Join registers the username on the connection
func (p *Player) Join() error {
	if err := p.send(service.EventJoin, service.UsernameRequest{Username: p.username}); err != nil {
		return err
	}
	_, err := p.next(service.EventJoined)
	return err
}

// PlayGame queues for a match and plays it to the end
func (p *Player) PlayGame() (Outcome, int, error) {
	if err := p.send(service.EventFindMatch, service.UsernameRequest{Username: p.username}); err != nil {
		return "", 0, err
	}

	env, err := p.next(service.EventMatchFound)
	if err != nil {
		return "", 0, err
	}
	var match service.MatchFoundPayload
	if err := json.Unmarshal(env.Data, &match); err != nil {
		return "", 0, errors.Wrap(err, "bad match-found payload")
	}

	me, err := engine.PlayerFromNumber(match.PlayerNumber)
	if err != nil {
		return "", 0, err
	}
	searcher := bot.New(&bot.Config{Player: me, Depth: p.depth, Logger: p.logger})

	p.logger.Info("match found",
		zap.String("game_id", match.GameID),
		zap.String("opponent", match.Opponent),
		zap.Int("player_number", match.PlayerNumber))

	grid := match.Game.Board
	turn := match.Game.CurrentTurn
	moves := 0

	for {
		if turn == match.PlayerNumber {
			board, err := boardFromGrid(grid)
			if err != nil {
				return "", moves, err
			}
			col, ok := searcher.GetBestMove(board)
			if !ok {
				return "", moves, errors.Newf("no valid moves in game %s", match.GameID)
			}

			req := service.MoveRequest{GameID: match.GameID, Username: p.username, Column: &col}
			if err := p.send(service.EventMakeMove, req); err != nil {
				return "", moves, err
			}
			// wait for the broadcast before deciding again
			turn = 0
		}

		env, err := p.next(service.EventMoveMade, service.EventGameOver)
		if err != nil {
			return "", moves, err
		}

		switch env.Event {
		case service.EventMoveMade:
			var mv service.MoveMade
			if err := json.Unmarshal(env.Data, &mv); err != nil {
				return "", moves, errors.Wrap(err, "bad move-made payload")
			}
			if mv.GameID != match.GameID {
				continue
			}
			if mv.Player == p.username {
				moves++
			}
			grid, turn = mv.Board, mv.NextTurn
			if mv.GameOver {
				return p.outcome(mv.Winner), moves, nil
			}

		case service.EventGameOver:
			var over service.GameOverPayload
			if err := json.Unmarshal(env.Data, &over); err != nil {
				return "", moves, errors.Wrap(err, "bad game-over payload")
			}
			return p.outcome(over.Winner), moves, nil
		}
	}
}

func (p *Player) outcome(winner string) Outcome {
	switch winner {
	case "":
		return OutcomeDraw
	case p.username:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

// boardFromGrid rebuilds a board from the wire grid, top row first
func boardFromGrid(grid [][]int) (*engine.Board, error) {
	var sb strings.Builder
	for _, row := range grid {
		for _, v := range row {
			switch v {
			case engine.PlayerOne.Number():
				sb.WriteByte('X')
			case engine.PlayerTwo.Number():
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return engine.ParseBoard(sb.String())
}
