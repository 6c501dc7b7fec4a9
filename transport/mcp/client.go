package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/connect-four-arena/game/engine"
	"github.com/wricardo/connect-four-arena/game/matchmaking"
	"github.com/wricardo/connect-four-arena/game/models"
	"github.com/wricardo/connect-four-arena/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Connect Four Arena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Connect Four Arena - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Line up four of your discs horizontally, vertically or diagonally on a
7 column by 6 row board. Discs drop to the lowest empty row of a column.

AVAILABLE TOOLS:
- game_state: Get a game's board and status
- list_games: List live games
- make_move: Drop a disc in a column (0-6)
- leaderboard: Top players by wins
- player_stats: A player's record and recent games
- game_stats: Aggregate statistics
- queue_status: Players waiting for a match
- game_instructions: Rules and board notation`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the board and status of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all live games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "make_move",
		Description: "Drop a disc into a column for the given player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"username": map[string]interface{}{
					"type":        "string",
					"description": "Player making the move",
				},
				"column": map[string]interface{}{
					"type":        "integer",
					"description": "Column index from 0 (left) to 6 (right)",
					"minimum":     0,
					"maximum":     engine.Cols - 1,
				},
			},
			Required: []string{"game_id", "username", "column"},
		},
	}, c.handleMakeMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Show the top players ranked by wins",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries (default 10)",
				},
			},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "player_stats",
		Description: "Get a player's record and recent games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"username": map[string]interface{}{
					"type":        "string",
					"description": "Player username",
				},
			},
			Required: []string{"username"},
		},
	}, c.handlePlayerStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_stats",
		Description: "Get aggregate game statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "queue_status",
		Description: "List players waiting for an opponent",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleQueueStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game and how boards are rendered",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return errors.New(msg)
		}
		return errors.Newf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a numeric argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	if gameID == "" {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var game models.GameSnapshot
	if err := c.apiCall("GET", "/api/games/"+url.PathEscape(gameID), nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGame(&game)), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Games []*models.GameSnapshot `json:"games"`
		Count int                    `json:"count"`
	}
	if err := c.apiCall("GET", "/api/games", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No live games"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Live games (%d):\n", response.Count)
	for _, g := range response.Games {
		fmt.Fprintf(&sb, "- %s: %s vs %s [%s, %d moves]\n",
			g.ID, playerName(g.Player1), playerName(g.Player2), g.Status, g.MoveCount)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleMakeMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	username, _ := args["username"].(string)
	column, ok := intArg(args, "column")
	if gameID == "" || username == "" || !ok {
		return mcp.NewToolResultError("game_id, username and column are required"), nil
	}

	body := service.MoveRequest{Username: username, Column: &column}

	var result service.MoveMade
	if err := c.apiCall("POST", "/api/games/"+url.PathEscape(gameID)+"/move", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveMade(&result)), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/leaderboard"
	if limit, ok := intArg(arguments(request), "limit"); ok && limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var response struct {
		Leaderboard []*models.LeaderboardEntry `json:"leaderboard"`
		Count       int                        `json:"count"`
	}
	if err := c.apiCall("GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(response.Leaderboard)), nil
}

func (c *Client) handlePlayerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username, _ := arguments(request)["username"].(string)
	if username == "" {
		return mcp.NewToolResultError("username is required"), nil
	}

	var profile service.PlayerProfile
	if err := c.apiCall("GET", "/api/players/"+url.PathEscape(username), nil, &profile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatProfile(&profile)), nil
}

func (c *Client) handleGameStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats models.GameStats
	if err := c.apiCall("GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf(`Game statistics:
Total games: %d
Bot games: %d
PvP games: %d
Last 7 days: %d
Players: %d
Average duration: %s
Average moves: %.1f
`, stats.TotalGames, stats.BotGames, stats.PvPGames, stats.RecentGames,
		stats.TotalPlayers, stats.AverageDuration.Round(time.Second), stats.AverageMoves)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleQueueStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status matchmaking.QueueStatus
	if err := c.apiCall("GET", "/api/queue", nil, &status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if status.PlayersWaiting == 0 {
		return mcp.NewToolResultText("Queue is empty"), nil
	}
	result := fmt.Sprintf("Players waiting: %d\n%s\n", status.PlayersWaiting, strings.Join(status.Players, ", "))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `CONNECT FOUR RULES

1. The board has 7 columns (0-6) and 6 rows.
2. Player 1 (X) always moves first; player 2 (O) follows.
3. A move names a column. The disc falls to the lowest empty row.
4. A full column cannot be played.
5. Four in a row horizontally, vertically or diagonally wins.
6. A full board with no four in a row is a draw.

MATCHMAKING

Players who join the queue are paired in join order. A player still
waiting after 10 seconds is matched against the bot, which always
plays as player 2.

DISCONNECTS

A player who disconnects from a live game has 30 seconds to reconnect
before forfeiting. Finished games stay visible for 5 minutes.

BOARD NOTATION

  0 1 2 3 4 5 6
  . . . . . . .   top row
  . . . . . . .
  . . . . . . .
  . . . . . . .
  . . . O . . .
  . . X X . . .   bottom row

X = player 1, O = player 2, . = empty

TOOLS

- list_games to find a game ID
- game_state to view the board and whose turn it is
- make_move with game_id, username and column`
	return mcp.NewToolResultText(instructions), nil
}

// Formatters

func playerName(p *models.PlayerView) string {
	if p == nil || p.Username == "" {
		return "(waiting)"
	}
	return p.Username
}

func cellSymbol(v int) string {
	switch v {
	case engine.PlayerOne.Number():
		return "X"
	case engine.PlayerTwo.Number():
		return "O"
	default:
		return "."
	}
}

// formatBoard renders rows top to bottom with a column header
func formatBoard(board [][]int) string {
	var sb strings.Builder
	sb.WriteString(" ")
	for col := 0; col < engine.Cols; col++ {
		fmt.Fprintf(&sb, " %d", col)
	}
	sb.WriteString("\n")
	for _, row := range board {
		sb.WriteString(" ")
		for _, v := range row {
			sb.WriteString(" " + cellSymbol(v))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatGame(g *models.GameSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Game %s\n", g.ID)
	fmt.Fprintf(&sb, "X: %s\n", playerName(g.Player1))
	fmt.Fprintf(&sb, "O: %s\n", playerName(g.Player2))
	fmt.Fprintf(&sb, "Status: %s\n", g.Status)
	fmt.Fprintf(&sb, "Moves: %d\n\n", g.MoveCount)
	sb.WriteString(formatBoard(g.Board))
	sb.WriteString("\n")

	switch g.Status {
	case models.StatusFinished:
		if g.Winner != "" {
			fmt.Fprintf(&sb, "Winner: %s (%s)\n", g.Winner, g.WinReason)
		} else {
			sb.WriteString("Result: draw\n")
		}
	case models.StatusActive:
		turn := g.Player1
		if g.CurrentTurn == engine.PlayerTwo.Number() {
			turn = g.Player2
		}
		fmt.Fprintf(&sb, "Turn: %s\n", playerName(turn))
		fmt.Fprintf(&sb, "Valid columns: %s\n", joinInts(g.ValidMoves))
	}

	return sb.String()
}

func formatMoveMade(m *service.MoveMade) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s dropped into column %d (row %d)\n\n", m.Player, m.Move.Column, m.Move.Row)
	sb.WriteString(formatBoard(m.Board))
	sb.WriteString("\n")

	if !m.GameOver {
		fmt.Fprintf(&sb, "Next turn: player %d\n", m.NextTurn)
		return sb.String()
	}
	if m.Winner != "" {
		fmt.Fprintf(&sb, "Game over: %s wins (%s)\n", m.Winner, m.WinReason)
	} else {
		sb.WriteString("Game over: draw\n")
	}
	return sb.String()
}

func formatLeaderboard(entries []*models.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "Leaderboard is empty"
	}

	var sb strings.Builder
	sb.WriteString("Leaderboard:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d. %s - %d wins / %d games (%.2f%%)\n",
			e.Rank, e.Username, e.GamesWon, e.GamesPlayed, e.WinRate)
	}
	return sb.String()
}

func formatProfile(p *service.PlayerProfile) string {
	var sb strings.Builder
	if s := p.Stats; s != nil {
		fmt.Fprintf(&sb, "Player: %s\n", s.Username)
		if s.Rank > 0 {
			fmt.Fprintf(&sb, "Rank: #%d\n", s.Rank)
		}
		fmt.Fprintf(&sb, "Played: %d  Won: %d  Lost: %d  Drawn: %d\n",
			s.GamesPlayed, s.GamesWon, s.GamesLost, s.GamesDrawn)
		fmt.Fprintf(&sb, "Win rate: %.2f%%\n", s.WinRate)
	}

	if len(p.RecentGames) == 0 {
		return sb.String()
	}

	sb.WriteString("\nRecent games:\n")
	for _, g := range p.RecentGames {
		result := "draw"
		if g.Winner != "" {
			result = g.Winner + " won"
		}
		fmt.Fprintf(&sb, "- %s vs %s: %s (%s, %d moves)\n", g.Player1, g.Player2, result, g.WinReason, g.MoveCount)
	}
	return sb.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
