package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/connect-four-arena/game/matchmaking"
	"github.com/wricardo/connect-four-arena/game/models"
	"github.com/wricardo/connect-four-arena/game/service"
)

func emptyBoard() [][]int {
	board := make([][]int, 6)
	for i := range board {
		board[i] = make([]int, 7)
	}
	return board
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content in result")
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	require.NoError(t, client.apiCall("GET", "/health", nil, &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	assert.Error(t, client.apiCall("GET", "/api", nil, nil))
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall("GET", "/api", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error: 500")
}

func TestClient_apiCall_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Not your turn"})
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall("GET", "/api", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Not your turn", err.Error())
}

func TestClient_gameState(t *testing.T) {
	board := emptyBoard()
	board[5][3] = 1
	board[4][3] = 2

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/games/game-1", r.URL.Path)
		json.NewEncoder(w).Encode(models.GameSnapshot{
			ID:          "game-1",
			Board:       board,
			CurrentTurn: 1,
			Status:      models.StatusActive,
			Player1:     &models.PlayerView{Username: "alice", PlayerNumber: 1, Connected: true},
			Player2:     &models.PlayerView{Username: "bob", PlayerNumber: 2, Connected: true},
			ValidMoves:  []int{0, 1, 2, 3, 4, 5, 6},
			MoveCount:   2,
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleGameState(context.Background(), callTool("game_state", map[string]interface{}{
		"game_id": "game-1",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Game game-1")
	assert.Contains(t, text, "X: alice")
	assert.Contains(t, text, "Turn: alice")
	assert.Contains(t, text, "Valid columns: 0, 1, 2, 3, 4, 5, 6")
	assert.Contains(t, text, "  . . . O . . .\n  . . . X . . .\n")
}

func TestClient_gameState_MissingID(t *testing.T) {
	result, err := NewClient("http://localhost").handleGameState(context.Background(), callTool("game_state", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "game_id is required")
}

func TestClient_gameState_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Game not found"})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleGameState(context.Background(), callTool("game_state", map[string]interface{}{
		"game_id": "nope",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Game not found", resultText(t, result))
}

func TestClient_listGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"games": []*models.GameSnapshot{{
				ID:        "game-1",
				Status:    models.StatusActive,
				Player1:   &models.PlayerView{Username: "alice"},
				Player2:   &models.PlayerView{Username: models.BotUsername, IsBot: true},
				MoveCount: 4,
			}},
			"count": 1,
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListGames(context.Background(), callTool("list_games", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "game-1: alice vs Bot [active, 4 moves]")
}

func TestClient_makeMove(t *testing.T) {
	board := emptyBoard()
	board[5][2] = 1

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/games/game-1/move", r.URL.Path)

		var req service.MoveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		assert.Equal(t, 2, req.ColumnValue())

		json.NewEncoder(w).Encode(service.MoveMade{
			GameID:   "game-1",
			Player:   "alice",
			Move:     models.Move{Username: "alice", PlayerNumber: 1, Column: 2, Row: 5},
			Board:    board,
			NextTurn: 2,
		})
	}))
	defer server.Close()

	// column arrives as a JSON number
	result, err := NewClient(server.URL).handleMakeMove(context.Background(), callTool("make_move", map[string]interface{}{
		"game_id":  "game-1",
		"username": "alice",
		"column":   float64(2),
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "alice dropped into column 2 (row 5)")
	assert.Contains(t, text, "Next turn: player 2")
}

func TestClient_makeMove_Win(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(service.MoveMade{
			Player:    "alice",
			Board:     emptyBoard(),
			GameOver:  true,
			Winner:    "alice",
			WinReason: models.EndReasonWin,
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleMakeMove(context.Background(), callTool("make_move", map[string]interface{}{
		"game_id":  "game-1",
		"username": "alice",
		"column":   0,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Game over: alice wins (win)")
}

func TestClient_makeMove_MissingArgs(t *testing.T) {
	result, err := NewClient("http://localhost").handleMakeMove(context.Background(), callTool("make_move", map[string]interface{}{
		"game_id":  "game-1",
		"username": "alice",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClient_leaderboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"leaderboard": []*models.LeaderboardEntry{
				{Rank: 1, Username: "alice", GamesPlayed: 3, GamesWon: 2, WinRate: 66.67},
			},
			"count": 1,
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleLeaderboard(context.Background(), callTool("leaderboard", map[string]interface{}{
		"limit": float64(5),
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "1. alice - 2 wins / 3 games (66.67%)")
}

func TestClient_playerStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/players/alice", r.URL.Path)
		json.NewEncoder(w).Encode(service.PlayerProfile{
			Stats: &models.PlayerStats{Username: "alice", GamesPlayed: 2, GamesWon: 1, GamesDrawn: 1, WinRate: 50, Rank: 3},
			RecentGames: []*models.CompletedGame{
				{Player1: "alice", Player2: "Bot", WinReason: models.EndReasonDraw, MoveCount: 42},
			},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handlePlayerStats(context.Background(), callTool("player_stats", map[string]interface{}{
		"username": "alice",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Rank: #3")
	assert.Contains(t, text, "Win rate: 50.00%")
	assert.Contains(t, text, "alice vs Bot: draw (draw, 42 moves)")
}

func TestClient_queueStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(matchmaking.QueueStatus{PlayersWaiting: 2, Players: []string{"alice", "bob"}})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleQueueStatus(context.Background(), callTool("queue_status", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "alice, bob")
}

func TestClient_gameStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.GameStats{TotalGames: 4, BotGames: 3, PvPGames: 1, AverageMoves: 17.5})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleGameStats(context.Background(), callTool("game_stats", nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Total games: 4")
	assert.Contains(t, text, "Average moves: 17.5")
}

func TestClient_gameInstructions(t *testing.T) {
	result, err := NewClient("http://localhost").handleGameInstructions(context.Background(), callTool("game_instructions", nil))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resultText(t, result), "CONNECT FOUR RULES"))
}

func TestFormatBoard(t *testing.T) {
	board := emptyBoard()
	board[5][0] = 1
	board[5][6] = 2

	lines := strings.Split(strings.TrimRight(formatBoard(board), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "  0 1 2 3 4 5 6", lines[0])
	assert.Equal(t, "  X . . . . . O", lines[6])
}
