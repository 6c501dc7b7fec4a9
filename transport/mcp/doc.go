// Package mcp exposes the arena to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API and renders the
// JSON response as text an agent can read, including boards drawn with X for
// player 1, O for player 2 and . for empty cells.
//
// Tools:
//   - game_state: board, players and whose turn it is
//   - list_games: live games
//   - make_move: drop a disc for a player
//   - leaderboard, player_stats, game_stats: persisted statistics
//   - queue_status: players waiting for an opponent
//   - game_instructions: rules and notation
//
// The server is served over stdio by the mcp command, or over HTTP by the
// serve command at POST /mcp.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
