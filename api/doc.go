// Package api provides the HTTP REST API of the connect-four server.
//
// Endpoints:
//
// Health and metrics:
//   - GET /health - Liveness, live games, queue length, uptime
//   - GET /metrics - Prometheus metrics (when a gatherer is configured)
//
// Stats (need the Redis repository):
//   - GET /api/stats - Aggregate game stats
//   - GET /api/leaderboard?limit= - Top players, default 10, max 100
//   - GET /api/players/{username} - Player stats, rank and recent games
//   - GET /api/analytics?type=&limit= - Recent analytics events
//
// Live games:
//   - GET /api/games - Every game held in memory
//   - GET /api/games/{id} - One game snapshot
//   - POST /api/games/{id}/move - Play {"username", "column"}, same rules as make-move
//   - GET /api/queue - Matchmaking queue
//
// WebSocket:
//   - GET /ws - Upgrade to the real-time message channel
//
// Errors are returned as {"error": message} with 400 for bad input, 404 for
// unknown games and players, 409 for moves out of turn or on finished games
// and 503 when stats storage is not configured.
package api
