// Package service orchestrates connect-four games for the transports.
//
// The service sits between the transports (websocket hub, REST API, MCP) and
// the game core. It owns the mapping between player usernames and client
// connections, turns inbound events into session store and matchmaker calls,
// and translates their results into outbound events delivered through a
// Notifier.
//
// Core Types:
//
// GameService is the interface the transports depend on. Service implements
// it on top of a session.Store and a matchmaking.Matchmaker it creates.
// Notifier delivers events to clients and game rooms; the websocket hub
// implements it. Recorder persists finished games and analytics; the Redis
// stats repository implements it.
//
// Bot games:
//
// After a human move that hands the turn to the bot, the service asks the
// store for a bot move. The bot thinks on a timer without holding any lock and
// its move is broadcast as a second move-made event.
//
// Background work:
//
// Run ticks every sweep interval. Each tick forfeits games whose disconnected
// player did not come back within the abandon timeout and evicts finished
// games older than the retention window. Persistence runs on an ants pool;
// failures are logged and counted but never reach game logic.
//
// Usage:
//
//	hub := websocket.NewHub(logger, m)
//	svc, err := service.NewGameService(&service.Config{
//		Store:    session.NewStore(nil),
//		Notifier: hub,
//		Recorder: statsRepo,
//	})
//	hub.SetHandler(svc)
//	go svc.Run(ctx)
package service
