// Package matchmaking pairs players looking for a game.
//
// A player joining the queue is paired with the first other queued player in
// join order. When nobody is waiting the player is queued with a fallback
// timer; if still queued when it fires, a game against the bot is created and
// handed to the OnBotMatch callback. Leaving, pairing and falling back all
// cancel the timer, and a timer that fires for a player who already left is a
// no-op, so a player never ends up with two games.
package matchmaking
