// Package session owns the lifecycle of live connect-four games.
//
// The session package implements:
//   - Thread-safe game storage indexed by game id and by player
//   - The Waiting -> Active -> Finished state machine
//   - Turn enforcement and move application
//   - Bot move scheduling without holding locks during think time
//   - Disconnect tracking, abandonment forfeits and retention-based eviction
//
// Core Types:
//
// Store holds every game. Each game has its own mutex, so moves on different
// games never contend, while two moves on the same game are serialized and
// cannot both pass turn validation. Sweeps visit each game under the same lock.
//
// Snapshots:
//
// Callers only ever see models.GameSnapshot, a copy with the board, players,
// turn, result and valid moves. Timers and the live board stay private.
//
// Usage:
//
//	store := session.NewStore(nil)
//
//	snap, err := store.Create("alice", "bob", false)
//	if err != nil {
//		return err
//	}
//
//	res, err := store.ApplyMove(snap.ID, "alice", 3)
//	if errors.Is(err, session.ErrNotYourTurn) {
//		// reject
//	}
//
// Cleanup:
//
// SweepAbandoned and SweepFinished are meant to run on a ticker. Both re-check
// status under the game lock, so games changing state between ticks are safe.
package session
