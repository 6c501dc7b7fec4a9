// Package stats persists finished games, player counters and analytics events
// in Redis.
//
// Each human player has a hash of counters and an entry in a leaderboard
// sorted set. The leaderboard score is wins*100000 plus the win rate in
// hundredths, so wins order the board and win rate breaks ties. A player's
// rank is the number of players with a strictly higher score plus one.
// Counter updates run in a Lua script so concurrent saves for the same player
// never lose an increment.
package stats
