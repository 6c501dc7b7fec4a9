// Package bot implements the computer opponent.
//
// A Bot first looks for a column that wins immediately, then for a column that
// blocks an immediate opponent win, and otherwise runs minimax with alpha-beta
// pruning to a fixed depth, scoring leaves with engine.EvaluatePosition. When
// several columns share the best score the lowest column wins, so the choice is
// reproducible.
//
// MakeMove adds a randomized think time. It never sleeps on the caller's
// goroutine: the search runs from a clock timer once the delay elapses.
package bot
