package matchmaking

// MatchmakingError is a custom error type for queue operations
type MatchmakingError string

// Error implements the error interface
func (e MatchmakingError) Error() string {
	return string(e)
}

const (
	ErrAlreadyInActiveGame MatchmakingError = "You already have an active game"
	ErrAlreadyQueued       MatchmakingError = "You are already in the queue"
	ErrNotQueued           MatchmakingError = "Not in queue"
	ErrInvalidUsername     MatchmakingError = "username required"
	ErrNilConfig           MatchmakingError = "config cannot be nil"
	ErrNilSessions         MatchmakingError = "sessions cannot be nil"
)
