package service

// GameError is a custom error type for service operations
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

const (
	ErrUsernameRequired GameError = "Username required"
	ErrStatsUnavailable GameError = "stats storage is not configured"
	ErrNilConfig        GameError = "config cannot be nil"
	ErrNilNotifier      GameError = "notifier cannot be nil"
)
