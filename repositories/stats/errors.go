package stats

// StatsError is a custom error type for stats storage
type StatsError string

// Error implements the error interface
func (e StatsError) Error() string {
	return string(e)
}

const (
	ErrPlayerNotFound StatsError = "player not found"
	ErrGameNotFound   StatsError = "game not found"
	ErrNilConfig      StatsError = "config cannot be nil"
	ErrNilClient      StatsError = "redis client cannot be nil"
	ErrInvalidGame    StatsError = "game id cannot be empty"
	ErrInvalidEvent   StatsError = "event type cannot be empty"
)
