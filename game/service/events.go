package service

// Inbound events
const (
	EventJoin         = "join"
	EventFindMatch    = "find-match"
	EventLeaveQueue   = "leave-queue"
	EventMakeMove     = "make-move"
	EventQuitGame     = "quit-game"
	EventGetGameState = "get-game-state"
)

// Outbound events
const (
	EventJoined               = "joined"
	EventMatchmakingWaiting   = "matchmaking-waiting"
	EventMatchFound           = "match-found"
	EventLeftQueue            = "left-queue"
	EventMoveMade             = "move-made"
	EventMoveError            = "move-error"
	EventGameOver             = "game-over"
	EventOpponentDisconnected = "opponent-disconnected"
	EventOpponentReconnected  = "opponent-reconnected"
	EventGameReconnected      = "game-reconnected"
	EventGameState            = "game-state"
	EventMatchmakingError     = "matchmaking-error"
	EventError                = "error"
)
