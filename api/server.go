package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/models"
	"github.com/wricardo/connect-four-arena/game/service"
	"github.com/wricardo/connect-four-arena/game/session"
	"github.com/wricardo/connect-four-arena/repositories/stats"
	"github.com/wricardo/connect-four-arena/transport/websocket"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	defaultAnalyticsLimit   = 50
	maxAnalyticsLimit       = 500
)

// Server represents the REST API server
type Server struct {
	service  service.GameService
	hub      *websocket.Hub
	router   *mux.Router
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer exposes the collectors of g at /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a new API server. hub may be nil when no websocket
// endpoint is wanted.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes. Routes live on the root router so
// a method mismatch answers 405 instead of 404.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Stats
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/leaderboard", s.handleLeaderboard).Methods("GET")
	s.router.HandleFunc("/api/players/{username}", s.handleGetPlayer).Methods("GET")
	s.router.HandleFunc("/api/analytics", s.handleAnalytics).Methods("GET")

	// Live games
	s.router.HandleFunc("/api/games", s.handleListGames).Methods("GET")
	s.router.HandleFunc("/api/games/{id}", s.handleGetGame).Methods("GET")
	s.router.HandleFunc("/api/games/{id}/history", s.handleGameHistory).Methods("GET")
	s.router.HandleFunc("/api/games/{id}/move", s.handleMove).Methods("POST")
	s.router.HandleFunc("/api/queue", s.handleQueue).Methods("GET")

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to status codes
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrGameNotFound),
		errors.Is(err, stats.ErrPlayerNotFound),
		errors.Is(err, stats.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrGameNotActive),
		errors.Is(err, session.ErrAlreadyInGame):
		status = http.StatusConflict
	case errors.Is(err, session.ErrInvalidColumn),
		errors.Is(err, session.ErrPlayerNotInGame),
		errors.Is(err, session.ErrInvalidPlayer):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrStatsUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		respondError(w, status, err.Error())
		return
	}
	respondError(w, status, errors.UnwrapAll(err).Error())
}

// queryLimit parses ?limit= clamped to [1, max]
func queryLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Newf("invalid limit %q", raw)
	}
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n, nil
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.Health(r.Context()))
}

// Stats Handlers

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	gameStats, err := s.service.GetStats(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, gameStats)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultLeaderboardLimit, maxLeaderboardLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.service.GetLeaderboard(r.Context(), limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
		"count":       len(entries),
	})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	profile, err := s.service.GetPlayer(r.Context(), username)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultAnalyticsLimit, maxAnalyticsLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.service.GetAnalytics(r.Context(), r.URL.Query().Get("type"), limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// Game Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if games == nil {
		games = []*models.GameSnapshot{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.service.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleGameHistory(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	moves, err := s.service.GetHistory(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"gameId": gameID,
		"moves":  moves,
		"count":  len(moves),
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req service.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, service.ErrUsernameRequired.Error())
		return
	}

	result, err := s.service.MakeMove(r.Context(), "", gameID, req.Username, req.ColumnValue())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.logger.Debug("move via api",
		zap.String("game_id", gameID),
		zap.String("username", req.Username),
		zap.Int("column", result.Move.Column))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.QueueStatus(r.Context()))
}
