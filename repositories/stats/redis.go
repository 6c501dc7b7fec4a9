package stats

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/models"
)

const (
	// Key prefixes for Redis
	gameKeyPrefix        = "c4:game:"
	playerKeyPrefix      = "c4:player:"
	playerGamesKeyPrefix = "c4:player_games:"
	eventsKeyPrefix      = "c4:events:"

	gamesByEndKey  = "c4:games:by_end"
	leaderboardKey = "c4:leaderboard"
	playersKey     = "c4:players"
	globalKey      = "c4:stats:global"
	allEventsKey   = "c4:events"

	// Global counter fields
	fieldTotalGames    = "total_games"
	fieldBotGames      = "bot_games"
	fieldTotalDuration = "total_duration_ms"
	fieldTotalMoves    = "total_moves"

	// Player hash fields
	fieldPlayed    = "played"
	fieldWon       = "won"
	fieldLost      = "lost"
	fieldDrawn     = "drawn"
	fieldWinRate   = "win_rate"
	fieldUpdatedAt = "updated_at"

	playerGamesCap = 1000
	eventsCap      = 10000
	typedEventsCap = 1000

	recentWindow = 7 * 24 * time.Hour

	// winsWeight keeps wins dominant in the leaderboard score; the win rate
	// in hundredths never exceeds 10000
	winsWeight = 100000
)

// updatePlayerScript bumps a player's counters, recomputes the win rate
// rounded to two decimals and refreshes the leaderboard score atomically.
//
// KEYS: player hash, leaderboard, players set
// ARGV: username, outcome, updated at
var updatePlayerScript = redis.NewScript(`
local played = redis.call('HINCRBY', KEYS[1], 'played', 1)
local field = 'drawn'
if ARGV[2] == 'win' then
	field = 'won'
elseif ARGV[2] == 'loss' then
	field = 'lost'
end
redis.call('HINCRBY', KEYS[1], field, 1)
local won = tonumber(redis.call('HGET', KEYS[1], 'won') or '0')
local hundredths = math.floor(won * 10000 / played + 0.5)
redis.call('HSET', KEYS[1], 'win_rate', tostring(hundredths / 100), 'updated_at', ARGV[3])
redis.call('ZADD', KEYS[2], won * 100000 + hundredths, ARGV[1])
redis.call('SADD', KEYS[3], ARGV[1])
return played
`)

// Config holds configuration for the Redis stats repository
type Config struct {
	RedisClient *redis.Client
	Clock       clockwork.Clock
	Logger      *zap.Logger
}

// RedisRepository implements Repository using Redis
type RedisRepository struct {
	client *redis.Client
	clock  clockwork.Clock
	logger *zap.Logger
}

var _ Repository = (*RedisRepository)(nil)

// NewRedis creates a new Redis-backed stats repository
func NewRedis(cfg *Config) (*RedisRepository, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.RedisClient == nil {
		return nil, ErrNilClient
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	r := &RedisRepository{
		client: cfg.RedisClient,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// SaveGame persists a finished game. The bot never gets a stats row.
func (r *RedisRepository) SaveGame(ctx context.Context, game *models.CompletedGame) error {
	if game == nil || game.GameID == "" {
		return ErrInvalidGame
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return errors.Wrap(err, "failed to marshal game")
	}

	humans := game.Humans()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKeyPrefix+game.GameID, gameJSON, 0)
		pipe.ZAdd(ctx, gamesByEndKey, redis.Z{
			Score:  float64(game.EndTime.Unix()),
			Member: game.GameID,
		})

		pipe.HIncrBy(ctx, globalKey, fieldTotalGames, 1)
		if game.IsBot {
			pipe.HIncrBy(ctx, globalKey, fieldBotGames, 1)
		}
		pipe.HIncrBy(ctx, globalKey, fieldTotalDuration, game.Duration.Milliseconds())
		pipe.HIncrBy(ctx, globalKey, fieldTotalMoves, int64(game.MoveCount))

		for _, username := range humans {
			key := playerGamesKeyPrefix + username
			pipe.LPush(ctx, key, game.GameID)
			pipe.LTrim(ctx, key, 0, playerGamesCap-1)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to save game %s", game.GameID)
	}

	updatedAt := r.clock.Now().UTC().Format(time.RFC3339Nano)
	for _, username := range humans {
		keys := []string{playerKeyPrefix + username, leaderboardKey, playersKey}
		err := updatePlayerScript.Run(ctx, r.client, keys, username, game.Outcome(username), updatedAt).Err()
		if err != nil {
			return errors.Wrapf(err, "failed to update stats of %s", username)
		}
	}

	r.logger.Debug("game saved",
		zap.String("game_id", game.GameID),
		zap.Strings("players", humans))
	return nil
}

// GetPlayer retrieves a player's counters and rank
func (r *RedisRepository) GetPlayer(ctx context.Context, username string) (*models.PlayerStats, error) {
	fields, err := r.client.HGetAll(ctx, playerKeyPrefix+username).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get player %s", username)
	}
	if len(fields) == 0 {
		return nil, ErrPlayerNotFound
	}

	stats := parsePlayer(username, fields)

	score, err := r.client.ZScore(ctx, leaderboardKey, username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return stats, nil
		}
		return nil, errors.Wrapf(err, "failed to get score of %s", username)
	}

	better, err := r.client.ZCount(ctx, leaderboardKey, "("+formatScore(score), "+inf").Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to rank %s", username)
	}
	stats.Rank = better + 1

	return stats, nil
}

// GetLeaderboard returns the top limit players
func (r *RedisRepository) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		return []models.LeaderboardEntry{}, nil
	}

	top, err := r.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read leaderboard")
	}
	if len(top) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := lo.Map(top, func(z redis.Z, _ int) *redis.MapStringStringCmd {
		return pipe.HGetAll(ctx, playerKeyPrefix+z.Member.(string))
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load leaderboard players")
	}

	return lo.Map(top, func(z redis.Z, i int) models.LeaderboardEntry {
		username := z.Member.(string)
		stats := parsePlayer(username, cmds[i].Val())
		return models.LeaderboardEntry{
			Rank:        i + 1,
			Username:    username,
			GamesPlayed: stats.GamesPlayed,
			GamesWon:    stats.GamesWon,
			WinRate:     stats.WinRate,
		}
	}), nil
}

// GetPlayerGames returns username's most recent games
func (r *RedisRepository) GetPlayerGames(ctx context.Context, username string, limit int) ([]*models.CompletedGame, error) {
	if limit <= 0 {
		return []*models.CompletedGame{}, nil
	}

	ids, err := r.client.LRange(ctx, playerGamesKeyPrefix+username, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list games of %s", username)
	}
	return r.loadGames(ctx, ids)
}

// GetGame returns a stored game
func (r *RedisRepository) GetGame(ctx context.Context, gameID string) (*models.CompletedGame, error) {
	data, err := r.client.Get(ctx, gameKeyPrefix+gameID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrGameNotFound
		}
		return nil, errors.Wrapf(err, "failed to get game %s", gameID)
	}

	var game models.CompletedGame
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal game")
	}
	return &game, nil
}

func (r *RedisRepository) loadGames(ctx context.Context, ids []string) ([]*models.CompletedGame, error) {
	games := make([]*models.CompletedGame, 0, len(ids))
	if len(ids) == 0 {
		return games, nil
	}

	pipe := r.client.Pipeline()
	cmds := lo.Map(ids, func(id string, _ int) *redis.StringCmd {
		return pipe.Get(ctx, gameKeyPrefix+id)
	})
	// missing games surface as redis.Nil on their own command
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Wrap(err, "failed to load games")
	}

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, errors.Wrapf(err, "failed to load game %s", ids[i])
		}

		var game models.CompletedGame
		if err := json.Unmarshal(data, &game); err != nil {
			r.logger.Warn("skipping corrupt game", zap.String("game_id", ids[i]), zap.Error(err))
			continue
		}
		games = append(games, &game)
	}
	return games, nil
}

// LogEvent appends event to the global and per-type lists
func (r *RedisRepository) LogEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	if event == nil || event.Type == "" {
		return ErrInvalidEvent
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.clock.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	typedKey := eventsKeyPrefix + event.Type
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, allEventsKey, data)
		pipe.LTrim(ctx, allEventsKey, 0, eventsCap-1)
		pipe.LPush(ctx, typedKey, data)
		pipe.LTrim(ctx, typedKey, 0, typedEventsCap-1)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to log %s event", event.Type)
	}
	return nil
}

// GetEvents returns the newest limit events of eventType
func (r *RedisRepository) GetEvents(ctx context.Context, eventType string, limit int) ([]*models.AnalyticsEvent, error) {
	events := make([]*models.AnalyticsEvent, 0, limit)
	if limit <= 0 {
		return events, nil
	}

	key := allEventsKey
	if eventType != "" {
		key = eventsKeyPrefix + eventType
	}

	raw, err := r.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read events")
	}

	for _, item := range raw {
		var event models.AnalyticsEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			r.logger.Warn("skipping corrupt event", zap.Error(err))
			continue
		}
		events = append(events, &event)
	}
	return events, nil
}

// GetGameStats aggregates the global counters
func (r *RedisRepository) GetGameStats(ctx context.Context) (*models.GameStats, error) {
	since := r.clock.Now().Add(-recentWindow).Unix()

	var (
		global  *redis.MapStringStringCmd
		recent  *redis.IntCmd
		players *redis.IntCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		global = pipe.HGetAll(ctx, globalKey)
		recent = pipe.ZCount(ctx, gamesByEndKey, strconv.FormatInt(since, 10), "+inf")
		players = pipe.SCard(ctx, playersKey)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read game stats")
	}

	fields := global.Val()
	total := parseInt(fields[fieldTotalGames])
	bot := parseInt(fields[fieldBotGames])

	stats := &models.GameStats{
		TotalGames:   total,
		BotGames:     bot,
		PvPGames:     total - bot,
		RecentGames:  recent.Val(),
		TotalPlayers: players.Val(),
	}
	if total > 0 {
		stats.AverageDuration = time.Duration(parseInt(fields[fieldTotalDuration])/total) * time.Millisecond
		stats.AverageMoves = float64(parseInt(fields[fieldTotalMoves])) / float64(total)
	}
	return stats, nil
}

func parsePlayer(username string, fields map[string]string) *models.PlayerStats {
	stats := &models.PlayerStats{
		Username:    username,
		GamesPlayed: parseInt(fields[fieldPlayed]),
		GamesWon:    parseInt(fields[fieldWon]),
		GamesLost:   parseInt(fields[fieldLost]),
		GamesDrawn:  parseInt(fields[fieldDrawn]),
	}
	if rate, err := strconv.ParseFloat(fields[fieldWinRate], 64); err == nil {
		stats.WinRate = rate
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt]); err == nil {
		stats.UpdatedAt = ts
	}
	return stats
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

