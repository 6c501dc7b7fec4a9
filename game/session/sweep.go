package session

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/models"
)

// SweepAbandoned forfeits active games where a disconnected player has been
// gone longer than timeout. Each game is visited under its own lock; a game
// that fails is logged and skipped.
func (s *Store) SweepAbandoned(now time.Time, timeout time.Duration) []*Forfeit {
	var forfeits []*Forfeit

	for _, g := range s.all() {
		f, err := s.sweepAbandonedOne(g, now, timeout)
		if err != nil {
			s.logger.Warn("abandon sweep skipped game", zap.String("game_id", g.id), zap.Error(err))
			continue
		}
		if f != nil {
			s.logger.Info("game forfeited after disconnect",
				zap.String("game_id", f.GameID),
				zap.String("username", f.Loser))
			forfeits = append(forfeits, f)
		}
	}

	return forfeits
}

func (s *Store) sweepAbandonedOne(g *game, now time.Time, timeout time.Duration) (f *Forfeit, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, errors.Newf("panic during sweep: %v", r)
		}
	}()

	if g.status != models.StatusActive {
		return nil, nil
	}

	for _, sl := range g.slots {
		if sl == nil || sl.bot || sl.connected {
			continue
		}
		if now.Sub(sl.lastSeen) > timeout {
			if g.other(sl) == nil {
				return nil, errors.Newf("active game without opponent for %q", sl.username)
			}
			return s.forfeitLocked(g, sl, now), nil
		}
	}

	return nil, nil
}

// SweepFinished evicts games that finished more than retention ago and returns
// their ids. Waiting and active games are never evicted.
func (s *Store) SweepFinished(now time.Time, retention time.Duration) []string {
	var expired []*game
	for _, g := range s.all() {
		g.mu.Lock()
		if g.status == models.StatusFinished && now.Sub(g.endedAt) > retention {
			expired = append(expired, g)
		}
		g.mu.Unlock()
	}
	if len(expired) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, g := range expired {
		if _, ok := s.games[g.id]; !ok {
			continue
		}
		delete(s.games, g.id)
		for _, sl := range g.slots {
			if sl == nil || sl.bot {
				continue
			}
			// the player may already be in a newer game
			if s.byPlayer[sl.username] == g.id {
				delete(s.byPlayer, sl.username)
			}
		}
		ids = append(ids, g.id)
	}

	s.logger.Debug("finished games evicted", zap.Int("count", len(ids)))
	return ids
}
