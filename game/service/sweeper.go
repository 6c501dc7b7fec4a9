package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/models"
)

// Run sweeps abandoned and finished games every sweep interval until ctx is done
func (s *Service) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	s.logger.Info("sweeper started",
		zap.Duration("interval", s.sweepInterval),
		zap.Duration("abandon_timeout", s.abandonTimeout),
		zap.Duration("retention", s.retention))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Sweep(s.clock.Now())
		}
	}
}

// Sweep forfeits games whose disconnected player did not come back in time
// and evicts finished games past the retention window
func (s *Service) Sweep(now time.Time) {
	for _, f := range s.store.SweepAbandoned(now, s.abandonTimeout) {
		s.logger.Info("game abandoned",
			zap.String("game_id", f.GameID),
			zap.String("username", f.Loser))
		s.publishForfeit(f)
	}

	if evicted := s.store.SweepFinished(now, s.retention); len(evicted) > 0 {
		for _, gameID := range evicted {
			s.notifier.CloseGame(gameID)
		}
		s.logger.Debug("evicted finished games", zap.Strings("game_ids", evicted))
	}

	counts := s.store.Counts()
	s.metrics.ActiveGames.Set(float64(counts[models.StatusActive]))
	s.metrics.QueueSize.Set(float64(s.mm.Len()))
}
