package session

import (
	"time"

	"github.com/wricardo/connect-four-arena/game/models"
)

const (
	abandonTimeout = 30 * time.Second
	retention      = 300 * time.Second
)

func (s *StoreTestSuite) TestSweepAbandoned_ForfeitsAfterTimeout() {
	snap, err := s.store.Create("alice", "bob", false)
	s.Require().NoError(err)

	_, err = s.store.Disconnect("bob")
	s.Require().NoError(err)

	s.clock.Advance(abandonTimeout)
	s.Empty(s.store.SweepAbandoned(s.clock.Now(), abandonTimeout), "age equal to timeout is not expired")

	s.clock.Advance(time.Second)
	forfeits := s.store.SweepAbandoned(s.clock.Now(), abandonTimeout)
	s.Require().Len(forfeits, 1)
	s.Equal(snap.ID, forfeits[0].GameID)
	s.Equal("bob", forfeits[0].Loser)
	s.Equal("alice", forfeits[0].Winner)
	s.Require().NotNil(forfeits[0].Completed)
	s.Equal(models.EndReasonForfeit, forfeits[0].Completed.WinReason)

	view, err := s.store.Snapshot(snap.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusFinished, view.Status)
	s.Equal("alice", view.Winner)

	// already finished games are skipped
	s.clock.Advance(time.Minute)
	s.Empty(s.store.SweepAbandoned(s.clock.Now(), abandonTimeout))
}

func (s *StoreTestSuite) TestSweepAbandoned_ReconnectPreventsForfeit() {
	snap, err := s.store.Create("alice", "bob", false)
	s.Require().NoError(err)

	_, err = s.store.Disconnect("alice")
	s.Require().NoError(err)

	s.clock.Advance(20 * time.Second)
	_, err = s.store.Reconnect(snap.ID, "alice")
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	s.Empty(s.store.SweepAbandoned(s.clock.Now(), abandonTimeout))

	view, err := s.store.Snapshot(snap.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, view.Status)
}

func (s *StoreTestSuite) TestSweepAbandoned_ConnectedPlayersAreIdleSafe() {
	_, err := s.store.Create("alice", "", true)
	s.Require().NoError(err)
	_, err = s.store.Create("carol", "dave", false)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	s.Empty(s.store.SweepAbandoned(s.clock.Now(), abandonTimeout))
}

func (s *StoreTestSuite) TestSweepAbandoned_BotGame() {
	snap, err := s.store.Create("alice", "", true)
	s.Require().NoError(err)

	_, err = s.store.Disconnect("alice")
	s.Require().NoError(err)

	s.clock.Advance(abandonTimeout + time.Second)
	forfeits := s.store.SweepAbandoned(s.clock.Now(), abandonTimeout)
	s.Require().Len(forfeits, 1)
	s.Equal(snap.ID, forfeits[0].GameID)
	s.Equal(models.BotUsername, forfeits[0].Winner)
}

func (s *StoreTestSuite) TestSweepFinished_RetentionWindow() {
	snap, err := s.store.Create("alice", "bob", false)
	s.Require().NoError(err)
	_, err = s.store.Forfeit(snap.ID, "bob")
	s.Require().NoError(err)

	active, err := s.store.Create("carol", "dave", false)
	s.Require().NoError(err)

	s.clock.Advance(retention)
	s.Empty(s.store.SweepFinished(s.clock.Now(), retention), "not before the window elapses")

	s.clock.Advance(time.Second)
	evicted := s.store.SweepFinished(s.clock.Now(), retention)
	s.Equal([]string{snap.ID}, evicted)

	_, err = s.store.Snapshot(snap.ID)
	s.ErrorIs(err, ErrGameNotFound)

	// active games survive regardless of age
	s.clock.Advance(24 * time.Hour)
	s.Empty(s.store.SweepFinished(s.clock.Now(), retention))
	_, err = s.store.Snapshot(active.ID)
	s.NoError(err)
}

func (s *StoreTestSuite) TestSweepFinished_KeepsNewerIndexEntry() {
	old, err := s.store.Create("alice", "bob", false)
	s.Require().NoError(err)
	_, err = s.store.Forfeit(old.ID, "alice")
	s.Require().NoError(err)

	// alice starts a new game before the old one is evicted
	fresh, err := s.store.Create("alice", "", true)
	s.Require().NoError(err)

	s.clock.Advance(retention + time.Second)
	s.Equal([]string{old.ID}, s.store.SweepFinished(s.clock.Now(), retention))

	live, ok := s.store.LiveGame("alice")
	s.Require().True(ok)
	s.Equal(fresh.ID, live.ID)

	_, ok = s.store.LiveGame("bob")
	s.False(ok)
}

func (s *StoreTestSuite) TestSweepFinished_WaitingNeverEvicted() {
	waiting, err := s.store.Create("alice", "", false)
	s.Require().NoError(err)

	s.clock.Advance(48 * time.Hour)
	s.Empty(s.store.SweepFinished(s.clock.Now(), retention))

	_, err = s.store.Snapshot(waiting.ID)
	s.NoError(err)
}
