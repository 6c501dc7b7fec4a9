package matchmaking

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/wricardo/connect-four-arena/game/models"
	"github.com/wricardo/connect-four-arena/game/session"
)

type MatchmakerTestSuite struct {
	suite.Suite
	clock   *clockwork.FakeClock
	store   *session.Store
	mm      *Matchmaker
	matches chan *Match
}

func (s *MatchmakerTestSuite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.store = session.NewStore(&session.Config{Clock: s.clock})
	s.matches = make(chan *Match, 8)

	mm, err := New(&Config{
		Sessions: s.store,
		Clock:    s.clock,
		OnBotMatch: func(m *Match) {
			s.matches <- m
		},
	})
	s.Require().NoError(err)
	s.mm = mm
}

func (s *MatchmakerTestSuite) TearDownTest() {
	s.mm.Close()
}

func TestMatchmakerSuite(t *testing.T) {
	suite.Run(t, new(MatchmakerTestSuite))
}

func (s *MatchmakerTestSuite) expectNoBotMatch() {
	select {
	case m := <-s.matches:
		s.Failf("unexpected bot match", "game %s for %s", m.Game.ID, m.Player1.Username)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *MatchmakerTestSuite) TestNew_Validation() {
	_, err := New(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = New(&Config{})
	s.ErrorIs(err, ErrNilSessions)
}

func (s *MatchmakerTestSuite) TestJoin_WaitsThenPairs() {
	res, err := s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)
	s.True(res.Waiting)
	s.Nil(res.Match)
	s.Equal(WaitingMessage, res.Message)
	s.True(s.mm.IsQueued("alice"))

	res, err = s.mm.Join("bob", "chan-b")
	s.Require().NoError(err)
	s.False(res.Waiting)
	s.Require().NotNil(res.Match)

	m := res.Match
	s.Equal(Participant{Username: "alice", Channel: "chan-a"}, m.Player1)
	s.Equal(Participant{Username: "bob", Channel: "chan-b"}, m.Player2)
	s.False(m.IsBot)
	s.Equal(models.StatusActive, m.Game.Status)
	s.Equal("alice", m.Game.Player1.Username)

	s.Equal(0, s.mm.Len())
	s.False(s.mm.IsQueued("alice"))

	// the paired entry's fallback was cancelled
	s.clock.Advance(time.Minute)
	s.expectNoBotMatch()
	s.Equal(1, s.store.Count())
}

func (s *MatchmakerTestSuite) TestJoin_Rejections() {
	_, err := s.mm.Join("", "chan")
	s.ErrorIs(err, ErrInvalidUsername)

	_, err = s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)

	_, err = s.mm.Join("alice", "chan-a2")
	s.ErrorIs(err, ErrAlreadyQueued)

	_, err = s.store.Create("carol", "dave", false)
	s.Require().NoError(err)

	_, err = s.mm.Join("carol", "chan-c")
	s.ErrorIs(err, ErrAlreadyInActiveGame)
	s.Equal(1, s.mm.Len())
}

func (s *MatchmakerTestSuite) TestFallback_CreatesBotGame() {
	_, err := s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)

	s.clock.Advance(DefaultFallbackDelay - time.Millisecond)
	s.expectNoBotMatch()
	s.True(s.mm.IsQueued("alice"))

	s.clock.Advance(time.Millisecond)

	select {
	case m := <-s.matches:
		s.True(m.IsBot)
		s.Equal("alice", m.Player1.Username)
		s.Equal("chan-a", m.Player1.Channel)
		s.Equal(models.BotUsername, m.Player2.Username)
		s.True(m.Game.IsBot)
	case <-time.After(2 * time.Second):
		s.Fail("fallback did not fire")
	}

	s.False(s.mm.IsQueued("alice"))
	s.True(s.store.HasActiveGame("alice"))

	// only one game per fallback
	s.clock.Advance(time.Minute)
	s.expectNoBotMatch()
	s.Equal(1, s.store.Count())
}

func (s *MatchmakerTestSuite) TestLeave_CancelsFallback() {
	_, err := s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)

	s.Require().NoError(s.mm.Leave("alice"))
	s.ErrorIs(s.mm.Leave("alice"), ErrNotQueued)

	s.clock.Advance(time.Minute)
	s.expectNoBotMatch()
	s.Equal(0, s.store.Count())
}

func (s *MatchmakerTestSuite) TestLeave_NotQueued() {
	s.ErrorIs(s.mm.Leave("nobody"), ErrNotQueued)
}

func (s *MatchmakerTestSuite) TestRejoinAfterLeave_OnlyNewTimerCounts() {
	_, err := s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)

	s.clock.Advance(5 * time.Second)
	s.Require().NoError(s.mm.Leave("alice"))
	_, err = s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)

	// the first timer would have fired here
	s.clock.Advance(6 * time.Second)
	s.expectNoBotMatch()
	s.True(s.mm.IsQueued("alice"))

	s.clock.Advance(4 * time.Second)
	select {
	case m := <-s.matches:
		s.Equal("alice", m.Player1.Username)
	case <-time.After(2 * time.Second):
		s.Fail("fallback did not fire")
	}
	s.Equal(1, s.store.Count())
}

func (s *MatchmakerTestSuite) TestLeaveChannel() {
	_, err := s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)

	s.Empty(s.mm.LeaveChannel("chan-other"))
	s.Equal([]string{"alice"}, s.mm.LeaveChannel("chan-a"))
	s.Equal(0, s.mm.Len())

	s.clock.Advance(time.Minute)
	s.expectNoBotMatch()
}

func (s *MatchmakerTestSuite) TestStatus() {
	_, err := s.mm.Join("alice", "chan-a")
	s.Require().NoError(err)

	status := s.mm.Status()
	s.Equal(1, status.PlayersWaiting)
	s.Equal([]string{"alice"}, status.Players)
}

func (s *MatchmakerTestSuite) TestConcurrentJoins_PairEachEntryOnce() {
	const players = 20

	var wg sync.WaitGroup
	results := make(chan *JoinResult, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.mm.Join(string(rune('a'+i)), "chan")
			s.NoError(err)
			results <- res
		}(i)
	}
	wg.Wait()
	close(results)

	matched := map[string]int{}
	for res := range results {
		if res.Match == nil {
			continue
		}
		matched[res.Match.Player1.Username]++
		matched[res.Match.Player2.Username]++
	}

	s.Len(matched, players)
	for name, n := range matched {
		s.Equal(1, n, "player %s paired more than once", name)
	}
	s.Equal(players/2, s.store.Count())
	s.Equal(0, s.mm.Len())
}

func (s *MatchmakerTestSuite) TestLeaveRacingFallback_AtMostOneGame() {
	for i := 0; i < 20; i++ {
		s.SetupTest()

		_, err := s.mm.Join("alice", "chan-a")
		s.Require().NoError(err)

		var wg sync.WaitGroup
		wg.Add(2)
		var leaveErr error
		go func() {
			defer wg.Done()
			leaveErr = s.mm.Leave("alice")
		}()
		go func() {
			defer wg.Done()
			s.clock.Advance(DefaultFallbackDelay)
		}()
		wg.Wait()

		if leaveErr == nil {
			// leave won: the fallback must be a no-op
			s.expectNoBotMatch()
			s.Equal(0, s.store.Count())
		} else {
			s.ErrorIs(leaveErr, ErrNotQueued)
			select {
			case <-s.matches:
			case <-time.After(2 * time.Second):
				s.Fail("fallback won but produced no game")
			}
			s.Equal(1, s.store.Count())
		}
		s.mm.Close()
	}
}
