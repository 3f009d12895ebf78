package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func votingRoom(t *testing.T, imposterIdx int, ids ...string) (*Room, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	r, _ := newTestRoom(t, clock, imposterIdx, ids...)

	_, err := r.StartGame(ids[0])
	require.NoError(t, err)
	finishDrawing(r, clock)
	require.Equal(t, PhaseVoting, r.Snapshot().Phase)

	return r, clock
}

func TestExampleRound(t *testing.T) {
	r, _ := votingRoom(t, 1, "alice", "bob", "cara")

	u, err := r.SubmitVote("alice", "bob")
	require.NoError(t, err)
	require.Empty(t, noticesOf[RoundEnded](u))

	u, err = r.SubmitVote("cara", "bob")
	require.NoError(t, err)
	require.Empty(t, noticesOf[RoundEnded](u))

	u, err = r.SubmitVote("bob", "alice")
	require.NoError(t, err)

	ended := noticesOf[RoundEnded](u)
	require.Len(t, ended, 1)
	require.Equal(t, RoundResult{
		Round:       1,
		SuspectedID: "bob",
		ImposterID:  "bob",
		RealWord:    "Tisch",
		DecoyWord:   "Rakete",
		Tally:       []TallyEntry{{AccusedID: "bob", Votes: 2}, {AccusedID: "alice", Votes: 1}},
		Outcome:     OutcomeInnocentsWin,
		ImposterWon: false,
	}, ended[0].Result)
	require.Equal(t, []CueNotice{{Cue: CueVotingEnd}}, noticesOf[CueNotice](u))

	snap := u.Snapshot
	require.Equal(t, PhaseResults, snap.Phase)
	require.Equal(t, "bob", snap.ImposterID)

	require.Equal(t, Player{ID: "alice", Name: "alice", IsHost: true, Wins: 1}, playerByID(t, snap, "alice"))
	require.Equal(t, Player{ID: "bob", Name: "bob", Losses: 1}, playerByID(t, snap, "bob"))
	require.Equal(t, Player{ID: "cara", Name: "cara", Wins: 1}, playerByID(t, snap, "cara"))
}

func TestSubmitVote(t *testing.T) {
	t.Run("rejected outside voting", func(t *testing.T) {
		clock := newFakeClock()
		r, _ := newTestRoom(t, clock, 0, "alice", "bob", "cara")

		_, err := r.SubmitVote("alice", "bob")
		require.ErrorIs(t, err, ErrPhaseViolation)

		_, err = r.StartGame("alice")
		require.NoError(t, err)

		_, err = r.SubmitVote("alice", "bob")
		require.ErrorIs(t, err, ErrPhaseViolation)
	})

	t.Run("voter and accused must be players", func(t *testing.T) {
		r, _ := votingRoom(t, 0, "alice", "bob", "cara")

		_, err := r.SubmitVote("mallory", "bob")
		require.ErrorIs(t, err, ErrNotInRoom)

		_, err = r.SubmitVote("alice", "mallory")
		require.ErrorIs(t, err, ErrInvalidVote)
	})

	t.Run("resubmitting overwrites without resolving", func(t *testing.T) {
		r, _ := votingRoom(t, 2, "alice", "bob", "cara")

		for _, accused := range []string{"bob", "cara", "bob"} {
			u, err := r.SubmitVote("alice", accused)
			require.NoError(t, err)
			require.Empty(t, noticesOf[RoundEnded](u))
		}

		_, err := r.SubmitVote("bob", "cara")
		require.NoError(t, err)
		require.Equal(t, PhaseVoting, r.Snapshot().Phase)

		u, err := r.SubmitVote("cara", "alice")
		require.NoError(t, err)

		ended := noticesOf[RoundEnded](u)
		require.Len(t, ended, 1)
		// alice's last ballot counts once, for bob
		require.Equal(t, "bob", ended[0].Result.SuspectedID)
		require.Equal(t, []TallyEntry{
			{AccusedID: "bob", Votes: 1},
			{AccusedID: "cara", Votes: 1},
			{AccusedID: "alice", Votes: 1},
		}, ended[0].Result.Tally)
	})

	t.Run("votes after resolution are rejected", func(t *testing.T) {
		r, _ := votingRoom(t, 0, "alice", "bob", "cara")
		for _, v := range [][2]string{{"alice", "bob"}, {"bob", "alice"}, {"cara", "alice"}} {
			_, err := r.SubmitVote(v[0], v[1])
			require.NoError(t, err)
		}

		_, err := r.SubmitVote("alice", "cara")
		require.ErrorIs(t, err, ErrPhaseViolation)

		snap := r.Snapshot()
		require.Equal(t, 0, playerByID(t, snap, "alice").Wins)
		require.Equal(t, 1, playerByID(t, snap, "alice").Losses)
	})
}

func TestTally(t *testing.T) {
	t.Run("tie goes to the first accused to reach the max", func(t *testing.T) {
		votes := map[string]string{"a": "x", "b": "y", "c": "y", "d": "x"}
		suspect, entries := tally([]string{"a", "b", "c", "d"}, votes)

		require.Equal(t, "y", suspect)
		require.Equal(t, []TallyEntry{{AccusedID: "x", Votes: 2}, {AccusedID: "y", Votes: 2}}, entries)
	})

	t.Run("first accused wins a one-one split", func(t *testing.T) {
		votes := map[string]string{"a": "x", "b": "y"}
		suspect, _ := tally([]string{"b", "a"}, votes)
		require.Equal(t, "y", suspect)
	})

	t.Run("no votes leaves the suspect empty", func(t *testing.T) {
		suspect, entries := tally(nil, map[string]string{})
		require.Empty(t, suspect)
		require.Empty(t, entries)
	})

	t.Run("wrong suspect lets the imposter win", func(t *testing.T) {
		r, _ := votingRoom(t, 3, "alice", "bob", "cara", "dave")

		var u Update
		for _, v := range [][2]string{{"alice", "bob"}, {"bob", "dave"}, {"cara", "bob"}, {"dave", "alice"}} {
			var err error
			u, err = r.SubmitVote(v[0], v[1])
			require.NoError(t, err)
		}

		ended := noticesOf[RoundEnded](u)
		require.Len(t, ended, 1)
		require.Equal(t, "bob", ended[0].Result.SuspectedID)
		require.True(t, ended[0].Result.ImposterWon)
		require.Equal(t, OutcomeImposterWins, ended[0].Result.Outcome)

		snap := u.Snapshot
		require.Equal(t, 1, playerByID(t, snap, "dave").Wins)
		for _, id := range []string{"alice", "bob", "cara"} {
			require.Equal(t, 1, playerByID(t, snap, id).Losses, id)
		}
	})
}

func TestSubmitGuess(t *testing.T) {
	t.Run("only the imposter may guess", func(t *testing.T) {
		clock := newFakeClock()
		r, _ := newTestRoom(t, clock, 1, "alice", "bob", "cara")

		_, _, err := r.SubmitGuess("bob", "Tisch")
		require.ErrorIs(t, err, ErrUnauthorized, "no word assigned yet")

		_, err = r.StartGame("alice")
		require.NoError(t, err)

		_, _, err = r.SubmitGuess("alice", "Tisch")
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, PhaseDrawing, r.Snapshot().Phase)
	})

	t.Run("wrong guess changes nothing", func(t *testing.T) {
		clock := newFakeClock()
		r, _ := newTestRoom(t, clock, 1, "alice", "bob", "cara")
		_, err := r.StartGame("alice")
		require.NoError(t, err)

		before := r.Snapshot()
		correct, u, err := r.SubmitGuess("bob", "Rakete")
		require.NoError(t, err)
		require.False(t, correct)
		require.False(t, u.Changed)
		require.Equal(t, before, r.Snapshot())
		require.Equal(t, 1, clock.live())
	})

	t.Run("correct guess while drawing ends the round", func(t *testing.T) {
		clock := newFakeClock()
		r, _ := newTestRoom(t, clock, 1, "alice", "bob", "cara")
		_, err := r.StartGame("alice")
		require.NoError(t, err)

		correct, u, err := r.SubmitGuess("bob", "  tISCH ")
		require.NoError(t, err)
		require.True(t, correct)
		require.Equal(t, 0, clock.live(), "turn timer is cancelled")

		ended := noticesOf[RoundEnded](u)
		require.Len(t, ended, 1)
		require.Equal(t, OutcomeImposterGuess, ended[0].Result.Outcome)
		require.Equal(t, "tISCH", ended[0].Result.Guess)
		require.True(t, ended[0].Result.ImposterWon)

		snap := u.Snapshot
		require.Equal(t, PhaseResults, snap.Phase)
		require.Equal(t, 1, playerByID(t, snap, "bob").Wins)
		require.Equal(t, 1, playerByID(t, snap, "alice").Losses)
		require.Equal(t, 1, playerByID(t, snap, "cara").Losses)
	})

	t.Run("correct guess while voting ends the round", func(t *testing.T) {
		r, _ := votingRoom(t, 2, "alice", "bob", "cara")
		_, err := r.SubmitVote("alice", "cara")
		require.NoError(t, err)

		correct, u, err := r.SubmitGuess("cara", "Tisch")
		require.NoError(t, err)
		require.True(t, correct)
		require.Equal(t, PhaseResults, u.Snapshot.Phase)
		require.Equal(t, []TallyEntry{{AccusedID: "cara", Votes: 1}}, noticesOf[RoundEnded](u)[0].Result.Tally)
	})

	t.Run("guess after results is answered but not scored", func(t *testing.T) {
		r, _ := votingRoom(t, 1, "alice", "bob", "cara")
		correct, _, err := r.SubmitGuess("bob", "Tisch")
		require.NoError(t, err)
		require.True(t, correct)

		correct, u, err := r.SubmitGuess("bob", "Tisch")
		require.NoError(t, err)
		require.True(t, correct)
		require.False(t, u.Changed)
		require.Empty(t, u.Notices)
		require.Equal(t, 1, playerByID(t, r.Snapshot(), "bob").Wins)
	})
}

func TestRecordsAcrossRounds(t *testing.T) {
	clock := newFakeClock()
	r, _ := newTestRoom(t, clock, 0, "alice", "bob", "cara")

	playRound := func(voters []string) {
		_, err := r.StartGame("alice")
		require.NoError(t, err)
		finishDrawing(r, clock)
		for _, v := range voters {
			_, err := r.SubmitVote(v, "bob")
			require.NoError(t, err)
		}
		require.Equal(t, PhaseResults, r.Snapshot().Phase)
	}

	playRound([]string{"alice", "bob", "cara"})

	_, err := r.AddPlayer("dave", "dave")
	require.NoError(t, err)

	playRound([]string{"alice", "bob", "cara", "dave"})
	playRound([]string{"alice", "bob", "cara", "dave"})

	snap := r.Snapshot()
	require.Equal(t, 3, snap.Round)
	for id, rounds := range map[string]int{"alice": 3, "bob": 3, "cara": 3, "dave": 2} {
		p := playerByID(t, snap, id)
		require.Equal(t, rounds, p.Wins+p.Losses, id)
	}
}
