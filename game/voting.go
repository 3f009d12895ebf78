package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// SubmitVote records voterID's accusation, replacing any earlier one. The
// vote resolves as soon as every current player has voted.
func (r *Room) SubmitVote(voterID, accusedID string) (Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseVoting {
		return Update{}, fmt.Errorf("vote in %s: %w", r.phase, ErrPhaseViolation)
	}

	if r.playerLocked(voterID) == nil {
		return Update{}, fmt.Errorf("vote: %w", ErrNotInRoom)
	}

	if r.playerLocked(accusedID) == nil {
		return Update{}, ErrInvalidVote
	}

	r.dropVoteLocked(voterID)
	r.votes[voterID] = accusedID
	r.ballots = append(r.ballots, voterID)

	var notices []Notice
	if len(r.votes) == len(r.players) {
		notices = r.resolveVotingLocked()
	}

	return r.updateLocked(true, notices...), nil
}

// SubmitGuess checks the imposter's guess of the real word. A correct guess
// during drawing or voting ends the round in the imposter's favour. The
// returned bool is the correctness of the guess in every phase.
func (r *Room) SubmitGuess(callerID, guess string) (bool, Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.realWord == "" || callerID != r.imposterID || r.playerLocked(callerID) == nil {
		return false, Update{}, fmt.Errorf("guess: %w", ErrUnauthorized)
	}

	guess = strings.TrimSpace(guess)
	correct := strings.EqualFold(guess, r.realWord)

	if !correct || !r.phase.InRound() {
		return correct, r.updateLocked(false), nil
	}

	result := r.resultLocked()
	result.Outcome = OutcomeImposterGuess
	result.ImposterWon = true
	result.Guess = guess

	return true, r.updateLocked(true, r.finishRoundLocked(result)...), nil
}

func (r *Room) resolveVotingLocked() []Notice {
	result := r.resultLocked()
	result.ImposterWon = result.SuspectedID != r.imposterID
	if result.ImposterWon {
		result.Outcome = OutcomeImposterWins
	} else {
		result.Outcome = OutcomeInnocentsWin
	}

	return r.finishRoundLocked(result)
}

func (r *Room) forfeitResultLocked() RoundResult {
	result := r.resultLocked()
	result.Outcome = OutcomeForfeit
	result.ImposterWon = false
	return result
}

// resultLocked fills in the reveal fields shared by every round ending.
func (r *Room) resultLocked() RoundResult {
	suspect, entries := tally(r.ballots, r.votes)
	return RoundResult{
		Round:       r.round,
		SuspectedID: suspect,
		ImposterID:  r.imposterID,
		RealWord:    r.realWord,
		DecoyWord:   r.fakeWord,
		Tally:       entries,
	}
}

// finishRoundLocked scores the round once for every current player and moves
// the room to results.
func (r *Room) finishRoundLocked(result RoundResult) []Notice {
	r.timer.Cancel()
	r.phase = PhaseResults
	r.drawerID = ""
	r.deadline = time.Time{}

	for _, p := range r.players {
		won := (p.ID == result.ImposterID) == result.ImposterWon
		if won {
			p.Wins++
		} else {
			p.Losses++
		}
	}

	return []Notice{RoundEnded{Result: result}, CueNotice{Cue: CueVotingEnd}}
}

func (r *Room) dropVoteLocked(voterID string) {
	if _, ok := r.votes[voterID]; !ok {
		return
	}
	delete(r.votes, voterID)
	if i := slices.Index(r.ballots, voterID); i >= 0 {
		r.ballots = slices.Delete(r.ballots, i, i+1)
	}
}

// tally counts accusations in cast order. The suspect is the first accused
// whose running count reached the final maximum.
func tally(ballots []string, votes map[string]string) (string, []TallyEntry) {
	counts := make(map[string]int)
	order := make([]string, 0, len(ballots))

	suspect, best := "", 0
	for _, voter := range ballots {
		accused, ok := votes[voter]
		if !ok {
			continue
		}
		if _, seen := counts[accused]; !seen {
			order = append(order, accused)
		}
		counts[accused]++
		if counts[accused] > best {
			best = counts[accused]
			suspect = accused
		}
	}

	entries := lo.Map(order, func(id string, _ int) TallyEntry {
		return TallyEntry{AccusedID: id, Votes: counts[id]}
	})

	return suspect, entries
}
