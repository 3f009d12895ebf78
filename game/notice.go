package game

import "time"

// Notice is one outbound consequence of a room mutation. The set of
// implementations is closed; consumers switch on the concrete type.
type Notice interface {
	notice()
}

type Cue string

const (
	CueRoundStart Cue = "round_start"
	CueVotingEnd  Cue = "voting_end"
)

type Outcome string

const (
	OutcomeImposterWins  Outcome = "imposter_wins"
	OutcomeInnocentsWin  Outcome = "innocents_win"
	OutcomeImposterGuess Outcome = "guessed"
	OutcomeForfeit       Outcome = "forfeit"
)

// CueNotice drives a cosmetic client effect and carries no state.
type CueNotice struct {
	Cue Cue
}

// WordAssigned must only reach PlayerID.
type WordAssigned struct {
	PlayerID   string
	Word       string
	IsImposter bool
}

type TurnStarted struct {
	DrawerID  string
	TurnIndex int
	Deadline  time.Time
}

type VotingStarted struct{}

type StrokeDrawn struct {
	AuthorID string
	Stroke   Stroke
}

type ChatPosted struct {
	Message ChatMessage
}

type TallyEntry struct {
	AccusedID string `json:"accusedId"`
	Votes     int    `json:"votes"`
}

type RoundResult struct {
	Round       int          `json:"round"`
	SuspectedID string       `json:"suspectedId,omitempty"`
	ImposterID  string       `json:"imposterId"`
	RealWord    string       `json:"realWord"`
	DecoyWord   string       `json:"decoyWord"`
	Tally       []TallyEntry `json:"tally"`
	Outcome     Outcome      `json:"outcome"`
	ImposterWon bool         `json:"imposterWon"`
	Guess       string       `json:"guess,omitempty"`
}

type RoundEnded struct {
	Result RoundResult
}

func (CueNotice) notice()     {}
func (WordAssigned) notice()  {}
func (TurnStarted) notice()   {}
func (VotingStarted) notice() {}
func (StrokeDrawn) notice()   {}
func (ChatPosted) notice()    {}
func (RoundEnded) notice()    {}

// Update is the atomic outcome of one room mutation, captured under the room
// lock and published after it is released.
type Update struct {
	Code string
	// Snapshot is only populated when Changed is set.
	Snapshot Snapshot
	Notices  []Notice
	// Changed is false when the mutation only produced deltas (stroke, chat)
	// and the snapshot does not need to be rebroadcast.
	Changed bool
	// Closed is set when the room was destroyed by this mutation.
	Closed bool
}
