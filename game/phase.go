package game

type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseDrawing Phase = "drawing"
	PhaseVoting  Phase = "voting"
	PhaseResults Phase = "results"
)

func (p Phase) String() string {
	return string(p)
}

// Resting reports whether a new round may be started from p.
func (p Phase) Resting() bool {
	return p == PhaseLobby || p == PhaseResults
}

// InRound reports whether p belongs to a round that has not been settled yet.
func (p Phase) InRound() bool {
	return p == PhaseDrawing || p == PhaseVoting
}
