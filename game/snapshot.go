package game

import (
	"sort"

	"github.com/samber/lo"
)

type LeaderboardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Snapshot is the externally visible projection of a room. The imposter is
// only filled in once the round is in the results phase. Version grows with
// every rebroadcast state change of the room; a client holding a higher version discards
// the snapshot.
type Snapshot struct {
	Code        string             `json:"code"`
	Version     uint64             `json:"version"`
	Phase       Phase              `json:"phase"`
	Players     []Player           `json:"players"`
	Round       int                `json:"round"`
	TurnIndex   int                `json:"turnIndex"`
	HostID      string             `json:"hostId"`
	ImposterID  string             `json:"imposterId,omitempty"`
	DrawerID    string             `json:"drawerId,omitempty"`
	Strokes     []Stroke           `json:"strokes"`
	Chat        []ChatMessage      `json:"chat"`
	Deadline    *int64             `json:"deadline"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// PlayerIDs lists the ids of every player in the snapshot in turn order.
func (s Snapshot) PlayerIDs() []string {
	return lo.Map(s.Players, func(p Player, _ int) string {
		return p.ID
	})
}

func (r *Room) snapshotLocked() Snapshot {
	snap := Snapshot{
		Code:      r.code,
		Version:   r.version,
		Phase:     r.phase,
		Round:     r.round,
		TurnIndex: r.turnIndex,
		DrawerID:  r.drawerID,
		Players: lo.Map(r.players, func(p *Player, _ int) Player {
			return *p
		}),
		Strokes: append([]Stroke{}, r.strokes...),
		Chat:    append([]ChatMessage{}, r.chat...),
	}

	if host, ok := lo.Find(r.players, func(p *Player) bool { return p.IsHost }); ok {
		snap.HostID = host.ID
	}

	if r.phase == PhaseResults {
		snap.ImposterID = r.imposterID
	}

	if !r.deadline.IsZero() {
		ms := r.deadline.UnixMilli()
		snap.Deadline = &ms
	}

	snap.Leaderboard = leaderboard(snap.Players)

	return snap
}

func leaderboard(players []Player) []LeaderboardEntry {
	entries := lo.Map(players, func(p Player, _ int) LeaderboardEntry {
		return LeaderboardEntry{ID: p.ID, Name: p.Name, Wins: p.Wins, Losses: p.Losses}
	})

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.Name < b.Name
	})

	return entries
}
