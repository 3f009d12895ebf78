package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

const (
	TurnDuration = 20 * time.Second
	MinPlayers   = 3
)

type RoomOption func(*Room)

// WithClock drives deadlines and the turn timer from c.
func WithClock(c Clock) RoomOption {
	return func(r *Room) {
		r.clock = c
	}
}

func WithWords(ws WordSource) RoomOption {
	return func(r *Room) {
		r.words = ws
	}
}

// WithPicker replaces the random source used to choose the imposter.
func WithPicker(intn func(n int) int) RoomOption {
	return func(r *Room) {
		r.intn = intn
	}
}

func WithTurnDuration(d time.Duration) RoomOption {
	return func(r *Room) {
		r.turnDuration = d
	}
}

// WithUpdateHandler registers fn to receive updates produced by the turn
// timer. fn is called without the room lock held.
func WithUpdateHandler(fn func(Update)) RoomOption {
	return func(r *Room) {
		r.onUpdate = fn
	}
}

// Room is the state machine of one game session. Every exported method is
// atomic with respect to every other method and to the turn timer.
type Room struct {
	mu sync.Mutex

	code    string
	players []*Player
	phase   Phase
	round   int

	turnIndex int
	drawerID  string
	deadline  time.Time

	// turnSeq identifies the armed drawing turn. It changes on every
	// advance, so an expiry armed for an earlier turn never matches.
	turnSeq uint64

	// version counts state changes visible in snapshots.
	version uint64

	imposterID string
	realWord   string
	fakeWord   string

	strokes []Stroke
	chat    []ChatMessage

	votes   map[string]string
	ballots []string // voter ids in cast order

	closed bool

	timer        *TurnTimer
	clock        Clock
	words        WordSource
	intn         func(n int) int
	turnDuration time.Duration
	onUpdate     func(Update)
}

func NewRoom(code, hostID, hostName string, opts ...RoomOption) *Room {
	r := &Room{
		code:         code,
		phase:        PhaseLobby,
		votes:        make(map[string]string),
		clock:        SystemClock(),
		intn:         rand.Intn,
		turnDuration: TurnDuration,
		version:      1,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.words == nil {
		r.words = DefaultWordList()
	}

	r.timer = NewTurnTimer(r.clock)
	r.players = append(r.players, newPlayer(hostID, hostName, true))

	return r
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) HasPlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerLocked(id) != nil
}

// Closed reports whether the room has been destroyed.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close cancels the turn timer. A timer that is already firing observes the
// closed flag and does nothing.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.timer.Cancel()
	r.deadline = time.Time{}
}

// WordFor returns the word view of id while a round is in progress.
func (r *Room) WordFor(id string) (WordAssigned, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.phase.InRound() || r.playerLocked(id) == nil {
		return WordAssigned{}, false
	}

	if id == r.imposterID {
		return WordAssigned{PlayerID: id, Word: r.fakeWord, IsImposter: true}, true
	}
	return WordAssigned{PlayerID: id, Word: r.realWord}, true
}

// AddPlayer appends a non-host player. A player joining a round in progress
// is dealt the real word.
func (r *Room) AddPlayer(id, name string) (Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Update{}, ErrRoomNotFound
	}

	if r.playerLocked(id) != nil {
		return r.updateLocked(false), nil
	}

	r.players = append(r.players, newPlayer(id, name, len(r.players) == 0))

	var notices []Notice
	if r.phase.InRound() && r.realWord != "" {
		notices = append(notices, WordAssigned{PlayerID: id, Word: r.realWord})
	}

	return r.updateLocked(true, notices...), nil
}

// StartGame begins a new round. Only the host may call it, only from the
// lobby or results phase and only with at least MinPlayers players.
func (r *Room) StartGame(callerID string) (Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	caller := r.playerLocked(callerID)
	if caller == nil || !caller.IsHost {
		return Update{}, fmt.Errorf("start game: %w", ErrUnauthorized)
	}

	if !r.phase.Resting() {
		return Update{}, fmt.Errorf("start game in %s: %w", r.phase, ErrPhaseViolation)
	}

	if len(r.players) < MinPlayers {
		return Update{}, fmt.Errorf("start game with %d players: %w", len(r.players), ErrInsufficientPlayers)
	}

	word, decoy, err := drawPair(r.words)
	if err != nil {
		return Update{}, fmt.Errorf("start game: %w", err)
	}

	imposter := r.players[r.intn(len(r.players))]

	r.imposterID = imposter.ID
	r.realWord = word
	r.fakeWord = decoy
	r.turnIndex = 0
	r.votes = make(map[string]string)
	r.ballots = nil
	r.round++

	notices := []Notice{CueNotice{Cue: CueRoundStart}}
	for _, p := range r.players {
		view := WordAssigned{PlayerID: p.ID, Word: r.realWord}
		if p.ID == r.imposterID {
			view.Word = r.fakeWord
			view.IsImposter = true
		}
		notices = append(notices, view)
	}

	notices = append(notices, r.advanceTurnLocked()...)

	return r.updateLocked(true, notices...), nil
}

const maxPairAttempts = 16

// drawPair asks ws for a pair and re-rolls the decoy while it matches the
// real word.
func drawPair(ws WordSource) (string, string, error) {
	word, decoy := ws.Pair()
	for i := 0; strings.EqualFold(word, decoy); i++ {
		if i == maxPairAttempts {
			return "", "", ErrNoWordPair
		}
		_, decoy = ws.Pair()
	}
	return word, decoy, nil
}

// advanceTurnLocked starts the turn at turnIndex, or enters voting once
// every player has drawn.
func (r *Room) advanceTurnLocked() []Notice {
	if r.turnIndex >= len(r.players) {
		r.phase = PhaseVoting
		r.drawerID = ""
		r.deadline = time.Time{}
		r.timer.Cancel()
		return []Notice{VotingStarted{}}
	}

	r.phase = PhaseDrawing
	r.drawerID = r.players[r.turnIndex].ID
	r.strokes = nil
	r.deadline = r.clock.Now().Add(r.turnDuration)

	r.turnSeq++
	seq := r.turnSeq
	r.timer.Arm(r.turnDuration, func() {
		r.expireTurn(seq)
	})

	return []Notice{TurnStarted{
		DrawerID:  r.drawerID,
		TurnIndex: r.turnIndex,
		Deadline:  r.deadline,
	}}
}

// expireTurn is the turn timer callback. It only acts when the room is still
// in the exact turn the timer was armed for. A drawer seated before the
// current one leaving shifts turnIndex but keeps the turn.
func (r *Room) expireTurn(seq uint64) {
	r.mu.Lock()

	if r.closed || r.phase != PhaseDrawing || r.turnSeq != seq {
		r.mu.Unlock()
		return
	}

	r.turnIndex++
	u := r.updateLocked(true, r.advanceTurnLocked()...)
	handler := r.onUpdate
	r.mu.Unlock()

	if handler != nil {
		handler(u)
	}
}

// RecordStroke appends a segment drawn by the current drawer.
func (r *Room) RecordStroke(authorID string, s Stroke) (Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseDrawing {
		return Update{}, fmt.Errorf("stroke in %s: %w", r.phase, ErrPhaseViolation)
	}

	if authorID != r.drawerID {
		return Update{}, fmt.Errorf("stroke by non-drawer: %w", ErrUnauthorized)
	}

	if len(r.strokes) >= MaxStrokesPerTurn {
		return Update{}, fmt.Errorf("stroke log full: %w", ErrPhaseViolation)
	}

	r.strokes = append(r.strokes, s)

	return r.updateLocked(false, StrokeDrawn{AuthorID: authorID, Stroke: s}), nil
}

// PostChat appends a chat message from any current player.
func (r *Room) PostChat(authorID, text string) (Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	author := r.playerLocked(authorID)
	if author == nil {
		return Update{}, fmt.Errorf("chat: %w", ErrNotInRoom)
	}

	msg, ok := newChatMessage(author, text, r.clock.Now())
	if !ok {
		return r.updateLocked(false), nil
	}

	r.chat = append(r.chat, msg)
	if len(r.chat) > ChatHistoryLimit {
		r.chat = slices.Clone(r.chat[len(r.chat)-ChatHistoryLimit:])
	}

	return r.updateLocked(false, ChatPosted{Message: msg}), nil
}

// RemovePlayer drops id from the room. The host flag moves to the first
// remaining player. The caller destroys the room once it is empty.
func (r *Room) RemovePlayer(id string) (Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removePlayerLocked(id)
}

func (r *Room) removePlayerLocked(id string) (Update, bool) {
	idx := slices.IndexFunc(r.players, func(p *Player) bool { return p.ID == id })
	if idx < 0 {
		return Update{}, false
	}

	wasHost := r.players[idx].IsHost
	r.players = slices.Delete(r.players, idx, idx+1)
	r.dropVoteLocked(id)

	if len(r.players) == 0 {
		r.timer.Cancel()
		r.deadline = time.Time{}
		return r.updateLocked(true), true
	}

	if wasHost {
		r.players[0].IsHost = true
	}

	var notices []Notice

	switch {
	case r.phase.InRound() && id == r.imposterID:
		notices = r.finishRoundLocked(r.forfeitResultLocked())
	case r.phase == PhaseDrawing:
		if idx < r.turnIndex {
			r.turnIndex--
		} else if idx == r.turnIndex {
			notices = r.advanceTurnLocked()
		}
	case r.phase == PhaseVoting:
		if len(r.votes) == len(r.players) {
			notices = r.resolveVotingLocked()
		}
	}

	return r.updateLocked(true, notices...), true
}

func (r *Room) playerLocked(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// updateLocked packages notices for publishing. The snapshot is only taken
// when the room state visible to clients changed.
func (r *Room) updateLocked(changed bool, notices ...Notice) Update {
	u := Update{
		Code:    r.code,
		Notices: notices,
		Changed: changed,
		Closed:  len(r.players) == 0,
	}
	if changed {
		r.version++
		u.Snapshot = r.snapshotLocked()
	}
	return u
}
