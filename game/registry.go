package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const maxCodeAttempts = 64

type RegistryOption func(*Registry)

// WithCodeGenerator replaces RandomCode.
func WithCodeGenerator(gen CodeGenerator) RegistryOption {
	return func(reg *Registry) {
		reg.codes = gen
	}
}

// WithRoomOptions applies opts to every room the registry creates.
func WithRoomOptions(opts ...RoomOption) RegistryOption {
	return func(reg *Registry) {
		reg.roomOpts = append(reg.roomOpts, opts...)
	}
}

// Registry owns every live room and the participant to room mapping.
// The registry lock is always taken before a room lock, never after.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	members  map[string]string // participant id -> room code
	codes    CodeGenerator
	roomOpts []RoomOption
}

func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		rooms:   make(map[string]*Room),
		members: make(map[string]string),
		codes:   RandomCode,
	}

	for _, opt := range opts {
		opt(reg)
	}

	return reg
}

// Membership is the result of a create or join.
type Membership struct {
	Code     string
	PlayerID string
	Room     *Room
	Update   Update
	// Left is the update of the room the participant was in before, if any.
	Left *Update
}

// CreateRoom makes a new room hosted by identity. An empty identity gets a
// fresh one.
func (reg *Registry) CreateRoom(identity, hostName string) (Membership, error) {
	name, err := NormalizeName(hostName)
	if err != nil {
		return Membership{}, err
	}

	if identity == "" {
		identity = uuid.NewString()
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.freshCodeLocked()
	if err != nil {
		return Membership{}, err
	}

	left := reg.leaveLocked(identity)

	room := NewRoom(code, identity, name, reg.roomOpts...)
	reg.rooms[code] = room
	reg.members[identity] = code

	return Membership{
		Code:     code,
		PlayerID: identity,
		Room:     room,
		Update:   Update{Code: code, Snapshot: room.Snapshot(), Changed: true},
		Left:     left,
	}, nil
}

// JoinRoom adds identity to the room with the given code.
func (reg *Registry) JoinRoom(code, identity, name string) (Membership, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Membership{}, err
	}

	if identity == "" {
		identity = uuid.NewString()
	}

	code = NormalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return Membership{}, fmt.Errorf("join %q: %w", code, ErrRoomNotFound)
	}

	var left *Update
	if reg.members[identity] != code {
		left = reg.leaveLocked(identity)
	}

	u, err := room.AddPlayer(identity, name)
	if err != nil {
		return Membership{}, fmt.Errorf("join %q: %w", code, err)
	}
	reg.members[identity] = code

	return Membership{
		Code:     code,
		PlayerID: identity,
		Room:     room,
		Update:   u,
		Left:     left,
	}, nil
}

// Resolve finds the room identity currently belongs to.
func (reg *Registry) Resolve(identity string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	code, ok := reg.members[identity]
	if !ok {
		return nil, false
	}

	room, ok := reg.rooms[code]
	return room, ok
}

// Lookup finds a room by its (case-insensitive) code.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[NormalizeCode(code)]
	return room, ok
}

// RemovePlayer takes identity out of its room. An emptied room is closed and
// forgotten.
func (reg *Registry) RemovePlayer(identity string) (Update, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	u := reg.leaveLocked(identity)
	if u == nil {
		return Update{}, false
	}
	return *u, true
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

func (reg *Registry) leaveLocked(identity string) *Update {
	code, ok := reg.members[identity]
	if !ok {
		return nil
	}
	delete(reg.members, identity)

	room, ok := reg.rooms[code]
	if !ok {
		return nil
	}

	u, removed := room.RemovePlayer(identity)
	if !removed {
		return nil
	}

	if u.Closed {
		room.Close()
		delete(reg.rooms, code)
	}

	return &u
}

func (reg *Registry) freshCodeLocked() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := NormalizeCode(reg.codes())
		if _, taken := reg.rooms[code]; !taken && code != "" {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}
