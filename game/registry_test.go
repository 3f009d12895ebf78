package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sequenceCodes(codes ...string) CodeGenerator {
	return func() string {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}
}

func newTestRegistry(clock *fakeClock, codes ...string) *Registry {
	return NewRegistry(
		WithCodeGenerator(sequenceCodes(codes...)),
		WithRoomOptions(
			WithClock(clock),
			WithWords(fixedWords{word: "Tisch", decoy: "Rakete"}),
			WithPicker(pickIndex(0)),
		),
	)
}

func TestRegistryCreateAndJoin(t *testing.T) {
	reg := newTestRegistry(newFakeClock(), "abc123")

	created, err := reg.CreateRoom("alice", "  Alice ")
	require.NoError(t, err)
	require.Equal(t, "ABC123", created.Code)
	require.Equal(t, "alice", created.PlayerID)
	require.Nil(t, created.Left)
	require.Equal(t, "alice", created.Update.Snapshot.HostID)
	require.Equal(t, "Alice", created.Update.Snapshot.Players[0].Name)

	joined, err := reg.JoinRoom(" abc123", "bob", "Bob")
	require.NoError(t, err)
	require.Same(t, created.Room, joined.Room)
	require.Len(t, joined.Update.Snapshot.Players, 2)

	room, ok := reg.Resolve("bob")
	require.True(t, ok)
	require.Same(t, created.Room, room)

	room, ok = reg.Lookup("ABC123")
	require.True(t, ok)
	require.Same(t, created.Room, room)

	_, err = reg.JoinRoom("ZZZZZZ", "cara", "Cara")
	require.ErrorIs(t, err, ErrRoomNotFound)
	_, ok = reg.Resolve("cara")
	require.False(t, ok)
}

func TestRegistryGeneratesIdentity(t *testing.T) {
	reg := newTestRegistry(newFakeClock(), "ROOM01")

	m, err := reg.CreateRoom("", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, m.PlayerID)
	require.True(t, m.Room.HasPlayer(m.PlayerID))
}

func TestRegistryRejectsBadNames(t *testing.T) {
	reg := newTestRegistry(newFakeClock(), "ROOM01")

	_, err := reg.CreateRoom("alice", "a\x07b")
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, 0, reg.Len())
}

func TestRegistryCodeCollision(t *testing.T) {
	reg := newTestRegistry(newFakeClock(), "AAAAAA", "AAAAAA", "BBBBBB")

	first, err := reg.CreateRoom("alice", "Alice")
	require.NoError(t, err)
	second, err := reg.CreateRoom("bob", "Bob")
	require.NoError(t, err)

	require.Equal(t, "AAAAAA", first.Code)
	require.Equal(t, "BBBBBB", second.Code)
	require.Equal(t, 2, reg.Len())

	stuck := newTestRegistry(newFakeClock(), "AAAAAA")
	_, err = stuck.CreateRoom("alice", "Alice")
	require.NoError(t, err)
	_, err = stuck.CreateRoom("bob", "Bob")
	require.Error(t, err)
}

func TestRegistryRemoveDestroysEmptyRoom(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, "ROOM01")

	m, err := reg.CreateRoom("alice", "Alice")
	require.NoError(t, err)
	for _, id := range []string{"bob", "cara"} {
		_, err := reg.JoinRoom(m.Code, id, id)
		require.NoError(t, err)
	}

	_, err = m.Room.StartGame("alice")
	require.NoError(t, err)
	require.Equal(t, 1, clock.live())

	u, ok := reg.RemovePlayer("bob")
	require.True(t, ok)
	require.False(t, u.Closed)

	_, ok = reg.RemovePlayer("bob")
	require.False(t, ok)

	_, ok = reg.RemovePlayer("cara")
	require.True(t, ok)
	u, ok = reg.RemovePlayer("alice")
	require.True(t, ok)
	require.True(t, u.Closed)

	require.Equal(t, 0, reg.Len())
	require.True(t, m.Room.Closed())
	require.Equal(t, 0, clock.live())

	_, err = reg.JoinRoom(m.Code, "dave", "Dave")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryJoinLeavesPreviousRoom(t *testing.T) {
	reg := newTestRegistry(newFakeClock(), "ROOM01", "ROOM02", "ROOM03")

	first, err := reg.CreateRoom("alice", "Alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom(first.Code, "bob", "Bob")
	require.NoError(t, err)

	second, err := reg.CreateRoom("cara", "Cara")
	require.NoError(t, err)

	moved, err := reg.JoinRoom(second.Code, "bob", "Bob")
	require.NoError(t, err)
	require.NotNil(t, moved.Left)
	require.Equal(t, first.Code, moved.Left.Code)
	require.False(t, first.Room.HasPlayer("bob"))
	require.True(t, second.Room.HasPlayer("bob"))

	// joining the same room again is a no-op
	again, err := reg.JoinRoom(second.Code, "bob", "Bob")
	require.NoError(t, err)
	require.Nil(t, again.Left)
	require.False(t, again.Update.Changed)
	require.Equal(t, 2, second.Room.Len())

	// the host leaving an emptied room closes it
	rehost, err := reg.CreateRoom("alice", "Alice")
	require.NoError(t, err)
	require.NotNil(t, rehost.Left)
	require.True(t, rehost.Left.Closed)
	require.True(t, first.Room.Closed())
	_, ok := reg.Lookup(first.Code)
	require.False(t, ok)
}
