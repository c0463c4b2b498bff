package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmentor/relay/internal/domain"
)

func newTestParticipant(roomCode string, userID int64) *Participant {
	return NewParticipant(roomCode, Identity{
		UserID:   userID,
		Username: "user",
		Role:     domain.RoleParticipant,
	}, &fakeConn{}, 16)
}

func TestRegistryJoinCreatesRoom(t *testing.T) {
	reg := NewRegistry()

	p := newTestParticipant("room-1", 1)
	count, err := reg.Join(p)
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, 1, reg.Rooms())
	assert.Equal(t, 1, reg.Participants())
}

func TestRegistryEvictsOnLastLeave(t *testing.T) {
	reg := NewRegistry()

	a := newTestParticipant("room-1", 1)
	b := newTestParticipant("room-1", 2)
	_, err := reg.Join(a)
	require.NoError(t, err)
	_, err = reg.Join(b)
	require.NoError(t, err)

	remaining, removed := reg.Leave(a)
	assert.True(t, removed)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, 1, reg.Rooms())

	remaining, removed = reg.Leave(b)
	assert.True(t, removed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 0, reg.Rooms(), "empty room must be evicted")
}

func TestRegistryLeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry()

	p := newTestParticipant("room-1", 1)
	_, err := reg.Join(p)
	require.NoError(t, err)

	_, removed := reg.Leave(p)
	assert.True(t, removed)

	_, removed = reg.Leave(p)
	assert.False(t, removed, "second leave must be a no-op")
}

func TestRegistryBroadcastExcludesSender(t *testing.T) {
	reg := NewRegistry()

	a := newTestParticipant("room-1", 1)
	b := newTestParticipant("room-1", 2)
	c := newTestParticipant("room-1", 3)
	for _, p := range []*Participant{a, b, c} {
		_, err := reg.Join(p)
		require.NoError(t, err)
	}

	delivered := reg.Broadcast("room-1", []byte("hello"), a.ID)
	assert.Equal(t, 2, delivered)

	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
	assert.Len(t, drain(c), 1)
}

func TestRegistryBroadcastEmptyExcludeReachesEveryone(t *testing.T) {
	reg := NewRegistry()

	a := newTestParticipant("room-1", 1)
	b := newTestParticipant("room-1", 2)
	for _, p := range []*Participant{a, b} {
		_, err := reg.Join(p)
		require.NoError(t, err)
	}

	delivered := reg.Broadcast("room-1", []byte("hello"), "")
	assert.Equal(t, 2, delivered)
}

func TestRegistrySendToTargetsAllUserConnections(t *testing.T) {
	reg := NewRegistry()

	// Same user, two tabs.
	tab1 := newTestParticipant("room-1", 7)
	tab2 := newTestParticipant("room-1", 7)
	other := newTestParticipant("room-1", 8)
	for _, p := range []*Participant{tab1, tab2, other} {
		_, err := reg.Join(p)
		require.NoError(t, err)
	}

	assert.True(t, reg.SendTo("room-1", 7, []byte("direct")))
	assert.Len(t, drain(tab1), 1)
	assert.Len(t, drain(tab2), 1)
	assert.Empty(t, drain(other))

	assert.False(t, reg.SendTo("room-1", 99, []byte("direct")))
}

func TestRegistryMarkEndingRefusesJoins(t *testing.T) {
	reg := NewRegistry()

	p := newTestParticipant("room-1", 1)
	_, err := reg.Join(p)
	require.NoError(t, err)

	present := reg.MarkEnding("room-1")
	assert.Len(t, present, 1)

	late := newTestParticipant("room-1", 2)
	_, err = reg.Join(late)
	assert.ErrorIs(t, err, ErrRoomEnding)
}

func TestRegistryEvictReturnsRemaining(t *testing.T) {
	reg := NewRegistry()

	a := newTestParticipant("room-1", 1)
	b := newTestParticipant("room-1", 2)
	for _, p := range []*Participant{a, b} {
		_, err := reg.Join(p)
		require.NoError(t, err)
	}

	// One leaves on their own before the evict.
	_, removed := reg.Leave(a)
	require.True(t, removed)

	evicted := reg.Evict("room-1")
	require.Len(t, evicted, 1)
	assert.Equal(t, b.ID, evicted[0].ID)

	assert.Equal(t, 0, reg.Rooms())
	assert.Nil(t, reg.Evict("room-1"))
}

func TestRegistrySnapshot(t *testing.T) {
	reg := NewRegistry()

	assert.Nil(t, reg.Snapshot("missing"))

	a := newTestParticipant("room-1", 1)
	_, err := reg.Join(a)
	require.NoError(t, err)

	snapshot := reg.Snapshot("room-1")
	require.Len(t, snapshot, 1)
	assert.Equal(t, int64(1), snapshot[0].UserID)
}

func TestRegistryConcurrentJoinLeave(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()

			p := newTestParticipant("room-1", n)
			if _, err := reg.Join(p); err != nil {
				return
			}
			reg.Broadcast("room-1", []byte("x"), p.ID)
			reg.Leave(p)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 0, reg.Rooms())
	assert.Equal(t, 0, reg.Participants())
}

func TestParticipantSlowConsumerIsDropped(t *testing.T) {
	p := NewParticipant("room-1", Identity{UserID: 1}, &fakeConn{}, 2)

	assert.True(t, p.enqueue([]byte("a")))
	assert.True(t, p.enqueue([]byte("b")))

	// Buffer full: the participant is shut down instead of blocking.
	assert.False(t, p.enqueue([]byte("c")))

	select {
	case <-p.Done():
	default:
		t.Fatal("participant should be shut down after overflow")
	}

	assert.False(t, p.enqueue([]byte("d")), "enqueue after shutdown must fail")
}
