package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/duelist-dev/duelcore/pkg/battle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom() *battle.Room {
	room := &battle.Room{
		ID:        "room-1",
		Slug:      "arena",
		Phase:     battle.PhaseInProgress,
		TurnOwner: "alice",
		TurnCount: 4,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	room.Players[0] = battle.NewPlayerSlot("alice", "Alice", "conn-a", true)
	room.Players[1] = battle.NewPlayerSlot("bob", "Bob", "conn-b", false)
	room.Players[0].Status.Active = &battle.CardInstance{ID: "front", Name: "Front", HP: 40, Attack: 20}
	room.Players[0].Status.Hand = []*battle.CardInstance{{ID: "held", Name: "Held", HP: 30}}
	room.Players[0].Status.HandCount = 1
	room.Players[0].Status.Energy = 2
	return room
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	room := testRoom()

	_, err := store.Get(ctx, "room-1")
	assert.True(t, IsNotFound(err))
	_, err = store.GetBySlug(ctx, "arena")
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.Save(ctx, room))

	got, err := store.Get(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "arena", got.Slug)
	assert.Equal(t, "alice", got.TurnOwner)

	bySlug, err := store.GetBySlug(ctx, "arena")
	require.NoError(t, err)
	assert.Equal(t, "room-1", bySlug.ID)

	require.NoError(t, store.Delete(ctx, "room-1"))
	_, err = store.Get(ctx, "room-1")
	assert.True(t, IsNotFound(err))
	_, err = store.GetBySlug(ctx, "arena")
	assert.True(t, IsNotFound(err))
}

func TestInMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	room := testRoom()
	require.NoError(t, store.Save(ctx, room))

	// mutating the saved room must not affect the stored copy
	room.Players[0].Status.Active.HP = 1
	got, err := store.Get(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 40, got.Players[0].Status.Active.HP)

	// mutating a loaded room must not affect later loads
	got.Players[0].Status.Energy = 99
	again, err := store.Get(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Players[0].Status.Energy)
}

func TestRoomCodecRoundTrip(t *testing.T) {
	room := testRoom()

	data, err := encodeRoom(room)
	require.NoError(t, err)

	decoded, err := decodeRoom(data)
	require.NoError(t, err)

	assert.Equal(t, room.ID, decoded.ID)
	assert.Equal(t, room.Slug, decoded.Slug)
	assert.Equal(t, room.Phase, decoded.Phase)
	assert.Equal(t, room.TurnOwner, decoded.TurnOwner)
	assert.Equal(t, room.TurnCount, decoded.TurnCount)
	require.NotNil(t, decoded.Players[0])
	assert.Equal(t, "alice", decoded.Players[0].UserID)
	require.NotNil(t, decoded.Players[0].Status.Active)
	assert.Equal(t, 40, decoded.Players[0].Status.Active.HP)
	require.Len(t, decoded.Players[0].Status.Hand, 1)
	assert.Equal(t, "held", decoded.Players[0].Status.Hand[0].ID)
}

func TestDecodeRoomGarbage(t *testing.T) {
	_, err := decodeRoom([]byte("not a zstd frame"))
	assert.Error(t, err)
}
