package battle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectionRoom(phase Phase) *Room {
	room := &Room{ID: "room-1", Slug: "arena", Phase: phase, TurnOwner: "alice"}
	alice := NewPlayerSlot("alice", "Alice", "conn-a", true)
	bob := NewPlayerSlot("bob", "Bob", "conn-b", false)
	alice.Status.Active = &CardInstance{ID: "front", Name: "Front", HP: 40, Attack: 20}
	alice.Status.Bench = []*CardInstance{{ID: "backup", Name: "Backup", HP: 30}}
	alice.Status.Hand = []*CardInstance{{ID: "secret-hand", Name: "Secret Hand"}}
	alice.Status.HandCount = 1
	alice.Status.Deck = []*CardInstance{{ID: "secret-deck", Name: "Secret Deck"}}

	bob.Status.Active = &CardInstance{ID: "bob-front", Name: "Bob Front", HP: 40, Attack: 20}
	bob.Status.Bench = []*CardInstance{{ID: "bob-backup", Name: "Bob Backup", HP: 30}}
	bob.Status.Hand = []*CardInstance{{ID: "bob-secret-hand", Name: "Bob Secret Hand"}}
	bob.Status.HandCount = 1
	bob.Status.Deck = []*CardInstance{{ID: "bob-secret-deck", Name: "Bob Secret Deck"}, {ID: "bob-secret-deck-2", Name: "Bob Secret Deck 2"}}
	room.Players = [2]*PlayerSlot{alice, bob}
	return room
}

func TestProject_OwnSide(t *testing.T) {
	room := projectionRoom(PhaseInProgress)

	view := Project(room, "alice")
	require.NotNil(t, view.You)
	assert.Equal(t, "player1", room.SlotName("alice"))
	assert.Equal(t, "alice", view.You.Info.ID)

	require.Len(t, view.You.Status.HandCards, 1)
	assert.Equal(t, "secret-hand", view.You.Status.HandCards[0].ID)
	assert.Equal(t, 1, view.You.Status.DeckCount)

	card, ok := view.You.Status.BattleCard.(*CardView)
	require.True(t, ok)
	assert.Equal(t, "front", card.ID)
}

func TestProject_OpponentHandIsCountOnly(t *testing.T) {
	room := projectionRoom(PhaseInProgress)

	view := Project(room, "alice")
	require.NotNil(t, view.Opponent)
	assert.Nil(t, view.Opponent.Status.HandCards)
	assert.Equal(t, 1, view.Opponent.Status.HandCount)
	assert.Equal(t, 2, view.Opponent.Status.DeckCount)

	// in progress the opponent board is visible
	card, ok := view.Opponent.Status.BattleCard.(*CardView)
	require.True(t, ok)
	assert.Equal(t, "bob-front", card.ID)
}

func TestProject_SetupHidesOpponentBoard(t *testing.T) {
	room := projectionRoom(PhaseSetup)

	view := Project(room, "alice")
	marker, ok := view.Opponent.Status.BattleCard.(PlacedMarker)
	require.True(t, ok)
	assert.Equal(t, "placed", marker.Placeholder)

	require.Len(t, view.Opponent.Status.BenchCards, 1)
	_, ok = view.Opponent.Status.BenchCards[0].(PlacedMarker)
	assert.True(t, ok)
}

func TestProject_NeverLeaksHiddenCards(t *testing.T) {
	for _, phase := range []Phase{PhaseSetup, PhaseInProgress, PhaseFinished} {
		t.Run(string(phase), func(t *testing.T) {
			room := projectionRoom(phase)

			view := Project(room, "alice")
			serialized, err := json.Marshal(view)
			require.NoError(t, err)

			assert.NotContains(t, string(serialized), "secret-deck")
			assert.NotContains(t, string(serialized), "bob-secret-hand")
			if phase == PhaseSetup {
				assert.NotContains(t, string(serialized), "bob-front")
			}
		})
	}
}

func TestProject_WaitingRoom(t *testing.T) {
	room := &Room{ID: "room-1", Slug: "arena", Phase: PhaseWaiting}
	room.Players[0] = NewPlayerSlot("alice", "Alice", "conn-a", true)

	view := Project(room, "alice")
	assert.Equal(t, PhaseWaiting, view.Status)
	assert.NotNil(t, view.You)
	assert.Nil(t, view.Opponent)
}

func TestProject_ClampsNegativeHP(t *testing.T) {
	room := projectionRoom(PhaseInProgress)
	room.Player("bob").Status.Active.HP = -10

	view := Project(room, "alice")
	card, ok := view.Opponent.Status.BattleCard.(*CardView)
	require.True(t, ok)
	assert.Equal(t, 0, card.HP)
	// the stored value keeps the overkill
	assert.Equal(t, -10, room.Player("bob").Status.Active.HP)
}

func TestProject_DoesNotMutateRoom(t *testing.T) {
	room := projectionRoom(PhaseInProgress)
	before, err := json.Marshal(room)
	require.NoError(t, err)

	Project(room, "alice")
	Project(room, "bob")

	after, err := json.Marshal(room)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}
