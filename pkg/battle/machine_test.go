package battle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecks struct {
	decks map[string][]CardDefinition
	err   error
}

func (s *stubDecks) GetDeck(ctx context.Context, userID string) ([]CardDefinition, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.decks[userID], nil
}

func testDeck(prefix string) []CardDefinition {
	deck := make([]CardDefinition, 5)
	for i := range deck {
		deck[i] = CardDefinition{
			ID:          fmt.Sprintf("%s-%d", prefix, i),
			Name:        fmt.Sprintf("%s %d", prefix, i),
			HP:          40,
			Attack:      20,
			AttackCost:  1,
			RetreatCost: 1,
		}
	}
	return deck
}

func newTestMachine(rules Rules) *Machine {
	return NewMachine(&stubDecks{decks: map[string][]CardDefinition{
		"alice": testDeck("ember"),
		"bob":   testDeck("tide"),
	}}, rules)
}

// setupRoom returns a room with both players joined and in the setup phase.
func setupRoom(t *testing.T, m *Machine) *Room {
	t.Helper()
	room := m.NewRoom("arena", "alice", "Alice", "conn-a")
	require.NoError(t, m.Join(context.Background(), room, "bob", "Bob", "conn-b"))
	return room
}

// inProgressRoom builds a room mid-battle with known board state: each
// player has an active card, one bench card and an empty hand.
func inProgressRoom() *Room {
	room := &Room{ID: "room-1", Slug: "arena", Phase: PhaseInProgress, TurnOwner: "alice"}
	alice := NewPlayerSlot("alice", "Alice", "conn-a", true)
	bob := NewPlayerSlot("bob", "Bob", "conn-b", false)
	for _, slot := range []*PlayerSlot{alice, bob} {
		slot.Status.SetupDone = true
		slot.Status.Active = &CardInstance{ID: "front", Name: "Front", HP: 40, Attack: 20, AttackCost: 1, RetreatCost: 1}
		slot.Status.Bench = []*CardInstance{{ID: "backup", Name: "Backup", HP: 30, Attack: 10, AttackCost: 1, RetreatCost: 1}}
	}
	room.Players = [2]*PlayerSlot{alice, bob}
	return room
}

func TestMachine_NewRoomAndJoin(t *testing.T) {
	m := newTestMachine(Rules{})

	room := m.NewRoom("arena", "alice", "Alice", "conn-a")
	assert.Equal(t, PhaseWaiting, room.Phase)
	assert.Equal(t, 1, room.PlayerCount())
	assert.True(t, room.Players[0].IsOwner)

	require.NoError(t, m.Join(context.Background(), room, "bob", "Bob", "conn-b"))
	assert.Equal(t, PhaseSetup, room.Phase)
	assert.Equal(t, 2, room.PlayerCount())

	for _, slot := range room.Players {
		assert.Len(t, slot.Status.Hand, SetupDrawCount)
		assert.Len(t, slot.Status.Deck, 5-SetupDrawCount)
		assert.Equal(t, SetupDrawCount, slot.Status.HandCount)
		assert.Equal(t, StartingLife, slot.Status.Life)
	}
}

func TestMachine_JoinFullRoom(t *testing.T) {
	m := newTestMachine(Rules{})
	room := setupRoom(t, m)

	err := m.Join(context.Background(), room, "carol", "Carol", "conn-c")
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "room is full", rej.Message)
}

func TestMachine_PlaceCard(t *testing.T) {
	m := newTestMachine(Rules{})
	room := setupRoom(t, m)
	alice := room.Player("alice")

	_, err := m.Apply(room, "alice", PlaceCard{HandIndex: 0, ToField: FieldBattleCard})
	require.NoError(t, err)
	assert.NotNil(t, alice.Status.Active)
	assert.Len(t, alice.Status.Hand, 2)
	assert.Equal(t, 2, alice.Status.HandCount)

	_, err = m.Apply(room, "alice", PlaceCard{HandIndex: 0, ToField: FieldBench})
	require.NoError(t, err)
	assert.Len(t, alice.Status.Bench, 1)
	assert.Len(t, alice.Status.Hand, 1)
}

func TestMachine_PlaceCardRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(room *Room)
		action  PlaceCard
		message string
	}{
		{
			name:    "hand index out of range",
			prepare: func(room *Room) {},
			action:  PlaceCard{HandIndex: 7, ToField: FieldBench},
			message: "no such card in your hand",
		},
		{
			name:    "negative hand index",
			prepare: func(room *Room) {},
			action:  PlaceCard{HandIndex: -1, ToField: FieldBench},
			message: "no such card in your hand",
		},
		{
			name: "active slot occupied",
			prepare: func(room *Room) {
				room.Player("alice").Status.Active = &CardInstance{ID: "x", Name: "X"}
			},
			action:  PlaceCard{HandIndex: 0, ToField: FieldBattleCard},
			message: "your active card slot is already occupied",
		},
		{
			name: "bench full",
			prepare: func(room *Room) {
				bench := make([]*CardInstance, BenchMax)
				for i := range bench {
					bench[i] = &CardInstance{ID: "x", Name: "X"}
				}
				room.Player("alice").Status.Bench = bench
			},
			action:  PlaceCard{HandIndex: 0, ToField: FieldBench},
			message: "your bench is full",
		},
		{
			name:    "invalid target",
			prepare: func(room *Room) {},
			action:  PlaceCard{HandIndex: 0, ToField: "graveyard"},
			message: "invalid placement target",
		},
		{
			name: "setup already complete",
			prepare: func(room *Room) {
				room.Player("alice").Status.SetupDone = true
			},
			action:  PlaceCard{HandIndex: 0, ToField: FieldBench},
			message: "you have already completed your setup",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(Rules{})
			room := setupRoom(t, m)
			tt.prepare(room)
			handBefore := len(room.Player("alice").Status.Hand)

			_, err := m.Apply(room, "alice", tt.action)
			rej, ok := AsRejection(err)
			require.True(t, ok)
			assert.Equal(t, tt.message, rej.Message)
			assert.Len(t, room.Player("alice").Status.Hand, handBefore)
		})
	}
}

func TestMachine_SetupComplete(t *testing.T) {
	m := newTestMachine(Rules{})
	room := setupRoom(t, m)

	_, err := m.Apply(room, "alice", DeclareSetupComplete{})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "place at least one card first", rej.Message)

	_, err = m.Apply(room, "alice", PlaceCard{HandIndex: 0, ToField: FieldBattleCard})
	require.NoError(t, err)
	_, err = m.Apply(room, "bob", PlaceCard{HandIndex: 0, ToField: FieldBattleCard})
	require.NoError(t, err)

	events, err := m.Apply(room, "alice", DeclareSetupComplete{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventInfo, events[0].Kind)
	assert.Equal(t, []string{"alice"}, events[0].Recipients)
	assert.Equal(t, PhaseSetup, room.Phase)

	events, err = m.Apply(room, "bob", DeclareSetupComplete{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventChat, events[0].Kind)
	assert.Empty(t, events[0].Recipients)

	assert.Equal(t, PhaseInProgress, room.Phase)
	assert.Equal(t, "alice", room.TurnOwner)
	// the first turn owner draws one extra card
	assert.Equal(t, 3, len(room.Player("alice").Status.Hand))
	assert.Equal(t, 2, len(room.Player("bob").Status.Hand))
}

func TestMachine_SetupCompleteTwice(t *testing.T) {
	m := newTestMachine(Rules{})
	room := setupRoom(t, m)
	_, err := m.Apply(room, "alice", PlaceCard{HandIndex: 0, ToField: FieldBattleCard})
	require.NoError(t, err)
	_, err = m.Apply(room, "alice", DeclareSetupComplete{})
	require.NoError(t, err)

	_, err = m.Apply(room, "alice", DeclareSetupComplete{})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "you have already completed your setup", rej.Message)
}

func TestMachine_TurnAlternation(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()

	_, err := m.Apply(room, "bob", EndTurn{})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "it is not your turn", rej.Message)
	assert.Equal(t, "alice", room.TurnOwner)

	_, err = m.Apply(room, "alice", EndTurn{})
	require.NoError(t, err)
	assert.Equal(t, "bob", room.TurnOwner)
	assert.Equal(t, 1, room.TurnCount)
	assert.Equal(t, 1, room.Player("bob").Status.Energy)

	_, err = m.Apply(room, "bob", PassTurn{})
	require.NoError(t, err)
	assert.Equal(t, "alice", room.TurnOwner)
	assert.Equal(t, 2, room.TurnCount)
	assert.Equal(t, 1, room.Player("alice").Status.Energy)

	// energy accrues across turns
	_, err = m.Apply(room, "alice", EndTurn{})
	require.NoError(t, err)
	assert.Equal(t, 2, room.Player("bob").Status.Energy)
}

func TestMachine_AssignEnergy(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	alice := room.Player("alice")

	_, err := m.Apply(room, "alice", AssignEnergy{CardID: CardIDActive})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "you have no energy available", rej.Message)

	alice.Status.Energy = 2

	_, err = m.Apply(room, "alice", AssignEnergy{CardID: CardIDActive})
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Status.Energy)
	assert.Equal(t, 1, alice.Status.Active.Energy)

	_, err = m.Apply(room, "alice", AssignEnergy{CardID: "bench-0"})
	require.NoError(t, err)
	assert.Equal(t, 0, alice.Status.Energy)
	assert.Equal(t, 1, alice.Status.Bench[0].Energy)
}

func TestMachine_AssignEnergyTargets(t *testing.T) {
	tests := []struct {
		name    string
		cardID  string
		prepare func(alice *PlayerSlot)
		message string
	}{
		{
			name:   "no active card",
			cardID: CardIDActive,
			prepare: func(alice *PlayerSlot) {
				alice.Status.Active = nil
			},
			message: "you have no active card",
		},
		{
			name:    "bench index out of range",
			cardID:  "bench-5",
			prepare: func(alice *PlayerSlot) {},
			message: "no such bench card",
		},
		{
			name:    "malformed bench id",
			cardID:  "bench-x",
			prepare: func(alice *PlayerSlot) {},
			message: "invalid card identifier",
		},
		{
			name:    "unknown identifier",
			cardID:  "graveyard-0",
			prepare: func(alice *PlayerSlot) {},
			message: "invalid card identifier",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(Rules{})
			room := inProgressRoom()
			alice := room.Player("alice")
			alice.Status.Energy = 1
			tt.prepare(alice)

			_, err := m.Apply(room, "alice", AssignEnergy{CardID: tt.cardID})
			rej, ok := AsRejection(err)
			require.True(t, ok)
			assert.Equal(t, tt.message, rej.Message)
			// pool untouched on rejection
			assert.Equal(t, 1, alice.Status.Energy)
		})
	}
}

func TestMachine_AssignEnergyAliases(t *testing.T) {
	for _, alias := range []string{CardIDActive, FieldBattleCard, "main", "main-0"} {
		t.Run(alias, func(t *testing.T) {
			m := newTestMachine(Rules{})
			room := inProgressRoom()
			alice := room.Player("alice")
			alice.Status.Energy = 1

			_, err := m.Apply(room, "alice", AssignEnergy{CardID: alias})
			require.NoError(t, err)
			assert.Equal(t, 1, alice.Status.Active.Energy)
		})
	}
}

func TestMachine_Attack(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	alice := room.Player("alice")
	bob := room.Player("bob")

	_, err := m.Apply(room, "alice", Attack{})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "not enough energy to attack", rej.Message)
	assert.Equal(t, 40, bob.Status.Active.HP)

	alice.Status.Active.Energy = 1
	events, err := m.Apply(room, "alice", Attack{})
	require.NoError(t, err)
	assert.Equal(t, 20, bob.Status.Active.HP)
	require.Len(t, events, 1)
	assert.Equal(t, SystemChatName, events[0].User)
	// energy is a gate, not a cost
	assert.Equal(t, 1, alice.Status.Active.Energy)
	// attacking always ends the turn
	assert.Equal(t, "bob", room.TurnOwner)
}

func TestMachine_AttackConsumesEnergyRule(t *testing.T) {
	m := newTestMachine(Rules{AttackConsumesEnergy: true})
	room := inProgressRoom()
	alice := room.Player("alice")
	alice.Status.Active.Energy = 1

	_, err := m.Apply(room, "alice", Attack{})
	require.NoError(t, err)
	assert.Equal(t, 0, alice.Status.Active.Energy)
}

func TestMachine_AttackTargetValidation(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	room.Player("alice").Status.Active.Energy = 1

	_, err := m.Apply(room, "alice", Attack{TargetID: "wrong-card"})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "invalid attack target", rej.Message)

	_, err = m.Apply(room, "alice", Attack{TargetID: "front"})
	require.NoError(t, err)
}

func TestMachine_KnockoutPromotesBench(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	alice := room.Player("alice")
	bob := room.Player("bob")
	alice.Status.Active.Energy = 1
	bob.Status.Active.HP = 10

	events, err := m.Apply(room, "alice", Attack{})
	require.NoError(t, err)

	assert.Equal(t, 1, bob.Status.Life)
	require.NotNil(t, bob.Status.Active)
	assert.Equal(t, "backup", bob.Status.Active.ID)
	assert.Empty(t, bob.Status.Bench)
	assert.Equal(t, PhaseInProgress, room.Phase)
	assert.Equal(t, "bob", room.TurnOwner)
	// damage, knockout, promotion
	assert.Len(t, events, 3)
}

func TestMachine_WinByLife(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	alice := room.Player("alice")
	bob := room.Player("bob")
	alice.Status.Active.Energy = 1
	bob.Status.Active.HP = 10
	bob.Status.Life = 1

	_, err := m.Apply(room, "alice", Attack{})
	require.NoError(t, err)

	assert.Equal(t, PhaseFinished, room.Phase)
	assert.Equal(t, "alice", room.Winner)
	assert.Empty(t, room.TurnOwner)
	// the finished turn is never handed over
	assert.Equal(t, 0, bob.Status.Energy)
}

func TestMachine_WinByEmptyBench(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	alice := room.Player("alice")
	bob := room.Player("bob")
	alice.Status.Active.Energy = 1
	bob.Status.Active.HP = 10
	bob.Status.Bench = nil

	_, err := m.Apply(room, "alice", Attack{})
	require.NoError(t, err)

	assert.Equal(t, PhaseFinished, room.Phase)
	assert.Equal(t, "alice", room.Winner)
	assert.Equal(t, 1, bob.Status.Life)
}

func TestMachine_Retreat(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	alice := room.Player("alice")

	_, err := m.Apply(room, "alice", Retreat{BenchIndex: 0})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "not enough energy to retreat", rej.Message)

	alice.Status.Active.Energy = 1
	_, err = m.Apply(room, "alice", Retreat{BenchIndex: 3})
	rej, ok = AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "no valid bench card selected", rej.Message)
	// a rejected retreat costs nothing
	assert.Equal(t, 1, alice.Status.Active.Energy)
	assert.Equal(t, "front", alice.Status.Active.ID)

	_, err = m.Apply(room, "alice", Retreat{BenchIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, "backup", alice.Status.Active.ID)
	assert.Equal(t, "front", alice.Status.Bench[0].ID)
	assert.Equal(t, 0, alice.Status.Bench[0].Energy)
	// retreating does not end the turn
	assert.Equal(t, "alice", room.TurnOwner)
}

func TestMachine_Surrender(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()

	events, err := m.Apply(room, "bob", Surrender{})
	require.NoError(t, err)

	assert.Equal(t, PhaseFinished, room.Phase)
	assert.Equal(t, "alice", room.Winner)
	require.Len(t, events, 2)
	assert.Equal(t, []string{"bob"}, events[0].Recipients)
	assert.Equal(t, []string{"alice"}, events[1].Recipients)
}

func TestMachine_ApplyAfterFinish(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	_, err := m.Apply(room, "alice", Surrender{})
	require.NoError(t, err)

	_, err = m.Apply(room, "bob", EndTurn{})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "the match is already over", rej.Message)
}

func TestMachine_ApplyNonMember(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()

	_, err := m.Apply(room, "mallory", EndTurn{})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, SeverityError, rej.Severity)
	assert.Equal(t, "you are not part of this room", rej.Message)
}

func TestMachine_ActionsBeforeBattle(t *testing.T) {
	m := newTestMachine(Rules{})
	room := setupRoom(t, m)

	for _, action := range []Action{EndTurn{}, AssignEnergy{CardID: CardIDActive}, Attack{}, Retreat{BenchIndex: 0}} {
		_, err := m.Apply(room, "alice", action)
		rej, ok := AsRejection(err)
		require.True(t, ok, "action %T", action)
		assert.Equal(t, "the battle has not started", rej.Message)
	}
}

func TestMachine_RejoinAndDisconnect(t *testing.T) {
	m := newTestMachine(Rules{})
	room := setupRoom(t, m)

	m.MarkDisconnected(room, "bob")
	assert.False(t, room.Player("bob").IsConnected)

	require.NoError(t, m.Rejoin(room, "bob", "conn-b2"))
	assert.True(t, room.Player("bob").IsConnected)
	assert.Equal(t, "conn-b2", room.Player("bob").ConnectionID)

	err := m.Rejoin(room, "carol", "conn-c")
	assert.Error(t, err)
}

func TestMachine_DrawFromEmptyDeck(t *testing.T) {
	m := newTestMachine(Rules{})
	room := inProgressRoom()
	bob := room.Player("bob")
	bob.Status.Deck = nil

	_, err := m.Apply(room, "alice", EndTurn{})
	require.NoError(t, err)
	// drawing from an empty deck is a no-op, not an error
	assert.Empty(t, bob.Status.Hand)
	assert.Equal(t, 1, bob.Status.Energy)
}
