package battle

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/duelist-dev/duelcore/pkg/log"
	"github.com/google/uuid"
)

// DeckSource provides the configured deck for a player. Implementations live
// outside this package; setup is the only point where the machine reaches
// out of the room aggregate.
type DeckSource interface {
	GetDeck(ctx context.Context, userID string) ([]CardDefinition, error)
}

// Rules holds the tunable parts of combat resolution.
type Rules struct {
	// AttackConsumesEnergy controls whether a successful attack deducts its
	// energy cost from the attacker. The default economy validates the cost
	// without deducting it; retreat always deducts.
	AttackConsumesEnergy bool
}

// Action is a player request against a room. Validation failures return a
// Rejection and leave the room unchanged.
type Action interface {
	actionName() string
}

// PlaceCard moves hand card HandIndex to the active slot or the bench.
type PlaceCard struct {
	HandIndex int
	ToField   string // "battle_card" or "bench"
}

// DeclareSetupComplete marks the actor's initial placement as done.
type DeclareSetupComplete struct{}

// EndTurn hands the turn to the opponent. Forced is informational.
type EndTurn struct {
	Forced bool
}

// PassTurn ends the turn without acting.
type PassTurn struct{}

// AssignEnergy moves one energy from the actor's pool to a card.
// CardID is "active" (aliases "battle_card", "main") or "bench-N".
type AssignEnergy struct {
	CardID string
}

// Attack strikes the opponent's active card with the actor's active card.
type Attack struct {
	TargetID string
}

// Retreat swaps the active card with bench card BenchIndex.
type Retreat struct {
	BenchIndex int
}

// Surrender concedes the match.
type Surrender struct{}

func (PlaceCard) actionName() string            { return "place_card" }
func (DeclareSetupComplete) actionName() string { return "setup_complete" }
func (EndTurn) actionName() string              { return "end_turn" }
func (PassTurn) actionName() string             { return "pass" }
func (AssignEnergy) actionName() string         { return "assign_energy" }
func (Attack) actionName() string               { return "attack" }
func (Retreat) actionName() string              { return "escape" }
func (Surrender) actionName() string            { return "surrender" }

// Machine owns phase transitions and action resolution for battle rooms.
// Apart from deck loading during setup it only reads and writes the room it
// is given; callers are responsible for locking and persistence.
type Machine struct {
	decks DeckSource
	rules Rules
	rng   *rand.Rand
}

// NewMachine creates a state machine with the given deck source and rules.
func NewMachine(decks DeckSource, rules Rules) *Machine {
	return &Machine{
		decks: decks,
		rules: rules,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewRoom creates a waiting room with the caller as its owner.
func (m *Machine) NewRoom(slug, userID, name, connectionID string) *Room {
	room := &Room{
		ID:        uuid.NewString(),
		Slug:      slug,
		Phase:     PhaseWaiting,
		CreatedAt: time.Now(),
	}
	room.Players[0] = NewPlayerSlot(userID, name, connectionID, true)
	return room
}

// Join occupies the empty slot of a waiting room and starts the setup
// phase: both decks are loaded and shuffled and each player draws an
// opening hand.
func (m *Machine) Join(ctx context.Context, room *Room, userID, name, connectionID string) error {
	if room.Player(userID) != nil {
		return fmt.Errorf("user %s already occupies a slot in room %s", userID, room.ID)
	}
	if room.Players[1] != nil {
		return rejectError("room is full")
	}

	room.Players[1] = NewPlayerSlot(userID, name, connectionID, false)
	room.Phase = PhaseSetup

	for _, slot := range room.Players {
		if err := m.dealDeck(ctx, slot); err != nil {
			return fmt.Errorf("failed to deal deck for %s: %v", slot.UserID, err)
		}
		drawCards(slot, SetupDrawCount)
	}

	return nil
}

// Rejoin points an existing slot at a new connection.
func (m *Machine) Rejoin(room *Room, userID, connectionID string) error {
	slot := room.Player(userID)
	if slot == nil {
		return fmt.Errorf("user %s has no slot in room %s", userID, room.ID)
	}
	slot.ConnectionID = connectionID
	slot.IsConnected = true
	return nil
}

// MarkDisconnected flags a player's slot as disconnected.
func (m *Machine) MarkDisconnected(room *Room, userID string) {
	if slot := room.Player(userID); slot != nil {
		slot.IsConnected = false
	}
}

// Apply validates and resolves one action against the room. On success the
// room is mutated in place and any commentary events are returned; on
// failure the room is untouched and the error is a Rejection addressed to
// the actor.
func (m *Machine) Apply(room *Room, actorID string, action Action) ([]Event, error) {
	actor := room.Player(actorID)
	if actor == nil {
		return nil, rejectError("you are not part of this room")
	}
	if room.Finished() {
		return nil, rejectWarning("the match is already over")
	}

	log.Debug("Applying action %s from %s in room %s", action.actionName(), actorID, room.ID)

	switch a := action.(type) {
	case PlaceCard:
		return m.applyPlaceCard(room, actor, a)
	case DeclareSetupComplete:
		return m.applySetupComplete(room, actor)
	case PassTurn:
		return m.applyEndTurn(room, actor)
	case EndTurn:
		return m.applyEndTurn(room, actor)
	case AssignEnergy:
		return m.applyAssignEnergy(room, actor, a)
	case Attack:
		return m.applyAttack(room, actor, a)
	case Retreat:
		return m.applyRetreat(room, actor, a)
	case Surrender:
		return m.applySurrender(room, actor)
	default:
		return nil, rejectError("unknown action")
	}
}

// dealDeck loads and shuffles a player's configured deck into the draw stack.
func (m *Machine) dealDeck(ctx context.Context, slot *PlayerSlot) error {
	defs, err := m.decks.GetDeck(ctx, slot.UserID)
	if err != nil {
		return err
	}

	deck := make([]*CardInstance, 0, len(defs))
	for _, def := range defs {
		deck = append(deck, NewCardInstance(def))
	}
	m.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	slot.Status.Deck = deck
	return nil
}

// drawCards moves up to count cards from the deck to the hand.
func drawCards(slot *PlayerSlot, count int) {
	for i := 0; i < count; i++ {
		if len(slot.Status.Deck) == 0 {
			break
		}
		card := slot.Status.Deck[0]
		slot.Status.Deck = slot.Status.Deck[1:]
		slot.Status.Hand = append(slot.Status.Hand, card)
	}
	slot.Status.HandCount = len(slot.Status.Hand)
}

// requireTurn rejects actions from anyone but the turn owner.
func requireTurn(room *Room, actor *PlayerSlot) error {
	if room.Phase != PhaseInProgress {
		return rejectWarning("the battle has not started")
	}
	if room.TurnOwner != actor.UserID {
		return rejectWarning("it is not your turn")
	}
	return nil
}
