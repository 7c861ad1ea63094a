package battle

import (
	"strconv"
	"strings"
)

// Card identifiers accepted by AssignEnergy. "main" and "battle_card" are
// legacy client aliases for the active slot.
const (
	CardIDActive      = "active"
	cardIDBenchPrefix = "bench-"
)

// applyEndTurn resolves a pass or end-of-turn: the opponent gains one energy
// and draws a card, then becomes the turn owner.
func (m *Machine) applyEndTurn(room *Room, actor *PlayerSlot) ([]Event, error) {
	if err := requireTurn(room, actor); err != nil {
		return nil, err
	}
	m.endTurn(room, actor)
	return nil, nil
}

// endTurn flips the turn to the opponent. Shared by the explicit end-turn
// actions and by attack resolution, which always ends the turn.
func (m *Machine) endTurn(room *Room, actor *PlayerSlot) {
	opponent := room.Opponent(actor.UserID)
	opponent.Status.Energy++
	drawCards(opponent, 1)
	room.TurnOwner = opponent.UserID
	room.TurnCount++
}

// applyAssignEnergy moves one energy from the actor's pool to the card named
// by CardID.
func (m *Machine) applyAssignEnergy(room *Room, actor *PlayerSlot, action AssignEnergy) ([]Event, error) {
	if err := requireTurn(room, actor); err != nil {
		return nil, err
	}
	if actor.Status.Energy <= 0 {
		return nil, rejectWarning("you have no energy available")
	}

	card, err := resolveOwnCard(actor, action.CardID)
	if err != nil {
		return nil, err
	}

	actor.Status.Energy--
	card.Energy++
	return nil, nil
}

// resolveOwnCard resolves an energy target identifier against the actor's
// board. An absent active card is a rejection, never a fabricated card.
func resolveOwnCard(actor *PlayerSlot, cardID string) (*CardInstance, error) {
	switch {
	case cardID == CardIDActive, cardID == FieldBattleCard, strings.HasPrefix(cardID, "main"):
		if actor.Status.Active == nil {
			return nil, rejectWarning("you have no active card")
		}
		return actor.Status.Active, nil
	case strings.HasPrefix(cardID, cardIDBenchPrefix):
		index, err := strconv.Atoi(strings.TrimPrefix(cardID, cardIDBenchPrefix))
		if err != nil {
			return nil, rejectError("invalid card identifier")
		}
		if index < 0 || index >= len(actor.Status.Bench) {
			return nil, rejectError("no such bench card")
		}
		return actor.Status.Bench[index], nil
	default:
		return nil, rejectError("invalid card identifier")
	}
}
