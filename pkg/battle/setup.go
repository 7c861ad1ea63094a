package battle

// Placement targets accepted by PlaceCard.
const (
	FieldBattleCard = "battle_card"
	FieldBench      = "bench"
)

// applyPlaceCard moves a hand card onto the board during setup. A rejected
// placement leaves the hand, the active slot and the bench untouched.
func (m *Machine) applyPlaceCard(room *Room, actor *PlayerSlot, action PlaceCard) ([]Event, error) {
	if room.Phase != PhaseSetup {
		return nil, rejectWarning("cards can only be placed during setup")
	}
	if actor.Status.SetupDone {
		return nil, rejectWarning("you have already completed your setup")
	}

	hand := actor.Status.Hand
	if action.HandIndex < 0 || action.HandIndex >= len(hand) {
		return nil, rejectError("no such card in your hand")
	}

	switch action.ToField {
	case FieldBattleCard:
		if actor.Status.Active != nil {
			return nil, rejectWarning("your active card slot is already occupied")
		}
	case FieldBench:
		if len(actor.Status.Bench) >= BenchMax {
			return nil, rejectWarning("your bench is full")
		}
	default:
		return nil, rejectError("invalid placement target")
	}

	card := hand[action.HandIndex]
	actor.Status.Hand = append(hand[:action.HandIndex], hand[action.HandIndex+1:]...)
	actor.Status.HandCount = len(actor.Status.Hand)

	if action.ToField == FieldBattleCard {
		actor.Status.Active = card
	} else {
		actor.Status.Bench = append(actor.Status.Bench, card)
	}

	return nil, nil
}

// applySetupComplete marks the actor's placement as done. When both players
// are done the battle begins: player1 owns the first turn and draws a card.
func (m *Machine) applySetupComplete(room *Room, actor *PlayerSlot) ([]Event, error) {
	if room.Phase != PhaseSetup {
		return nil, rejectWarning("this is not the setup phase")
	}
	if actor.Status.SetupDone {
		return nil, rejectWarning("you have already completed your setup")
	}
	if !actor.HasPlacedCard() {
		return nil, rejectWarning("place at least one card first")
	}

	actor.Status.SetupDone = true

	opponent := room.Opponent(actor.UserID)
	if opponent == nil || !opponent.Status.SetupDone {
		return []Event{infoEvent("waiting for your opponent to finish placing...", actor.UserID)}, nil
	}

	room.Phase = PhaseInProgress
	room.TurnOwner = room.Players[0].UserID
	drawCards(room.Players[0], 1)

	return []Event{systemChat("the battle begins!")}, nil
}
