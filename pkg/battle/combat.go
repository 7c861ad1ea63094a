package battle

import "fmt"

// applyAttack strikes the defender's active card, resolves any knockout and
// ends the turn. Damage application and the forced end-of-turn are one
// transition; callers never observe the room between them.
func (m *Machine) applyAttack(room *Room, actor *PlayerSlot, action Attack) ([]Event, error) {
	if err := requireTurn(room, actor); err != nil {
		return nil, err
	}

	attacker := actor.Status.Active
	if attacker == nil {
		return nil, rejectWarning("you have no active card to attack with")
	}

	defender := room.Opponent(actor.UserID)
	target := defender.Status.Active
	if target == nil {
		return nil, rejectWarning("your opponent has no active card")
	}
	if attacker.Energy < attacker.AttackCost {
		return nil, rejectWarning("not enough energy to attack")
	}
	if action.TargetID != "" && action.TargetID != target.ID {
		return nil, rejectWarning("invalid attack target")
	}

	if m.rules.AttackConsumesEnergy {
		attacker.Energy -= attacker.AttackCost
	}

	oldHP := target.HP
	target.HP -= attacker.Attack
	events := []Event{systemChat(fmt.Sprintf(
		"%s dealt %d damage to %s! (HP: %d -> %d)",
		attacker.Name, attacker.Attack, target.Name, oldHP, target.HP,
	))}

	if target.HP <= 0 {
		events = append(events, m.resolveKnockout(room, actor, defender, target)...)
	}

	if !room.Finished() {
		m.endTurn(room, actor)
	}
	return events, nil
}

// resolveKnockout removes the defender's knocked-out active card and applies
// exactly one consequence: match end on zero life, bench promotion when a
// replacement exists, or match end when none does.
func (m *Machine) resolveKnockout(room *Room, actor, defender *PlayerSlot, knocked *CardInstance) []Event {
	defender.Status.Active = nil
	defender.Status.Life--

	events := []Event{systemChat(fmt.Sprintf("%s was knocked out!", knocked.Name))}

	if defender.Status.Life <= 0 {
		m.finish(room, actor.UserID)
		return append(events, systemChat(fmt.Sprintf("%s has no life left. %s wins!", defender.Name, actor.Name)))
	}

	if len(defender.Status.Bench) > 0 {
		promoted := defender.Status.Bench[0]
		defender.Status.Bench = defender.Status.Bench[1:]
		defender.Status.Active = promoted
		return append(events, systemChat(fmt.Sprintf("%s was promoted from the bench!", promoted.Name)))
	}

	m.finish(room, actor.UserID)
	return append(events, systemChat(fmt.Sprintf("%s has no cards left. %s wins!", defender.Name, actor.Name)))
}

// applyRetreat swaps the active card with a bench card, paying the active
// card's retreat cost.
func (m *Machine) applyRetreat(room *Room, actor *PlayerSlot, action Retreat) ([]Event, error) {
	if err := requireTurn(room, actor); err != nil {
		return nil, err
	}

	active := actor.Status.Active
	if active == nil {
		return nil, rejectWarning("you have no active card")
	}
	if action.BenchIndex < 0 || action.BenchIndex >= len(actor.Status.Bench) {
		return nil, rejectError("no valid bench card selected")
	}
	if active.Energy < active.RetreatCost {
		return nil, rejectWarning("not enough energy to retreat")
	}

	active.Energy -= active.RetreatCost
	actor.Status.Active = actor.Status.Bench[action.BenchIndex]
	actor.Status.Bench[action.BenchIndex] = active
	return nil, nil
}

// applySurrender concedes the match to the opponent.
func (m *Machine) applySurrender(room *Room, actor *PlayerSlot) ([]Event, error) {
	if room.Phase != PhaseInProgress {
		return nil, rejectWarning("there is no battle to surrender")
	}

	opponent := room.Opponent(actor.UserID)
	m.finish(room, opponent.UserID)

	return []Event{
		chatEvent(actor.Name, "you surrendered.", actor.UserID),
		systemChat("your opponent surrendered!", opponent.UserID),
	}, nil
}

// finish moves the room to its terminal phase.
func (m *Machine) finish(room *Room, winnerID string) {
	room.Phase = PhaseFinished
	room.Winner = winnerID
	room.TurnOwner = ""
}
