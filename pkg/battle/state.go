package battle

import (
	"time"
)

// Phase represents the lifecycle stage of a battle room. Transitions only
// move forward: waiting -> setup -> in_progress -> finished.
type Phase string

const (
	// PhaseWaiting is the state before a second player has joined.
	PhaseWaiting Phase = "waiting"
	// PhaseSetup is the state where both players place their initial cards.
	PhaseSetup Phase = "setup"
	// PhaseInProgress is the active combat state.
	PhaseInProgress Phase = "in_progress"
	// PhaseFinished is the terminal state after a winner is decided.
	PhaseFinished Phase = "finished"
)

const (
	// BenchMax is the number of bench slots per player.
	BenchMax = 5
	// StartingLife is the number of knockouts a player can absorb.
	StartingLife = 2
	// SetupDrawCount is the number of cards drawn when decks are dealt.
	SetupDrawCount = 3
)

// CardDefinition describes a card as configured in a player's deck.
type CardDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	HP          int    `json:"hp"`
	Attack      int    `json:"attack"`
	AttackCost  int    `json:"attack_cost"`
	RetreatCost int    `json:"retreat_cost"`
}

// CardInstance is a card in play. It has no identity beyond its owning slot;
// ID is the definition id, used by clients to name attack targets.
type CardInstance struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Energy      int    `json:"energy"`
	AttackCost  int    `json:"attack_needs_energy"`
	RetreatCost int    `json:"escape_needs_energy"`
	HP          int    `json:"hp"`
	Attack      int    `json:"attack"`
}

// NewCardInstance builds a fresh in-play card from its definition.
func NewCardInstance(def CardDefinition) *CardInstance {
	return &CardInstance{
		ID:          def.ID,
		Name:        def.Name,
		Image:       def.Image,
		Energy:      0,
		AttackCost:  def.AttackCost,
		RetreatCost: def.RetreatCost,
		HP:          def.HP,
		Attack:      def.Attack,
	}
}

// Clone returns a copy of the card.
func (c *CardInstance) Clone() *CardInstance {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// PlayerStatus is the battle status owned by a player slot. Hand and Deck
// are private to the owning player; HandCount is the public projection of
// the hand size and is kept in sync by the state machine.
type PlayerStatus struct {
	Active    *CardInstance   `json:"battle_card,omitempty"`
	Bench     []*CardInstance `json:"bench_cards"`
	Hand      []*CardInstance `json:"hand_cards"`
	Deck      []*CardInstance `json:"deck_cards"`
	HandCount int             `json:"hand_cards_count"`
	Energy    int             `json:"energy"`
	Life      int             `json:"life"`
	SetupDone bool            `json:"setup_done"`
}

// PlayerSlot combines a player's identity and battle status. A slot is owned
// exclusively by its room.
type PlayerSlot struct {
	UserID       string       `json:"user_id"`
	Name         string       `json:"name"`
	ConnectionID string       `json:"connection_id"`
	IsOwner      bool         `json:"is_owner"`
	IsConnected  bool         `json:"is_connected"`
	Status       PlayerStatus `json:"status"`
}

// NewPlayerSlot creates a slot for a player joining a room.
func NewPlayerSlot(userID, name, connectionID string, isOwner bool) *PlayerSlot {
	return &PlayerSlot{
		UserID:       userID,
		Name:         name,
		ConnectionID: connectionID,
		IsOwner:      isOwner,
		IsConnected:  true,
		Status: PlayerStatus{
			Bench: make([]*CardInstance, 0, BenchMax),
			Hand:  make([]*CardInstance, 0),
			Deck:  make([]*CardInstance, 0),
			Life:  StartingLife,
		},
	}
}

// HasPlacedCard reports whether the player has placed at least one card.
func (p *PlayerSlot) HasPlacedCard() bool {
	return p.Status.Active != nil || len(p.Status.Bench) > 0
}

// Room is the aggregate root for one battle. It is the unit of storage and
// of locking; everything below it is owned exclusively by the room.
type Room struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Phase     Phase          `json:"status"`
	Players   [2]*PlayerSlot `json:"players"`
	TurnOwner string         `json:"turn_player_id,omitempty"`
	Winner    string         `json:"winner,omitempty"`
	TurnCount int            `json:"turn_count"`
	CreatedAt time.Time      `json:"created_at"`
}

// PlayerCount returns the number of occupied slots.
func (r *Room) PlayerCount() int {
	count := 0
	for _, slot := range r.Players {
		if slot != nil {
			count++
		}
	}
	return count
}

// Player returns the slot occupied by the given user, or nil.
func (r *Room) Player(userID string) *PlayerSlot {
	for _, slot := range r.Players {
		if slot != nil && slot.UserID == userID {
			return slot
		}
	}
	return nil
}

// Opponent returns the slot not occupied by the given user, or nil.
func (r *Room) Opponent(userID string) *PlayerSlot {
	for _, slot := range r.Players {
		if slot != nil && slot.UserID != userID {
			return slot
		}
	}
	return nil
}

// SlotName returns "player1" or "player2" for the given user, or "".
func (r *Room) SlotName(userID string) string {
	if r.Players[0] != nil && r.Players[0].UserID == userID {
		return "player1"
	}
	if r.Players[1] != nil && r.Players[1].UserID == userID {
		return "player2"
	}
	return ""
}

// Finished reports whether the match has concluded.
func (r *Room) Finished() bool {
	return r.Phase == PhaseFinished
}

// Clone returns a deep copy of the room. Projections and tests operate on
// stable snapshots while the original keeps being mutated under the lock.
func (r *Room) Clone() *Room {
	clone := *r
	for i, slot := range r.Players {
		if slot == nil {
			continue
		}
		slotClone := *slot
		slotClone.Status.Active = slot.Status.Active.Clone()
		slotClone.Status.Bench = cloneCards(slot.Status.Bench)
		slotClone.Status.Hand = cloneCards(slot.Status.Hand)
		slotClone.Status.Deck = cloneCards(slot.Status.Deck)
		clone.Players[i] = &slotClone
	}
	return &clone
}

func cloneCards(cards []*CardInstance) []*CardInstance {
	if cards == nil {
		return nil
	}
	clones := make([]*CardInstance, len(cards))
	for i, card := range cards {
		clones[i] = card.Clone()
	}
	return clones
}
