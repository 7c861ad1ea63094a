package battle

// CardView is the wire rendering of a card in play. HP is clamped at zero
// for display; the stored aggregate keeps the raw value.
type CardView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Energy      int    `json:"energy"`
	AttackCost  int    `json:"attack_needs_energy"`
	RetreatCost int    `json:"escape_needs_energy"`
	HP          int    `json:"hp"`
	Attack      int    `json:"attack"`
}

// PlacedMarker stands in for an opponent board card during setup: it proves
// a card exists without revealing which.
type PlacedMarker struct {
	Placeholder string `json:"placeholder"`
}

// PlayerInfoView is the public identity of a player.
type PlayerInfoView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsOwner     bool   `json:"is_owner"`
	IsConnected bool   `json:"is_connected"`
}

// SideStatusView is one player's board as seen by a viewer. BattleCard and
// the BenchCards entries hold either *CardView or PlacedMarker. HandCards is
// populated only on the viewer's own side; decks are never shown, only
// counted.
type SideStatusView struct {
	BattleCard interface{}   `json:"battle_card,omitempty"`
	BenchCards []interface{} `json:"bench_cards"`
	BenchMax   int           `json:"bench_cards_max"`
	HandCards  []*CardView   `json:"hand_cards,omitempty"`
	HandCount  int           `json:"hand_cards_count"`
	DeckCount  int           `json:"deck_cards_count"`
	Energy     int           `json:"energy"`
	Life       int           `json:"life"`
	SetupDone  bool          `json:"setup_done"`
}

// SideView pairs a player's identity with their visible board.
type SideView struct {
	Info   PlayerInfoView `json:"info"`
	Status SideStatusView `json:"status"`
}

// PlayerView is the per-viewer snapshot of a room delivered in
// battle.update messages.
type PlayerView struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Status    Phase     `json:"status"`
	TurnOwner string    `json:"turn_player_id,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	TurnCount int       `json:"turn_count"`
	You       *SideView `json:"you"`
	Opponent  *SideView `json:"opponent"`
}

// Project derives the given viewer's snapshot of the room. It is pure: it
// never mutates the room, and it must be called over a stable snapshot, once
// per viewer per broadcast cycle.
func Project(room *Room, viewerID string) *PlayerView {
	view := &PlayerView{
		ID:        room.ID,
		Slug:      room.Slug,
		Status:    room.Phase,
		TurnOwner: room.TurnOwner,
		Winner:    room.Winner,
		TurnCount: room.TurnCount,
	}

	viewer := room.Player(viewerID)
	if viewer != nil {
		view.You = ownSide(viewer)
	}

	opponent := room.Opponent(viewerID)
	if opponent == nil {
		view.Status = PhaseWaiting
		return view
	}
	view.Opponent = opponentSide(opponent, room.Phase == PhaseSetup)

	return view
}

// ownSide renders the viewer's own board: full hand, counted deck.
func ownSide(slot *PlayerSlot) *SideView {
	status := slot.Status

	hand := make([]*CardView, len(status.Hand))
	for i, card := range status.Hand {
		hand[i] = viewCard(card)
	}

	bench := make([]interface{}, len(status.Bench))
	for i, card := range status.Bench {
		bench[i] = viewCard(card)
	}

	side := &SideView{
		Info: infoView(slot),
		Status: SideStatusView{
			BenchCards: bench,
			BenchMax:   BenchMax,
			HandCards:  hand,
			HandCount:  len(status.Hand),
			DeckCount:  len(status.Deck),
			Energy:     status.Energy,
			Life:       status.Life,
			SetupDone:  status.SetupDone,
		},
	}
	if status.Active != nil {
		side.Status.BattleCard = viewCard(status.Active)
	}
	return side
}

// opponentSide renders the opposing board: hand as a count, deck as a count,
// and board cards as opaque markers while the match is still in setup.
func opponentSide(slot *PlayerSlot, hideBoard bool) *SideView {
	status := slot.Status

	bench := make([]interface{}, len(status.Bench))
	for i, card := range status.Bench {
		if hideBoard {
			bench[i] = PlacedMarker{Placeholder: "placed"}
		} else {
			bench[i] = viewCard(card)
		}
	}

	side := &SideView{
		Info: infoView(slot),
		Status: SideStatusView{
			BenchCards: bench,
			BenchMax:   BenchMax,
			HandCount:  status.HandCount,
			DeckCount:  len(status.Deck),
			Energy:     status.Energy,
			Life:       status.Life,
			SetupDone:  status.SetupDone,
		},
	}
	if status.Active != nil {
		if hideBoard {
			side.Status.BattleCard = PlacedMarker{Placeholder: "placed"}
		} else {
			side.Status.BattleCard = viewCard(status.Active)
		}
	}
	return side
}

func infoView(slot *PlayerSlot) PlayerInfoView {
	return PlayerInfoView{
		ID:          slot.UserID,
		Name:        slot.Name,
		IsOwner:     slot.IsOwner,
		IsConnected: slot.IsConnected,
	}
}

func viewCard(card *CardInstance) *CardView {
	hp := card.HP
	if hp < 0 {
		hp = 0
	}
	return &CardView{
		ID:          card.ID,
		Name:        card.Name,
		Image:       card.Image,
		Energy:      card.Energy,
		AttackCost:  card.AttackCost,
		RetreatCost: card.RetreatCost,
		HP:          hp,
		Attack:      card.Attack,
	}
}
