package decks

import (
	"context"

	"github.com/duelist-dev/duelcore/pkg/battle"
)

// DeckSize is the number of cards in a playable deck.
const DeckSize = 5

// builtinCards is the default card pool used when a player has no
// configured deck.
var builtinCards = []battle.CardDefinition{
	{ID: "emberling", Name: "Emberling", Image: "images/emberling.png", HP: 40, Attack: 20, AttackCost: 1, RetreatCost: 1},
	{ID: "tidecaller", Name: "Tidecaller", Image: "images/tidecaller.png", HP: 50, Attack: 15, AttackCost: 1, RetreatCost: 1},
	{ID: "stonehide", Name: "Stonehide", Image: "images/stonehide.png", HP: 70, Attack: 10, AttackCost: 2, RetreatCost: 2},
	{ID: "galewing", Name: "Galewing", Image: "images/galewing.png", HP: 30, Attack: 25, AttackCost: 2, RetreatCost: 1},
	{ID: "thornfang", Name: "Thornfang", Image: "images/thornfang.png", HP: 45, Attack: 20, AttackCost: 1, RetreatCost: 2},
	{ID: "duskmaw", Name: "Duskmaw", Image: "images/duskmaw.png", HP: 60, Attack: 30, AttackCost: 3, RetreatCost: 2},
	{ID: "lumishell", Name: "Lumishell", Image: "images/lumishell.png", HP: 55, Attack: 10, AttackCost: 1, RetreatCost: 1},
	{ID: "voltail", Name: "Voltail", Image: "images/voltail.png", HP: 35, Attack: 25, AttackCost: 2, RetreatCost: 1},
}

// StaticSource serves the same default deck to every player. It is used
// standalone when no database is configured and as the fallback for the
// store-backed sources.
type StaticSource struct{}

func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

func (s *StaticSource) GetDeck(ctx context.Context, userID string) ([]battle.CardDefinition, error) {
	deck := make([]battle.CardDefinition, DeckSize)
	copy(deck, builtinCards[:DeckSize])
	return deck, nil
}
