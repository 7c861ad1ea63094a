package decks

import (
	"context"

	"github.com/duelist-dev/duelcore/pkg/battle"
)

// Source provides the deck a player brings into a battle.
type Source interface {
	// GetDeck returns the card definitions for the user's configured deck.
	GetDeck(ctx context.Context, userID string) ([]battle.CardDefinition, error)
}
