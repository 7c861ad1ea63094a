package decks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/duelist-dev/duelcore/pkg/battle"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource reads configured decks from a sqlite database and falls
// back to the default deck for users without one.
type SQLiteSource struct {
	db       *sql.DB
	fallback Source
}

func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{
		db:       db,
		fallback: NewStaticSource(),
	}
}

func (s *SQLiteSource) GetDeck(ctx context.Context, userID string) ([]battle.CardDefinition, error) {
	q := `
	SELECT cards FROM decks WHERE user_id = ?;
	`
	var cards string
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&cards); err != nil {
		if err == sql.ErrNoRows {
			return s.fallback.GetDeck(ctx, userID)
		}
		return nil, fmt.Errorf("failed to scan deck: %v", err)
	}
	return decodeDeck(cards)
}

func decodeDeck(cards string) ([]battle.CardDefinition, error) {
	var deck []battle.CardDefinition
	if err := json.Unmarshal([]byte(cards), &deck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck: %v", err)
	}
	if len(deck) != DeckSize {
		return nil, fmt.Errorf("deck has %d cards, expected %d", len(deck), DeckSize)
	}
	return deck, nil
}
