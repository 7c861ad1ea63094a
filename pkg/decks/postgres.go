package decks

import (
	"context"
	"fmt"

	"github.com/duelist-dev/duelcore/pkg/battle"
	"github.com/jackc/pgx/v5"
)

// PostgresSource reads configured decks from a postgres database and
// falls back to the default deck for users without one.
type PostgresSource struct {
	conn     *pgx.Conn
	fallback Source
}

func NewPostgresSource(conn *pgx.Conn) *PostgresSource {
	return &PostgresSource{
		conn:     conn,
		fallback: NewStaticSource(),
	}
}

func (s *PostgresSource) GetDeck(ctx context.Context, userID string) ([]battle.CardDefinition, error) {
	q := `
	SELECT cards FROM decks WHERE user_id = $1;
	`
	var cards string
	if err := s.conn.QueryRow(ctx, q, userID).Scan(&cards); err != nil {
		if err == pgx.ErrNoRows {
			return s.fallback.GetDeck(ctx, userID)
		}
		return nil, fmt.Errorf("failed to scan deck: %v", err)
	}
	return decodeDeck(cards)
}
