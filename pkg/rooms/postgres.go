package rooms

import (
	"context"
	"fmt"

	"github.com/duelist-dev/duelcore/pkg/battle"
	"github.com/jackc/pgx/v5"
)

type PostgresStore struct {
	conn *pgx.Conn
}

// NewPostgresStore connects to the database and verifies the connection.
// The caller is responsible for calling Close() on the store.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	if err := conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		return nil, fmt.Errorf("unable to query database: %v", err)
	}

	return &PostgresStore{
		conn: conn,
	}, nil
}

// Conn exposes the underlying connection so other components can share
// the same database.
func (s *PostgresStore) Conn() *pgx.Conn {
	return s.conn
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*battle.Room, error) {
	q := `
	SELECT data FROM rooms WHERE room_id = $1;
	`
	var data []byte
	if err := s.conn.QueryRow(ctx, q, id).Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan room: %v", err)
	}
	return decodeRoom(data)
}

func (s *PostgresStore) GetBySlug(ctx context.Context, slug string) (*battle.Room, error) {
	q := `
	SELECT data FROM rooms WHERE slug = $1;
	`
	var data []byte
	if err := s.conn.QueryRow(ctx, q, slug).Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan room: %v", err)
	}
	return decodeRoom(data)
}

func (s *PostgresStore) Save(ctx context.Context, room *battle.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}

	q := `
	INSERT INTO rooms (room_id, slug, phase, data, created_at) VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (room_id) DO UPDATE SET slug = $2, phase = $3, data = $4;
	`
	if _, err := s.conn.Exec(ctx, q, room.ID, room.Slug, string(room.Phase), data, room.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert room: %v", err)
	}

	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	q := `
	DELETE FROM rooms WHERE room_id = $1;
	`
	if _, err := s.conn.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("failed to delete room: %v", err)
	}
	return nil
}
