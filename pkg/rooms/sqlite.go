package rooms

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/duelist-dev/duelcore/pkg/battle"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string, migrations string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteStore{
		db: db,
	}, nil
}

// DB exposes the underlying handle so other components can share the
// same database file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*battle.Room, error) {
	q := `
	SELECT data FROM rooms WHERE room_id = ?;
	`
	var data []byte
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan room: %v", err)
	}
	return decodeRoom(data)
}

func (s *SQLiteStore) GetBySlug(ctx context.Context, slug string) (*battle.Room, error) {
	q := `
	SELECT data FROM rooms WHERE slug = ?;
	`
	var data []byte
	if err := s.db.QueryRowContext(ctx, q, slug).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan room: %v", err)
	}
	return decodeRoom(data)
}

func (s *SQLiteStore) Save(ctx context.Context, room *battle.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}

	q := `
	INSERT OR REPLACE INTO rooms (room_id, slug, phase, data, created_at)
	VALUES (?, ?, ?, ?, ?);
	`
	if _, err := s.db.ExecContext(ctx, q, room.ID, room.Slug, string(room.Phase), data, room.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert room: %v", err)
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	q := `
	DELETE FROM rooms WHERE room_id = ?;
	`
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("failed to delete room: %v", err)
	}
	return nil
}
