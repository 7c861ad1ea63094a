package rooms

import (
	"context"

	"github.com/duelist-dev/duelcore/pkg/battle"
)

// Store persists battle room aggregates. A room is saved and loaded as a
// whole; per-room serialization is the caller's job.
type Store interface {
	Close(ctx context.Context) error
	Get(ctx context.Context, id string) (*battle.Room, error)
	GetBySlug(ctx context.Context, slug string) (*battle.Room, error)
	Save(ctx context.Context, room *battle.Room) error
	Delete(ctx context.Context, id string) error
}
