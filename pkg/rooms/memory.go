package rooms

import (
	"context"
	"sync"

	"github.com/duelist-dev/duelcore/pkg/battle"
)

// InMemoryStore keeps room aggregates in process memory. It stores and
// returns deep copies so callers never share mutable state through the
// store.
type InMemoryStore struct {
	rooms  map[string]*battle.Room
	bySlug map[string]string
	lock   sync.RWMutex
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rooms:  make(map[string]*battle.Room),
		bySlug: make(map[string]string),
	}
}

func (s *InMemoryStore) Close(ctx context.Context) error {
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*battle.Room, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return room.Clone(), nil
}

func (s *InMemoryStore) GetBySlug(ctx context.Context, slug string) (*battle.Room, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	id, ok := s.bySlug[slug]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return s.rooms[id].Clone(), nil
}

func (s *InMemoryStore) Save(ctx context.Context, room *battle.Room) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rooms[room.ID] = room.Clone()
	s.bySlug[room.Slug] = room.ID
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil
	}
	delete(s.bySlug, room.Slug)
	delete(s.rooms, id)
	return nil
}
