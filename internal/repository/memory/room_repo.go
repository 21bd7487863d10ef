// Package memory is an in-process RoomRepository used when no database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/paintstream/internal/model"
)

type entry struct {
	action  model.Action
	deleted bool
}

type room struct {
	order []uuid.UUID
	byID  map[uuid.UUID]*entry
}

// RoomRepo keeps rooms in memory; safe for concurrent use.
type RoomRepo struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRoomRepo returns an empty store.
func NewRoomRepo() *RoomRepo { return &RoomRepo{rooms: make(map[string]*room)} }

func (r *RoomRepo) room(name string) *room {
	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{byID: make(map[uuid.UUID]*entry)}
		r.rooms[name] = rm
	}
	return rm
}

// UpsertActions keeps the first-insertion position of an id when it is written again.
func (r *RoomRepo) UpsertActions(_ context.Context, name string, actions []model.Action) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm := r.room(name)
	for _, a := range actions {
		if e, ok := rm.byID[a.ID]; ok {
			e.action, e.deleted = a.Clone(), false
			continue
		}
		rm.byID[a.ID] = &entry{action: a.Clone()}
		rm.order = append(rm.order, a.ID)
	}
	return len(actions), nil
}

func (r *RoomRepo) Tombstone(_ context.Context, name string, ids []uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	if !ok {
		return 0, nil
	}
	n := 0
	for _, id := range ids {
		if e, ok := rm.byID[id]; ok && !e.deleted {
			e.deleted = true
			n++
		}
	}
	return n, nil
}

func (r *RoomRepo) ListRoom(_ context.Context, name string) ([]model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[name]
	if !ok {
		return nil, nil
	}
	var out []model.Action
	for _, id := range rm.order {
		if e := rm.byID[id]; !e.deleted {
			out = append(out, e.action.Clone())
		}
	}
	return out, nil
}
