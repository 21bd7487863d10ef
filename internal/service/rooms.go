// Package service applies replicated paint events to room storage.
package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/paintstream/internal/convert"
	"github.com/and161185/paintstream/internal/errs"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/repository"
	"github.com/and161185/paintstream/internal/wire"
)

// RoomService defines operations over room action history.
type RoomService interface {
	// Apply dispatches a paint event by kind and returns the number of actions it affected.
	Apply(ctx context.Context, ev *wire.PaintEvent) (int, error)
	// Paint upserts actions by id.
	Paint(ctx context.Context, room string, actions []model.Action) (int, error)
	// Delete tombstones actions by id; unknown ids are ignored.
	Delete(ctx context.Context, room string, ids []uuid.UUID) (int, error)
	// List returns the live actions of a room in insertion order.
	List(ctx context.Context, room string) ([]model.Action, error)
}

// RoomServiceImpl validates events before they reach the repository.
type RoomServiceImpl struct {
	repo     repository.RoomRepository
	maxBatch int
}

var _ RoomService = (*RoomServiceImpl)(nil)

// NewRoomService constructs RoomService with batch limits.
func NewRoomService(repo repository.RoomRepository, maxBatch int) *RoomServiceImpl {
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	return &RoomServiceImpl{repo: repo, maxBatch: maxBatch}
}

// Apply validates the header and converts the body according to its kind.
func (s *RoomServiceImpl) Apply(ctx context.Context, ev *wire.PaintEvent) (int, error) {
	if ev == nil {
		return 0, fmt.Errorf("nil event: %w", errs.ErrValidation)
	}
	switch ev.Kind {
	case wire.KindActionRequest:
		actions, err := convert.FromPaintEvent(ev)
		if err != nil {
			return 0, err
		}
		return s.Paint(ctx, ev.Room, actions)
	case wire.KindIsDeleted:
		ids, err := convert.IDsFromPaintEvent(ev)
		if err != nil {
			return 0, err
		}
		return s.Delete(ctx, ev.Room, ids)
	default:
		return 0, fmt.Errorf("unknown kind %q: %w", ev.Kind, errs.ErrValidation)
	}
}

// Paint validates input and delegates upsert to repository.
// Validation rules:
// - room not empty
// - len(actions) <= maxBatch
// - each ID != uuid.Nil and payload set
func (s *RoomServiceImpl) Paint(ctx context.Context, room string, actions []model.Action) (int, error) {
	if room == "" {
		return 0, fmt.Errorf("empty room: %w", errs.ErrValidation)
	}
	if len(actions) == 0 {
		return 0, nil
	}
	if len(actions) > s.maxBatch {
		return 0, fmt.Errorf("batch too large (%d > %d): %w", len(actions), s.maxBatch, errs.ErrValidation)
	}
	for i, a := range actions {
		if a.ID == uuid.Nil {
			return 0, fmt.Errorf("action[%d]: empty id: %w", i, errs.ErrInvalidAction)
		}
		if a.Payload == nil {
			return 0, fmt.Errorf("action[%d]: no payload: %w", i, errs.ErrInvalidAction)
		}
	}
	return s.repo.UpsertActions(ctx, room, actions)
}

// Delete tombstones the given ids.
func (s *RoomServiceImpl) Delete(ctx context.Context, room string, ids []uuid.UUID) (int, error) {
	if room == "" {
		return 0, fmt.Errorf("empty room: %w", errs.ErrValidation)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > s.maxBatch {
		return 0, fmt.Errorf("batch too large (%d > %d): %w", len(ids), s.maxBatch, errs.ErrValidation)
	}
	return s.repo.Tombstone(ctx, room, ids)
}

// List returns live room actions.
func (s *RoomServiceImpl) List(ctx context.Context, room string) ([]model.Action, error) {
	if room == "" {
		return nil, fmt.Errorf("empty room: %w", errs.ErrValidation)
	}
	return s.repo.ListRoom(ctx, room)
}
