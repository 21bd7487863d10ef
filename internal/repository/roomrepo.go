// Package repository declares storage contracts of the reference paint service.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/paintstream/internal/model"
)

// RoomRepository stores the actions replicated into each room.
type RoomRepository interface {
	// UpsertActions inserts actions or overwrites them by id, reviving tombstoned ones.
	// It returns the number of actions written.
	UpsertActions(ctx context.Context, room string, actions []model.Action) (int, error)

	// Tombstone marks live actions of the room deleted. Unknown ids are ignored.
	// It returns the number of actions affected.
	Tombstone(ctx context.Context, room string, ids []uuid.UUID) (int, error)

	// ListRoom returns the live actions of a room in first-insertion order.
	ListRoom(ctx context.Context, room string) ([]model.Action, error)
}
