package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/paintstream/internal/convert"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/wire"
)

// RoomRepo implements RoomRepository using PostgreSQL. Payloads are stored as the
// JSON wire form of the action.
type RoomRepo struct{ db *DB }

// NewRoomRepo constructs a room repository.
func NewRoomRepo(db *DB) *RoomRepo { return &RoomRepo{db: db} }

const upsertAction = `INSERT INTO room_actions (id, room, kind, payload) VALUES ($1,$2,$3,$4)
ON CONFLICT (room, id) DO UPDATE SET kind=EXCLUDED.kind, payload=EXCLUDED.payload, deleted=false, updated_at=now()`

// UpsertActions writes all actions in one transaction.
func (r *RoomRepo) UpsertActions(ctx context.Context, room string, actions []model.Action) (n int, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	for i, a := range actions {
		payload, mErr := json.Marshal(convert.ToStreamAction(a))
		if mErr != nil {
			return 0, fmt.Errorf("action[%d]: %w", i, mErr)
		}
		if _, err = tx.Exec(ctx, upsertAction, a.ID, room, string(a.Payload.Kind()), string(payload)); err != nil {
			return 0, fmt.Errorf("action[%d]: %w", i, err)
		}
		n++
	}
	return n, nil
}

// Tombstone marks the referenced live actions deleted.
func (r *RoomRepo) Tombstone(ctx context.Context, room string, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const q = `UPDATE room_actions SET deleted=true, updated_at=now() WHERE room=$1 AND id = ANY($2::uuid[]) AND NOT deleted`
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	tag, err := r.db.Pool.Exec(ctx, q, room, strs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListRoom returns live actions ordered by insertion sequence.
func (r *RoomRepo) ListRoom(ctx context.Context, room string) ([]model.Action, error) {
	const q = `SELECT payload FROM room_actions WHERE room=$1 AND NOT deleted ORDER BY seq ASC`
	rows, err := r.db.Pool.Query(ctx, q, room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Action
	for rows.Next() {
		var raw []byte
		if err = rows.Scan(&raw); err != nil {
			return nil, err
		}
		var sa wire.StreamAction
		if err = json.Unmarshal(raw, &sa); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		a, err := convert.FromStreamAction(sa)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
