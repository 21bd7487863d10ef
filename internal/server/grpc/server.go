// Package grpcserver exposes the reference paint service over gRPC.
package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/paintstream/internal/convert"
	"github.com/and161185/paintstream/internal/errs"
	"github.com/and161185/paintstream/internal/service"
	"github.com/and161185/paintstream/internal/wire"
)

// Server wires the room service into gRPC handlers.
type Server struct {
	wire.UnimplementedPaintStreamServer
	rooms service.RoomService
}

var _ wire.PaintStreamServer = (*Server)(nil)

// New constructs a gRPC server with an injected room service.
func New(rooms service.RoomService) *Server {
	return &Server{rooms: rooms}
}

// WindowPaint applies one replicated batch: upsert on action_request, tombstone on is_deleted.
func (s *Server) WindowPaint(ctx context.Context, ev *wire.PaintEvent) (*wire.PaintAck, error) {
	if ev == nil || ev.Room == "" {
		return nil, status.Error(codes.InvalidArgument, "empty room")
	}
	if !ev.Kind.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown kind %q", ev.Kind)
	}
	n, err := s.rooms.Apply(ctx, ev)
	if err != nil {
		return nil, toStatus("window paint", err)
	}
	return &wire.PaintAck{Room: ev.Room, Accepted: int32(n)}, nil
}

// ListRoom returns the live actions of a room.
func (s *Server) ListRoom(ctx context.Context, req *wire.ListRoomRequest) (*wire.RoomSnapshot, error) {
	if req == nil || req.Room == "" {
		return nil, status.Error(codes.InvalidArgument, "empty room")
	}
	actions, err := s.rooms.List(ctx, req.Room)
	if err != nil {
		return nil, toStatus("list room", err)
	}
	return convert.ToRoomSnapshot(req.Room, actions), nil
}

func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidAction), errors.Is(err, errs.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}
