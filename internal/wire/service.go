package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName       = "paintstream.v1.PaintStream"
	WindowPaintMethod = "/" + ServiceName + "/WindowPaint"
	ListRoomMethod    = "/" + ServiceName + "/ListRoom"
)

// PaintStreamServer is the server API of the paint service.
type PaintStreamServer interface {
	WindowPaint(context.Context, *PaintEvent) (*PaintAck, error)
	ListRoom(context.Context, *ListRoomRequest) (*RoomSnapshot, error)
}

// UnimplementedPaintStreamServer can be embedded to get forward compatible implementations.
type UnimplementedPaintStreamServer struct{}

func (UnimplementedPaintStreamServer) WindowPaint(context.Context, *PaintEvent) (*PaintAck, error) {
	return nil, status.Error(codes.Unimplemented, "method WindowPaint not implemented")
}

func (UnimplementedPaintStreamServer) ListRoom(context.Context, *ListRoomRequest) (*RoomSnapshot, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRoom not implemented")
}

// RegisterPaintStreamServer attaches srv to a gRPC server.
func RegisterPaintStreamServer(s grpc.ServiceRegistrar, srv PaintStreamServer) {
	s.RegisterService(&PaintStreamServiceDesc, srv)
}

func windowPaintHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PaintEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaintStreamServer).WindowPaint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WindowPaintMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PaintStreamServer).WindowPaint(ctx, req.(*PaintEvent))
	}
	return interceptor(ctx, in, info, handler)
}

func listRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListRoomRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaintStreamServer).ListRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListRoomMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PaintStreamServer).ListRoom(ctx, req.(*ListRoomRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// PaintStreamServiceDesc describes the paint service for grpc.Server.
var PaintStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaintStreamServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "WindowPaint", Handler: windowPaintHandler},
		{MethodName: "ListRoom", Handler: listRoomHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// PaintStreamClient is the client API of the paint service.
type PaintStreamClient interface {
	WindowPaint(ctx context.Context, in *PaintEvent, opts ...grpc.CallOption) (*PaintAck, error)
	ListRoom(ctx context.Context, in *ListRoomRequest, opts ...grpc.CallOption) (*RoomSnapshot, error)
}

type paintStreamClient struct{ cc grpc.ClientConnInterface }

// NewPaintStreamClient returns a client that sends JSON-encoded paint messages over cc.
func NewPaintStreamClient(cc grpc.ClientConnInterface) PaintStreamClient {
	return &paintStreamClient{cc: cc}
}

func (c *paintStreamClient) WindowPaint(ctx context.Context, in *PaintEvent, opts ...grpc.CallOption) (*PaintAck, error) {
	out := new(PaintAck)
	if err := c.cc.Invoke(ctx, WindowPaintMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paintStreamClient) ListRoom(ctx context.Context, in *ListRoomRequest, opts ...grpc.CallOption) (*RoomSnapshot, error) {
	out := new(RoomSnapshot)
	if err := c.cc.Invoke(ctx, ListRoomMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
