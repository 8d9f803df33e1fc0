package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// MovementServiceName is the fully qualified service name.
const MovementServiceName = "movementguard.v1.MovementService"

// Full method names, as seen by interceptors.
const (
	MovementService_GetMovementState_FullMethodName   = "/" + MovementServiceName + "/GetMovementState"
	MovementService_SetSafe_FullMethodName            = "/" + MovementServiceName + "/SetSafe"
	MovementService_GetConfig_FullMethodName          = "/" + MovementServiceName + "/GetConfig"
	MovementService_UpdateConfig_FullMethodName       = "/" + MovementServiceName + "/UpdateConfig"
	MovementService_SelectDangerMode_FullMethodName   = "/" + MovementServiceName + "/SelectDangerMode"
	MovementService_PushSamples_FullMethodName        = "/" + MovementServiceName + "/PushSamples"
	MovementService_WatchMovementState_FullMethodName = "/" + MovementServiceName + "/WatchMovementState"
)

// MovementServiceClient is the client API for MovementService.
type MovementServiceClient interface {
	// GetMovementState returns the current danger state.
	GetMovementState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	// SetSafe acknowledges the current state on behalf of an actor.
	SetSafe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// GetConfig returns the effective and explicit profiles and the active danger mode.
	GetConfig(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	// UpdateConfig replaces the explicit profile.
	UpdateConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// SelectDangerMode activates a danger mode; an empty name clears it.
	SelectDangerMode(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	// PushSamples streams motion samples into the engine.
	PushSamples(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[structpb.Struct, emptypb.Empty], error)
	// WatchMovementState streams the current state followed by every change.
	WatchMovementState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

type movementServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMovementServiceClient creates a MovementService client on cc.
//
//nolint:ireturn // Mirrors generated gRPC clients.
func NewMovementServiceClient(cc grpc.ClientConnInterface) MovementServiceClient {
	return &movementServiceClient{cc: cc}
}

func (c *movementServiceClient) GetMovementState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.unary(ctx, MovementService_GetMovementState_FullMethodName, in, opts)
}

func (c *movementServiceClient) SetSafe(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.unary(ctx, MovementService_SetSafe_FullMethodName, in, opts)
}

func (c *movementServiceClient) GetConfig(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.unary(ctx, MovementService_GetConfig_FullMethodName, in, opts)
}

func (c *movementServiceClient) UpdateConfig(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.unary(ctx, MovementService_UpdateConfig_FullMethodName, in, opts)
}

func (c *movementServiceClient) SelectDangerMode(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.unary(ctx, MovementService_SelectDangerMode_FullMethodName, in, opts)
}

//nolint:ireturn // Mirrors generated gRPC clients.
func (c *movementServiceClient) PushSamples(
	ctx context.Context,
	opts ...grpc.CallOption,
) (grpc.ClientStreamingClient[structpb.Struct, emptypb.Empty], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)

	stream, err := c.cc.NewStream(ctx, &MovementService_ServiceDesc.Streams[0], MovementService_PushSamples_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}

	return &grpc.GenericClientStream[structpb.Struct, emptypb.Empty]{ClientStream: stream}, nil
}

//nolint:ireturn // Mirrors generated gRPC clients.
func (c *movementServiceClient) WatchMovementState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)

	stream, err := c.cc.NewStream(ctx, &MovementService_ServiceDesc.Streams[1], MovementService_WatchMovementState_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

func (c *movementServiceClient) unary(
	ctx context.Context,
	method string,
	in any,
	opts []grpc.CallOption,
) (*structpb.Struct, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, cOpts...); err != nil {
		return nil, err
	}

	return out, nil
}

// MovementServiceServer is the server API for MovementService.
// Implementations must embed UnimplementedMovementServiceServer.
type MovementServiceServer interface {
	GetMovementState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetSafe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetConfig(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SelectDangerMode(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	PushSamples(grpc.ClientStreamingServer[structpb.Struct, emptypb.Empty]) error
	WatchMovementState(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
	mustEmbedUnimplementedMovementServiceServer()
}

// UnimplementedMovementServiceServer must be embedded by value for forward compatibility.
type UnimplementedMovementServiceServer struct{}

func (UnimplementedMovementServiceServer) GetMovementState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMovementState not implemented")
}

func (UnimplementedMovementServiceServer) SetSafe(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetSafe not implemented")
}

func (UnimplementedMovementServiceServer) GetConfig(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConfig not implemented")
}

func (UnimplementedMovementServiceServer) UpdateConfig(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateConfig not implemented")
}

func (UnimplementedMovementServiceServer) SelectDangerMode(
	context.Context,
	*wrapperspb.StringValue,
) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SelectDangerMode not implemented")
}

func (UnimplementedMovementServiceServer) PushSamples(grpc.ClientStreamingServer[structpb.Struct, emptypb.Empty]) error {
	return status.Error(codes.Unimplemented, "method PushSamples not implemented")
}

func (UnimplementedMovementServiceServer) WatchMovementState(
	*emptypb.Empty,
	grpc.ServerStreamingServer[structpb.Struct],
) error {
	return status.Error(codes.Unimplemented, "method WatchMovementState not implemented")
}

func (UnimplementedMovementServiceServer) mustEmbedUnimplementedMovementServiceServer() {}

// RegisterMovementServiceServer registers srv on s.
func RegisterMovementServiceServer(s grpc.ServiceRegistrar, srv MovementServiceServer) {
	s.RegisterService(&MovementService_ServiceDesc, srv)
}

func _MovementService_GetMovementState_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MovementServiceServer).GetMovementState(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MovementService_GetMovementState_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovementServiceServer).GetMovementState(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func _MovementService_SetSafe_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MovementServiceServer).SetSafe(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MovementService_SetSafe_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovementServiceServer).SetSafe(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func _MovementService_GetConfig_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MovementServiceServer).GetConfig(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MovementService_GetConfig_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovementServiceServer).GetConfig(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func _MovementService_UpdateConfig_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MovementServiceServer).UpdateConfig(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MovementService_UpdateConfig_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovementServiceServer).UpdateConfig(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func _MovementService_SelectDangerMode_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MovementServiceServer).SelectDangerMode(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MovementService_SelectDangerMode_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovementServiceServer).SelectDangerMode(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

func _MovementService_PushSamples_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(MovementServiceServer).PushSamples(&grpc.GenericServerStream[structpb.Struct, emptypb.Empty]{ServerStream: stream})
}

func _MovementService_WatchMovementState_Handler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	return srv.(MovementServiceServer).WatchMovementState(
		in,
		&grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream},
	)
}

// MovementService_ServiceDesc is the grpc.ServiceDesc for MovementService.
var MovementService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MovementServiceName,
	HandlerType: (*MovementServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetMovementState", Handler: _MovementService_GetMovementState_Handler},
		{MethodName: "SetSafe", Handler: _MovementService_SetSafe_Handler},
		{MethodName: "GetConfig", Handler: _MovementService_GetConfig_Handler},
		{MethodName: "UpdateConfig", Handler: _MovementService_UpdateConfig_Handler},
		{MethodName: "SelectDangerMode", Handler: _MovementService_SelectDangerMode_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "PushSamples", Handler: _MovementService_PushSamples_Handler, ClientStreams: true},
		{StreamName: "WatchMovementState", Handler: _MovementService_WatchMovementState_Handler, ServerStreams: true},
	},
}
