package movement

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/mode"
	pb "github.com/oshokin/movement-guard/internal/pb/v1"
	"github.com/oshokin/movement-guard/internal/stream"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	GetMovementState(ctx context.Context) domain.DangerState
	SetSafe(ctx context.Context, actor *domain.Actor) domain.DangerState
	GetConfig(ctx context.Context) domain.ConfigSnapshot
	UpdateConfig(ctx context.Context, profile domain.SensitivityProfile) (domain.ConfigSnapshot, error)
	SelectDangerMode(ctx context.Context, name string) (domain.ConfigSnapshot, error)
	PushSample(ctx context.Context, sample domain.MotionSample)
	Watch(ctx context.Context) *stream.Subscription[domain.DangerState]
}

// Server implements the MovementService gRPC API.
type Server struct {
	pb.UnimplementedMovementServiceServer

	// service provides the business logic for movement operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetMovementState returns the current danger state.
func (s *Server) GetMovementState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return pb.StateToStruct(s.service.GetMovementState(ctx)), nil
}

// SetSafe acknowledges the current state on behalf of the requesting actor.
func (s *Server) SetSafe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	actor := pb.ActorFromStruct(req)
	if actor == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	return pb.StateToStruct(s.service.SetSafe(ctx, actor)), nil
}

// GetConfig returns the profiles in force and the selected danger mode.
func (s *Server) GetConfig(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return pb.ConfigToStruct(s.service.GetConfig(ctx)), nil
}

// UpdateConfig replaces the explicit profile.
func (s *Server) UpdateConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	profile, err := pb.ProfileFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	snapshot, err := s.service.UpdateConfig(ctx, profile)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProfile) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		return nil, status.Error(codes.Internal, "unable to persist profile")
	}

	return pb.ConfigToStruct(snapshot), nil
}

// SelectDangerMode activates a danger mode; an empty name clears the selection.
func (s *Server) SelectDangerMode(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	snapshot, err := s.service.SelectDangerMode(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, mode.ErrUnknownMode) {
			return nil, status.Error(codes.NotFound, err.Error())
		}

		return nil, status.Error(codes.Internal, "unable to select danger mode")
	}

	return pb.ConfigToStruct(snapshot), nil
}

// PushSamples feeds a client stream of motion samples into the engine.
func (s *Server) PushSamples(stream grpc.ClientStreamingServer[structpb.Struct, emptypb.Empty]) error {
	ctx := stream.Context()

	var received int

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			logger.DebugKV(ctx, "Sample stream closed by client", "samples", received)

			return stream.SendAndClose(new(emptypb.Empty))
		}

		if err != nil {
			return err
		}

		sample, err := pb.SampleFromStruct(msg)
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "sample %d: %v", received+1, err)
		}

		s.service.PushSample(ctx, sample)
		received++
	}
}

// WatchMovementState streams the current state followed by every change.
func (s *Server) WatchMovementState(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	sub := s.service.Watch(ctx)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-sub.C():
			if !ok {
				return status.Error(codes.Unavailable, "server is shutting down")
			}

			if err := stream.Send(pb.StateToStruct(state)); err != nil {
				return err
			}
		}
	}
}
