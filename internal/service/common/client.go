//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/movement-guard/internal/config"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	pb "github.com/oshokin/movement-guard/internal/pb/v1"
)

// Client wraps the MovementService gRPC client with domain-typed helpers.
type Client struct {
	// conn is the underlying gRPC connection to guard-server.
	conn *grpc.ClientConn
	// api is the MovementService client.
	api pb.MovementServiceClient

	// callTimeout is the default timeout for individual unary calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to guard-server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial guard server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewMovementServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetMovementState retrieves the current danger state.
func (c *Client) GetMovementState(ctx context.Context) (movement.DangerState, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetMovementState(callCtx, new(emptypb.Empty))
	if err != nil {
		return movement.DangerState{}, fmt.Errorf("get movement state: %w", err)
	}

	return decodeState(resp)
}

// SetSafe acknowledges the current state on behalf of actor.
func (c *Client) SetSafe(ctx context.Context, actor *movement.Actor) (movement.DangerState, error) {
	if actor == nil {
		return movement.DangerState{}, errActorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetSafe(callCtx, pb.ActorToStruct(actor))
	if err != nil {
		return movement.DangerState{}, fmt.Errorf("set safe: %w", err)
	}

	return decodeState(resp)
}

// GetConfig retrieves the profiles in force and the selected danger mode.
func (c *Client) GetConfig(ctx context.Context) (movement.ConfigSnapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetConfig(callCtx, new(emptypb.Empty))
	if err != nil {
		return movement.ConfigSnapshot{}, fmt.Errorf("get config: %w", err)
	}

	return decodeConfig(resp)
}

// UpdateConfig replaces the explicit profile on the server.
func (c *Client) UpdateConfig(ctx context.Context, profile movement.SensitivityProfile) (movement.ConfigSnapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.UpdateConfig(callCtx, pb.ProfileToStruct(profile))
	if err != nil {
		return movement.ConfigSnapshot{}, fmt.Errorf("update config: %w", err)
	}

	return decodeConfig(resp)
}

// SelectDangerMode activates a danger mode; an empty name clears the selection.
func (c *Client) SelectDangerMode(ctx context.Context, name string) (movement.ConfigSnapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SelectDangerMode(callCtx, wrapperspb.String(name))
	if err != nil {
		return movement.ConfigSnapshot{}, fmt.Errorf("select danger mode: %w", err)
	}

	return decodeConfig(resp)
}

// SampleStream sends motion samples to the server.
type SampleStream struct {
	// stream is the client side of PushSamples.
	stream grpc.ClientStreamingClient[structpb.Struct, emptypb.Empty]
}

// Send transmits one sample.
func (s *SampleStream) Send(sample movement.MotionSample) error {
	if err := s.stream.Send(pb.SampleToStruct(sample)); err != nil {
		return fmt.Errorf("send sample: %w", err)
	}

	return nil
}

// Close finishes the stream and reports whether the server accepted every sample.
func (s *SampleStream) Close() error {
	if _, err := s.stream.CloseAndRecv(); err != nil {
		return fmt.Errorf("close sample stream: %w", err)
	}

	return nil
}

// PushSamples opens a sample stream. It lives until ctx ends or Close is called.
func (c *Client) PushSamples(ctx context.Context) (*SampleStream, error) {
	stream, err := c.api.PushSamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("push samples: %w", err)
	}

	return &SampleStream{stream: stream}, nil
}

// StateStream receives danger state changes.
type StateStream struct {
	// stream is the client side of WatchMovementState.
	stream grpc.ServerStreamingClient[structpb.Struct]
}

// Recv blocks until the next state arrives.
func (s *StateStream) Recv() (movement.DangerState, error) {
	msg, err := s.stream.Recv()
	if err != nil {
		return movement.DangerState{}, err
	}

	return decodeState(msg)
}

// WatchMovementState opens a stream yielding the current state and then every change.
func (c *Client) WatchMovementState(ctx context.Context) (*StateStream, error) {
	stream, err := c.api.WatchMovementState(ctx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("watch movement state: %w", err)
	}

	return &StateStream{stream: stream}, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

func decodeState(msg *structpb.Struct) (movement.DangerState, error) {
	state, err := pb.StateFromStruct(msg)
	if err != nil {
		return movement.DangerState{}, fmt.Errorf("decode state: %w", err)
	}

	return state, nil
}

func decodeConfig(msg *structpb.Struct) (movement.ConfigSnapshot, error) {
	snapshot, err := pb.ConfigFromStruct(msg)
	if err != nil {
		return movement.ConfigSnapshot{}, fmt.Errorf("decode config: %w", err)
	}

	return snapshot, nil
}
