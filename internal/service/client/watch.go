package client

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
)

// WatchOptions configures the watch operation.
type WatchOptions struct {
	Options

	// RetryInterval is the delay before reconnecting a broken stream.
	RetryInterval time.Duration

	// UntilDanger returns as soon as the server reports Danger.
	UntilDanger bool
}

// Watch prints the danger state and every change until ctx is cancelled.
// Broken streams are reopened after RetryInterval.
func Watch(ctx context.Context, opts *WatchOptions) error {
	ctx = logger.WithName(ctx, "guard-client")

	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}

	s, err := connect(ctx, &opts.Options)
	if err != nil {
		return err
	}
	defer s.close()

	logger.InfoKV(ctx, "Watching movement state", "server_address", s.address)

	for {
		danger, err := s.follow(ctx, opts.UntilDanger)
		if danger {
			return nil
		}

		if ctx.Err() != nil {
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		}

		logger.ErrorKV(ctx, "State stream broken, reconnecting", "error", err, "retry_in", opts.RetryInterval.String())

		timer := time.NewTimer(opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil
		case <-timer.C:
		}
	}
}

// follow prints states from one stream until it breaks. With untilDanger it
// stops and reports true once Danger arrives.
func (s *session) follow(ctx context.Context, untilDanger bool) (bool, error) {
	stream, err := s.client.WatchMovementState(ctx)
	if err != nil {
		return false, err
	}

	for {
		state, err := stream.Recv()
		if err != nil {
			return false, err
		}

		if _, err = fmt.Fprintln(s.out, formatState(state)); err != nil {
			return false, err
		}

		if untilDanger && state.Kind() == movement.KindDanger {
			return true, nil
		}
	}
}
