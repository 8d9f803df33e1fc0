package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oshokin/movement-guard/internal/clock"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/sensor"
	"github.com/oshokin/movement-guard/internal/service/common"
)

// ReplayOptions configures the replay operation.
type ReplayOptions struct {
	Options

	// File holds recorded sensor lines; "-" reads standard input.
	File string

	// Realtime spaces timestamped samples by their recorded intervals.
	Realtime bool
}

// Replay streams a recorded sensor file to the server.
func Replay(ctx context.Context, opts *ReplayOptions) error {
	ctx = logger.WithName(ctx, "guard-client")

	var recording io.Reader = os.Stdin

	if opts.File != "-" {
		file, err := os.Open(filepath.Clean(opts.File))
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer file.Close() //nolint:errcheck // Read-only file.

		recording = file
	}

	s, err := connect(ctx, &opts.Options)
	if err != nil {
		return err
	}
	defer s.close()

	stats, err := s.replay(ctx, recording, opts.Realtime)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out, "replayed %d samples, skipped %d lines\n", stats.Samples, stats.Skipped)

	return err
}

func (s *session) replay(ctx context.Context, r io.Reader, realtime bool) (sensor.Stats, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.PushSamples(streamCtx)
	if err != nil {
		return sensor.Stats{}, err
	}

	sink := &streamSink{ctx: streamCtx, stream: stream, realtime: realtime}

	stats, pumpErr := sensor.Pump(streamCtx, r, clock.Real(), sink)
	if sendErr := sink.failure(); sendErr != nil {
		// A rejected stream reports its status on close; Send only sees io.EOF.
		if closeErr := stream.Close(); closeErr != nil && errors.Is(sendErr, io.EOF) {
			return stats, closeErr
		}

		return stats, sendErr
	}

	if pumpErr != nil {
		return stats, pumpErr
	}

	if err = stream.Close(); err != nil {
		return stats, err
	}

	logger.InfoKV(ctx, "Recording replayed", "samples", stats.Samples, "skipped", stats.Skipped)

	return stats, nil
}

// streamSink forwards pumped samples to a PushSamples stream. After the first
// send error the remaining samples are discarded.
type streamSink struct {
	ctx      context.Context //nolint:containedctx // Bounds realtime pauses of one replay.
	stream   *common.SampleStream
	realtime bool

	mu   sync.Mutex
	err  error
	last time.Time
}

// Publish implements sensor.Sink.
func (k *streamSink) Publish(sample movement.MotionSample) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.err != nil {
		return 0
	}

	if k.realtime && !k.last.IsZero() {
		k.pause(sample.Timestamp.Sub(k.last))
	}

	k.last = sample.Timestamp

	if err := k.stream.Send(sample); err != nil {
		k.err = err
	}

	return 0
}

func (k *streamSink) pause(d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-k.ctx.Done():
	case <-timer.C:
	}
}

func (k *streamSink) failure() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.err
}
