package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/oshokin/movement-guard/internal/clock"
	"github.com/oshokin/movement-guard/internal/config"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
)

// Sink receives parsed samples. stream.Hub satisfies it.
type Sink interface {
	// Publish delivers a sample and returns how many queued samples were dropped.
	Publish(sample movement.MotionSample) int
}

// Stats summarizes one Pump run.
type Stats struct {
	// Samples is the number of readings published.
	Samples int
	// Skipped is the number of malformed lines.
	Skipped int
	// Dropped is the number of queued samples evicted by the sink.
	Dropped int
}

// errSinkRequired is returned when Pump gets no sink.
var errSinkRequired = errors.New("sample sink must be provided")

// Pump reads lines from r and publishes every reading into sink until r is
// exhausted or ctx is cancelled. Malformed lines are logged and skipped.
// Readings without a timestamp are stamped with clk.
func Pump(ctx context.Context, r io.Reader, clk clock.Clock, sink Sink) (Stats, error) {
	var stats Stats

	if sink == nil {
		return stats, errSinkRequired
	}

	scan := bufio.NewScanner(r)

	lines := make(chan string)
	scanErr := make(chan error, 1)

	// The blocking Scan must not hold up cancellation.
	go func() {
		defer close(lines)

		for scan.Scan() {
			select {
			case lines <- scan.Text():
			case <-ctx.Done():
				return
			}
		}

		scanErr <- scan.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return stats, err
				}

				select {
				case err := <-scanErr:
					if err != nil {
						return stats, fmt.Errorf("read sensor: %w", err)
					}
				default:
				}

				logger.InfoKV(ctx, "Sensor input ended", "samples", stats.Samples, "skipped", stats.Skipped)

				return stats, nil
			}

			sample, ok, err := ParseLine(line, clk.Now())
			if err != nil {
				stats.Skipped++

				logger.WarnKV(ctx, "Skipped sensor line", "line", line, "error", err)

				continue
			}

			if !ok {
				continue
			}

			stats.Samples++
			stats.Dropped += sink.Publish(sample)
		}
	}
}

// OpenSerial opens the IMU serial port described by cfg. The caller closes it.
//
//nolint:ireturn // serial.Open returns the interface.
func OpenSerial(cfg config.Serial) (serial.Port, error) {
	baudRate := cfg.BaudRate
	if baudRate <= 0 {
		baudRate = config.DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	return port, nil
}
