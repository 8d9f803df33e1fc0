package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/movement-guard/internal/api/grpc/movement"
	"github.com/oshokin/movement-guard/internal/clock"
	"github.com/oshokin/movement-guard/internal/config"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/engine"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/mode"
	pb "github.com/oshokin/movement-guard/internal/pb/v1"
	repository "github.com/oshokin/movement-guard/internal/repository/profile"
	"github.com/oshokin/movement-guard/internal/sensor"
	"github.com/oshokin/movement-guard/internal/stream"
	"github.com/oshokin/movement-guard/internal/version"
)

// Options controls the guard-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// ProfileFile overrides where the explicit profile is persisted.
	ProfileFile string
	// SerialPort overrides the IMU serial port.
	SerialPort string
	// Mode overrides the danger mode selected at startup.
	Mode string
	// AllowMultipleInstances skips the running-process check.
	AllowMultipleInstances bool
	// Clock overrides the real clock.
	Clock clock.Clock
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// errSerialEnded is the cause recorded when the serial device stops sending.
var errSerialEnded = errors.New("serial sensor stopped sending")

// Run starts the danger engine and the gRPC server and blocks until the
// context is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "guard-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if lvl, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(lvl)
	}

	if !opts.AllowMultipleInstances {
		if err = ensureSingleInstance(); err != nil {
			return err
		}
	}

	applyOverrides(settings, opts)

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	repo := repository.NewFileRepository(settings.ProfileFile)

	explicit, err := restoreProfile(ctx, repo, settings.Profile.ToProfile())
	if err != nil {
		return fmt.Errorf("initialise profile: %w", err)
	}

	modes, err := mode.NewSelector(settings.Modes())
	if err != nil {
		return fmt.Errorf("initialise danger modes: %w", err)
	}
	defer modes.Close()

	if settings.DefaultMode != "" {
		if _, err = modes.Select(ctx, settings.DefaultMode); err != nil {
			return fmt.Errorf("select danger mode: %w", err)
		}
	}

	samples := stream.NewHub[movement.MotionSample](settings.SampleBuffer)
	defer samples.Close(nil)

	eng, err := engine.New(clk, samples, modes, engine.WithProfile(explicit))
	if err != nil {
		return fmt.Errorf("initialise engine: %w", err)
	}
	defer eng.Close()

	eng.StartListening(engineContext(ctx, settings.EngineLogLevel))

	if settings.Serial.Port != "" {
		port, openErr := sensor.OpenSerial(settings.Serial)
		if openErr != nil {
			return openErr
		}

		defer port.Close() //nolint:errcheck // Best effort on shutdown.

		go pumpSerial(ctx, port, clk, samples, settings.Serial.Port)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterMovementServiceServer(grpcServer, api.NewServer(newService(eng, modes, samples, repo)))

	logger.InfoKV(
		ctx,
		"Guard server listening",
		"version", version.Short(),
		"listen_address", listenAddress,
		"profile_file", settings.ProfileFile,
		"profile", eng.ExplicitConfig().String(),
		"mode", settings.DefaultMode,
		"serial_port", settings.Serial.Port,
	)

	if err = serve(ctx, grpcServer, lis, eng, settings.Timeout); err != nil {
		return err
	}

	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// serve runs grpcServer on lis until ctx is cancelled or serving fails. Both
// paths close the engine and stop the server before serve returns.
func serve(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, eng *engine.Engine, timeout time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Done channel is closed after the server fully stops.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")

		// Ending the engine first closes every watch stream.
		eng.Close()
		stopGracefully(ctx, grpcServer, timeout)
		close(done)
	}()

	err := grpcServer.Serve(lis)

	cancel()
	<-done

	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// applyOverrides replaces configured values with command line options.
func applyOverrides(settings *config.Config, opts *Options) {
	if opts.ProfileFile != "" {
		settings.ProfileFile = opts.ProfileFile
	}

	if opts.SerialPort != "" {
		settings.Serial.Port = opts.SerialPort
		if settings.Serial.BaudRate <= 0 {
			settings.Serial.BaudRate = config.DefaultBaudRate
		}
	}

	if opts.Mode != "" {
		settings.DefaultMode = opts.Mode
	}
}

// engineContext gives the engine its own log level when one is configured.
func engineContext(ctx context.Context, level string) context.Context {
	if level == "" {
		return ctx
	}

	lvl, ok := logger.ParseLogLevel(level)
	if !ok {
		return ctx
	}

	leveled, _ := logger.Leveled(logger.FromContext(ctx), lvl)

	return logger.ToContext(ctx, leveled)
}

// pumpSerial feeds the serial device into the sample hub. When the device
// stops, the hub is closed so the engine freezes its state.
func pumpSerial(
	ctx context.Context,
	port io.Reader,
	clk clock.Clock,
	samples *stream.Hub[movement.MotionSample],
	name string,
) {
	ctx = logger.WithKV(logger.WithName(ctx, "serial"), "port", name)

	stats, err := sensor.Pump(ctx, port, clk, samples)
	if ctx.Err() != nil {
		return
	}

	cause := errSerialEnded
	if err != nil {
		cause = fmt.Errorf("%w: %w", errSerialEnded, err)
	}

	logger.ErrorKV(ctx, "Serial sensor stopped", "samples", stats.Samples, "skipped", stats.Skipped, "error", cause)
	samples.Close(cause)
}

// stopGracefully waits up to timeout for in-flight calls, then forces the stop.
func stopGracefully(ctx context.Context, grpcServer *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})

	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-stopped:
	case <-timer.C:
		logger.Warn(ctx, "Graceful stop timed out, closing remaining streams")
		grpcServer.Stop()
		<-stopped
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
