package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oshokin/movement-guard/internal/config"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/service/common"
)

// Options configures how guard-client reaches the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Out receives the printed results; os.Stdout when nil.
	Out io.Writer
}

// defaultRetryInterval is the delay between attempts of retried operations.
const defaultRetryInterval = 1 * time.Second

// session is a connected client together with its settings.
type session struct {
	client  *common.Client
	out     io.Writer
	address string
}

// connect loads the settings and dials guard-server.
func connect(ctx context.Context, opts *Options) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &session{client: client, out: out, address: serverAddress}, nil
}

func (s *session) close() {
	_ = s.client.Close()
}

// State prints the current danger state once.
func State(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "guard-client")

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	state, err := s.client.GetMovementState(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(s.out, formatState(state))

	return err
}

// SetSafe acknowledges the current danger, retrying until the server confirms
// or ctx is cancelled.
func SetSafe(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "guard-client")

	// Identify current user and hostname for the audit log.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	logger.InfoKV(ctx, "Acknowledging danger", "server_address", s.address, "username", actor.Username)

	// attempt tries once, returns whether the server confirmed Safe.
	attempt := func() bool {
		state, err := s.client.SetSafe(ctx, actor)
		if err != nil {
			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "SetSafe failed", "error", err)

			return false
		}

		if state.Kind() != movement.KindSafe {
			return false
		}

		_, _ = fmt.Fprintln(s.out, formatState(state))

		return true
	}

	if attempt() {
		return nil
	}

	ticker := time.NewTicker(defaultRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if attempt() {
				return nil
			}
		}
	}
}

// ShowConfig prints the profiles in force and the danger modes.
func ShowConfig(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "guard-client")

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	snapshot, err := s.client.GetConfig(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(s.out, formatConfig(snapshot))

	return err
}

// ProfilePatch holds the profile fields to change; nil fields keep the current value.
type ProfilePatch struct {
	PreDangerThreshold     *float64
	PreDangerTimeout       *time.Duration
	DangerAverageThreshold *float64
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.PreDangerThreshold == nil && p.PreDangerTimeout == nil && p.DangerAverageThreshold == nil
}

// Apply returns base with the patched fields replaced.
func (p ProfilePatch) Apply(base movement.SensitivityProfile) movement.SensitivityProfile {
	if p.PreDangerThreshold != nil {
		base.PreDangerThreshold = *p.PreDangerThreshold
	}

	if p.PreDangerTimeout != nil {
		base.PreDangerTimeout = *p.PreDangerTimeout
	}

	if p.DangerAverageThreshold != nil {
		base.DangerAverageThreshold = *p.DangerAverageThreshold
	}

	return base
}

// UpdateConfig patches the server's explicit profile and prints the result.
func UpdateConfig(ctx context.Context, opts *Options, patch ProfilePatch) error {
	ctx = logger.WithName(ctx, "guard-client")

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	current, err := s.client.GetConfig(ctx)
	if err != nil {
		return err
	}

	profile := patch.Apply(current.Explicit)
	if err = profile.Validate(); err != nil {
		return err
	}

	snapshot, err := s.client.UpdateConfig(ctx, profile)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Sensitivity profile updated", "profile", snapshot.Explicit.String())

	_, err = fmt.Fprint(s.out, formatConfig(snapshot))

	return err
}

// SelectMode activates a danger mode; an empty name clears the selection.
func SelectMode(ctx context.Context, opts *Options, name string) error {
	ctx = logger.WithName(ctx, "guard-client")

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	snapshot, err := s.client.SelectDangerMode(ctx, name)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(s.out, formatConfig(snapshot))

	return err
}

// formatState renders a state as "kind" or "kind since RFC 3339".
func formatState(state movement.DangerState) string {
	since, ok := state.Since()
	if !ok {
		return state.Kind().String()
	}

	return fmt.Sprintf("%s since %s", state.Kind(), since.Local().Format(time.RFC3339))
}

// formatConfig renders a config snapshot, one field per line.
func formatConfig(c movement.ConfigSnapshot) string {
	var b strings.Builder

	mode := c.Mode
	if mode == "" {
		mode = "<none>"
	}

	modes := strings.Join(c.Modes, ", ")
	if modes == "" {
		modes = "<none>"
	}

	fmt.Fprintf(&b, "effective: %s\n", c.Effective)
	fmt.Fprintf(&b, "explicit:  %s\n", c.Explicit)
	fmt.Fprintf(&b, "mode:      %s\n", mode)
	fmt.Fprintf(&b, "modes:     %s\n", modes)

	return b.String()
}
