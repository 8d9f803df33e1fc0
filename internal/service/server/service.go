package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/engine"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/mode"
	repo "github.com/oshokin/movement-guard/internal/repository/profile"
	"github.com/oshokin/movement-guard/internal/stream"
)

// service connects the transport to the engine, the danger modes, the sample
// hub and profile persistence. It is unexported to keep the transport
// decoupled from the implementation.
type service struct {
	// engine runs the state machine.
	engine *engine.Engine
	// modes selects danger-mode overrides.
	modes *mode.Selector
	// samples receives motion samples pushed over the network.
	samples *stream.Hub[movement.MotionSample]
	// repo handles persistent storage of the explicit profile.
	repo repo.Repository
	// mu keeps a persisted profile and the engine's explicit profile in step.
	mu sync.Mutex
}

// newService creates a service over already constructed components.
func newService(
	eng *engine.Engine,
	modes *mode.Selector,
	samples *stream.Hub[movement.MotionSample],
	repository repo.Repository,
) *service {
	return &service{
		engine:  eng,
		modes:   modes,
		samples: samples,
		repo:    repository,
	}
}

// restoreProfile returns the persisted explicit profile, or fallback when none was saved.
func restoreProfile(
	ctx context.Context,
	repository repo.Repository,
	fallback movement.SensitivityProfile,
) (movement.SensitivityProfile, error) {
	if repository == nil {
		return fallback, nil
	}

	profile, err := repository.Load(ctx)
	switch {
	case err == nil:
		logger.InfoKV(ctx, "Restored sensitivity profile", "profile", profile.String())

		return profile, nil
	case errors.Is(err, repo.ErrNotFound):
		// Keep the configured profile.
		return fallback, nil
	default:
		return movement.SensitivityProfile{}, fmt.Errorf("load profile: %w", err)
	}
}

// GetMovementState returns the current danger state.
func (s *service) GetMovementState(ctx context.Context) movement.DangerState {
	state := s.engine.State()

	logger.DebugKV(ctx, "Movement state requested", "state", state.String())

	return state
}

// SetSafe acknowledges the current state on behalf of actor.
func (s *service) SetSafe(ctx context.Context, actor *movement.Actor) movement.DangerState {
	previous := s.engine.State()
	state := s.engine.SetSafe(ctx)

	var hostname, username string
	if actor != nil {
		hostname, username = actor.Hostname, actor.Username
	}

	logger.InfoKV(ctx, "Danger acknowledged", "previous", previous.String(), "hostname", hostname, "username", username)

	return state
}

// GetConfig returns the profiles in force and the selected danger mode.
func (s *service) GetConfig(context.Context) movement.ConfigSnapshot {
	return s.snapshot()
}

// UpdateConfig persists profile and makes it the engine's explicit profile.
// Nothing changes when validation or persistence fails.
func (s *service) UpdateConfig(ctx context.Context, profile movement.SensitivityProfile) (movement.ConfigSnapshot, error) {
	if err := profile.Validate(); err != nil {
		return movement.ConfigSnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(ctx, profile); err != nil {
			logger.Errorf(ctx, "Failed to persist sensitivity profile: %v", err)

			return movement.ConfigSnapshot{}, fmt.Errorf("persist profile: %w", err)
		}
	}

	if err := s.engine.UpdateConfig(ctx, profile); err != nil {
		return movement.ConfigSnapshot{}, err
	}

	return s.snapshot(), nil
}

// SelectDangerMode activates a danger mode; an empty name clears the selection.
func (s *service) SelectDangerMode(ctx context.Context, name string) (movement.ConfigSnapshot, error) {
	if _, err := s.modes.Select(ctx, name); err != nil {
		return movement.ConfigSnapshot{}, err
	}

	return s.snapshot(), nil
}

// PushSample publishes a sample received over the network.
func (s *service) PushSample(ctx context.Context, sample movement.MotionSample) {
	if dropped := s.samples.Publish(sample); dropped > 0 {
		logger.WarnKV(ctx, "Engine is behind, dropped queued samples", "dropped", dropped, "total", s.samples.Dropped())
	}
}

// Watch subscribes to danger state changes.
func (s *service) Watch(context.Context) *stream.Subscription[movement.DangerState] {
	return s.engine.Watch()
}

// snapshot describes the configuration from the selector's point of view, so
// a mode selection is visible before the engine loop has applied it.
func (s *service) snapshot() movement.ConfigSnapshot {
	explicit := s.engine.ExplicitConfig()
	override := s.modes.Current()

	effective := explicit
	if override.Profile != nil {
		effective = *override.Profile
	}

	return movement.ConfigSnapshot{
		Effective: effective,
		Explicit:  explicit,
		Mode:      override.Mode,
		Modes:     s.modes.Modes(),
	}
}
