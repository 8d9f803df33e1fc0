package mode

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/stream"
)

// ErrUnknownMode is returned when Select gets a name that is not configured.
var ErrUnknownMode = errors.New("unknown danger mode")

// Selector keeps the configured danger modes and the current selection.
// It is a stream.Source of overrides for the engine.
type Selector struct {
	// modes maps mode names to their profiles; read-only after construction.
	modes map[string]movement.SensitivityProfile
	// current publishes the selection; an empty Mode means none.
	current *stream.Value[movement.Override]
	// mu serializes Select calls.
	mu sync.Mutex
}

// NewSelector validates every mode and returns a selector with nothing selected.
func NewSelector(modes map[string]movement.SensitivityProfile) (*Selector, error) {
	for _, name := range slices.Sorted(maps.Keys(modes)) {
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrUnknownMode)
		}

		if err := modes[name].Validate(); err != nil {
			return nil, fmt.Errorf("danger mode %q: %w", name, err)
		}
	}

	return &Selector{
		modes:   maps.Clone(modes),
		current: stream.NewValue(movement.Override{}),
	}, nil
}

// Select makes name the active mode and returns the emitted override.
// An empty name clears the selection.
func (s *Selector) Select(ctx context.Context, name string) (movement.Override, error) {
	var override movement.Override

	if name != "" {
		profile, ok := s.modes[name]
		if !ok {
			return movement.Override{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
		}

		override = movement.Override{Mode: name, Profile: &profile}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.current.Load().Mode
	s.current.Store(override)

	logger.InfoKV(ctx, "Danger mode switched", "from", previous, "to", name)

	return override, nil
}

// Current returns the latest emitted override.
func (s *Selector) Current() movement.Override {
	return s.current.Load()
}

// Modes returns the configured mode names in sorted order.
func (s *Selector) Modes() []string {
	return slices.Sorted(maps.Keys(s.modes))
}

// Profile returns the profile of a configured mode.
func (s *Selector) Profile(name string) (movement.SensitivityProfile, bool) {
	p, ok := s.modes[name]

	return p, ok
}

// Subscribe returns a subscription that first yields the current selection.
func (s *Selector) Subscribe() *stream.Subscription[movement.Override] {
	return s.current.Subscribe()
}

// Close ends every subscription.
func (s *Selector) Close() {
	s.current.Close()
}
