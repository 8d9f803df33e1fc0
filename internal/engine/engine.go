// Package engine runs the danger state machine against live inputs.
//
// An Engine owns one detector.Machine. While listening, a single goroutine
// selects over the motion sample subscription, the danger-mode override
// subscription and the escalation timer, and is the only consumer of those
// channels. Control calls (SetSafe, UpdateConfig) may come from any goroutine;
// they serialize with the consumer on the engine mutex, so an evaluation never
// sees a half-swapped profile and callers never see a torn state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/movement-guard/internal/clock"
	"github.com/oshokin/movement-guard/internal/detector"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/stream"
)

var (
	// errClockRequired is returned when New gets a nil clock.
	errClockRequired = errors.New("clock must be provided")
	// errSamplesRequired is returned when New gets a nil motion source.
	errSamplesRequired = errors.New("motion sample source must be provided")
)

// Engine detects danger from a stream of motion samples.
type Engine struct {
	// clock is the time source for evaluations and the escalation timer.
	clock clock.Clock
	// samples is the motion sample source.
	samples stream.Source[movement.MotionSample]
	// overrides is the optional danger-mode source.
	overrides stream.Source[movement.Override]
	// state publishes every state change.
	state *stream.Value[movement.DangerState]

	// mu serializes the consumer loop with control calls and guards the fields below.
	mu sync.Mutex
	// machine is the state machine; only touched with mu held.
	machine *detector.Machine
	// explicit is the profile set through UpdateConfig.
	explicit movement.SensitivityProfile
	// override is the latest danger-mode emission.
	override movement.Override
	// timer wakes the loop for time-driven transitions; nil while not listening.
	timer clock.Timer
	// frozen is set when the motion source ended; the state stays as it was.
	frozen bool
	// cancel stops the running loop; nil while not listening.
	cancel context.CancelFunc
	// done is closed when the running loop has exited.
	done chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfile sets the initial explicit profile. It is validated by New.
func WithProfile(profile movement.SensitivityProfile) Option {
	return func(e *Engine) {
		e.explicit = profile
	}
}

// New creates an engine in the Safe state using the default profile unless
// WithProfile says otherwise. overrides may be nil when no danger-mode source exists.
func New(
	clk clock.Clock,
	samples stream.Source[movement.MotionSample],
	overrides stream.Source[movement.Override],
	opts ...Option,
) (*Engine, error) {
	if clk == nil {
		return nil, errClockRequired
	}

	if samples == nil {
		return nil, errSamplesRequired
	}

	e := &Engine{
		clock:     clk,
		samples:   samples,
		overrides: overrides,
		state:     stream.NewValue(movement.Safe()),
		machine:   detector.NewMachine(),
		explicit:  movement.DefaultProfile(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.explicit.Validate(); err != nil {
		return nil, fmt.Errorf("initial profile: %w", err)
	}

	return e, nil
}

// StartListening subscribes to the sources and starts the consumer loop.
// Calling it while already listening does nothing. The loop logs through the
// logger carried by ctx and also ends if ctx is cancelled; Stop must still be
// called to release it.
func (e *Engine) StartListening(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return
	}

	session := uuid.NewString()
	loopCtx, cancel := context.WithCancel(logger.WithKV(logger.WithName(ctx, "engine"), "session", session))

	samples := e.samples.Subscribe()

	var overrides *stream.Subscription[movement.Override]
	if e.overrides != nil {
		overrides = e.overrides.Subscribe()
	}

	now := e.clock.Now()
	e.timer = e.clock.NewTimer(time.Hour)
	e.timer.Stop()
	e.frozen = false
	e.rearmLocked(now)

	e.cancel = cancel
	e.done = make(chan struct{})

	logger.InfoKV(loopCtx, "Danger engine listening", "profile", e.profileLocked().String(), "state", e.machine.State().String())

	go e.run(loopCtx, samples, overrides, e.timer.C(), e.done)
}

// Stop ends the consumer loop and cancels any pending wake-up. It does not
// reset the danger state. When Stop returns no input can mutate the state
// any more. Stop is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done, timer := e.cancel, e.done, e.timer
	e.cancel, e.done, e.timer = nil, nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	timer.Stop()
}

// Close stops the engine and ends every Watch subscription.
func (e *Engine) Close() {
	e.Stop()
	e.state.Close()
}

// SetSafe acknowledges the current state and forces Safe. It may be called at
// any time, including before StartListening or after Stop.
func (e *Engine) SetSafe(ctx context.Context) movement.DangerState {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.applyLocked(ctx, e.machine.Reset(), now)

	return e.machine.State()
}

// UpdateConfig validates profile and makes it the explicit profile. On error
// neither the profile nor the state changes. The state itself is never
// changed by this call; the new thresholds govern later evaluations.
func (e *Engine) UpdateConfig(ctx context.Context, profile movement.SensitivityProfile) error {
	if err := profile.Validate(); err != nil {
		logger.WarnKV(ctx, "Rejected sensitivity profile", "profile", profile.String(), "error", err)

		return fmt.Errorf("update config: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.explicit = profile
	e.rearmLocked(e.clock.Now())

	logger.InfoKV(ctx, "Sensitivity profile updated", "profile", profile.String(), "mode", e.override.Mode)

	return nil
}

// Config returns the profile in force: the danger-mode override when one is
// active, otherwise the explicit profile.
func (e *Engine) Config() movement.SensitivityProfile {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.profileLocked()
}

// ExplicitConfig returns the profile set through UpdateConfig or WithProfile.
func (e *Engine) ExplicitConfig() movement.SensitivityProfile {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.explicit
}

// Override returns the latest danger-mode emission.
func (e *Engine) Override() movement.Override {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.override
}

// State returns the current danger state.
func (e *Engine) State() movement.DangerState {
	return e.state.Load()
}

// Watch subscribes to state changes. The subscription first yields the current
// state and afterwards only the latest change if the reader falls behind.
func (e *Engine) Watch() *stream.Subscription[movement.DangerState] {
	return e.state.Subscribe()
}

// run is the consumer loop.
func (e *Engine) run(
	ctx context.Context,
	samples *stream.Subscription[movement.MotionSample],
	overrides *stream.Subscription[movement.Override],
	ticks <-chan time.Time,
	done chan<- struct{},
) {
	defer close(done)
	defer samples.Close()

	sampleC := samples.C()

	var overrideC <-chan movement.Override
	if overrides != nil {
		defer overrides.Close()

		overrideC = overrides.C()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Danger engine stopped")

			return
		case sample, ok := <-sampleC:
			if !ok {
				e.freeze(ctx, samples.Err())

				sampleC = nil

				continue
			}

			e.handleSample(ctx, sample)
		case override, ok := <-overrideC:
			if !ok {
				logger.WarnKV(ctx, "Danger mode source ended, keeping the last override", "error", overrides.Err())

				overrideC = nil

				continue
			}

			e.handleOverride(ctx, override)
		case <-ticks:
			e.handleTick(ctx)
		}
	}
}

func (e *Engine) handleSample(ctx context.Context, sample movement.MotionSample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil || e.frozen {
		return
	}

	now := e.clock.Now()
	tr := e.machine.OnSample(now, sample, e.profileLocked())

	logger.DebugKV(
		ctx,
		"Motion sample evaluated",
		"magnitude", sample.Magnitude,
		"average", e.machine.Average(),
		"window", e.machine.WindowSize(),
		"state", tr.To.String(),
	)

	e.applyLocked(ctx, tr, now)
}

func (e *Engine) handleTick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil || e.frozen {
		return
	}

	now := e.clock.Now()
	e.applyLocked(ctx, e.machine.OnTick(now, e.profileLocked()), now)
}

func (e *Engine) handleOverride(ctx context.Context, override movement.Override) {
	if override.Profile != nil {
		if err := override.Profile.Validate(); err != nil {
			logger.WarnKV(ctx, "Ignored invalid danger mode profile", "mode", override.Mode, "error", err)

			return
		}

		// Keep our own copy; the sender may reuse its value.
		profile := *override.Profile
		override.Profile = &profile
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	e.override = override
	e.rearmLocked(e.clock.Now())

	if override.Active() {
		logger.InfoKV(ctx, "Danger mode selected", "mode", override.Mode, "profile", override.Profile.String())
	} else {
		logger.InfoKV(ctx, "Danger mode cleared", "profile", e.explicit.String())
	}
}

// freeze handles the end of the motion source: no further transitions happen
// until the next StartListening, but control calls keep working.
func (e *Engine) freeze(ctx context.Context, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frozen = true
	if e.timer != nil {
		e.timer.Stop()
	}

	logger.ErrorKV(ctx, "Motion source ended, danger state frozen", "state", e.machine.State().String(), "error", cause)
}

// applyLocked publishes a transition and re-arms the escalation timer.
func (e *Engine) applyLocked(ctx context.Context, tr movement.Transition, now time.Time) {
	if tr.Changed() {
		e.state.Store(tr.To)

		kvs := []any{"from", tr.From.String(), "to", tr.To.String(), "reason", tr.Reason}
		if tr.To.Kind() == movement.KindDanger {
			logger.WarnKV(ctx, "Danger confirmed", kvs...)
		} else {
			logger.InfoKV(ctx, "Danger state changed", kvs...)
		}
	}

	e.rearmLocked(now)
}

// rearmLocked schedules the next time-driven evaluation, or cancels it when
// the machine needs none.
func (e *Engine) rearmLocked(now time.Time) {
	if e.timer == nil || e.frozen {
		return
	}

	deadline, ok := e.machine.NextDeadline(e.profileLocked())
	if !ok {
		e.timer.Stop()

		return
	}

	e.timer.Reset(max(deadline.Sub(now), 0))
}

func (e *Engine) profileLocked() movement.SensitivityProfile {
	if e.override.Profile != nil {
		return *e.override.Profile
	}

	return e.explicit
}
