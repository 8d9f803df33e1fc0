package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/movement-guard/internal/clock"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
	"github.com/oshokin/movement-guard/internal/stream"
)

var epoch = time.Date(2026, time.May, 4, 9, 30, 0, 0, time.UTC)

// harness drives an engine with a virtual clock inside a synctest bubble.
type harness struct {
	clk     *clock.Virtual
	samples *stream.Hub[movement.MotionSample]
	modes   *stream.Value[movement.Override]
	engine  *Engine
}

func newHarness(t *testing.T, profile movement.SensitivityProfile) *harness {
	t.Helper()

	h := &harness{
		clk:     clock.NewVirtual(epoch),
		samples: stream.NewHub[movement.MotionSample](16),
		modes:   stream.NewValue(movement.Override{}),
	}

	e, err := New(h.clk, h.samples, h.modes, WithProfile(profile))
	require.NoError(t, err)

	h.engine = e
	t.Cleanup(e.Close)

	return h
}

// push publishes a sample of the given magnitude and waits until it is handled.
func (h *harness) push(magnitude float64) {
	h.samples.Publish(movement.MotionSample{Timestamp: h.clk.Now(), Magnitude: magnitude})
	synctest.Wait()
}

// advance moves virtual time and waits for any timer-driven evaluation.
func (h *harness) advance(d time.Duration) {
	h.clk.Advance(d)
	synctest.Wait()
}

func (h *harness) kind() movement.Kind {
	return h.engine.State().Kind()
}

// TestNew rejects missing inputs and invalid initial profiles.
func TestNew(t *testing.T) {
	t.Parallel()

	hub := stream.NewHub[movement.MotionSample](1)

	_, err := New(nil, hub, nil)
	require.ErrorIs(t, err, errClockRequired)

	_, err = New(clock.Real(), nil, nil)
	require.ErrorIs(t, err, errSamplesRequired)

	bad := movement.DefaultProfile()
	bad.PreDangerTimeout = 0

	_, err = New(clock.Real(), hub, nil, WithProfile(bad))
	require.ErrorIs(t, err, movement.ErrNonPositivePreDangerTimeout)

	e, err := New(clock.Real(), hub, nil)
	require.NoError(t, err)
	require.Equal(t, movement.DefaultProfile(), e.Config())
	require.Equal(t, movement.KindSafe, e.State().Kind())
}

// TestEngine_EscalateThenClear confirms danger after stillness and clears it on acknowledgement.
func TestEngine_EscalateThenClear(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(t.Context())

		h.push(100)
		require.NotEqual(t, movement.KindSafe, h.kind())

		for range 5 {
			h.advance(p.PreDangerTimeout / 2)
			h.push(0)
		}

		require.Equal(t, movement.KindDanger, h.kind())

		state := h.engine.SetSafe(t.Context())
		require.Equal(t, movement.KindSafe, state.Kind())
		require.Equal(t, movement.KindSafe, h.kind())
	})
}

// TestEngine_ThresholdSwapThroughDangerMode evaluates shocks against the mode profile in force.
func TestEngine_ThresholdSwapThroughDangerMode(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		explicit := movement.DefaultProfile()
		explicit.PreDangerThreshold = 50
		h := newHarness(t, explicit)
		h.engine.StartListening(t.Context())

		h.push(40)
		require.Equal(t, movement.KindSafe, h.kind())

		climbing := explicit
		climbing.PreDangerThreshold = 30
		h.modes.Store(movement.Override{Mode: "climbing", Profile: &climbing})
		synctest.Wait()

		require.Equal(t, climbing, h.engine.Config())
		require.Equal(t, explicit, h.engine.ExplicitConfig())
		require.Equal(t, "climbing", h.engine.Override().Mode)

		h.push(40)
		require.Equal(t, movement.KindPreDangerAcc, h.kind())

		h.modes.Store(movement.Override{})
		synctest.Wait()
		require.Equal(t, explicit, h.engine.Config())
	})
}

// TestEngine_DoubleShock escalates to PreDanger and then Danger on the timer alone.
func TestEngine_DoubleShock(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(t.Context())

		h.push(100)
		h.advance(time.Second)
		h.push(100)
		require.Equal(t, movement.KindPreDanger, h.kind())

		since, ok := h.engine.State().Since()
		require.True(t, ok)
		require.Equal(t, epoch.Add(time.Second), since)

		h.advance(p.PreDangerTimeout - time.Millisecond)
		require.Equal(t, movement.KindPreDanger, h.kind())

		h.advance(time.Millisecond)
		require.Equal(t, movement.KindDanger, h.kind())
	})
}

// TestEngine_Recovery returns to Safe once a sample shows movement held for the recovery period.
func TestEngine_Recovery(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(t.Context())

		h.push(100)
		h.advance(time.Second)
		h.push(5)
		require.Equal(t, movement.KindPreDangerAcc, h.kind())

		// Time alone never clears a pending danger.
		h.advance(p.RecoveryHold())
		require.Equal(t, movement.KindPreDangerAcc, h.kind())

		h.push(5)
		require.Equal(t, movement.KindSafe, h.kind())

		h.advance(2 * p.PreDangerTimeout)
		require.Equal(t, movement.KindSafe, h.kind())
		require.Zero(t, h.clk.ActiveTimers())
	})
}

// TestEngine_UpdateConfigReschedules applies a shorter timeout to a pending escalation.
func TestEngine_UpdateConfigReschedules(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(t.Context())

		h.push(100)
		require.Equal(t, movement.KindPreDangerAcc, h.kind())

		shorter := p
		shorter.PreDangerTimeout = 4 * time.Second
		require.NoError(t, h.engine.UpdateConfig(t.Context(), shorter))
		require.Equal(t, movement.KindPreDangerAcc, h.kind())
		require.Equal(t, shorter, h.engine.Config())

		h.advance(4 * time.Second)
		require.Equal(t, movement.KindDanger, h.kind())
	})
}

// TestEngine_UpdateConfigRejected leaves profile and state untouched.
func TestEngine_UpdateConfigRejected(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(t.Context())
		h.push(100)

		before := h.engine.State()

		bad := p
		bad.DangerAverageThreshold = -1
		err := h.engine.UpdateConfig(t.Context(), bad)
		require.ErrorIs(t, err, movement.ErrNegativeDangerAverageThreshold)

		require.Equal(t, p, h.engine.Config())
		require.True(t, before.Equal(h.engine.State()))
	})
}

// TestEngine_SetSafeIdempotent works before listening and repeats without effect.
func TestEngine_SetSafeIdempotent(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, movement.DefaultProfile())

		require.Equal(t, movement.KindSafe, h.engine.SetSafe(t.Context()).Kind())

		sub := h.engine.Watch()
		defer sub.Close()

		first := <-sub.C()
		require.Equal(t, movement.KindSafe, first.Kind())

		h.engine.SetSafe(t.Context())
		synctest.Wait()

		select {
		case v := <-sub.C():
			t.Fatalf("unexpected notification %s", v)
		default:
		}
	})
}

// TestEngine_StopPreservesState keeps the state and ignores inputs after Stop.
func TestEngine_StopPreservesState(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(t.Context())
		h.engine.StartListening(t.Context())

		h.push(100)
		require.Equal(t, movement.KindPreDangerAcc, h.kind())

		h.engine.Stop()
		h.engine.Stop()
		require.Equal(t, movement.KindPreDangerAcc, h.kind())
		require.Zero(t, h.clk.ActiveTimers())

		h.advance(2 * p.PreDangerTimeout)
		h.push(100)
		require.Equal(t, movement.KindPreDangerAcc, h.kind())

		h.engine.SetSafe(t.Context())
		require.Equal(t, movement.KindSafe, h.kind())

		h.engine.StartListening(t.Context())
		h.push(100)
		require.Equal(t, movement.KindPreDangerAcc, h.kind())
	})
}

// TestEngine_SourceEndFreezes keeps the last state when the motion source fails.
func TestEngine_SourceEndFreezes(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		ctx := logger.ToContext(t.Context(), zap.New(core).Sugar())

		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(ctx)

		h.push(100)

		errUnplugged := errors.New("imu unplugged")
		h.samples.Close(errUnplugged)
		synctest.Wait()

		h.advance(2 * p.PreDangerTimeout)
		require.Equal(t, movement.KindPreDangerAcc, h.kind())
		require.Zero(t, h.clk.ActiveTimers())

		failures := logs.FilterMessage("Motion source ended, danger state frozen").All()
		require.Len(t, failures, 1)
		require.Equal(t, "engine", failures[0].LoggerName)
		require.NotEmpty(t, failures[0].ContextMap()["session"])

		shorter := p
		shorter.PreDangerTimeout = time.Second
		require.NoError(t, h.engine.UpdateConfig(ctx, shorter))
		require.Equal(t, movement.KindSafe, h.engine.SetSafe(ctx).Kind())
	})
}

// TestEngine_InvalidOverrideIgnored keeps the previous profile when a mode carries a bad one.
func TestEngine_InvalidOverrideIgnored(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := movement.DefaultProfile()
		h := newHarness(t, p)
		h.engine.StartListening(t.Context())

		bad := p
		bad.PreDangerThreshold = -5
		h.modes.Store(movement.Override{Mode: "broken", Profile: &bad})
		synctest.Wait()

		require.Equal(t, p, h.engine.Config())
		require.Empty(t, h.engine.Override().Mode)
	})
}

// TestEngine_WatchFollowsTransitions delivers the current state, then changes.
func TestEngine_WatchFollowsTransitions(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, movement.DefaultProfile())
		h.engine.StartListening(t.Context())

		sub := h.engine.Watch()
		require.Equal(t, movement.KindSafe, (<-sub.C()).Kind())

		h.push(100)
		require.Equal(t, movement.KindPreDangerAcc, (<-sub.C()).Kind())

		h.engine.Close()

		_, ok := <-sub.C()
		require.False(t, ok)
	})
}

// TestEngine_ConcurrentControl never exposes a torn profile under concurrent calls.
func TestEngine_ConcurrentControl(t *testing.T) {
	t.Parallel()

	hub := stream.NewHub[movement.MotionSample](8)

	calm := movement.DefaultProfile()
	jumpy := movement.SensitivityProfile{
		PreDangerThreshold:     5,
		PreDangerTimeout:       20 * time.Millisecond,
		DangerAverageThreshold: 0.5,
	}

	e, err := New(clock.Real(), hub, nil, WithProfile(calm))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	e.StartListening(ctx)
	defer e.Close()

	var wg sync.WaitGroup

	for i := range 4 {
		wg.Go(func() {
			r := rand.New(rand.NewPCG(uint64(i), 7)) //nolint:gosec // Test data.
			for range 500 {
				hub.Publish(movement.MotionSample{Magnitude: r.Float64() * 40})
			}
		})
	}

	wg.Go(func() {
		for i := range 200 {
			profile := calm
			if i%2 == 0 {
				profile = jumpy
			}

			if err := e.UpdateConfig(ctx, profile); err != nil {
				t.Error(err)

				return
			}
		}
	})

	wg.Go(func() {
		for range 200 {
			e.SetSafe(ctx)
		}
	})

	wg.Go(func() {
		for range 500 {
			got := e.Config()
			if got != calm && got != jumpy {
				t.Errorf("torn profile %s", got)

				return
			}
		}
	})

	wg.Wait()

	e.Stop()
	require.Equal(t, movement.KindSafe, e.SetSafe(ctx).Kind())
}
