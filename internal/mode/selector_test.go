package mode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/stream"
)

func modes() map[string]movement.SensitivityProfile {
	return map[string]movement.SensitivityProfile{
		"skiing": {PreDangerThreshold: 60, PreDangerTimeout: 20 * time.Second, DangerAverageThreshold: 2},
		"hiking": {PreDangerThreshold: 25, PreDangerTimeout: 10 * time.Second, DangerAverageThreshold: 0.8},
	}
}

// TestNewSelector rejects invalid modes.
func TestNewSelector(t *testing.T) {
	t.Parallel()

	bad := modes()
	bad["diving"] = movement.SensitivityProfile{PreDangerTimeout: 0}

	_, err := NewSelector(bad)
	require.ErrorIs(t, err, movement.ErrNonPositivePreDangerTimeout)

	_, err = NewSelector(map[string]movement.SensitivityProfile{"": movement.DefaultProfile()})
	require.ErrorIs(t, err, ErrUnknownMode)

	s, err := NewSelector(modes())
	require.NoError(t, err)
	require.Equal(t, []string{"hiking", "skiing"}, s.Modes())
	require.False(t, s.Current().Active())
}

// TestSelector_Select emits, replaces and clears overrides.
func TestSelector_Select(t *testing.T) {
	t.Parallel()

	s, err := NewSelector(modes())
	require.NoError(t, err)

	var _ stream.Source[movement.Override] = s

	sub := s.Subscribe()
	defer sub.Close()

	require.False(t, (<-sub.C()).Active())

	got, err := s.Select(t.Context(), "skiing")
	require.NoError(t, err)
	require.Equal(t, "skiing", got.Mode)
	require.Equal(t, modes()["skiing"], *got.Profile)

	emitted := <-sub.C()
	require.Equal(t, "skiing", emitted.Mode)

	_, err = s.Select(t.Context(), "surfing")
	require.ErrorIs(t, err, ErrUnknownMode)
	require.Equal(t, "skiing", s.Current().Mode)

	got, err = s.Select(t.Context(), "")
	require.NoError(t, err)
	require.False(t, got.Active())
	require.False(t, (<-sub.C()).Active())

	p, ok := s.Profile("hiking")
	require.True(t, ok)
	require.InDelta(t, 25.0, p.PreDangerThreshold, 0)

	s.Close()

	_, ok = <-sub.C()
	require.False(t, ok)
}
