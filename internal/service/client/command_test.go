package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/movement-guard/internal/domain/movement"
)

// TestProfilePatch replaces only the fields that were set.
func TestProfilePatch(t *testing.T) {
	t.Parallel()

	require.True(t, ProfilePatch{}.Empty())

	base := movement.DefaultProfile()
	require.Equal(t, base, ProfilePatch{}.Apply(base))

	threshold := 45.0
	timeout := 3 * time.Second

	patch := ProfilePatch{PreDangerThreshold: &threshold, PreDangerTimeout: &timeout}
	require.False(t, patch.Empty())

	got := patch.Apply(base)
	require.InDelta(t, 45.0, got.PreDangerThreshold, 0)
	require.Equal(t, timeout, got.PreDangerTimeout)
	require.InDelta(t, base.DangerAverageThreshold, got.DangerAverageThreshold, 0)
}

// TestFormatState prints the since payload only for pre-danger states.
func TestFormatState(t *testing.T) {
	t.Parallel()

	require.Equal(t, "safe", formatState(movement.Safe()))
	require.Equal(t, "danger", formatState(movement.Danger()))

	since := time.Date(2026, time.May, 4, 9, 30, 0, 0, time.UTC)
	require.Equal(
		t,
		"pre_danger since "+since.Local().Format(time.RFC3339),
		formatState(movement.PreDanger(since)),
	)
}

// TestFormatConfig marks missing modes explicitly.
func TestFormatConfig(t *testing.T) {
	t.Parallel()

	out := formatConfig(movement.ConfigSnapshot{
		Effective: movement.DefaultProfile(),
		Explicit:  movement.DefaultProfile(),
	})
	require.Contains(t, out, "mode:      <none>\n")
	require.Contains(t, out, "modes:     <none>\n")

	out = formatConfig(movement.ConfigSnapshot{Mode: "skiing", Modes: []string{"hiking", "skiing"}})
	require.Contains(t, out, "mode:      skiing\n")
	require.Contains(t, out, "modes:     hiking, skiing\n")
}
