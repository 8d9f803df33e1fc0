package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/movement-guard/internal/domain/movement"
)

func ptr(v float64) *float64 {
	return &v
}

// TestValidate checks required fields, format validations and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(new(Config)))
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	cfg := &Config{ServerAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultProfileFilename, cfg.ProfileFile)
	require.Equal(t, DefaultSampleBuffer, cfg.SampleBuffer)
	require.Zero(t, cfg.Serial.BaudRate)

	cfg = &Config{ServerAddress: "127.0.0.1:0", Serial: Serial{Port: "/dev/ttyUSB0"}}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultBaudRate, cfg.Serial.BaudRate)

	require.ErrorIs(t, Validate(&Config{ServerAddress: "127.0.0.1:0", LogLevel: "loud"}), errUnknownLogLevel)
}

// TestValidate_Profiles rejects invalid explicit and per-mode profiles.
func TestValidate_Profiles(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		ServerAddress: "127.0.0.1:0",
		Profile:       Profile{PreDangerThreshold: ptr(-1)},
	}
	require.ErrorIs(t, Validate(cfg), movement.ErrNegativePreDangerThreshold)

	cfg = &Config{
		ServerAddress: "127.0.0.1:0",
		DangerModes: map[string]Profile{
			"cycling": {PreDangerTimeout: -time.Second},
		},
	}
	require.ErrorIs(t, Validate(cfg), movement.ErrNonPositivePreDangerTimeout)

	cfg = &Config{
		ServerAddress: "127.0.0.1:0",
		DangerModes:   map[string]Profile{"hiking": {}},
		DefaultMode:   "skiing",
	}
	require.ErrorIs(t, Validate(cfg), errUnknownDefaultMode)

	cfg.DangerModes[""] = Profile{}
	require.ErrorIs(t, Validate(cfg), errEmptyModeName)
}

// TestProfile_ToProfile merges YAML values over the default profile.
func TestProfile_ToProfile(t *testing.T) {
	t.Parallel()

	require.Equal(t, movement.DefaultProfile(), Profile{}.ToProfile())

	got := Profile{
		PreDangerThreshold: ptr(0),
		PreDangerTimeout:   3 * time.Second,
	}.ToProfile()

	require.Zero(t, got.PreDangerThreshold)
	require.Equal(t, 3*time.Second, got.PreDangerTimeout)
	require.InDelta(t, movement.DefaultDangerAverageThreshold, got.DangerAverageThreshold, 0)

	p := movement.SensitivityProfile{PreDangerThreshold: 12, PreDangerTimeout: time.Minute, DangerAverageThreshold: 0.3}
	require.Equal(t, p, FromProfile(p).ToProfile())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		ServerAddress: "127.0.0.1:50051",
		Timeout:       2 * time.Second,
		Profile:       FromProfile(movement.DefaultProfile()),
		DangerModes: map[string]Profile{
			"cycling": {PreDangerThreshold: ptr(45), PreDangerTimeout: 15 * time.Second},
			"hiking":  {DangerAverageThreshold: ptr(0.5)},
		},
		DefaultMode: "hiking",
	}

	require.NoError(t, Save(path, cfg))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ServerAddress, loaded.ServerAddress)
	require.Equal(t, cfg.Timeout, loaded.Timeout)
	require.Equal(t, "hiking", loaded.DefaultMode)
	require.Equal(t, cfg.Modes(), loaded.Modes())
	require.Equal(t, movement.DefaultProfile(), loaded.Profile.ToProfile())
}

// TestLoad_YAMLDurations checks human-readable durations in hand-written files.
func TestLoad_YAMLDurations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := []byte(`server_addr: 127.0.0.1:50051
timeout: 1500ms
profile:
  pre_danger_threshold: 25
  pre_danger_timeout: 8s
danger_modes:
  skiing:
    pre_danger_threshold: 60
    pre_danger_timeout: 20s
    danger_average_threshold: 2
`)
	require.NoError(t, os.WriteFile(path, contents, DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	require.Equal(t, 8*time.Second, cfg.Profile.ToProfile().PreDangerTimeout)
	require.Equal(t, movement.SensitivityProfile{
		PreDangerThreshold:     60,
		PreDangerTimeout:       20 * time.Second,
		DangerAverageThreshold: 2,
	}, cfg.Modes()["skiing"])

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
