package config

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/movement-guard/internal/domain/movement"
	"github.com/oshokin/movement-guard/internal/logger"
)

// Config holds the settings shared by guard-server and guard-client.
type Config struct {
	// ServerAddress is the gRPC address of guard-server.
	ServerAddress string `yaml:"server_addr"`
	// Timeout bounds each RPC.
	Timeout time.Duration `yaml:"timeout"`
	// ProfileFile is where the explicit sensitivity profile is persisted.
	ProfileFile string `yaml:"profile_file"`
	// LogLevel is the level of the global logger.
	LogLevel string `yaml:"log_level"`
	// EngineLogLevel is the level of the danger engine logger; "debug" traces every sample.
	EngineLogLevel string `yaml:"engine_log_level"`
	// SampleBuffer is how many motion samples may queue before the oldest are dropped.
	SampleBuffer int `yaml:"sample_buffer"`
	// Profile is the explicit profile used until one is persisted.
	Profile Profile `yaml:"profile"`
	// DangerModes are the named activity profiles that may override the explicit one.
	DangerModes map[string]Profile `yaml:"danger_modes,omitempty"`
	// DefaultMode is the danger mode selected at startup; empty selects none.
	DefaultMode string `yaml:"default_mode,omitempty"`
	// Serial configures an optional IMU attached to a serial port.
	Serial Serial `yaml:"serial,omitempty"`
}

// Profile is the YAML form of a sensitivity profile. Omitted fields take the
// values of the default profile.
type Profile struct {
	// PreDangerThreshold is the shock magnitude.
	PreDangerThreshold *float64 `yaml:"pre_danger_threshold,omitempty"`
	// PreDangerTimeout is the debounce window.
	PreDangerTimeout time.Duration `yaml:"pre_danger_timeout,omitempty"`
	// DangerAverageThreshold is the stillness threshold.
	DangerAverageThreshold *float64 `yaml:"danger_average_threshold,omitempty"`
}

// Serial describes the IMU serial port.
type Serial struct {
	// Port is the device path, e.g. /dev/ttyUSB0. Empty disables the serial source.
	Port string `yaml:"port,omitempty"`
	// BaudRate is the line speed.
	BaudRate int `yaml:"baud_rate,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "movement-guard.yaml"

	// DefaultProfileFilename is the default filename for the persisted profile.
	DefaultProfileFilename = "movement-guard-profile.json"

	// DefaultTimeout is the default duration for RPCs.
	DefaultTimeout = 5 * time.Second

	// DefaultSampleBuffer is the default motion sample queue length.
	DefaultSampleBuffer = 64

	// DefaultBaudRate is the default serial line speed.
	DefaultBaudRate = 115200

	// DefaultFilePermissions is the permission used for files this project writes.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerAddressRequired is returned when server address is missing.
	errServerAddressRequired = errors.New("server address must be provided")
	// errUnknownLogLevel is returned for a log level ParseLogLevel does not know.
	errUnknownLogLevel = errors.New("unknown log level")
	// errUnknownDefaultMode is returned when default_mode names no danger mode.
	errUnknownDefaultMode = errors.New("default mode is not defined in danger_modes")
	// errEmptyModeName is returned for a danger mode with an empty name.
	errEmptyModeName = errors.New("danger mode name must not be empty")
)

// ToProfile resolves the YAML profile on top of the default profile.
func (p Profile) ToProfile() movement.SensitivityProfile {
	result := movement.DefaultProfile()

	if p.PreDangerThreshold != nil {
		result.PreDangerThreshold = *p.PreDangerThreshold
	}

	if p.PreDangerTimeout != 0 {
		result.PreDangerTimeout = p.PreDangerTimeout
	}

	if p.DangerAverageThreshold != nil {
		result.DangerAverageThreshold = *p.DangerAverageThreshold
	}

	return result
}

// FromProfile converts a sensitivity profile to its YAML form.
func FromProfile(p movement.SensitivityProfile) Profile {
	return Profile{
		PreDangerThreshold:     &p.PreDangerThreshold,
		PreDangerTimeout:       p.PreDangerTimeout,
		DangerAverageThreshold: &p.DangerAverageThreshold,
	}
}

// Modes resolves every danger mode.
func (c *Config) Modes() map[string]movement.SensitivityProfile {
	result := make(map[string]movement.SensitivityProfile, len(c.DangerModes))
	for name, p := range c.DangerModes {
		result[name] = p.ToProfile()
	}

	return result
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ServerAddress == "" {
		return errServerAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.ProfileFile == "" {
		cfg.ProfileFile = DefaultProfileFilename
	}

	if cfg.SampleBuffer <= 0 {
		cfg.SampleBuffer = DefaultSampleBuffer
	}

	if cfg.Serial.Port != "" && cfg.Serial.BaudRate <= 0 {
		cfg.Serial.BaudRate = DefaultBaudRate
	}

	for _, lvl := range []string{cfg.LogLevel, cfg.EngineLogLevel} {
		if _, ok := logger.ParseLogLevel(lvl); !ok {
			return fmt.Errorf("%w: %q", errUnknownLogLevel, lvl)
		}
	}

	if err := cfg.Profile.ToProfile().Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	// Sorted so the reported error does not depend on map order.
	for _, name := range slices.Sorted(maps.Keys(cfg.DangerModes)) {
		if name == "" {
			return errEmptyModeName
		}

		if err := cfg.DangerModes[name].ToProfile().Validate(); err != nil {
			return fmt.Errorf("invalid danger mode %q: %w", name, err)
		}
	}

	if _, ok := cfg.DangerModes[cfg.DefaultMode]; cfg.DefaultMode != "" && !ok {
		return fmt.Errorf("%w: %q", errUnknownDefaultMode, cfg.DefaultMode)
	}

	return nil
}
