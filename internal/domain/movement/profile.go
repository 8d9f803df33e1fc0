package movement

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultPreDangerThreshold is the shock magnitude of the default profile, in m/s².
	DefaultPreDangerThreshold = 30.0
	// DefaultPreDangerTimeout is the debounce window of the default profile.
	DefaultPreDangerTimeout = 10 * time.Second
	// DefaultDangerAverageThreshold is the stillness threshold of the default profile.
	DefaultDangerAverageThreshold = 1.0
)

var (
	// ErrInvalidProfile wraps every profile validation failure.
	ErrInvalidProfile = errors.New("invalid sensitivity profile")
	// ErrNegativePreDangerThreshold is returned for a shock threshold below zero.
	ErrNegativePreDangerThreshold = errors.New("pre-danger threshold must not be negative")
	// ErrNonPositivePreDangerTimeout is returned for a zero or negative debounce window.
	ErrNonPositivePreDangerTimeout = errors.New("pre-danger timeout must be positive")
	// ErrNegativeDangerAverageThreshold is returned for a stillness threshold below zero.
	ErrNegativeDangerAverageThreshold = errors.New("danger average threshold must not be negative")
)

// SensitivityProfile is the threshold set governing shock, stillness and recovery judgments.
type SensitivityProfile struct {
	// PreDangerThreshold is the magnitude above which a sample counts as a shock.
	PreDangerThreshold float64
	// PreDangerTimeout is how long stillness must last after a shock to confirm danger.
	PreDangerTimeout time.Duration
	// DangerAverageThreshold is the rolling average below which the user is considered still.
	DangerAverageThreshold float64
}

// DefaultProfile returns the process-wide default profile.
func DefaultProfile() SensitivityProfile {
	return SensitivityProfile{
		PreDangerThreshold:     DefaultPreDangerThreshold,
		PreDangerTimeout:       DefaultPreDangerTimeout,
		DangerAverageThreshold: DefaultDangerAverageThreshold,
	}
}

// Validate reports every constraint the profile violates, joined into one error.
// NaN thresholds are treated as negative.
func (p SensitivityProfile) Validate() error {
	var errs []error

	if !(p.PreDangerThreshold >= 0) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrNegativePreDangerThreshold, p.PreDangerThreshold))
	}

	if p.PreDangerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrNonPositivePreDangerTimeout, p.PreDangerTimeout))
	}

	if !(p.DangerAverageThreshold >= 0) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrNegativeDangerAverageThreshold, p.DangerAverageThreshold))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(errs...))
}

// RecoveryHold is how long the rolling average must stay at or above
// DangerAverageThreshold before a pre-danger state returns to Safe.
func (p SensitivityProfile) RecoveryHold() time.Duration {
	return p.PreDangerTimeout / 2
}

// String renders the profile for logs.
func (p SensitivityProfile) String() string {
	return fmt.Sprintf(
		"shock>%g still<%g for %s",
		p.PreDangerThreshold,
		p.DangerAverageThreshold,
		p.PreDangerTimeout,
	)
}

// Override is one emission of the danger-mode source.
type Override struct {
	// Mode is the activity name; empty when the override is cleared.
	Mode string
	// Profile replaces the explicit profile while non-nil.
	Profile *SensitivityProfile
}

// Active reports whether the override carries a profile.
func (o Override) Active() bool {
	return o.Profile != nil
}

// ConfigSnapshot describes the profiles the engine works with at one moment.
type ConfigSnapshot struct {
	// Effective is the profile in force.
	Effective SensitivityProfile
	// Explicit is the profile set through configuration updates.
	Explicit SensitivityProfile
	// Mode is the selected danger mode, empty when none.
	Mode string
	// Modes lists every configured danger mode.
	Modes []string
}
