// Package movement contains the core domain types of danger detection.
//
// It defines MotionSample (one sensor reading), SensitivityProfile (the
// validated thresholds of an activity), DangerState (the closed set of four
// detection states) and Override (an optional activity profile emitted by the
// danger-mode source). All of them are values replaced wholesale, never
// mutated in place.
package movement
