package detector

import (
	"math"
	"time"

	"github.com/oshokin/movement-guard/internal/domain/movement"
)

// Reasons reported in movement.Transition.
const (
	// ReasonShock is a first shock while Safe.
	ReasonShock = "shock"
	// ReasonSecondShock is a shock while evaluating a single shock.
	ReasonSecondShock = "second shock"
	// ReasonRepeatedShock is a further shock that re-anchors PreDanger.
	ReasonRepeatedShock = "repeated shock"
	// ReasonStillness is stillness held for the whole debounce window.
	ReasonStillness = "stillness after shock"
	// ReasonMovementResumed is movement still reported by a sample after the recovery hold.
	ReasonMovementResumed = "movement resumed"
	// ReasonAcknowledged is an explicit Reset.
	ReasonAcknowledged = "acknowledged"
)

// posture is what the rolling average currently says about the user.
type posture uint8

const (
	postureStill posture = iota
	postureMoving
)

// Machine is the danger state machine. The zero value is a Safe machine.
type Machine struct {
	// state is the current danger state.
	state movement.DangerState
	// window holds magnitudes received since the last shock.
	window window
	// posture is the current judgment of the rolling average in pre-danger states.
	posture posture
	// postureSince is when the current posture began.
	postureSince time.Time
}

// NewMachine returns a machine in the Safe state.
func NewMachine() *Machine {
	return new(Machine)
}

// State returns the current state.
func (m *Machine) State() movement.DangerState {
	return m.state
}

// Average returns the rolling average of the current window.
func (m *Machine) Average() float64 {
	return m.window.average()
}

// WindowSize returns how many readings the rolling window holds.
func (m *Machine) WindowSize() int {
	return m.window.len()
}

// OnSample evaluates one motion sample received at now. Samples with a
// non-finite magnitude are ignored.
func (m *Machine) OnSample(
	now time.Time,
	sample movement.MotionSample,
	profile movement.SensitivityProfile,
) movement.Transition {
	from := m.state
	if math.IsNaN(sample.Magnitude) || math.IsInf(sample.Magnitude, 0) {
		return unchanged(from)
	}

	shock := sample.Magnitude > profile.PreDangerThreshold

	switch from.Kind() {
	case movement.KindSafe:
		if !shock {
			return unchanged(from)
		}

		m.enter(movement.PreDangerAcc(now), now)

		return movement.Transition{From: from, To: m.state, Reason: ReasonShock}
	case movement.KindDanger:
		return unchanged(from)
	case movement.KindPreDangerAcc, movement.KindPreDanger:
	}

	if shock {
		reason := ReasonRepeatedShock
		if from.Kind() == movement.KindPreDangerAcc {
			reason = ReasonSecondShock
		}

		anchor := now
		if since, _ := from.Since(); now.Before(since) {
			anchor = since
		}

		m.enter(movement.PreDanger(anchor), anchor)

		return movement.Transition{From: from, To: m.state, Reason: reason}
	}

	m.window.add(now, sample.Magnitude)

	return m.evaluate(now, profile, true)
}

// OnTick evaluates the passage of time with no new sample. A tick only
// escalates; returning to Safe needs a sample.
func (m *Machine) OnTick(now time.Time, profile movement.SensitivityProfile) movement.Transition {
	if !m.state.IsPreDanger() {
		return unchanged(m.state)
	}

	return m.evaluate(now, profile, false)
}

// Reset acknowledges the current state and returns to Safe.
func (m *Machine) Reset() movement.Transition {
	from := m.state
	m.settle(movement.Safe())

	if from.Equal(m.state) {
		return unchanged(from)
	}

	return movement.Transition{From: from, To: m.state, Reason: ReasonAcknowledged}
}

// NextDeadline returns the earliest time at which OnTick could change the
// state or the posture under profile. While moving that is when the oldest
// reading leaves the window. The boolean is false when no tick is needed.
func (m *Machine) NextDeadline(profile movement.SensitivityProfile) (time.Time, bool) {
	if !m.state.IsPreDanger() {
		return time.Time{}, false
	}

	if m.posture == postureMoving {
		oldest, ok := m.window.oldest()
		if !ok {
			return time.Time{}, false
		}

		return oldest.Add(profile.PreDangerTimeout), true
	}

	return m.postureSince.Add(profile.PreDangerTimeout), true
}

// evaluate judges the rolling average of a pre-danger state at now. Recovery
// is only declared when fresh is set.
func (m *Machine) evaluate(now time.Time, profile movement.SensitivityProfile, fresh bool) movement.Transition {
	from := m.state

	m.window.prune(now.Add(-profile.PreDangerTimeout))

	if m.window.average() < profile.DangerAverageThreshold {
		m.setPosture(postureStill, now)

		if now.Sub(m.postureSince) >= profile.PreDangerTimeout {
			m.settle(movement.Danger())

			return movement.Transition{From: from, To: m.state, Reason: ReasonStillness}
		}

		return unchanged(from)
	}

	m.setPosture(postureMoving, now)

	if fresh && now.Sub(m.postureSince) >= profile.RecoveryHold() {
		m.settle(movement.Safe())

		return movement.Transition{From: from, To: m.state, Reason: ReasonMovementResumed}
	}

	return unchanged(from)
}

// enter starts a new escalation step anchored at a shock. The user is
// presumed still from the shock on until the average says otherwise.
func (m *Machine) enter(state movement.DangerState, at time.Time) {
	m.state = state
	m.window.reset()
	m.posture = postureStill
	m.postureSince = at
}

// settle moves to a terminal state of an escalation chain and drops the window.
func (m *Machine) settle(state movement.DangerState) {
	m.state = state
	m.window.reset()
	m.posture = postureStill
	m.postureSince = time.Time{}
}

func (m *Machine) setPosture(p posture, now time.Time) {
	if m.posture == p {
		return
	}

	m.posture = p
	m.postureSince = now
}

func unchanged(state movement.DangerState) movement.Transition {
	return movement.Transition{From: state, To: state}
}
