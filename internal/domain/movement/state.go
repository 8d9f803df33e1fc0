package movement

import (
	"fmt"
	"time"
)

// Kind enumerates the four danger states.
type Kind uint8

const (
	// KindSafe means no shock is being evaluated.
	KindSafe Kind = iota
	// KindPreDangerAcc means one shock was detected and is being evaluated.
	KindPreDangerAcc
	// KindPreDanger means repeated shocks were detected and are being evaluated.
	KindPreDanger
	// KindDanger means danger is confirmed; only an explicit acknowledgement clears it.
	KindDanger
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSafe:
		return "safe"
	case KindPreDangerAcc:
		return "pre_danger_acc"
	case KindPreDanger:
		return "pre_danger"
	case KindDanger:
		return "danger"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind converts a wire name back into a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindSafe, KindPreDangerAcc, KindPreDanger, KindDanger} {
		if k.String() == s {
			return k, true
		}
	}

	return KindSafe, false
}

// DangerState is the detection state. The zero value is Safe.
//
// Fields are unexported so only the four constructors below can build a value;
// a transition always replaces the whole value.
type DangerState struct {
	kind  Kind
	since time.Time
}

// Safe returns the Safe state.
func Safe() DangerState {
	return DangerState{kind: KindSafe}
}

// PreDangerAcc returns the single-shock state entered at since.
func PreDangerAcc(since time.Time) DangerState {
	return DangerState{kind: KindPreDangerAcc, since: since}
}

// PreDanger returns the repeated-shock state anchored at the last shock.
func PreDanger(since time.Time) DangerState {
	return DangerState{kind: KindPreDanger, since: since}
}

// Danger returns the confirmed danger state.
func Danger() DangerState {
	return DangerState{kind: KindDanger}
}

// Kind returns the variant of the state.
func (s DangerState) Kind() Kind {
	return s.kind
}

// Since returns the anchor time of a pre-danger state.
// The boolean is false for Safe and Danger, which carry no payload.
func (s DangerState) Since() (time.Time, bool) {
	if !s.IsPreDanger() {
		return time.Time{}, false
	}

	return s.since, true
}

// IsPreDanger reports whether the state is PreDangerAcc or PreDanger.
func (s DangerState) IsPreDanger() bool {
	return s.kind == KindPreDangerAcc || s.kind == KindPreDanger
}

// Equal reports whether both states are the same variant with the same payload.
func (s DangerState) Equal(other DangerState) bool {
	return s.kind == other.kind && s.since.Equal(other.since)
}

// String renders the state for logs.
func (s DangerState) String() string {
	if s.IsPreDanger() {
		return fmt.Sprintf("%s since %s", s.kind, s.since.Format(time.RFC3339Nano))
	}

	return s.kind.String()
}

// Transition describes one evaluation of the state machine.
type Transition struct {
	// From is the state before the evaluation.
	From DangerState
	// To is the state after the evaluation.
	To DangerState
	// Reason names the rule that fired; empty when nothing changed.
	Reason string
}

// Changed reports whether the evaluation produced a different state.
func (t Transition) Changed() bool {
	return !t.From.Equal(t.To)
}
