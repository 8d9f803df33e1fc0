package pb

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/movement-guard/internal/domain/movement"
)

// Struct field names.
const (
	fieldPreDangerThreshold     = "pre_danger_threshold"
	fieldPreDangerTimeout       = "pre_danger_timeout"
	fieldDangerAverageThreshold = "danger_average_threshold"
	fieldKind                   = "kind"
	fieldSince                  = "since"
	fieldProfile                = "profile"
	fieldExplicit               = "explicit"
	fieldMode                   = "mode"
	fieldModes                  = "modes"
	fieldTimestampMs            = "timestamp_ms"
	fieldAcceleration           = "acceleration"
	fieldRotation               = "rotation"
	fieldHostname               = "hostname"
	fieldUsername               = "username"
)

// maxExactMillis is the largest millisecond count a JSON number holds exactly.
const maxExactMillis = 1 << 53

var (
	// ErrMissingField is returned when a required struct field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField is returned when a struct field has the wrong kind or value.
	ErrInvalidField = errors.New("invalid field")
)

// ProfileToStruct encodes a profile as
// {pre_danger_threshold: number, pre_danger_timeout: "10s", danger_average_threshold: number}.
func ProfileToStruct(p movement.SensitivityProfile) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldPreDangerThreshold:     structpb.NewNumberValue(p.PreDangerThreshold),
		fieldPreDangerTimeout:       structpb.NewStringValue(p.PreDangerTimeout.String()),
		fieldDangerAverageThreshold: structpb.NewNumberValue(p.DangerAverageThreshold),
	}}
}

// ProfileFromStruct decodes a profile. Ranges are not checked here; callers validate.
func ProfileFromStruct(s *structpb.Struct) (movement.SensitivityProfile, error) {
	var (
		p   movement.SensitivityProfile
		err error
	)

	if p.PreDangerThreshold, err = number(s, fieldPreDangerThreshold); err != nil {
		return p, err
	}

	if p.PreDangerTimeout, err = duration(s, fieldPreDangerTimeout); err != nil {
		return p, err
	}

	if p.DangerAverageThreshold, err = number(s, fieldDangerAverageThreshold); err != nil {
		return p, err
	}

	return p, nil
}

// StateToStruct encodes a state as {kind: "pre_danger", since: RFC 3339}; since
// is present only for the pre-danger states.
func StateToStruct(state movement.DangerState) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldKind: structpb.NewStringValue(state.Kind().String()),
	}

	if since, ok := state.Since(); ok {
		fields[fieldSince] = structpb.NewStringValue(since.UTC().Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// StateFromStruct decodes a state.
func StateFromStruct(s *structpb.Struct) (movement.DangerState, error) {
	name, err := text(s, fieldKind)
	if err != nil {
		return movement.DangerState{}, err
	}

	kind, ok := movement.ParseKind(name)
	if !ok {
		return movement.DangerState{}, fmt.Errorf("%w: %s %q", ErrInvalidField, fieldKind, name)
	}

	switch kind {
	case movement.KindSafe:
		return movement.Safe(), nil
	case movement.KindDanger:
		return movement.Danger(), nil
	case movement.KindPreDangerAcc, movement.KindPreDanger:
	}

	raw, err := text(s, fieldSince)
	if err != nil {
		return movement.DangerState{}, err
	}

	since, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return movement.DangerState{}, fmt.Errorf("%w: %s: %w", ErrInvalidField, fieldSince, err)
	}

	if kind == movement.KindPreDangerAcc {
		return movement.PreDangerAcc(since), nil
	}

	return movement.PreDanger(since), nil
}

// ConfigToStruct encodes a config snapshot as
// {profile: profile, explicit: profile, mode: string, modes: [string]}.
func ConfigToStruct(c movement.ConfigSnapshot) *structpb.Struct {
	modes := make([]*structpb.Value, 0, len(c.Modes))
	for _, name := range c.Modes {
		modes = append(modes, structpb.NewStringValue(name))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldProfile:  structpb.NewStructValue(ProfileToStruct(c.Effective)),
		fieldExplicit: structpb.NewStructValue(ProfileToStruct(c.Explicit)),
		fieldMode:     structpb.NewStringValue(c.Mode),
		fieldModes:    structpb.NewListValue(&structpb.ListValue{Values: modes}),
	}}
}

// ConfigFromStruct decodes a config snapshot.
func ConfigFromStruct(s *structpb.Struct) (movement.ConfigSnapshot, error) {
	var c movement.ConfigSnapshot

	effective, err := nested(s, fieldProfile)
	if err != nil {
		return c, err
	}

	if c.Effective, err = ProfileFromStruct(effective); err != nil {
		return c, fmt.Errorf("%s: %w", fieldProfile, err)
	}

	explicit, err := nested(s, fieldExplicit)
	if err != nil {
		return c, err
	}

	if c.Explicit, err = ProfileFromStruct(explicit); err != nil {
		return c, fmt.Errorf("%s: %w", fieldExplicit, err)
	}

	if c.Mode, err = text(s, fieldMode); err != nil {
		return c, err
	}

	for _, v := range s.GetFields()[fieldModes].GetListValue().GetValues() {
		c.Modes = append(c.Modes, v.GetStringValue())
	}

	return c, nil
}

// SampleToStruct encodes a sample as
// {timestamp_ms: number, acceleration: [x, y, z], rotation: [x, y, z]}.
func SampleToStruct(sample movement.MotionSample) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTimestampMs:  structpb.NewNumberValue(float64(sample.Timestamp.UnixMilli())),
		fieldAcceleration: structpb.NewListValue(vectorList(sample.Acceleration)),
		fieldRotation:     structpb.NewListValue(vectorList(sample.Rotation)),
	}}
}

// SampleFromStruct decodes a sample and derives its magnitude. A missing
// timestamp leaves it zero; the engine does not depend on it.
func SampleFromStruct(s *structpb.Struct) (movement.MotionSample, error) {
	var timestamp time.Time

	if _, ok := s.GetFields()[fieldTimestampMs]; ok {
		ms, err := number(s, fieldTimestampMs)
		if err != nil {
			return movement.MotionSample{}, err
		}

		if ms != math.Trunc(ms) || math.Abs(ms) > maxExactMillis {
			return movement.MotionSample{}, fmt.Errorf("%w: %s must be a whole number of milliseconds", ErrInvalidField, fieldTimestampMs)
		}

		timestamp = time.UnixMilli(int64(ms)).UTC()
	}

	acceleration, err := vector(s, fieldAcceleration)
	if err != nil {
		return movement.MotionSample{}, err
	}

	rotation, err := vector(s, fieldRotation)
	if err != nil {
		return movement.MotionSample{}, err
	}

	return movement.NewMotionSample(timestamp, acceleration, rotation), nil
}

// ActorToStruct encodes an actor as {hostname: string, username: string}.
func ActorToStruct(actor *movement.Actor) *structpb.Struct {
	if actor == nil {
		return &structpb.Struct{}
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldHostname: structpb.NewStringValue(actor.Hostname),
		fieldUsername: structpb.NewStringValue(actor.Username),
	}}
}

// ActorFromStruct decodes an actor; it returns nil for an empty struct.
func ActorFromStruct(s *structpb.Struct) *movement.Actor {
	if len(s.GetFields()) == 0 {
		return nil
	}

	return &movement.Actor{
		Hostname: s.GetFields()[fieldHostname].GetStringValue(),
		Username: s.GetFields()[fieldUsername].GetStringValue(),
	}
}

func field(s *structpb.Struct, key string) (*structpb.Value, error) {
	v, ok := s.GetFields()[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
	}

	return v, nil
}

func number(s *structpb.Struct, key string) (float64, error) {
	v, err := field(s, key)
	if err != nil {
		return 0, err
	}

	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidField, key)
	}

	return n.NumberValue, nil
}

func text(s *structpb.Struct, key string) (string, error) {
	v, err := field(s, key)
	if err != nil {
		return "", err
	}

	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrInvalidField, key)
	}

	return str.StringValue, nil
}

func duration(s *structpb.Struct, key string) (time.Duration, error) {
	raw, err := text(s, key)
	if err != nil {
		return 0, err
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidField, key, err)
	}

	return d, nil
}

func nested(s *structpb.Struct, key string) (*structpb.Struct, error) {
	v, err := field(s, key)
	if err != nil {
		return nil, err
	}

	inner := v.GetStructValue()
	if inner == nil {
		return nil, fmt.Errorf("%w: %s is not an object", ErrInvalidField, key)
	}

	return inner, nil
}

func vector(s *structpb.Struct, key string) (movement.Vector3, error) {
	var out movement.Vector3

	v, err := field(s, key)
	if err != nil {
		return out, err
	}

	values := v.GetListValue().GetValues()
	if len(values) != len(out) {
		return out, fmt.Errorf("%w: %s must hold %d numbers", ErrInvalidField, key, len(out))
	}

	for i, item := range values {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return out, fmt.Errorf("%w: %s[%d] is not a number", ErrInvalidField, key, i)
		}

		if math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
			return out, fmt.Errorf("%w: %s[%d] is not finite", ErrInvalidField, key, i)
		}

		out[i] = n.NumberValue
	}

	return out, nil
}

func vectorList(v movement.Vector3) *structpb.ListValue {
	return &structpb.ListValue{Values: []*structpb.Value{
		structpb.NewNumberValue(v[0]),
		structpb.NewNumberValue(v[1]),
		structpb.NewNumberValue(v[2]),
	}}
}
