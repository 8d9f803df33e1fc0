package pb

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/movement-guard/internal/domain/movement"
)

var epoch = time.Date(2026, time.May, 4, 9, 30, 0, 123_000_000, time.UTC)

// TestProfile survives a trip through JSON and rejects malformed payloads.
func TestProfile(t *testing.T) {
	t.Parallel()

	want := movement.SensitivityProfile{
		PreDangerThreshold:     42.5,
		PreDangerTimeout:       1500 * time.Millisecond,
		DangerAverageThreshold: 0.75,
	}

	data, err := protojson.Marshal(ProfileToStruct(want))
	require.NoError(t, err)

	var decoded structpb.Struct
	require.NoError(t, protojson.Unmarshal(data, &decoded))

	got, err := ProfileFromStruct(&decoded)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = ProfileFromStruct(&structpb.Struct{})
	require.ErrorIs(t, err, ErrMissingField)

	bad := ProfileToStruct(want)
	bad.Fields[fieldPreDangerTimeout] = structpb.NewStringValue("soon")
	_, err = ProfileFromStruct(bad)
	require.ErrorIs(t, err, ErrInvalidField)

	bad = ProfileToStruct(want)
	bad.Fields[fieldPreDangerThreshold] = structpb.NewStringValue("30")
	_, err = ProfileFromStruct(bad)
	require.ErrorIs(t, err, ErrInvalidField)
}

// TestState keeps the kind and the since payload.
func TestState(t *testing.T) {
	t.Parallel()

	for _, want := range []movement.DangerState{
		movement.Safe(),
		movement.PreDangerAcc(epoch),
		movement.PreDanger(epoch),
		movement.Danger(),
	} {
		s := StateToStruct(want)

		_, hasSince := s.GetFields()[fieldSince]
		require.Equal(t, want.IsPreDanger(), hasSince, want.String())

		got, err := StateFromStruct(s)
		require.NoError(t, err)
		require.True(t, want.Equal(got), "%s != %s", want, got)
	}

	_, err := StateFromStruct(&structpb.Struct{Fields: map[string]*structpb.Value{
		fieldKind: structpb.NewStringValue("panic"),
	}})
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = StateFromStruct(&structpb.Struct{Fields: map[string]*structpb.Value{
		fieldKind: structpb.NewStringValue("pre_danger"),
	}})
	require.ErrorIs(t, err, ErrMissingField)
}

// TestConfig carries both profiles and the mode list.
func TestConfig(t *testing.T) {
	t.Parallel()

	skiing := movement.SensitivityProfile{PreDangerThreshold: 60, PreDangerTimeout: 20 * time.Second, DangerAverageThreshold: 2}
	want := movement.ConfigSnapshot{
		Effective: skiing,
		Explicit:  movement.DefaultProfile(),
		Mode:      "skiing",
		Modes:     []string{"hiking", "skiing"},
	}

	got, err := ConfigFromStruct(ConfigToStruct(want))
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = ConfigFromStruct(&structpb.Struct{})
	require.ErrorIs(t, err, ErrMissingField)
}

// TestSample recomputes the magnitude and checks vector shape.
func TestSample(t *testing.T) {
	t.Parallel()

	want := movement.NewMotionSample(epoch, movement.Vector3{0, 3, 4}, movement.Vector3{0.1, 0, 0})

	got, err := SampleFromStruct(SampleToStruct(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.InDelta(t, 5.0, got.Magnitude, 1e-12)

	s := SampleToStruct(want)
	delete(s.Fields, fieldTimestampMs)

	got, err = SampleFromStruct(s)
	require.NoError(t, err)
	require.True(t, got.Timestamp.IsZero())

	s.Fields[fieldRotation] = structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
		structpb.NewNumberValue(1),
	}})
	_, err = SampleFromStruct(s)
	require.ErrorIs(t, err, ErrInvalidField)
}

// TestSample_RejectsUnusableNumbers refuses non-finite vector components and
// timestamps that are not whole, exactly representable milliseconds.
func TestSample_RejectsUnusableNumbers(t *testing.T) {
	t.Parallel()

	valid := movement.NewMotionSample(epoch, movement.Vector3{0, 0, 1}, movement.Vector3{})

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		for _, key := range []string{fieldAcceleration, fieldRotation} {
			s := SampleToStruct(valid)
			s.Fields[key].GetListValue().Values[1] = structpb.NewNumberValue(bad)

			_, err := SampleFromStruct(s)
			require.ErrorIs(t, err, ErrInvalidField, "%s with %v", key, bad)
		}
	}

	for _, ms := range []float64{1.5, math.NaN(), math.Inf(1), 1e19, -1e19} {
		s := SampleToStruct(valid)
		s.Fields[fieldTimestampMs] = structpb.NewNumberValue(ms)

		_, err := SampleFromStruct(s)
		require.ErrorIs(t, err, ErrInvalidField, "timestamp %v", ms)
	}

	s := SampleToStruct(valid)
	s.Fields[fieldTimestampMs] = structpb.NewNumberValue(-1000)

	got, err := SampleFromStruct(s)
	require.NoError(t, err)
	require.Equal(t, time.UnixMilli(-1000).UTC(), got.Timestamp)
}

// TestActor maps an empty struct to no actor.
func TestActor(t *testing.T) {
	t.Parallel()

	require.Nil(t, ActorFromStruct(&structpb.Struct{}))
	require.Nil(t, ActorFromStruct(ActorToStruct(nil)))

	actor := &movement.Actor{Hostname: "trail-phone", Username: "ana"}
	require.Equal(t, actor, ActorFromStruct(ActorToStruct(actor)))
}
