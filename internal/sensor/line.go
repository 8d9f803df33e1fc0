package sensor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/movement-guard/internal/domain/movement"
)

const (
	// commentPrefix starts a line that carries no reading.
	commentPrefix = "#"
	// fieldsWithoutTimestamp is the field count of "ax,ay,az,rx,ry,rz".
	fieldsWithoutTimestamp = 6
	// fieldsWithTimestamp is the field count of "unix_ms,ax,ay,az,rx,ry,rz".
	fieldsWithTimestamp = 7
)

// ErrMalformedLine is returned for a line that is not a reading.
var ErrMalformedLine = errors.New("malformed sensor line")

// ParseLine parses one line of device output. The boolean is false for blank
// and comment lines. Readings without their own timestamp get fallback.
func ParseLine(line string, fallback time.Time) (movement.MotionSample, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return movement.MotionSample{}, false, nil
	}

	fields := strings.Split(line, ",")

	timestamp := fallback

	switch len(fields) {
	case fieldsWithoutTimestamp:
	case fieldsWithTimestamp:
		ms, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return movement.MotionSample{}, false, fmt.Errorf("%w: timestamp %q", ErrMalformedLine, fields[0])
		}

		timestamp = time.UnixMilli(ms).UTC()
		fields = fields[1:]
	default:
		return movement.MotionSample{}, false, fmt.Errorf("%w: %d fields", ErrMalformedLine, len(fields))
	}

	var values [fieldsWithoutTimestamp]float64

	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return movement.MotionSample{}, false, fmt.Errorf("%w: field %d %q", ErrMalformedLine, i+1, field)
		}

		values[i] = v
	}

	sample := movement.NewMotionSample(
		timestamp,
		movement.Vector3{values[0], values[1], values[2]},
		movement.Vector3{values[3], values[4], values[5]},
	)

	return sample, true, nil
}

// FormatLine renders a sample in the timestamped line format.
func FormatLine(sample movement.MotionSample) string {
	a, r := sample.Acceleration, sample.Rotation

	parts := []string{strconv.FormatInt(sample.Timestamp.UnixMilli(), 10)}
	for _, v := range []float64{a[0], a[1], a[2], r[0], r[1], r[2]} {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}

	return strings.Join(parts, ",")
}
