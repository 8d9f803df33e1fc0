package detector

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// reading is one magnitude kept in the window.
type reading struct {
	at        time.Time
	magnitude float64
}

// window is the time-bounded buffer of post-shock magnitudes.
type window struct {
	readings []reading
	// scratch is reused to hand magnitudes to stat.Mean without allocating.
	scratch []float64
}

func (w *window) reset() {
	w.readings = w.readings[:0]
}

func (w *window) add(at time.Time, magnitude float64) {
	w.readings = append(w.readings, reading{at: at, magnitude: magnitude})
}

// prune drops readings taken at or before cutoff.
func (w *window) prune(cutoff time.Time) {
	keep := 0
	for keep < len(w.readings) && !w.readings[keep].at.After(cutoff) {
		keep++
	}

	if keep == 0 {
		return
	}

	w.readings = append(w.readings[:0], w.readings[keep:]...)
}

// average returns the mean magnitude; an empty window averages to zero.
func (w *window) average() float64 {
	if len(w.readings) == 0 {
		return 0
	}

	w.scratch = w.scratch[:0]
	for _, r := range w.readings {
		w.scratch = append(w.scratch, r.magnitude)
	}

	return stat.Mean(w.scratch, nil)
}

// oldest returns when the oldest reading was taken.
func (w *window) oldest() (time.Time, bool) {
	if len(w.readings) == 0 {
		return time.Time{}, false
	}

	return w.readings[0].at, true
}

func (w *window) len() int {
	return len(w.readings)
}
