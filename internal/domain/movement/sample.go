package movement

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

// Vector3 is a three-axis sensor reading.
type Vector3 [3]float64

// Norm returns the Euclidean length of the vector.
func (v Vector3) Norm() float64 {
	return floats.Norm(v[:], 2)
}

// MotionSample is one reading of the motion sensor.
type MotionSample struct {
	// Timestamp is when the producer captured the reading.
	Timestamp time.Time
	// Acceleration is the linear (gravity-free) acceleration in m/s².
	Acceleration Vector3
	// Rotation is the angular velocity in rad/s.
	Rotation Vector3
	// Magnitude is the norm of Acceleration.
	Magnitude float64
}

// NewMotionSample builds a sample and derives its magnitude from the acceleration vector.
func NewMotionSample(timestamp time.Time, acceleration, rotation Vector3) MotionSample {
	return MotionSample{
		Timestamp:    timestamp,
		Acceleration: acceleration,
		Rotation:     rotation,
		Magnitude:    acceleration.Norm(),
	}
}

// Actor identifies who acknowledged a danger over the network.
type Actor struct {
	// Hostname is the machine name the acknowledgement came from.
	Hostname string
	// Username is the system user who acknowledged.
	Username string
}

// Clone returns a copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}
