package stepper

import (
	"math"
	"time"

	"printhive/units"
)

// ComputeStepDuration returns the delay between two successive full steps at
// the given shaft speed. A speed of zero yields a zero duration, the "unset"
// sentinel rejected by MoveForSteps
func ComputeStepDuration(revolutionsPerSecond float64, stepsPerRevolution uint64) (time.Duration, error) {
	if math.Signbit(revolutionsPerSecond) || stepsPerRevolution == 0 {
		return 0, ErrMoveNotValid
	}
	if revolutionsPerSecond == 0 {
		return 0, nil
	}
	secondsPerRevolution := 1.0 / revolutionsPerSecond
	secondsPerStep := secondsPerRevolution / float64(stepsPerRevolution)
	return time.Duration(secondsPerStep * float64(time.Second)), nil
}

// ComputeRevolutionsPerSecond inverts ComputeStepDuration
func ComputeRevolutionsPerSecond(stepDuration time.Duration, stepsPerRevolution uint64) float64 {
	secondsPerRevolution := stepDuration.Seconds() * float64(stepsPerRevolution)
	if secondsPerRevolution == 0 {
		return 0
	}
	return 1.0 / secondsPerRevolution
}

// DistancePerStepFromRadius derives the full-step travel of a belt axis from
// its pulley radius
func DistancePerStepFromRadius(radius units.Distance, stepsPerRevolution uint64) (units.Distance, bool) {
	if radius.Millimeters() == 0 || stepsPerRevolution == 0 {
		return 0, false
	}
	perimeter := 2.0 * radius.Millimeters() * math.Pi
	return units.Millimeters(perimeter / float64(stepsPerRevolution)), true
}

// DistancePerStepFromPitch derives the full-step travel of a screw axis from
// its thread pitch
func DistancePerStepFromPitch(pitch units.Distance, stepsPerRevolution uint64) (units.Distance, bool) {
	if pitch.Millimeters() == 0 || stepsPerRevolution == 0 {
		return 0, false
	}
	return units.Millimeters(pitch.Millimeters() / float64(stepsPerRevolution)), true
}
