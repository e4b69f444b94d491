// Package stepper implements the per-axis step driver, the coordinated
// motion routines and the G-code motion planner.
package stepper

import (
	"errors"
	"math"
	"time"

	"periph.io/x/periph/conn/gpio"

	"printhive/geom"
	"printhive/hal"
	"printhive/units"
)

var (
	ErrMoveTooShort      = errors.New("stepper: move too short")
	ErrMoveOutOfBounds   = errors.New("stepper: move out of bounds")
	ErrMoveNotValid      = errors.New("stepper: move not valid")
	ErrMissingAttachment = errors.New("stepper: missing attachment")
	ErrNotSupported      = errors.New("stepper: command not supported")
)

// Bounds restricts the step counter to [Min, Max], expressed in full steps
type Bounds struct {
	Min, Max float64
}

// Options is the static configuration of one axis
type Options struct {
	StepsPerRevolution uint64
	Mode               units.SteppingMode
	Bounds             *Bounds
	PositiveDirection  units.RotationDirection
}

// DefaultOptions mirror a bare 200-step motor in full-step mode
func DefaultOptions() Options {
	return Options{
		StepsPerRevolution: 200,
		Mode:               units.FullStep,
		PositiveDirection:  units.Clockwise,
	}
}

// Attachment is the mechanical coupling (pulley or lead screw) translating
// shaft rotation into linear travel. Present on all four printer axes
type Attachment struct {
	DistancePerStep units.Distance
}

// Stepper drives one axis through a step pin and a direction pin.
//
// steps counts full steps as a float so that microsteps accumulate exactly
// for the divisor set {1,2,4,8,16}; steps * DistancePerStep is the linear
// position. stepDuration is the delay between successive pulses at the
// configured speed; a new stepper starts at one second, and SetSpeed(0)
// leaves it at zero
type Stepper struct {
	stepPin gpio.PinIO
	dirPin  gpio.PinIO
	timer   hal.Timer

	options    Options
	attachment *Attachment

	stepDuration time.Duration
	steps        float64
}

func New(stepPin, dirPin gpio.PinIO, timer hal.Timer, options Options, attachment *Attachment) *Stepper {
	return &Stepper{
		stepPin:      stepPin,
		dirPin:       dirPin,
		timer:        timer,
		options:      options,
		attachment:   attachment,
		stepDuration: time.Second,
	}
}

// SetSpeed sets the shaft speed in revolutions per second. Negative input is
// rejected; zero leaves the driver with the unset-duration sentinel
func (s *Stepper) SetSpeed(revolutionsPerSecond float64) error {
	d, err := ComputeStepDuration(revolutionsPerSecond, s.options.StepsPerRevolution)
	if err != nil {
		return ErrMoveNotValid
	}
	s.stepDuration = d / time.Duration(s.options.Mode.Divisor())
	return nil
}

// SetSpeedFromAttachment sets the linear speed of the attached output
func (s *Stepper) SetSpeedFromAttachment(speed units.Speed) error {
	if s.attachment == nil {
		return ErrMissingAttachment
	}
	rps := speed.Revolutions(s.options.StepsPerRevolution, s.attachment.DistancePerStep)
	return s.SetSpeed(rps)
}

// SetSteppingMode switches microstepping on the fly for higher precision
func (s *Stepper) SetSteppingMode(mode units.SteppingMode) {
	s.options.Mode = mode
}

// SetDirection drives the direction pin: clockwise is high, counterclockwise
// is low. The pin state is the single source of truth for Direction
func (s *Stepper) SetDirection(direction units.RotationDirection) {
	if direction == units.Clockwise {
		s.dirPin.Out(gpio.High)
	} else {
		s.dirPin.Out(gpio.Low)
	}
}

func (s *Stepper) Direction() units.RotationDirection {
	if s.dirPin.Read() == gpio.High {
		return units.Clockwise
	}
	return units.CounterClockwise
}

// Step emits a single pulse and advances the step counter by one microstep.
// The counter moves toward positive when the commanded direction matches the
// configured positive direction. When bounds are set and the candidate value
// falls outside, no pulse is emitted
func (s *Stepper) Step() error {
	step := 1.0 / float64(s.options.Mode.Divisor())
	step *= float64(s.options.PositiveDirection.Sign() * s.Direction().Sign())
	next := s.steps + step
	if b := s.options.Bounds; b != nil {
		if next < b.Min || next > b.Max {
			return ErrMoveOutOfBounds
		}
	}

	s.stepPin.Out(gpio.High)
	s.stepPin.Out(gpio.Low)

	s.steps = next
	return nil
}

// MoveForSteps performs n pulses separated by the configured step duration
// and returns the time the move took. The first pulse error aborts the move
func (s *Stepper) MoveForSteps(n uint64) (time.Duration, error) {
	if n == 0 {
		return 0, nil
	}
	if s.stepDuration == 0 {
		return 0, ErrMoveNotValid
	}
	for i := uint64(0); i < n; i++ {
		if err := s.Step(); err != nil {
			return time.Duration(i) * s.stepDuration, err
		}
		s.timer.After(s.stepDuration)
	}
	return time.Duration(n) * s.stepDuration, nil
}

func (s *Stepper) stepsForDistance(distance units.Distance) (uint64, error) {
	if s.attachment == nil {
		return 0, ErrMissingAttachment
	}

	n := geom.Abs(distance.Millimeters()) / s.attachment.DistancePerStep.Millimeters()
	// distancePerStep is the full-step travel; microstepping needs
	// proportionally more pulses to cover the same distance
	steps := uint64(geom.Floor(n)) * uint64(s.options.Mode.Divisor())

	if math.Signbit(distance.Millimeters()) {
		s.SetDirection(units.CounterClockwise)
	} else {
		s.SetDirection(units.Clockwise)
	}
	return steps, nil
}

// MoveForDistance moves the attached output by distance; the sign selects the
// direction. Travel shorter than one full step is discarded
func (s *Stepper) MoveForDistance(distance units.Distance) (time.Duration, error) {
	n, err := s.stepsForDistance(distance)
	if err != nil {
		return 0, err
	}
	return s.MoveForSteps(n)
}

// MoveToDestination moves the attached output to the absolute position
func (s *Stepper) MoveToDestination(destination units.Distance) (time.Duration, error) {
	p, err := s.Position()
	if err != nil {
		return 0, err
	}
	return s.MoveForDistance(destination - p)
}

// Home moves the attached output back to the zero position
func (s *Stepper) Home() (time.Duration, error) {
	return s.MoveToDestination(units.Millimeters(0))
}

// Position is the linear position of the attached output
func (s *Stepper) Position() (units.Distance, error) {
	if s.attachment == nil {
		return 0, ErrMissingAttachment
	}
	return units.Millimeters(s.steps * s.attachment.DistancePerStep.Millimeters()), nil
}

// SetPosition rewrites the step counter so that Position reports the given
// value without moving the axis (G92)
func (s *Stepper) SetPosition(position units.Distance) error {
	if s.attachment == nil {
		return ErrMissingAttachment
	}
	s.steps = position.Millimeters() / s.attachment.DistancePerStep.Millimeters()
	return nil
}

// ResetSteps zeroes the step counter, declaring the current physical position
// to be the origin. Used after an endstop hit during homing
func (s *Stepper) ResetSteps() {
	s.steps = 0
}

// Steps is the accumulated step counter in full-step units
func (s *Stepper) Steps() float64 {
	return s.steps
}

// Speed is the configured shaft speed in revolutions per second
func (s *Stepper) Speed() float64 {
	return ComputeRevolutionsPerSecond(s.stepDuration, s.options.StepsPerRevolution) /
		float64(s.options.Mode.Divisor())
}

// SpeedFromAttachment is the configured linear speed of the attached output
func (s *Stepper) SpeedFromAttachment() (units.Speed, error) {
	if s.attachment == nil {
		return 0, ErrMissingAttachment
	}
	return units.SpeedFromRevolutions(
		s.Speed(), s.options.StepsPerRevolution, s.attachment.DistancePerStep), nil
}

// Options returns a copy of the axis configuration
func (s *Stepper) Options() Options {
	return s.options
}
