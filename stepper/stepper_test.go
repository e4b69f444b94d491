package stepper

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"periph.io/x/periph/conn/gpio/gpiotest"

	"printhive/hal"
	"printhive/units"
)

func testStepper(options Options, attachment *Attachment) *Stepper {
	return New(
		&gpiotest.Pin{N: "step"},
		&gpiotest.Pin{N: "dir"},
		hal.NopTimer{},
		options,
		attachment,
	)
}

func TestStep(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	s.SetDirection(units.Clockwise)
	c.Assert(s.Step(), qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, 1.0)
}

func TestStepOutOfBounds(t *testing.T) {
	c := qt.New(t)

	options := DefaultOptions()
	options.Bounds = &Bounds{Min: -1.0, Max: 1.0}
	s := testStepper(options, nil)
	s.SetDirection(units.Clockwise)

	c.Assert(s.Step(), qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, 1.0)
	c.Assert(s.Step(), qt.Equals, ErrMoveOutOfBounds)
	c.Assert(s.Steps(), qt.Equals, 1.0)
}

func TestMoveForStepsWithoutSpeed(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	s.SetDirection(units.Clockwise)
	c.Assert(s.SetSpeed(0.0), qt.IsNil)

	_, err := s.MoveForSteps(20)
	c.Assert(err, qt.Equals, ErrMoveNotValid)
}

func TestMoveForSteps(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	s.SetDirection(units.Clockwise)
	c.Assert(s.SetSpeed(1.0), qt.IsNil)

	_, err := s.MoveForSteps(20)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, 20.0)
	c.Assert(s.Speed(), qt.Equals, 1.0)
}

func TestMoveForStepsCounterClockwise(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	s.SetDirection(units.CounterClockwise)
	c.Assert(s.SetSpeed(5.0), qt.IsNil)

	_, err := s.MoveForSteps(20)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, -20.0)
}

func TestMicrostepping(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	s.SetSteppingMode(units.HalfStep)
	s.SetDirection(units.Clockwise)
	c.Assert(s.SetSpeed(5.0), qt.IsNil)

	_, err := s.MoveForSteps(20)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, 10.0)
}

func TestPositiveDirectionSign(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		positive  units.RotationDirection
		commanded units.RotationDirection
		want      float64
	}{
		{units.Clockwise, units.Clockwise, 20.0},
		{units.CounterClockwise, units.Clockwise, -20.0},
		{units.Clockwise, units.CounterClockwise, -20.0},
		{units.CounterClockwise, units.CounterClockwise, 20.0},
	}
	for _, tc := range cases {
		options := DefaultOptions()
		options.PositiveDirection = tc.positive
		s := testStepper(options, nil)
		s.SetDirection(tc.commanded)
		c.Assert(s.SetSpeed(5.0), qt.IsNil)

		_, err := s.MoveForSteps(20)
		c.Assert(err, qt.IsNil)
		c.Assert(s.Steps(), qt.Equals, tc.want,
			qt.Commentf("positive=%v commanded=%v", tc.positive, tc.commanded))
	}
}

func TestMoveForDistanceWithoutAttachment(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	_, err := s.MoveForDistance(units.Millimeters(20.0))
	c.Assert(err, qt.Equals, ErrMissingAttachment)
}

func TestMoveForDistance(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		distance        float64
		distancePerStep float64
		wantSteps       float64
		wantPosition    float64
	}{
		{10.0, 1.0, 10.0, 10.0},
		{10.5, 1.0, 10.0, 10.0},
		{0.5, 1.0, 0.0, 0.0},
		{-0.5, 1.0, 0.0, 0.0},
		{10.5, 0.5, 21.0, 10.5},
		{-10.5, 0.5, -21.0, -10.5},
		{0.0, 0.5, 0.0, 0.0},
	}
	for _, tc := range cases {
		s := testStepper(DefaultOptions(), &Attachment{
			DistancePerStep: units.Millimeters(tc.distancePerStep),
		})
		_, err := s.MoveForDistance(units.Millimeters(tc.distance))
		c.Assert(err, qt.IsNil)
		c.Assert(s.Steps(), qt.Equals, tc.wantSteps, qt.Commentf("distance %v", tc.distance))

		p, err := s.Position()
		c.Assert(err, qt.IsNil)
		c.Assert(p.Millimeters(), qt.Equals, tc.wantPosition)
	}
}

func TestMoveForStepsIntoBounds(t *testing.T) {
	c := qt.New(t)

	options := DefaultOptions()
	options.Bounds = &Bounds{Min: -10.0, Max: 10.0}
	s := testStepper(options, nil)
	s.SetDirection(units.CounterClockwise)
	c.Assert(s.SetSpeed(5.0), qt.IsNil)

	_, err := s.MoveForSteps(10)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, -10.0)

	_, err = s.MoveForSteps(15)
	c.Assert(err, qt.Equals, ErrMoveOutOfBounds)
	c.Assert(s.Steps(), qt.Equals, -10.0)
}

func TestHome(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), &Attachment{DistancePerStep: units.Millimeters(1.0)})
	s.SetDirection(units.Clockwise)
	c.Assert(s.SetSpeed(5.0), qt.IsNil)

	_, err := s.MoveForSteps(10)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, 10.0)

	_, err = s.Home()
	c.Assert(err, qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, 0.0)
}

func TestHomeWithoutAttachment(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	_, err := s.Home()
	c.Assert(err, qt.Equals, ErrMissingAttachment)
	c.Assert(s.Steps(), qt.Equals, 0.0)
}

func TestSetSpeed(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	c.Assert(s.SetSpeed(1.0), qt.IsNil)
	c.Assert(s.Speed(), qt.Equals, 1.0)

	c.Assert(s.SetSpeed(0.0), qt.IsNil)
	c.Assert(s.Speed(), qt.Equals, 0.0)

	c.Assert(s.SetSpeed(-10.0), qt.Equals, ErrMoveNotValid)
}

func TestSetSpeedFromAttachment(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), nil)
	err := s.SetSpeedFromAttachment(units.MillimetersPerSecond(3.0))
	c.Assert(err, qt.Equals, ErrMissingAttachment)

	s = testStepper(DefaultOptions(), &Attachment{DistancePerStep: units.Millimeters(1.0)})
	c.Assert(s.SetSpeedFromAttachment(units.MillimetersPerSecond(3.0)), qt.IsNil)
	c.Assert(s.SetSpeedFromAttachment(units.MillimetersPerSecond(-3.0)), qt.Equals, ErrMoveNotValid)
	c.Assert(s.SetSpeedFromAttachment(units.MillimetersPerSecond(0.0)), qt.IsNil)
	c.Assert(s.Speed(), qt.Equals, 0.0)
}

func TestSetPosition(t *testing.T) {
	c := qt.New(t)

	s := testStepper(DefaultOptions(), &Attachment{DistancePerStep: units.Millimeters(0.5)})
	c.Assert(s.SetPosition(units.Millimeters(10.0)), qt.IsNil)
	c.Assert(s.Steps(), qt.Equals, 20.0)

	p, err := s.Position()
	c.Assert(err, qt.IsNil)
	c.Assert(p.Millimeters(), qt.Equals, 10.0)

	s = testStepper(DefaultOptions(), nil)
	c.Assert(s.SetPosition(units.Millimeters(1.0)), qt.Equals, ErrMissingAttachment)
}

func TestComputeStepDuration(t *testing.T) {
	c := qt.New(t)

	d, err := ComputeStepDuration(1.0, 200)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Microseconds(), qt.Equals, int64(5000))

	d, err = ComputeStepDuration(0.0, 200)
	c.Assert(err, qt.IsNil)
	c.Assert(d, qt.Equals, time.Duration(0))

	_, err = ComputeStepDuration(-2.0, 200)
	c.Assert(err, qt.IsNotNil)

	c.Assert(ComputeRevolutionsPerSecond(d, 200), qt.Equals, 0.0)
	d, _ = ComputeStepDuration(1.0, 200)
	c.Assert(ComputeRevolutionsPerSecond(d, 200), qt.Equals, 1.0)
}

func TestDistancePerStepDerivation(t *testing.T) {
	c := qt.New(t)

	d, ok := DistancePerStepFromPitch(units.Millimeters(8.0), 200)
	c.Assert(ok, qt.IsTrue)
	c.Assert(d.Millimeters(), qt.Equals, 0.04)

	_, ok = DistancePerStepFromPitch(units.Millimeters(0), 200)
	c.Assert(ok, qt.IsFalse)

	d, ok = DistancePerStepFromRadius(units.Millimeters(6.0), 200)
	c.Assert(ok, qt.IsTrue)
	c.Assert(d.Millimeters() > 0.18 && d.Millimeters() < 0.19, qt.IsTrue)

	_, ok = DistancePerStepFromRadius(units.Millimeters(6.0), 0)
	c.Assert(ok, qt.IsFalse)
}
