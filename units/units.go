// Package units holds the measurement value types used across the motion and
// thermal cores. Each type is a defined float64 carrying a canonical unit
// (millimetres, mm/s, degrees Celsius, radians, ohms) so conversions happen
// at the edges and the hot paths work on raw scalars.
package units

import (
	"errors"
	"math"
)

// DistanceUnit selects how raw G-code numbers are interpreted (G20/G21)
type DistanceUnit uint8

const (
	Millimeter DistanceUnit = iota
	Inch
)

// TemperatureUnit selects how raw G-code temperatures are interpreted (M149)
type TemperatureUnit uint8

const (
	Celsius TemperatureUnit = iota
	Kelvin
	Fahrenheit
)

func (u TemperatureUnit) String() string {
	switch u {
	case Kelvin:
		return "K"
	case Fahrenheit:
		return "°F"
	default:
		return "°C"
	}
}

const mmPerInch = 25.4

// Distance is a length with a canonical value in millimetres
type Distance float64

func Millimeters(v float64) Distance { return Distance(v) }

func Inches(v float64) Distance { return Distance(v * mmPerInch) }

// DistanceFrom builds a Distance from a raw value in the given unit
func DistanceFrom(v float64, unit DistanceUnit) Distance {
	if unit == Inch {
		return Inches(v)
	}
	return Millimeters(v)
}

func (d Distance) Millimeters() float64 { return float64(d) }

func (d Distance) Inches() float64 { return float64(d) / mmPerInch }

// Speed is a linear speed with a canonical value in millimetres per second
type Speed float64

func MillimetersPerSecond(v float64) Speed { return Speed(v) }

// SpeedFrom builds a Speed from a raw per-second value in the given unit
func SpeedFrom(v float64, unit DistanceUnit) Speed {
	if unit == Inch {
		return Speed(v * mmPerInch)
	}
	return Speed(v)
}

// Feedrate builds a Speed from a G-code F word, which is a per-minute value
func Feedrate(v float64, unit DistanceUnit) Speed {
	return SpeedFrom(v/60.0, unit)
}

// SpeedFromRevolutions converts an angular speed into the linear speed of the
// attached output
func SpeedFromRevolutions(revPerSecond float64, stepsPerRevolution uint64, distancePerStep Distance) Speed {
	perRevolution := float64(stepsPerRevolution) * distancePerStep.Millimeters()
	return Speed(perRevolution * revPerSecond)
}

func (s Speed) MillimetersPerSecond() float64 { return float64(s) }

func (s Speed) MillimetersPerMinute() float64 { return float64(s) * 60.0 }

// Revolutions converts the linear speed back into revolutions per second of
// the driving stepper. A zero-length coupling yields zero
func (s Speed) Revolutions(stepsPerRevolution uint64, distancePerStep Distance) float64 {
	perRevolution := float64(stepsPerRevolution) * distancePerStep.Millimeters()
	if perRevolution == 0 {
		return 0
	}
	return float64(s) / perRevolution
}

const zeroCelsiusInKelvin = 273.15

// Temperature carries a canonical value in degrees Celsius
type Temperature float64

func DegreesCelsius(v float64) Temperature { return Temperature(v) }

func DegreesKelvin(v float64) Temperature { return Temperature(v - zeroCelsiusInKelvin) }

func DegreesFahrenheit(v float64) Temperature { return Temperature((v - 32.0) * (5.0 / 9.0)) }

// TemperatureFrom builds a Temperature from a raw value in the given unit
func TemperatureFrom(v float64, unit TemperatureUnit) Temperature {
	switch unit {
	case Kelvin:
		return DegreesKelvin(v)
	case Fahrenheit:
		return DegreesFahrenheit(v)
	default:
		return DegreesCelsius(v)
	}
}

func (t Temperature) Celsius() float64 { return float64(t) }

func (t Temperature) Kelvin() float64 { return float64(t) + zeroCelsiusInKelvin }

func (t Temperature) Fahrenheit() float64 { return float64(t)*9.0/5.0 + 32.0 }

// Angle carries a canonical value in radians
type Angle float64

func Radians(v float64) Angle { return Angle(v) }

func Degrees(v float64) Angle { return Angle(v * (math.Pi / 180.0)) }

func (a Angle) Radians() float64 { return float64(a) }

func (a Angle) Degrees() float64 { return float64(a) * (180.0 / math.Pi) }

// Resistance carries a canonical value in ohms
type Resistance float64

func Ohms(v float64) Resistance { return Resistance(v) }

func (r Resistance) Ohms() float64 { return float64(r) }

// RotationDirection is the spin direction of a stepper shaft
type RotationDirection uint8

const (
	Clockwise RotationDirection = iota
	CounterClockwise
)

// Sign maps Clockwise to +1 and CounterClockwise to -1 for step arithmetic
func (d RotationDirection) Sign() int {
	if d == CounterClockwise {
		return -1
	}
	return 1
}

func (d RotationDirection) String() string {
	if d == CounterClockwise {
		return "counterclockwise"
	}
	return "clockwise"
}

// ParseRotationDirection parses a board-description direction string
func ParseRotationDirection(s string) (RotationDirection, error) {
	switch s {
	case "clockwise":
		return Clockwise, nil
	case "counterclockwise":
		return CounterClockwise, nil
	}
	return Clockwise, errors.New("units: unknown rotation direction " + s)
}

// SteppingMode is the microstepping configuration of a stepper driver
type SteppingMode uint8

const (
	FullStep SteppingMode = iota
	HalfStep
	QuarterStep
	EighthStep
	SixteenthStep
)

// Divisor is the microstep divisor: one pulse advances 1/Divisor of a full step
func (m SteppingMode) Divisor() uint8 {
	switch m {
	case HalfStep:
		return 2
	case QuarterStep:
		return 4
	case EighthStep:
		return 8
	case SixteenthStep:
		return 16
	default:
		return 1
	}
}

func (m SteppingMode) String() string {
	switch m {
	case HalfStep:
		return "half"
	case QuarterStep:
		return "quarter"
	case EighthStep:
		return "eighth"
	case SixteenthStep:
		return "sixteenth"
	default:
		return "full"
	}
}

// ParseSteppingMode parses a board-description stepping-mode string
func ParseSteppingMode(s string) (SteppingMode, error) {
	switch s {
	case "full":
		return FullStep, nil
	case "half":
		return HalfStep, nil
	case "quarter":
		return QuarterStep, nil
	case "eighth":
		return EighthStep, nil
	case "sixteenth":
		return SixteenthStep, nil
	}
	return FullStep, errors.New("units: unknown stepping mode " + s)
}
