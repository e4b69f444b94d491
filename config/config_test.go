package config

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"printhive/hal"
	"printhive/stepper"
	"printhive/units"
)

const boardDoc = `
[uart]
peripheral = "UART4"
baudrate = 115200

[pwm]
timer = "TIM3"
frequency = 1000

[adc]
peripheral = "ADC1"
resolution = 12
sample_time = 64

[steppers.x]
step_pin = "PA0"
dir_pin = "PA1"
steps_per_revolution = 200
stepping_mode = "sixteenth"
positive_direction = "clockwise"
bounds = [-220.0, 220.0]
pulley_radius = 6.0

[steppers.y]
step_pin = "PA2"
dir_pin = "PA3"
steps_per_revolution = 200
stepping_mode = "sixteenth"
positive_direction = "counterclockwise"
bounds = [-220.0, 220.0]
pulley_radius = 6.0

[steppers.z]
step_pin = "PA4"
dir_pin = "PA5"
steps_per_revolution = 200
stepping_mode = "full"
positive_direction = "clockwise"
screw_pitch = 8.0

[steppers.e]
step_pin = "PA6"
dir_pin = "PA7"
steps_per_revolution = 200
stepping_mode = "full"
positive_direction = "clockwise"
distance_per_step = 0.01

[endstops.x]
pin = "PB0"
exti = "EXTI0"

[endstops.y]
pin = "PB1"
exti = "EXTI1"

[endstops.z]
pin = "PB2"
exti = "EXTI2"

[hotend]
adc_pin = "PC0"

[hotend.heater]
pwm_channel = 1
min_temperature = 0.0
max_temperature = 250.0

[hotend.pid]
kp = 30.0
ki = 0.0
kd = 3.0

[hotend.thermistor]
r_series = 10000.0
r0 = 100000.0
b = 3950.0

[heatbed]
adc_pin = "PC1"

[heatbed.heater]
pwm_channel = 2
min_temperature = 0.0
max_temperature = 110.0

[heatbed.pid]
kp = 25.0
ki = 0.0
kd = 2.0

[heatbed.thermistor]
r_series = 10000.0
r0 = 100000.0
b = 3950.0

[fan]
pwm_channel = 3

[motion]
arc_unit_length = 1.0
feedrate = 20.0
positioning = "absolute"
feedrate_multiplier = 1.0

[motion.retraction]
feedrate = 2400.0
length = 5.0
z_lift = 0.2

[motion.recover]
feedrate = 1800.0
length = 5.0

[sdcard]
spi = "SPI1"
cs_pin = "PA8"
`

func TestLoadValidBoard(t *testing.T) {
	c := qt.New(t)

	rt, err := Load(strings.NewReader(boardDoc))
	c.Assert(err, qt.IsNil)

	c.Assert(rt.UartBaudrate, qt.Equals, 115200)
	c.Assert(rt.AdcResolution.MaxCount(), qt.Equals, uint64(4095))

	x := rt.Steppers.X
	c.Assert(x.Options.Mode, qt.Equals, units.SixteenthStep)
	c.Assert(x.Options.PositiveDirection, qt.Equals, units.Clockwise)
	// 2π·6 mm of belt per 200-step revolution
	c.Assert(x.Attachment.DistancePerStep.Millimeters() > 0.188, qt.IsTrue)
	c.Assert(x.Attachment.DistancePerStep.Millimeters() < 0.189, qt.IsTrue)
	// bounds land in the step frame: steps × travel-per-step = 220 mm
	boundMM := x.Options.Bounds.Max * x.Attachment.DistancePerStep.Millimeters()
	c.Assert(boundMM > 219.99 && boundMM < 220.01, qt.IsTrue)

	c.Assert(rt.Steppers.Z.Attachment.DistancePerStep.Millimeters(), qt.Equals, 0.04)
	c.Assert(rt.Steppers.E.Attachment.DistancePerStep.Millimeters(), qt.Equals, 0.01)

	c.Assert(rt.Hotend.PwmChannel, qt.Equals, hal.PwmChannel(1))
	c.Assert(rt.Heatbed.PwmChannel, qt.Equals, hal.PwmChannel(2))
	c.Assert(rt.Fan.PwmChannel, qt.Equals, hal.PwmChannel(3))
	c.Assert(rt.Hotend.TemperatureLimit[1].Celsius(), qt.Equals, 250.0)
	c.Assert(rt.Hotend.Thermistor.B.Kelvin(), qt.Equals, 3950.0)

	c.Assert(rt.Motion.Positioning, qt.Equals, stepper.Absolute)
	c.Assert(rt.Motion.Retraction.Feedrate.MillimetersPerMinute(), qt.Equals, 2400.0)
	c.Assert(rt.Motion.Recover.Length.Millimeters(), qt.Equals, 5.0)
}

func replace(doc, old, new string) string {
	return strings.Replace(doc, old, new, 1)
}

func TestValidationRejectsBadChannel(t *testing.T) {
	c := qt.New(t)

	_, err := Load(strings.NewReader(replace(boardDoc, "pwm_channel = 1", "pwm_channel = 5")))
	c.Assert(err, qt.IsNotNil)
	c.Assert(err.Error(), qt.Contains, "pwm channel")
}

func TestValidationRejectsBadEnums(t *testing.T) {
	c := qt.New(t)

	_, err := Load(strings.NewReader(replace(boardDoc, `stepping_mode = "sixteenth"`, `stepping_mode = "thirtysecond"`)))
	c.Assert(err, qt.IsNotNil)

	_, err = Load(strings.NewReader(replace(boardDoc, `positive_direction = "counterclockwise"`, `positive_direction = "sideways"`)))
	c.Assert(err, qt.IsNotNil)

	_, err = Load(strings.NewReader(replace(boardDoc, `positioning = "absolute"`, `positioning = "diagonal"`)))
	c.Assert(err, qt.IsNotNil)
}

func TestValidationRejectsMissingPins(t *testing.T) {
	c := qt.New(t)

	_, err := Load(strings.NewReader(replace(boardDoc, `step_pin = "PA0"`, `step_pin = ""`)))
	c.Assert(err, qt.IsNotNil)

	_, err = Load(strings.NewReader(replace(boardDoc, `pin = "PB0"`, `pin = ""`)))
	c.Assert(err, qt.IsNotNil)

	_, err = Load(strings.NewReader(replace(boardDoc, `peripheral = "UART4"`, `peripheral = ""`)))
	c.Assert(err, qt.IsNotNil)
}

func TestValidationRejectsAmbiguousCoupling(t *testing.T) {
	c := qt.New(t)

	// pulley radius and screw pitch on the same axis
	doc := replace(boardDoc, "pulley_radius = 6.0", "pulley_radius = 6.0\nscrew_pitch = 2.0")
	_, err := Load(strings.NewReader(doc))
	c.Assert(err, qt.IsNotNil)
}
