// Package config loads and validates the TOML board description and turns
// it into the typed runtime configuration the printer consumes: stepper
// options and attachments, PID gains, thermistor constants, PWM channel
// assignments, motion defaults and peripheral names.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"printhive/hal"
	"printhive/stepper"
	"printhive/thermal"
	"printhive/units"
)

// Document is the raw TOML schema
type Document struct {
	Uart     UartSection     `toml:"uart"`
	Pwm      PwmSection      `toml:"pwm"`
	Adc      AdcSection      `toml:"adc"`
	Steppers SteppersSection `toml:"steppers"`
	Endstops EndstopsSection `toml:"endstops"`
	Hotend   ActuatorSection `toml:"hotend"`
	Heatbed  ActuatorSection `toml:"heatbed"`
	Fan      FanSection      `toml:"fan"`
	Motion   MotionSection   `toml:"motion"`
	SdCard   SdCardSection   `toml:"sdcard"`
}

type UartSection struct {
	Peripheral string `toml:"peripheral"`
	Baudrate   int    `toml:"baudrate"`
}

type PwmSection struct {
	Timer     string `toml:"timer"`
	Frequency uint32 `toml:"frequency"`
}

type AdcSection struct {
	Peripheral string `toml:"peripheral"`
	Resolution uint8  `toml:"resolution"`
	SampleTime uint8  `toml:"sample_time"`
}

type SteppersSection struct {
	X StepperSection `toml:"x"`
	Y StepperSection `toml:"y"`
	Z StepperSection `toml:"z"`
	E StepperSection `toml:"e"`
}

type StepperSection struct {
	StepPin            string    `toml:"step_pin"`
	DirPin             string    `toml:"dir_pin"`
	StepsPerRevolution uint64    `toml:"steps_per_revolution"`
	SteppingMode       string    `toml:"stepping_mode"`
	PositiveDirection  string    `toml:"positive_direction"`
	Bounds             []float64 `toml:"bounds"`

	// Exactly one of the three couplings describes the axis mechanics
	PulleyRadius    float64 `toml:"pulley_radius"`
	ScrewPitch      float64 `toml:"screw_pitch"`
	DistancePerStep float64 `toml:"distance_per_step"`
}

type EndstopsSection struct {
	X EndstopSection `toml:"x"`
	Y EndstopSection `toml:"y"`
	Z EndstopSection `toml:"z"`
}

type EndstopSection struct {
	Pin  string `toml:"pin"`
	Exti string `toml:"exti"`
}

type ActuatorSection struct {
	AdcPin     string            `toml:"adc_pin"`
	Heater     HeaterSection     `toml:"heater"`
	Pid        PidSection        `toml:"pid"`
	Thermistor ThermistorSection `toml:"thermistor"`
}

type HeaterSection struct {
	PwmChannel     uint8   `toml:"pwm_channel"`
	MinTemperature float64 `toml:"min_temperature"`
	MaxTemperature float64 `toml:"max_temperature"`
}

type PidSection struct {
	Kp float64 `toml:"kp"`
	Ki float64 `toml:"ki"`
	Kd float64 `toml:"kd"`
}

type ThermistorSection struct {
	RSeries float64 `toml:"r_series"`
	R0      float64 `toml:"r0"`
	B       float64 `toml:"b"`
}

type FanSection struct {
	PwmChannel uint8 `toml:"pwm_channel"`
}

type MotionSection struct {
	ArcUnitLength      float64           `toml:"arc_unit_length"`
	Feedrate           float64           `toml:"feedrate"` // mm/s
	Positioning        string            `toml:"positioning"`
	FeedrateMultiplier float64           `toml:"feedrate_multiplier"`
	Retraction         RetractionSection `toml:"retraction"`
	Recover            RecoverSection    `toml:"recover"`
}

type RetractionSection struct {
	Feedrate float64 `toml:"feedrate"` // mm/min, as G-code would set it
	Length   float64 `toml:"length"`
	ZLift    float64 `toml:"z_lift"`
}

type RecoverSection struct {
	Feedrate float64 `toml:"feedrate"` // mm/min
	Length   float64 `toml:"length"`
}

type SdCardSection struct {
	Spi   string `toml:"spi"`
	CsPin string `toml:"cs_pin"`
}

// StepperParams is the validated configuration of one axis
type StepperParams struct {
	StepPin    string
	DirPin     string
	Options    stepper.Options
	Attachment stepper.Attachment
}

// ActuatorParams is the validated configuration of one thermal actuator
type ActuatorParams struct {
	AdcPin           string
	PwmChannel       hal.PwmChannel
	Pid              thermal.PidConfig
	Thermistor       thermal.ThermistorConfig
	TemperatureLimit [2]units.Temperature
}

// Runtime is the typed configuration consumed by the printer at boot
type Runtime struct {
	UartPeripheral string
	UartBaudrate   int

	PwmTimer     string
	PwmFrequency uint32

	AdcPeripheral string
	AdcResolution hal.Resolution
	AdcSampleTime hal.SampleTime

	Steppers struct {
		X, Y, Z, E StepperParams
	}
	Endstops struct {
		X, Y, Z EndstopSection
	}
	Hotend  ActuatorParams
	Heatbed ActuatorParams
	Fan     struct {
		PwmChannel hal.PwmChannel
	}
	Motion stepper.MotionConfig
	SdCard SdCardSection
}

// Load reads and validates a board description
func Load(r io.Reader) (*Runtime, error) {
	var doc Document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return doc.Validate()
}

// LoadFile reads and validates a board description from a path
func LoadFile(path string) (*Runtime, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func validatePwmChannel(name string, ch uint8) error {
	if ch < 1 || ch > 4 {
		return fmt.Errorf("config: %s pwm channel %d outside 1..4", name, ch)
	}
	return nil
}

func validateName(field, name string) error {
	if name == "" {
		return errors.New("config: missing " + field)
	}
	return nil
}

func (s StepperSection) params(axis string) (StepperParams, error) {
	var p StepperParams
	if err := validateName("steppers."+axis+".step_pin", s.StepPin); err != nil {
		return p, err
	}
	if err := validateName("steppers."+axis+".dir_pin", s.DirPin); err != nil {
		return p, err
	}
	if s.StepsPerRevolution == 0 {
		return p, fmt.Errorf("config: steppers.%s.steps_per_revolution must be positive", axis)
	}

	mode, err := units.ParseSteppingMode(s.SteppingMode)
	if err != nil {
		return p, fmt.Errorf("config: steppers.%s: %w", axis, err)
	}
	dir, err := units.ParseRotationDirection(s.PositiveDirection)
	if err != nil {
		return p, fmt.Errorf("config: steppers.%s: %w", axis, err)
	}

	dps, err := s.distancePerStep(axis)
	if err != nil {
		return p, err
	}

	// bounds are millimetres in the board description but the driver
	// tracks full steps, so they scale by the attachment
	var bounds *stepper.Bounds
	switch len(s.Bounds) {
	case 0:
	case 2:
		if s.Bounds[0] >= s.Bounds[1] {
			return p, fmt.Errorf("config: steppers.%s.bounds min must be below max", axis)
		}
		bounds = &stepper.Bounds{
			Min: s.Bounds[0] / dps.Millimeters(),
			Max: s.Bounds[1] / dps.Millimeters(),
		}
	default:
		return p, fmt.Errorf("config: steppers.%s.bounds needs [min, max]", axis)
	}

	p = StepperParams{
		StepPin: s.StepPin,
		DirPin:  s.DirPin,
		Options: stepper.Options{
			StepsPerRevolution: s.StepsPerRevolution,
			Mode:               mode,
			Bounds:             bounds,
			PositiveDirection:  dir,
		},
		Attachment: stepper.Attachment{DistancePerStep: dps},
	}
	return p, nil
}

// distancePerStep derives the full-step travel from whichever coupling the
// section describes: a belt pulley, a lead screw, or an explicit value
func (s StepperSection) distancePerStep(axis string) (units.Distance, error) {
	set := 0
	var dps units.Distance
	if s.PulleyRadius != 0 {
		set++
		d, ok := stepper.DistancePerStepFromRadius(units.Millimeters(s.PulleyRadius), s.StepsPerRevolution)
		if !ok {
			return 0, fmt.Errorf("config: steppers.%s.pulley_radius not usable", axis)
		}
		dps = d
	}
	if s.ScrewPitch != 0 {
		set++
		d, ok := stepper.DistancePerStepFromPitch(units.Millimeters(s.ScrewPitch), s.StepsPerRevolution)
		if !ok {
			return 0, fmt.Errorf("config: steppers.%s.screw_pitch not usable", axis)
		}
		dps = d
	}
	if s.DistancePerStep != 0 {
		set++
		dps = units.Millimeters(s.DistancePerStep)
	}
	if set != 1 {
		return 0, fmt.Errorf("config: steppers.%s needs exactly one of pulley_radius, screw_pitch, distance_per_step", axis)
	}
	return dps, nil
}

func (a ActuatorSection) params(name string) (ActuatorParams, error) {
	var p ActuatorParams
	if err := validateName(name+".adc_pin", a.AdcPin); err != nil {
		return p, err
	}
	if err := validatePwmChannel(name, a.Heater.PwmChannel); err != nil {
		return p, err
	}
	if a.Thermistor.RSeries <= 0 || a.Thermistor.R0 <= 0 || a.Thermistor.B <= 0 {
		return p, fmt.Errorf("config: %s.thermistor constants must be positive", name)
	}
	p = ActuatorParams{
		AdcPin:     a.AdcPin,
		PwmChannel: hal.PwmChannel(a.Heater.PwmChannel),
		Pid:        thermal.PidConfig{Kp: a.Pid.Kp, Ki: a.Pid.Ki, Kd: a.Pid.Kd},
		Thermistor: thermal.ThermistorConfig{
			RSeries: units.Ohms(a.Thermistor.RSeries),
			R0:      units.Ohms(a.Thermistor.R0),
			// β is a kelvin figure
			B: units.DegreesKelvin(a.Thermistor.B),
		},
		TemperatureLimit: [2]units.Temperature{
			units.DegreesCelsius(a.Heater.MinTemperature),
			units.DegreesCelsius(a.Heater.MaxTemperature),
		},
	}
	return p, nil
}

// Validate checks the document and produces the runtime configuration
func (doc *Document) Validate() (*Runtime, error) {
	rt := &Runtime{}

	if err := validateName("uart.peripheral", doc.Uart.Peripheral); err != nil {
		return nil, err
	}
	if doc.Uart.Baudrate <= 0 {
		return nil, errors.New("config: uart.baudrate must be positive")
	}
	rt.UartPeripheral = doc.Uart.Peripheral
	rt.UartBaudrate = doc.Uart.Baudrate

	if err := validateName("pwm.timer", doc.Pwm.Timer); err != nil {
		return nil, err
	}
	rt.PwmTimer = doc.Pwm.Timer
	rt.PwmFrequency = doc.Pwm.Frequency

	if err := validateName("adc.peripheral", doc.Adc.Peripheral); err != nil {
		return nil, err
	}
	resolution := doc.Adc.Resolution
	if resolution == 0 {
		resolution = 12
	}
	rt.AdcPeripheral = doc.Adc.Peripheral
	rt.AdcResolution = hal.Resolution(resolution)
	rt.AdcSampleTime = hal.SampleTime(doc.Adc.SampleTime)

	var err error
	if rt.Steppers.X, err = doc.Steppers.X.params("x"); err != nil {
		return nil, err
	}
	if rt.Steppers.Y, err = doc.Steppers.Y.params("y"); err != nil {
		return nil, err
	}
	if rt.Steppers.Z, err = doc.Steppers.Z.params("z"); err != nil {
		return nil, err
	}
	if rt.Steppers.E, err = doc.Steppers.E.params("e"); err != nil {
		return nil, err
	}

	for _, es := range []struct {
		name    string
		section EndstopSection
	}{
		{"endstops.x", doc.Endstops.X},
		{"endstops.y", doc.Endstops.Y},
		{"endstops.z", doc.Endstops.Z},
	} {
		if err := validateName(es.name+".pin", es.section.Pin); err != nil {
			return nil, err
		}
	}
	rt.Endstops.X = doc.Endstops.X
	rt.Endstops.Y = doc.Endstops.Y
	rt.Endstops.Z = doc.Endstops.Z

	if rt.Hotend, err = doc.Hotend.params("hotend"); err != nil {
		return nil, err
	}
	if rt.Heatbed, err = doc.Heatbed.params("heatbed"); err != nil {
		return nil, err
	}
	if err := validatePwmChannel("fan", doc.Fan.PwmChannel); err != nil {
		return nil, err
	}
	rt.Fan.PwmChannel = hal.PwmChannel(doc.Fan.PwmChannel)

	positioning := stepper.Absolute
	if doc.Motion.Positioning != "" {
		if positioning, err = stepper.ParsePositioning(doc.Motion.Positioning); err != nil {
			return nil, err
		}
	}
	arcUnit := doc.Motion.ArcUnitLength
	if arcUnit == 0 {
		arcUnit = 1.0
	}
	multiplier := doc.Motion.FeedrateMultiplier
	if multiplier == 0 {
		multiplier = 1.0
	}
	rt.Motion = stepper.MotionConfig{
		ArcUnitLength:      units.Millimeters(arcUnit),
		Feedrate:           units.MillimetersPerSecond(doc.Motion.Feedrate),
		Positioning:        positioning,
		FeedrateMultiplier: multiplier,
		Retraction: stepper.RetractionConfig{
			Feedrate: units.Feedrate(doc.Motion.Retraction.Feedrate, units.Millimeter),
			Length:   units.Millimeters(doc.Motion.Retraction.Length),
			ZLift:    units.Millimeters(doc.Motion.Retraction.ZLift),
		},
		Recover: stepper.RecoverConfig{
			Feedrate: units.Feedrate(doc.Motion.Recover.Feedrate, units.Millimeter),
			Length:   units.Millimeters(doc.Motion.Recover.Length),
		},
	}

	rt.SdCard = doc.SdCard
	return rt, nil
}
