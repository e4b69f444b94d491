// Package thermal implements the closed thermal loop: thermistor reading,
// PID heater and the actuator binding the two.
package thermal

import (
	"printhive/geom"
	"printhive/hal"
	"printhive/units"
)

// referenceTemperatureK is the NTC calibration point T0 (25°C) in kelvin
const referenceTemperatureK = 298.15

// ThermistorConfig describes the NTC divider: the thermistor (R0 at 25°C,
// β coefficient B) on the supply side with RSeries to ground, so a hotter
// thermistor raises the sample
type ThermistorConfig struct {
	RSeries units.Resistance
	R0      units.Resistance
	B       units.Temperature
}

// Thermistor reads one analog channel through a single-shot conversion into
// a one-sample buffer (the DMA target on real silicon; the buffer must be
// referenced by exactly one task) and converts the raw count with the β
// equation
type Thermistor struct {
	adc        hal.Adc
	pin        hal.AdcPin
	resolution hal.Resolution
	readings   [1]uint16
	config     ThermistorConfig
}

func NewThermistor(adc hal.Adc, pin hal.AdcPin, sampleTime hal.SampleTime, resolution hal.Resolution, config ThermistorConfig) *Thermistor {
	adc.SetSampleTime(sampleTime)
	adc.SetResolution(resolution)
	return &Thermistor{
		adc:        adc,
		pin:        pin,
		resolution: resolution,
		config:     config,
	}
}

// ReadTemperature kicks one conversion and converts the sample
func (t *Thermistor) ReadTemperature() (units.Temperature, error) {
	if err := t.adc.Read(t.pin, t.readings[:]); err != nil {
		return 0, err
	}
	return ComputeNTCTemperature(
		uint64(t.readings[0]),
		t.resolution,
		t.config.B,
		t.config.R0,
		t.config.RSeries,
	), nil
}

// ComputeNTCTemperature solves the β equation
//
//	1/T = 1/T0 + (1/B) * ln(R/R0)
//
// for a divider where the thermistor resistance is
// R = RSeries * (maxSample/sample - 1)
func ComputeNTCTemperature(sample uint64, resolution hal.Resolution, b units.Temperature, r0, rSeries units.Resistance) units.Temperature {
	maxSample := float64(resolution.MaxCount())
	if sample == 0 {
		sample = 1 // an open divider reads as the coldest representable point
	}
	r := rSeries.Ohms() * (maxSample/float64(sample) - 1.0)
	invT := 1.0/referenceTemperatureK + geom.Ln(r/r0.Ohms())/b.Kelvin()
	return units.DegreesKelvin(1.0 / invT)
}
