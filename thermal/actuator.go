package thermal

import (
	"time"

	"printhive/hal"
	"printhive/pid"
	"printhive/units"
)

// Actuator binds a heater to the thermistor that observes it. Each tick
// reads the temperature, advances the PID and writes the new duty cycle
type Actuator struct {
	heater     *Heater
	thermistor *Thermistor
}

func NewActuator(heater *Heater, thermistor *Thermistor) *Actuator {
	return &Actuator{heater: heater, thermistor: thermistor}
}

func (a *Actuator) Enable(pwm hal.Pwm) {
	a.heater.Enable(pwm)
}

func (a *Actuator) Disable(pwm hal.Pwm) {
	a.heater.Disable(pwm)
}

func (a *Actuator) SetTemperature(t units.Temperature) {
	a.heater.SetTargetTemperature(t)
}

func (a *Actuator) ResetTemperature() {
	a.heater.ResetTargetTemperature()
}

// TargetTemperature reports the active setpoint, if any
func (a *Actuator) TargetTemperature() (units.Temperature, bool) {
	return a.heater.TargetTemperature()
}

// ReadTemperature reads the bound thermistor
func (a *Actuator) ReadTemperature() (units.Temperature, error) {
	return a.thermistor.ReadTemperature()
}

// Heat advances the PID by dt using an already obtained reading and writes
// the duty cycle. Taking the reading separately lets the caller hold the
// ADC and PWM locks one at a time. A missing target is not a fault for the
// control loop: the duty simply stays put
func (a *Actuator) Heat(current units.Temperature, dt time.Duration, pwm hal.Pwm) (uint64, error) {
	duty, err := a.heater.Update(current, dt, pwm)
	if err == pid.ErrNoTarget {
		return 0, nil
	}
	return duty, err
}

// Update reads the current temperature, advances the PID by dt and writes
// the duty cycle; the reading is returned so the caller can watch the limits
func (a *Actuator) Update(dt time.Duration, pwm hal.Pwm) (units.Temperature, uint64, error) {
	current, err := a.thermistor.ReadTemperature()
	if err != nil {
		return 0, 0, err
	}
	duty, err := a.Heat(current, dt, pwm)
	return current, duty, err
}
