package thermal

import (
	"time"

	"printhive/hal"
	"printhive/pid"
	"printhive/units"
)

// PidConfig carries the tuned gains for one heater
type PidConfig struct {
	Kp, Ki, Kd float64
}

// Heater drives one PWM channel from a PID controller tracking a target
// temperature. Enable and Disable gate the channel without disturbing the
// controller state
type Heater struct {
	ch  hal.PwmChannel
	pid *pid.PID
}

func NewHeater(ch hal.PwmChannel, config PidConfig) *Heater {
	return &Heater{
		ch:  ch,
		pid: pid.New(config.Kp, config.Ki, config.Kd),
	}
}

func (h *Heater) Enable(pwm hal.Pwm) {
	pwm.Enable(h.ch)
}

func (h *Heater) Disable(pwm hal.Pwm) {
	pwm.Disable(h.ch)
}

func (h *Heater) SetTargetTemperature(t units.Temperature) {
	h.pid.SetTarget(t.Celsius())
}

func (h *Heater) ResetTargetTemperature() {
	h.pid.ResetTarget()
}

// TargetTemperature reports the active setpoint, if any
func (h *Heater) TargetTemperature() (units.Temperature, bool) {
	v, ok := h.pid.Target()
	return units.DegreesCelsius(v), ok
}

// Update advances the PID by dt with the measured temperature and writes the
// resulting duty cycle, bounded to the channel's maximum. With no target set
// it returns pid.ErrNoTarget and leaves the duty unchanged
func (h *Heater) Update(current units.Temperature, dt time.Duration, pwm hal.Pwm) (uint64, error) {
	h.pid.SetOutputBounds(0, float64(pwm.MaxDuty()))
	out, err := h.pid.Update(current.Celsius(), dt)
	if err != nil {
		return 0, err
	}
	duty := uint64(out)
	pwm.SetDuty(h.ch, duty)
	return duty, nil
}
