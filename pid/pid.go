// Package pid implements the target-tracking PID controller used by the
// heater loops.
package pid

import (
	"errors"
	"time"
)

// ErrNoTarget is returned by Update when no setpoint has been configured
var ErrNoTarget = errors.New("pid: no target set")

// PID is a proportional-integral-derivative controller with optional output
// bounds. While bounds are set, the integral accumulates only when the raw
// P+I term lies inside them, so the integrator cannot wind up against a
// saturated actuator
type PID struct {
	kp, ki, kd float64

	target    float64
	hasTarget bool

	prevError float64
	integral  float64

	boundMin, boundMax float64
	bounded            bool
}

func New(kp, ki, kd float64) *PID {
	return &PID{kp: kp, ki: ki, kd: kd}
}

func (p *PID) SetTarget(target float64) {
	p.target = target
	p.hasTarget = true
}

func (p *PID) ResetTarget() {
	p.hasTarget = false
}

func (p *PID) Target() (float64, bool) {
	return p.target, p.hasTarget
}

// SetOutputBounds clamps the output and gates the integrator to [min, max]
func (p *PID) SetOutputBounds(min, max float64) {
	p.boundMin = min
	p.boundMax = max
	p.bounded = true
}

// Integral exposes the accumulated integral term for inspection
func (p *PID) Integral() float64 { return p.integral }

// PrevError exposes the previous error term for inspection
func (p *PID) PrevError() float64 { return p.prevError }

// Update advances the controller by dt given the current process value and
// returns the new output
func (p *PID) Update(current float64, dt time.Duration) (float64, error) {
	if !p.hasTarget {
		return 0, ErrNoTarget
	}
	e := p.target - current

	proportional := p.kp * e

	out := proportional + p.ki*p.integral
	if !p.bounded || (out >= p.boundMin && out <= p.boundMax) {
		p.integral += e * dt.Seconds()
	}

	derivative := (e - p.prevError) / dt.Seconds()
	p.prevError = e

	output := out + p.kd*derivative
	if p.bounded {
		if output < p.boundMin {
			output = p.boundMin
		} else if output > p.boundMax {
			output = p.boundMax
		}
	}
	return output, nil
}
