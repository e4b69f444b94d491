package stepper

import (
	"time"

	"periph.io/x/periph/conn/gpio"

	"printhive/hal"
)

// debounceWindow is the confirmation delay before a high level is trusted
// as a real contact during homing
const debounceWindow = 2 * time.Millisecond

// Endstop is a limit switch on an input pin, active high
type Endstop struct {
	pin   gpio.PinIn
	timer hal.Timer
}

func NewEndstop(pin gpio.PinIn, timer hal.Timer) (*Endstop, error) {
	if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &Endstop{pin: pin, timer: timer}, nil
}

// IsHigh reads the raw pin level
func (e *Endstop) IsHigh() bool {
	return e.pin.Read() == gpio.High
}

// Triggered reads the pin and, when high, re-reads it after the debounce
// window so a bounce is not taken for a contact
func (e *Endstop) Triggered() bool {
	if !e.IsHigh() {
		return false
	}
	e.timer.After(debounceWindow)
	return e.IsHigh()
}
