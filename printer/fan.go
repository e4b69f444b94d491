package printer

import "printhive/hal"

// FanController drives the part-cooling fan channel. M106 speeds are 0..255
// scaled onto the channel's duty range
type FanController struct {
	ch hal.PwmChannel
}

func NewFanController(ch hal.PwmChannel) *FanController {
	return &FanController{ch: ch}
}

// SetSpeed maps speed 0..255 onto the duty range and gates the channel:
// zero disables it entirely
func (f *FanController) SetSpeed(speed uint8, pwm hal.Pwm) {
	duty := pwm.MaxDuty() * uint64(speed) / 255
	pwm.SetDuty(f.ch, duty)
	if speed == 0 {
		pwm.Disable(f.ch)
	} else {
		pwm.Enable(f.ch)
	}
}

// Disable stops the fan
func (f *FanController) Disable(pwm hal.Pwm) {
	pwm.SetDuty(f.ch, 0)
	pwm.Disable(f.ch)
}
