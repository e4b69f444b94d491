// Package hal declares the peripheral interfaces the firmware core consumes
// (PWM, ADC, timers) together with simulator implementations used on the
// host. Silicon-specific adapters live outside this module and only need to
// satisfy these interfaces.
package hal

import "sync"

// PwmChannel identifies one output channel of the shared PWM timer (1..4)
type PwmChannel uint8

// Pwm is a multi-channel PWM peripheral. It is shared between the hotend,
// heatbed and fan, so callers access it through a mutex and must not hold
// that lock across long waits
type Pwm interface {
	Enable(ch PwmChannel)
	Disable(ch PwmChannel)
	// MaxDuty is the duty value corresponding to a 100% cycle
	MaxDuty() uint64
	// SetDuty records the duty cycle for ch. The write is retained even
	// while the channel is disabled; it takes effect when re-enabled
	SetDuty(ch PwmChannel, duty uint64)
}

// SimPwm is an inspectable in-memory PWM peripheral. It carries its own
// lock so observers may poll it while the control loops write
type SimPwm struct {
	mu      sync.Mutex
	maxDuty uint64
	enabled [5]bool
	duty    [5]uint64
}

func NewSimPwm(maxDuty uint64) *SimPwm {
	return &SimPwm{maxDuty: maxDuty}
}

func (p *SimPwm) Enable(ch PwmChannel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(ch) < len(p.enabled) {
		p.enabled[ch] = true
	}
}

func (p *SimPwm) Disable(ch PwmChannel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(ch) < len(p.enabled) {
		p.enabled[ch] = false
	}
}

func (p *SimPwm) MaxDuty() uint64 { return p.maxDuty }

func (p *SimPwm) SetDuty(ch PwmChannel, duty uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(ch) < len(p.duty) {
		p.duty[ch] = duty
	}
}

// Enabled reports whether ch is currently enabled
func (p *SimPwm) Enabled(ch PwmChannel) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(ch) < len(p.enabled) && p.enabled[ch]
}

// Duty reports the last duty written to ch
func (p *SimPwm) Duty(ch PwmChannel) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(ch) >= len(p.duty) {
		return 0
	}
	return p.duty[ch]
}
