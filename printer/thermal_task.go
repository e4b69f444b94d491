package printer

import (
	"fmt"
	"time"

	"printhive/config"
	"printhive/debug"
	"printhive/gcode"
	"printhive/thermal"
)

// thermalTick paces the heater control loops
const thermalTick = 100 * time.Millisecond

// runThermal is the steady-state loop shared by the hotend and heatbed
// workers. Each tick it reads the thermistor under the ADC lock, advances
// the PID and writes the duty under the PWM lock, watches the temperature
// limits, reacts to bus events and applies any command addressed to it.
// fan is non-nil only for the hotend, which also owns the part-cooling fan
func (p *Printer) runThermal(id TaskID, label string, actuator *thermal.Actuator, params config.ActuatorParams, fan *FanController) {
	sub := p.sub[id]
	rx := p.rx[id]
	tick := time.NewTicker(thermalTick)
	defer tick.Stop()

	var reportEvery time.Duration
	var counter time.Duration
	// limit events latch until the reading comes back inside the window,
	// so a fault is published once per excursion, not once per tick
	overheated := false
	underheated := false

	for {
		select {
		case <-p.quit:
			return
		case <-tick.C:
		}

		p.adcMu.Lock()
		current, err := actuator.ReadTemperature()
		p.adcMu.Unlock()
		if err != nil {
			debug.Println("[" + label + "] thermistor read failed: " + err.Error())
			continue
		}

		p.pwmMu.Lock()
		_, err = actuator.Heat(current, thermalTick, p.periph.Pwm)
		p.pwmMu.Unlock()
		if err != nil {
			debug.Println("[" + label + "] heater update failed: " + err.Error())
		}

		_, hasTarget := actuator.TargetTemperature()
		switch {
		case current > params.TemperatureLimit[1]:
			if !overheated {
				overheated = true
				var e Event
				if id == TaskHotend {
					e = HotendOverheating{Temperature: current}
				} else {
					e = HeatbedOverheating{Temperature: current}
				}
				p.events.Publish(e)
				p.report(label, e.String())
			}
		case hasTarget && current < params.TemperatureLimit[0]:
			if !underheated {
				underheated = true
				var e Event
				if id == TaskHotend {
					e = HotendUnderheating{Temperature: current}
				} else {
					e = HeatbedUnderheating{Temperature: current}
				}
				p.events.Publish(e)
				p.report(label, e.String())
			}
		default:
			overheated = false
			underheated = false
		}

		if e, ok := sub.TryNext(); ok && IsShutdown(e) {
			p.pwmMu.Lock()
			actuator.Disable(p.periph.Pwm)
			if fan != nil {
				fan.Disable(p.periph.Pwm)
			}
			p.pwmMu.Unlock()
			actuator.ResetTemperature()
		}

		if reportEvery > 0 && counter >= reportEvery {
			p.report(label, fmt.Sprintf("Temperature: %.2f°C", current.Celsius()))
			counter = 0
		}

		if cmd, ok := rx.TryChanged(); ok && cmd.Destination&id.Bit() != 0 {
			switch c := cmd.Cmd.(type) {
			case gcode.M104:
				if id == TaskHotend {
					actuator.SetTemperature(c.S)
					p.pwmMu.Lock()
					actuator.Enable(p.periph.Pwm)
					p.pwmMu.Unlock()
				}
			case gcode.M140:
				if id == TaskHeatbed {
					actuator.SetTemperature(c.S)
					p.pwmMu.Lock()
					actuator.Enable(p.periph.Pwm)
					p.pwmMu.Unlock()
				}
			case gcode.M105:
				p.report(label, fmt.Sprintf("Temperature: %.2f°C", current.Celsius()))
			case gcode.M106:
				if id == TaskHotend && fan != nil {
					p.pwmMu.Lock()
					fan.SetSpeed(c.S, p.periph.Pwm)
					p.pwmMu.Unlock()
				}
			case gcode.M155:
				reportEvery = c.S
				counter = 0
			}
			p.signal.Signal(id)
		}

		counter += thermalTick
	}
}
