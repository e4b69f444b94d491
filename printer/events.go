package printer

import (
	"fmt"

	"printhive/units"
)

// Event travels on the pub/sub bus. The backlog is bounded, so a subscriber
// that falls behind misses intermediate events: handlers react to the state
// an event implies, never to how many arrived
type Event interface {
	fmt.Stringer
	isEvent()
}

type HotendOverheating struct{ Temperature units.Temperature }

type HotendUnderheating struct{ Temperature units.Temperature }

type HeatbedOverheating struct{ Temperature units.Temperature }

type HeatbedUnderheating struct{ Temperature units.Temperature }

// StepperFault carries a motion error surfaced by the planner
type StepperFault struct{ Err error }

// EOF marks the end of the SD file being printed
type EOF struct{}

type PrintCompleted struct{}

type PrintAborted struct{}

func (e HotendOverheating) String() string {
	return fmt.Sprintf("Hotend overheating: %.2f°C", e.Temperature.Celsius())
}

func (e HotendUnderheating) String() string {
	return fmt.Sprintf("Hotend underheating: %.2f°C", e.Temperature.Celsius())
}

func (e HeatbedOverheating) String() string {
	return fmt.Sprintf("Heatbed overheating: %.2f°C", e.Temperature.Celsius())
}

func (e HeatbedUnderheating) String() string {
	return fmt.Sprintf("Heatbed underheating: %.2f°C", e.Temperature.Celsius())
}

func (e StepperFault) String() string {
	return fmt.Sprintf("Stepper error: %v", e.Err)
}

func (EOF) String() string { return "End of file" }

func (PrintCompleted) String() string { return "Print completed" }

func (PrintAborted) String() string { return "Print aborted" }

func (HotendOverheating) isEvent()   {}
func (HotendUnderheating) isEvent()  {}
func (HeatbedOverheating) isEvent()  {}
func (HeatbedUnderheating) isEvent() {}
func (StepperFault) isEvent()        {}
func (EOF) isEvent()                 {}
func (PrintCompleted) isEvent()      {}
func (PrintAborted) isEvent()        {}

// IsShutdown reports whether an event must drive the observing worker's
// actuators to a safe state (heaters off, file handles closed)
func IsShutdown(e Event) bool {
	switch e.(type) {
	case HotendOverheating, HotendUnderheating,
		HeatbedOverheating, HeatbedUnderheating,
		StepperFault, PrintCompleted, PrintAborted:
		return true
	}
	return false
}
