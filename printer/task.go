// Package printer wires the firmware core together: the worker tasks, the
// command dispatcher, the event bus and the peripheral ownership rules.
package printer

import (
	"printhive/fabric"
	"printhive/gcode"
)

// TaskID names the worker tasks. The dense indexes double as bit positions
// in a command's destination mask
type TaskID uint8

const (
	TaskInput TaskID = iota
	TaskOutput
	TaskCommandDispatcher
	TaskHotend
	TaskHeatbed
	TaskSdCard
	TaskPlanner

	taskCount
)

// Bit is the task's position in a destination mask
func (t TaskID) Bit() uint8 {
	return 1 << t
}

func (t TaskID) String() string {
	switch t {
	case TaskInput:
		return "input"
	case TaskOutput:
		return "output"
	case TaskCommandDispatcher:
		return "command-dispatcher"
	case TaskHotend:
		return "hotend"
	case TaskHeatbed:
		return "heatbed"
	case TaskSdCard:
		return "sdcard"
	case TaskPlanner:
		return "planner"
	}
	return "unknown"
}

// maxMessageLen bounds a single ingress line
const maxMessageLen = 256

// TaskMessage is one raw G-code line on its way to the dispatcher
type TaskMessage struct {
	Msg      string
	Priority fabric.Priority
}

// TaskGCommand is the dispatcher's broadcast payload. Destination is the
// bitwise-or of the Bit of every worker that must consume the command and
// acknowledge it
type TaskGCommand struct {
	Cmd         gcode.Command
	Destination uint8
}

// DestinationOf maps a command to the set of workers that must consume it.
// Unit-switching commands are handled inside the dispatcher and address no
// workers
func DestinationOf(cmd gcode.Command) uint8 {
	switch cmd.(type) {
	case gcode.G0, gcode.G1, gcode.G2, gcode.G3, gcode.G4,
		gcode.G10, gcode.G11, gcode.G28, gcode.G90, gcode.G91, gcode.G92,
		gcode.M114, gcode.M207, gcode.M208, gcode.M220:
		return TaskPlanner.Bit()
	case gcode.M104, gcode.M106:
		return TaskHotend.Bit()
	case gcode.M105, gcode.M155:
		return TaskHotend.Bit() | TaskHeatbed.Bit()
	case gcode.M140:
		return TaskHeatbed.Bit()
	case gcode.M20, gcode.M21, gcode.M22, gcode.M23, gcode.M24,
		gcode.M25, gcode.M26, gcode.M31, gcode.M524:
		return TaskSdCard.Bit()
	}
	return 0
}
