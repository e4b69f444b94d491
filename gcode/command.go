// Package gcode implements a streaming parser for the Marlin-dialect G-code
// subset understood by the printer, producing typed commands.
package gcode

import (
	"time"

	"printhive/units"
)

// Command is a parsed G-code command. The concrete type carries the typed,
// unit-converted arguments; optional words are pointers left nil when the
// word was absent
type Command interface {
	isCommand()
}

// G0 is a travel move (no extrusion)
type G0 struct {
	X, Y, Z *units.Distance
	F       *units.Speed
}

// G1 is a print move
type G1 struct {
	X, Y, Z, E *units.Distance
	F          *units.Speed
}

// G2 is a clockwise arc move (IJ or R form)
type G2 struct {
	X, Y, Z, E *units.Distance
	F          *units.Speed
	I, J, R    *units.Distance
}

// G3 is a counterclockwise arc move (IJ or R form)
type G3 struct {
	X, Y, Z, E *units.Distance
	F          *units.Speed
	I, J, R    *units.Distance
}

// G4 is a dwell; P is milliseconds, S is seconds and wins when both are given
type G4 struct {
	P, S *time.Duration
}

// G10 retracts the filament using the configured retraction settings
type G10 struct{}

// G11 recovers the filament after a retraction
type G11 struct{}

// G20 switches raw distances to inches
type G20 struct{}

// G21 switches raw distances to millimetres
type G21 struct{}

// G28 homes the flagged axes in X, Y, Z order
type G28 struct {
	X, Y, Z bool
}

// G90 selects absolute positioning
type G90 struct{}

// G91 selects relative positioning
type G91 struct{}

// G92 rewrites the logical position of the given axes without moving
type G92 struct {
	X, Y, Z, E *units.Distance
}

// M20 lists the files on the SD card
type M20 struct{}

// M21 mounts the SD card and opens the root directory
type M21 struct{}

// M22 releases the SD card
type M22 struct{}

// M23 selects an SD file for printing
type M23 struct {
	File string
}

// M24 starts or resumes the SD print
type M24 struct{}

// M25 pauses the SD print
type M25 struct{}

// M26 reports the SD print status
type M26 struct{}

// M31 reports the print time
type M31 struct{}

// M104 sets the hotend target temperature
type M104 struct {
	S units.Temperature
}

// M105 reports the current temperatures
type M105 struct{}

// M106 sets the part-cooling fan speed, 0..255
type M106 struct {
	S uint8
}

// M114 reports the current head position
type M114 struct{}

// M140 sets the heatbed target temperature
type M140 struct {
	S units.Temperature
}

// M149 selects the temperature unit for subsequent commands
type M149 struct {
	U units.TemperatureUnit
}

// M155 enables a periodic temperature report every S, or disables it at 0
type M155 struct {
	S time.Duration
}

// M207 tunes the firmware retraction settings
type M207 struct {
	F *units.Speed
	S *units.Distance
	Z *units.Distance
}

// M208 tunes the recover settings; the recover length is S plus the
// retraction length
type M208 struct {
	F *units.Speed
	S *units.Distance
}

// M220 sets the feedrate multiplier as a percentage
type M220 struct {
	S float64
}

// M524 aborts the SD print
type M524 struct{}

func (G0) isCommand()   {}
func (G1) isCommand()   {}
func (G2) isCommand()   {}
func (G3) isCommand()   {}
func (G4) isCommand()   {}
func (G10) isCommand()  {}
func (G11) isCommand()  {}
func (G20) isCommand()  {}
func (G21) isCommand()  {}
func (G28) isCommand()  {}
func (G90) isCommand()  {}
func (G91) isCommand()  {}
func (G92) isCommand()  {}
func (M20) isCommand()  {}
func (M21) isCommand()  {}
func (M22) isCommand()  {}
func (M23) isCommand()  {}
func (M24) isCommand()  {}
func (M25) isCommand()  {}
func (M26) isCommand()  {}
func (M31) isCommand()  {}
func (M104) isCommand() {}
func (M105) isCommand() {}
func (M106) isCommand() {}
func (M114) isCommand() {}
func (M140) isCommand() {}
func (M149) isCommand() {}
func (M155) isCommand() {}
func (M207) isCommand() {}
func (M208) isCommand() {}
func (M220) isCommand() {}
func (M524) isCommand() {}
