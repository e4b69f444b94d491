package stepper

import (
	"time"

	"printhive/gcode"
	"printhive/geom"
	"printhive/hal"
	"printhive/units"
)

// RetractionConfig holds the firmware-retraction settings (G10, M207)
type RetractionConfig struct {
	Feedrate units.Speed
	Length   units.Distance
	ZLift    units.Distance
}

// RecoverConfig holds the recover settings (G11, M208)
type RecoverConfig struct {
	Feedrate units.Speed
	Length   units.Distance
}

// MotionConfig is the mutable motion state owned by the planner
type MotionConfig struct {
	ArcUnitLength      units.Distance
	Feedrate           units.Speed
	Positioning        Positioning
	FeedrateMultiplier float64
	Retraction         RetractionConfig
	Recover            RecoverConfig
}

// Endstops are the optional limit switches per axis, in X, Y, Z, E order
type Endstops struct {
	X, Y, Z, E *Endstop
}

// Planner executes motion commands against the four axes. It owns the
// steppers, the endstops and the motion configuration; there is no hidden
// state beyond the stepper positions
type Planner struct {
	x, y, z, e *Stepper
	endstops   Endstops
	config     MotionConfig
	timer      hal.Timer
}

func NewPlanner(x, y, z, e *Stepper, config MotionConfig, endstops Endstops, timer hal.Timer) *Planner {
	if config.FeedrateMultiplier == 0 {
		config.FeedrateMultiplier = 1.0
	}
	return &Planner{
		x: x, y: y, z: z, e: e,
		endstops: endstops,
		config:   config,
		timer:    timer,
	}
}

func (p *Planner) XPosition() units.Distance { return position(p.x) }

func (p *Planner) YPosition() units.Distance { return position(p.y) }

func (p *Planner) ZPosition() units.Distance { return position(p.z) }

func (p *Planner) EPosition() units.Distance { return position(p.e) }

// Config returns a copy of the current motion configuration
func (p *Planner) Config() MotionConfig { return p.config }

func position(s *Stepper) units.Distance {
	d, _ := s.Position()
	return d
}

// Execute runs one motion command to completion and reports how long the
// move took; non-move commands report zero. Stepper errors abort the command
// and surface to the caller
func (p *Planner) Execute(cmd gcode.Command) (time.Duration, error) {
	switch c := cmd.(type) {
	case gcode.G0:
		return p.g0(c)
	case gcode.G1:
		return p.g1(c)
	case gcode.G2:
		return p.arc(c.X, c.Y, c.Z, c.E, c.F, c.I, c.J, c.R, units.Clockwise)
	case gcode.G3:
		return p.arc(c.X, c.Y, c.Z, c.E, c.F, c.I, c.J, c.R, units.CounterClockwise)
	case gcode.G4:
		p.g4(c)
		return 0, nil
	case gcode.G10:
		return p.g10()
	case gcode.G11:
		return p.g11()
	case gcode.G28:
		return p.g28(c)
	case gcode.G90:
		p.config.Positioning = Absolute
		return 0, nil
	case gcode.G91:
		p.config.Positioning = Relative
		return 0, nil
	case gcode.G92:
		return 0, p.g92(c)
	case gcode.M207:
		p.m207(c)
		return 0, nil
	case gcode.M208:
		p.m208(c)
		return 0, nil
	case gcode.M220:
		p.config.FeedrateMultiplier = c.S / 100.0
		return 0, nil
	}
	return 0, ErrNotSupported
}

// updateFeedrate makes an F word persistent and returns the effective speed
// with the multiplier applied
func (p *Planner) updateFeedrate(f *units.Speed) units.Speed {
	if f != nil {
		p.config.Feedrate = *f
	}
	return units.MillimetersPerSecond(
		p.config.Feedrate.MillimetersPerSecond() * p.config.FeedrateMultiplier)
}

func (p *Planner) axisOrNoMove(s *Stepper, v *units.Distance, positioning Positioning) (units.Distance, error) {
	if v != nil {
		return *v, nil
	}
	return NoMove(s, positioning)
}

func (p *Planner) g0(c gcode.G0) (time.Duration, error) {
	feedrate := p.updateFeedrate(c.F)
	x, err := p.axisOrNoMove(p.x, c.X, p.config.Positioning)
	if err != nil {
		return 0, err
	}
	y, err := p.axisOrNoMove(p.y, c.Y, p.config.Positioning)
	if err != nil {
		return 0, err
	}
	z, err := p.axisOrNoMove(p.z, c.Z, p.config.Positioning)
	if err != nil {
		return 0, err
	}
	return LinearMove3D(p.x, p.y, p.z, geom.V3(x, y, z), feedrate, p.config.Positioning)
}

func (p *Planner) g1(c gcode.G1) (time.Duration, error) {
	feedrate := p.updateFeedrate(c.F)
	x, err := p.axisOrNoMove(p.x, c.X, p.config.Positioning)
	if err != nil {
		return 0, err
	}
	y, err := p.axisOrNoMove(p.y, c.Y, p.config.Positioning)
	if err != nil {
		return 0, err
	}
	z, err := p.axisOrNoMove(p.z, c.Z, p.config.Positioning)
	if err != nil {
		return 0, err
	}
	e, err := p.axisOrNoMove(p.e, c.E, p.config.Positioning)
	if err != nil {
		return 0, err
	}
	return LinearMove3DE(p.x, p.y, p.z, p.e, geom.V3(x, y, z), feedrate, e, p.config.Positioning)
}

// arc validates the G2/G3 word combination: exactly one of the IJ form and
// the R form must be present. IJ allows complete circles; R requires the
// destination to differ from the source
func (p *Planner) arc(x, y, z, e *units.Distance, f *units.Speed, i, j, r *units.Distance, direction units.RotationDirection) (time.Duration, error) {
	hasOffset := i != nil || j != nil
	if hasOffset == (r != nil) {
		return 0, ErrMoveNotValid
	}

	feedrate := p.updateFeedrate(f)

	zDest, err := p.axisOrNoMove(p.z, z, Absolute)
	if err != nil {
		return 0, err
	}
	eDest, err := p.axisOrNoMove(p.e, e, Relative)
	if err != nil {
		return 0, err
	}

	xDest, err := p.axisOrNoMove(p.x, x, Absolute)
	if err != nil {
		return 0, err
	}
	yDest, err := p.axisOrNoMove(p.y, y, Absolute)
	if err != nil {
		return 0, err
	}
	dest := geom.V3(xDest, yDest, zDest)

	if hasOffset {
		var iOff, jOff units.Distance
		if i != nil {
			iOff = *i
		}
		if j != nil {
			jOff = *j
		}
		return ArcMove3DEOffsetFromCenter(
			p.x, p.y, p.z, p.e, dest, geom.V2(iOff, jOff),
			feedrate, direction, eDest, p.config.ArcUnitLength)
	}

	if x == nil && y == nil {
		return 0, ErrMoveNotValid
	}
	return ArcMove3DERadius(
		p.x, p.y, p.z, p.e, dest, *r,
		feedrate, direction, eDest, p.config.ArcUnitLength)
}

// g4 dwells; when both P and S are given, S wins
func (p *Planner) g4(c gcode.G4) {
	d := c.P
	if c.S != nil {
		d = c.S
	}
	if d != nil {
		p.timer.After(*d)
	}
}

func (p *Planner) g10() (time.Duration, error) {
	return Retract(p.e, p.z,
		p.config.Retraction.Feedrate,
		p.config.Retraction.Length,
		p.config.Retraction.ZLift)
}

func (p *Planner) g11() (time.Duration, error) {
	ePos, err := p.e.Position()
	if err != nil {
		return 0, err
	}
	return LinearMoveTo(p.e, ePos+p.config.Recover.Length, p.config.Recover.Feedrate)
}

func (p *Planner) g28(c gcode.G28) (time.Duration, error) {
	var total time.Duration
	if c.X {
		if p.endstops.X == nil {
			return total, ErrMoveNotValid
		}
		d, err := AutoHome(p.x, p.endstops.X)
		if err != nil {
			return total, err
		}
		total += d
	}
	if c.Y {
		if p.endstops.Y == nil {
			return total, ErrMoveNotValid
		}
		d, err := AutoHome(p.y, p.endstops.Y)
		if err != nil {
			return total, err
		}
		total += d
	}
	if c.Z {
		if p.endstops.Z == nil {
			return total, ErrMoveNotValid
		}
		d, err := AutoHome(p.z, p.endstops.Z)
		if err != nil {
			return total, err
		}
		total += d
	}
	return total, nil
}

func (p *Planner) g92(c gcode.G92) error {
	if c.X != nil {
		if err := p.x.SetPosition(*c.X); err != nil {
			return err
		}
	}
	if c.Y != nil {
		if err := p.y.SetPosition(*c.Y); err != nil {
			return err
		}
	}
	if c.Z != nil {
		if err := p.z.SetPosition(*c.Z); err != nil {
			return err
		}
	}
	if c.E != nil {
		if err := p.e.SetPosition(*c.E); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) m207(c gcode.M207) {
	if c.F != nil {
		p.config.Retraction.Feedrate = *c.F
	}
	if c.S != nil {
		p.config.Retraction.Length = *c.S
	}
	if c.Z != nil {
		p.config.Retraction.ZLift = *c.Z
	}
}

func (p *Planner) m208(c gcode.M208) {
	if c.F != nil {
		p.config.Recover.Feedrate = *c.F
	}
	if c.S != nil {
		p.config.Recover.Length = *c.S + p.config.Retraction.Length
	}
}
