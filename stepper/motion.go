package stepper

import (
	"errors"
	"time"

	"printhive/geom"
	"printhive/units"
)

// Positioning selects how motion-command coordinates are interpreted
type Positioning uint8

const (
	Absolute Positioning = iota
	Relative
)

// ParsePositioning parses a board-description positioning string
func ParsePositioning(s string) (Positioning, error) {
	switch s {
	case "absolute":
		return Absolute, nil
	case "relative":
		return Relative, nil
	}
	return Absolute, errors.New("stepper: unknown positioning " + s)
}

// NoMove is the destination of an axis omitted from a motion command: the
// current position under absolute positioning, zero displacement under
// relative positioning
func NoMove(s *Stepper, positioning Positioning) (units.Distance, error) {
	if positioning == Relative {
		return units.Millimeters(0), nil
	}
	return s.Position()
}

type moveResult struct {
	d   time.Duration
	err error
}

func launch(results chan<- moveResult, move func() (time.Duration, error)) {
	go func() {
		d, err := move()
		results <- moveResult{d: d, err: err}
	}()
}

// join waits for n concurrent axis moves and reports the longest duration.
// Any axis failure collapses the whole move into ErrMoveNotValid
func join(results <-chan moveResult, n int) (time.Duration, error) {
	var max time.Duration
	failed := false
	for i := 0; i < n; i++ {
		r := <-results
		if r.err != nil {
			failed = true
		} else if r.d > max {
			max = r.d
		}
	}
	if failed {
		return 0, ErrMoveNotValid
	}
	return max, nil
}

// LinearMoveTo runs a single axis to dest at |speed|
func LinearMoveTo(s *Stepper, dest units.Distance, speed units.Speed) (time.Duration, error) {
	abs := units.MillimetersPerSecond(geom.Abs(speed.MillimetersPerSecond()))
	if err := s.SetSpeedFromAttachment(abs); err != nil {
		return 0, err
	}
	return s.MoveToDestination(dest)
}

func linearMoveTo2DRaw(a, b *Stepper, dest geom.Vector2D[units.Distance], speed geom.Vector2D[units.Speed]) (time.Duration, error) {
	results := make(chan moveResult, 2)
	launch(results, func() (time.Duration, error) { return LinearMoveTo(a, dest.X(), speed.X()) })
	launch(results, func() (time.Duration, error) { return LinearMoveTo(b, dest.Y(), speed.Y()) })
	return join(results, 2)
}

func linearMoveTo2DSpeeds(a, b *Stepper, dest geom.Vector2D[units.Distance], speed units.Speed) (geom.Vector2D[units.Speed], error) {
	pa, err := a.Position()
	if err != nil {
		return geom.V2[units.Speed](0, 0), err
	}
	pb, err := b.Position()
	if err != nil {
		return geom.V2[units.Speed](0, 0), err
	}
	src := geom.V2(pa, pb)
	angle := dest.Sub(src).Angle()
	speedA := units.MillimetersPerSecond(geom.Cos(angle) * speed.MillimetersPerSecond())
	speedB := units.MillimetersPerSecond(geom.Sin(angle) * speed.MillimetersPerSecond())
	return geom.V2(speedA, speedB), nil
}

// LinearMoveTo2D runs both axes concurrently to dest, apportioning speed by
// the direction angle so the head travels at the requested speed
func LinearMoveTo2D(a, b *Stepper, dest geom.Vector2D[units.Distance], speed units.Speed) (time.Duration, error) {
	speeds, err := linearMoveTo2DSpeeds(a, b, dest, speed)
	if err != nil {
		return 0, err
	}
	return linearMoveTo2DRaw(a, b, dest, speeds)
}

func position3D(a, b, c *Stepper) (geom.Vector3D[units.Distance], error) {
	pa, err := a.Position()
	if err != nil {
		return geom.V3[units.Distance](0, 0, 0), err
	}
	pb, err := b.Position()
	if err != nil {
		return geom.V3[units.Distance](0, 0, 0), err
	}
	pc, err := c.Position()
	if err != nil {
		return geom.V3[units.Distance](0, 0, 0), err
	}
	return geom.V3(pa, pb, pc), nil
}

func linearMoveTo3DRaw(a, b, c *Stepper, dest geom.Vector3D[units.Distance], speed geom.Vector3D[units.Speed]) (time.Duration, error) {
	results := make(chan moveResult, 3)
	launch(results, func() (time.Duration, error) { return LinearMoveTo(a, dest.X(), speed.X()) })
	launch(results, func() (time.Duration, error) { return LinearMoveTo(b, dest.Y(), speed.Y()) })
	launch(results, func() (time.Duration, error) { return LinearMoveTo(c, dest.Z(), speed.Z()) })
	return join(results, 3)
}

// linearMoveTo3DSpeeds apportions the head speed over three axes. X and Y
// share the XY direction angle; Z gets the sine of the XZ angle
func linearMoveTo3DSpeeds(a, b, c *Stepper, dest geom.Vector3D[units.Distance], speed units.Speed) (geom.Vector3D[units.Speed], error) {
	src, err := position3D(a, b, c)
	if err != nil {
		return geom.V3[units.Speed](0, 0, 0), err
	}
	delta := dest.Sub(src)
	xyAngle := geom.V2(delta.X(), delta.Y()).Angle()
	xzAngle := geom.V2(delta.X(), delta.Z()).Angle()
	speedA := units.MillimetersPerSecond(geom.Cos(xyAngle) * speed.MillimetersPerSecond())
	speedB := units.MillimetersPerSecond(geom.Sin(xyAngle) * speed.MillimetersPerSecond())
	speedC := units.MillimetersPerSecond(geom.Sin(xzAngle) * speed.MillimetersPerSecond())
	return geom.V3(speedA, speedB, speedC), nil
}

// LinearMoveTo3D runs three axes concurrently to the absolute dest
func LinearMoveTo3D(a, b, c *Stepper, dest geom.Vector3D[units.Distance], speed units.Speed) (time.Duration, error) {
	speeds, err := linearMoveTo3DSpeeds(a, b, c, dest, speed)
	if err != nil {
		return 0, err
	}
	return linearMoveTo3DRaw(a, b, c, dest, speeds)
}

// LinearMoveFor3D runs three axes concurrently by the relative distance
func LinearMoveFor3D(a, b, c *Stepper, distance geom.Vector3D[units.Distance], speed units.Speed) (time.Duration, error) {
	src, err := position3D(a, b, c)
	if err != nil {
		return 0, err
	}
	return LinearMoveTo3D(a, b, c, src.Add(distance), speed)
}

// LinearMove3D dispatches on the positioning mode
func LinearMove3D(a, b, c *Stepper, dest geom.Vector3D[units.Distance], speed units.Speed, positioning Positioning) (time.Duration, error) {
	if positioning == Relative {
		return LinearMoveFor3D(a, b, c, dest, speed)
	}
	return LinearMoveTo3D(a, b, c, dest, speed)
}

// LinearMoveTo3DE runs the 3D move jointly with an extruder move whose speed
// is chosen so both finish together
func LinearMoveTo3DE(a, b, c, e *Stepper, dest geom.Vector3D[units.Distance], speed units.Speed, eDest units.Distance) (time.Duration, error) {
	src, err := position3D(a, b, c)
	if err != nil {
		return 0, err
	}
	distance := dest.Sub(src)
	seconds := distance.Magnitude().Millimeters() / speed.MillimetersPerSecond()

	// a pure extrusion has no head travel to pace against; the extruder
	// runs at the commanded feedrate instead
	if seconds == 0 {
		return LinearMoveTo(e, eDest, speed)
	}

	ePos, err := e.Position()
	if err != nil {
		return 0, err
	}
	eSpeed := units.MillimetersPerSecond((eDest - ePos).Millimeters() / seconds)

	results := make(chan moveResult, 2)
	launch(results, func() (time.Duration, error) { return LinearMoveTo3D(a, b, c, dest, speed) })
	launch(results, func() (time.Duration, error) { return LinearMoveTo(e, eDest, eSpeed) })
	return join(results, 2)
}

// LinearMoveFor3DE is the relative-displacement form of LinearMoveTo3DE
func LinearMoveFor3DE(a, b, c, e *Stepper, distance geom.Vector3D[units.Distance], speed units.Speed, eDistance units.Distance) (time.Duration, error) {
	src, err := position3D(a, b, c)
	if err != nil {
		return 0, err
	}
	ePos, err := e.Position()
	if err != nil {
		return 0, err
	}
	return LinearMoveTo3DE(a, b, c, e, src.Add(distance), speed, ePos+eDistance)
}

// LinearMove3DE dispatches on the positioning mode
func LinearMove3DE(a, b, c, e *Stepper, dest geom.Vector3D[units.Distance], speed units.Speed, eDest units.Distance, positioning Positioning) (time.Duration, error) {
	if positioning == Relative {
		return LinearMoveFor3DE(a, b, c, e, dest, speed, eDest)
	}
	return LinearMoveTo3DE(a, b, c, e, dest, speed, eDest)
}

// ArcMove2DArcLength walks the arc in floor(arcLength/unitLength) chords,
// each executed as a 2D linear move at the given speed, then one last chord
// to the exact arc endpoint
func ArcMove2DArcLength(a, b *Stepper, arcLength units.Distance, center geom.Vector2D[units.Distance], speed units.Speed, direction units.RotationDirection, unitLength units.Distance) (time.Duration, error) {
	if arcLength.Millimeters() < unitLength.Millimeters() {
		return 0, ErrMoveTooShort
	}
	pa, err := a.Position()
	if err != nil {
		return 0, err
	}
	pb, err := b.Position()
	if err != nil {
		return 0, err
	}
	source := geom.V2(pa, pb)
	arcs := uint64(geom.Floor(arcLength.Millimeters() / unitLength.Millimeters()))
	var total time.Duration
	for n := uint64(0); n <= arcs; n++ {
		l := units.Millimeters(unitLength.Millimeters() * float64(n))
		dst := geom.ArcDestination(source, center, l, direction)
		d, err := LinearMoveTo2D(a, b, dst, speed)
		if err != nil {
			return total, err
		}
		total += d
	}
	// the unit walk stops short of the commanded endpoint by the arc
	// remainder; one last chord lands exactly on it
	dst := geom.ArcDestination(source, center, arcLength, direction)
	d, err := LinearMoveTo2D(a, b, dst, speed)
	if err != nil {
		return total, err
	}
	return total + d, nil
}

// ArcMove3DECenter runs the XY arc around an absolute center jointly with
// 1D Z and E moves paced to the arc duration
func ArcMove3DECenter(a, b, c, e *Stepper, dest geom.Vector3D[units.Distance], center geom.Vector2D[units.Distance], speed units.Speed, direction units.RotationDirection, eDest units.Distance, unitLength units.Distance, fullCircle bool) (time.Duration, error) {
	xyDest := geom.V2(dest.X(), dest.Y())
	pa, err := a.Position()
	if err != nil {
		return 0, err
	}
	pb, err := b.Position()
	if err != nil {
		return 0, err
	}
	xySrc := geom.V2(pa, pb)

	arcLength := geom.ArcLength(xySrc, center, xyDest, direction, fullCircle)
	seconds := arcLength.Millimeters() / speed.MillimetersPerSecond()

	cPos, err := c.Position()
	if err != nil {
		return 0, err
	}
	zSpeed := units.MillimetersPerSecond((dest.Z() - cPos).Millimeters() / seconds)

	ePos, err := e.Position()
	if err != nil {
		return 0, err
	}
	eSpeed := units.MillimetersPerSecond((eDest - ePos).Millimeters() / seconds)

	results := make(chan moveResult, 3)
	launch(results, func() (time.Duration, error) {
		return ArcMove2DArcLength(a, b, arcLength, center, speed, direction, unitLength)
	})
	launch(results, func() (time.Duration, error) { return LinearMoveTo(c, dest.Z(), zSpeed) })
	launch(results, func() (time.Duration, error) { return LinearMoveTo(e, eDest, eSpeed) })
	return join(results, 3)
}

// ArcMove3DERadius derives the center from the source direction angle and a
// radius (G2/G3 R form; complete circles are not expressible)
func ArcMove3DERadius(a, b, c, e *Stepper, dest geom.Vector3D[units.Distance], radius units.Distance, speed units.Speed, direction units.RotationDirection, eDest units.Distance, unitLength units.Distance) (time.Duration, error) {
	pa, err := a.Position()
	if err != nil {
		return 0, err
	}
	pb, err := b.Position()
	if err != nil {
		return 0, err
	}
	source := geom.V2(pa, pb)
	angle := source.Angle()
	offset := geom.V2(
		units.Millimeters(radius.Millimeters()*geom.Cos(angle)),
		units.Millimeters(radius.Millimeters()*geom.Sin(angle)))
	center := source.Add(offset)
	return ArcMove3DECenter(a, b, c, e, dest, center, speed, direction, eDest, unitLength, false)
}

// ArcMove3DEOffsetFromCenter derives the center from an I/J offset
// (G2/G3 IJ form; a destination equal to the source is a complete circle)
func ArcMove3DEOffsetFromCenter(a, b, c, e *Stepper, dest geom.Vector3D[units.Distance], offset geom.Vector2D[units.Distance], speed units.Speed, direction units.RotationDirection, eDest units.Distance, unitLength units.Distance) (time.Duration, error) {
	pa, err := a.Position()
	if err != nil {
		return 0, err
	}
	pb, err := b.Position()
	if err != nil {
		return 0, err
	}
	center := geom.V2(pa, pb).Add(offset)
	return ArcMove3DECenter(a, b, c, e, dest, center, speed, direction, eDest, unitLength, true)
}

// Homing parameters: short segments at a conservative speed keep the
// endstop detection latency within one segment
var (
	homingSegment = units.Millimeters(2.0)
	homingSpeed   = units.MillimetersPerSecond(5.0)
)

// AutoHome drives the axis in its negative direction until the endstop
// triggers, then declares the contact point to be the origin
func AutoHome(s *Stepper, endstop *Endstop) (time.Duration, error) {
	if err := s.SetSpeedFromAttachment(homingSpeed); err != nil {
		return 0, err
	}
	var total time.Duration
	for !endstop.Triggered() {
		d, err := s.MoveForDistance(-homingSegment)
		if err != nil {
			return total, err
		}
		total += d
	}
	s.ResetSteps()
	return total, nil
}

// Calibrate is AutoHome without the origin reset, used to probe an endstop
// position while keeping the current frame
func Calibrate(s *Stepper, endstop *Endstop) (time.Duration, error) {
	if err := s.SetSpeedFromAttachment(homingSpeed); err != nil {
		return 0, err
	}
	var total time.Duration
	for !endstop.Triggered() {
		d, err := s.MoveForDistance(-homingSegment)
		if err != nil {
			return total, err
		}
		total += d
	}
	return total, nil
}

// Retract runs a negative extruder move of length at feedrate jointly with a
// positive Z lift paced to finish together
func Retract(e, z *Stepper, feedrate units.Speed, length, zLift units.Distance) (time.Duration, error) {
	seconds := length.Millimeters() / geom.Abs(feedrate.MillimetersPerSecond())
	zSpeed := units.MillimetersPerSecond(zLift.Millimeters() / seconds)

	ePos, err := e.Position()
	if err != nil {
		return 0, err
	}
	zPos, err := z.Position()
	if err != nil {
		return 0, err
	}

	results := make(chan moveResult, 2)
	launch(results, func() (time.Duration, error) { return LinearMoveTo(e, ePos-length, feedrate) })
	launch(results, func() (time.Duration, error) { return LinearMoveTo(z, zPos+zLift, zSpeed) })
	return join(results, 2)
}
