package geom

import (
	"math"

	"printhive/units"
)

// ArcLength computes the length of the arc travelled from start to end around
// center in the given rotation direction. The base angle comes from the chord
// (2*asin(c/2r)); when the requested direction disagrees with the short sweep
// implied by start->end, the complementary angle 2π-θ is used. A zero sweep
// with fullCircle set means a complete circle
func ArcLength(start, center, end Vector2D[units.Distance], direction units.RotationDirection, fullCircle bool) units.Distance {
	radius := end.Sub(center).Magnitude().Millimeters()
	if radius == 0 {
		return units.Millimeters(0)
	}

	// angles are measured from the center so the sweep comparison reflects
	// the actual rotation around it
	startAngle := start.Sub(center).Angle().Radians()
	endAngle := end.Sub(center).Angle().Radians()
	chord := end.Sub(start).Magnitude().Millimeters()
	ratio := chord / (2.0 * radius)
	if ratio > 1.0 { // rounding can push a diameter chord past the domain
		ratio = 1.0
	}
	th := 2.0 * Asin(ratio).Radians()

	if (startAngle < endAngle && direction == units.Clockwise) ||
		(startAngle > endAngle && direction == units.CounterClockwise) {
		th = 2.0*math.Pi - th
	}

	if th == 0 && fullCircle {
		th = 2.0 * math.Pi
	}

	return units.Millimeters(radius * th)
}

// ArcDestination rotates start around center by arcLength/radius radians,
// negative for clockwise travel
func ArcDestination(start, center Vector2D[units.Distance], arcLength units.Distance, direction units.RotationDirection) Vector2D[units.Distance] {
	delta := start.Sub(center)
	radius := delta.Magnitude().Millimeters()
	if radius == 0 || arcLength.Millimeters() == 0 {
		return start
	}

	l := arcLength.Millimeters()
	if direction == units.Clockwise {
		l = -l
	}

	angle := units.Radians(l / radius)
	sin := Sin(angle)
	cos := Cos(angle)
	x := center.X().Millimeters() + delta.X().Millimeters()*cos - delta.Y().Millimeters()*sin
	y := center.Y().Millimeters() + delta.X().Millimeters()*sin + delta.Y().Millimeters()*cos
	return V2(units.Millimeters(x), units.Millimeters(y))
}

// ApproximateArc samples the arc at multiples of unitLength, producing
// floor(arcLength/unitLength)+1 points starting at the source
func ApproximateArc(source, center Vector2D[units.Distance], arcLength units.Distance, direction units.RotationDirection, unitLength units.Distance) []Vector2D[units.Distance] {
	if unitLength.Millimeters() == 0 {
		return nil
	}
	n := uint64(Floor(arcLength.Millimeters() / unitLength.Millimeters()))
	points := make([]Vector2D[units.Distance], 0, n+1)
	for i := uint64(0); i <= n; i++ {
		l := units.Millimeters(unitLength.Millimeters() * float64(i))
		points = append(points, ArcDestination(source, center, l, direction))
	}
	return points
}
