package geom

import (
	"golang.org/x/exp/constraints"

	"printhive/units"
)

// Vector2D is a 2D vector over any float-backed measurement type
// (units.Distance, units.Speed, or a bare float64 for directions)
type Vector2D[M constraints.Float] struct {
	x, y M
}

func V2[M constraints.Float](x, y M) Vector2D[M] {
	return Vector2D[M]{x: x, y: y}
}

func (v Vector2D[M]) X() M { return v.x }

func (v Vector2D[M]) Y() M { return v.y }

// Angle is the direction of the vector measured from the +X axis
func (v Vector2D[M]) Angle() units.Angle {
	return Atan2(float64(v.y), float64(v.x))
}

func (v Vector2D[M]) Magnitude() M {
	x := float64(v.x)
	y := float64(v.y)
	return M(Sqrt(x*x + y*y))
}

func (v Vector2D[M]) Dot(o Vector2D[M]) float64 {
	return float64(v.x)*float64(o.x) + float64(v.y)*float64(o.y)
}

// AngleBetween is the angle separating v from o
func (v Vector2D[M]) AngleBetween(o Vector2D[M]) units.Angle {
	mag := float64(v.Magnitude()) * float64(o.Magnitude())
	if mag == 0 {
		return units.Radians(0)
	}
	return Acos(v.Dot(o) / mag)
}

// Normalize returns the unitless direction of the vector
func (v Vector2D[M]) Normalize() Vector2D[float64] {
	mag := float64(v.Magnitude())
	if mag == 0 {
		return V2(0.0, 0.0)
	}
	return V2(float64(v.x)/mag, float64(v.y)/mag)
}

func (v Vector2D[M]) Add(o Vector2D[M]) Vector2D[M] {
	return V2(v.x+o.x, v.y+o.y)
}

func (v Vector2D[M]) Sub(o Vector2D[M]) Vector2D[M] {
	return V2(v.x-o.x, v.y-o.y)
}

// Vector3D is the 3D counterpart of Vector2D
type Vector3D[M constraints.Float] struct {
	x, y, z M
}

func V3[M constraints.Float](x, y, z M) Vector3D[M] {
	return Vector3D[M]{x: x, y: y, z: z}
}

func (v Vector3D[M]) X() M { return v.x }

func (v Vector3D[M]) Y() M { return v.y }

func (v Vector3D[M]) Z() M { return v.z }

func (v Vector3D[M]) Magnitude() M {
	x := float64(v.x)
	y := float64(v.y)
	z := float64(v.z)
	return M(Sqrt(x*x + y*y + z*z))
}

func (v Vector3D[M]) Dot(o Vector3D[M]) float64 {
	return float64(v.x)*float64(o.x) + float64(v.y)*float64(o.y) + float64(v.z)*float64(o.z)
}

// AngleBetween is the angle separating v from o
func (v Vector3D[M]) AngleBetween(o Vector3D[M]) units.Angle {
	mag := float64(v.Magnitude()) * float64(o.Magnitude())
	if mag == 0 {
		return units.Radians(0)
	}
	return Acos(v.Dot(o) / mag)
}

func (v Vector3D[M]) Normalize() Vector3D[float64] {
	mag := float64(v.Magnitude())
	if mag == 0 {
		return V3(0.0, 0.0, 0.0)
	}
	return V3(float64(v.x)/mag, float64(v.y)/mag, float64(v.z)/mag)
}

func (v Vector3D[M]) Add(o Vector3D[M]) Vector3D[M] {
	return V3(v.x+o.x, v.y+o.y, v.z+o.z)
}

func (v Vector3D[M]) Sub(o Vector3D[M]) Vector3D[M] {
	return V3(v.x-o.x, v.y-o.y, v.z-o.z)
}
