package geom

import (
	"math"

	"github.com/orsinium-labs/tinymath"

	"printhive/units"
)

// Trigonometry wrappers over tinymath, which works on float32.
// Casting f64 -> f32 -> f64 pins the geometry to single-precision embedded
// approximations: good to a few parts in a thousand, which is far below the
// mechanical resolution of a microstepped axis.

func Sin(a units.Angle) float64 {
	return float64(tinymath.Sin(float32(a.Radians())))
}

func Cos(a units.Angle) float64 {
	return float64(tinymath.Cos(float32(a.Radians())))
}

func Atan2(y, x float64) units.Angle {
	th := float64(tinymath.Atan2(float32(y), float32(x)))
	if th != th { // NaN from (0, 0)
		th = 0
	}
	return units.Radians(th)
}

func Asin(v float64) units.Angle {
	return units.Radians(float64(tinymath.Asin(float32(v))))
}

func Acos(v float64) units.Angle {
	return units.Radians(float64(tinymath.Acos(float32(v))))
}

// Sqrt rounds through float32 like the other wrappers but takes the correctly
// rounded square root, so exact squares (25 -> 5, 0 -> 0) stay exact
func Sqrt(v float64) float64 {
	return float64(float32(math.Sqrt(float64(float32(v)))))
}

func Floor(v float64) float64 {
	return float64(tinymath.Floor(float32(v)))
}

func Ln(v float64) float64 {
	return float64(tinymath.Ln(float32(v)))
}

func Abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
