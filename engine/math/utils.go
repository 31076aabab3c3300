package math

import (
	stdmath "math"

	"golang.org/x/exp/constraints"
)

const (
	/** @brief Tolerance used by the safe normalization and degenerate checks. */
	EPSILON float32 = 1e-6
	PI      float32 = 3.14159265358979323846
	HALF_PI float32 = PI * 0.5
	TWO_PI  float32 = PI * 2.0

	DEG2RAD_MULTIPLIER float32 = PI / 180.0
	RAD2DEG_MULTIPLIER float32 = 180.0 / PI
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// AlignUp rounds v up to the next multiple of alignment. alignment must be a power of two.
func AlignUp[T constraints.Unsigned](v, alignment T) T {
	if alignment == 0 {
		return v
	}
	return (v + alignment - 1) &^ (alignment - 1)
}

// AlignDown rounds v down to a multiple of alignment. alignment must be a power of two.
func AlignDown[T constraints.Unsigned](v, alignment T) T {
	if alignment == 0 {
		return v
	}
	return v &^ (alignment - 1)
}

// IsPowerOfTwo reports whether v is a non zero power of two.
func IsPowerOfTwo[T constraints.Unsigned](v T) bool {
	return v != 0 && v&(v-1) == 0
}

func DegToRad(degrees float32) float32 {
	return degrees * DEG2RAD_MULTIPLIER
}

func RadToDeg(radians float32) float32 {
	return radians * RAD2DEG_MULTIPLIER
}

func Sin(x float32) float32 {
	return float32(stdmath.Sin(float64(x)))
}

func Cos(x float32) float32 {
	return float32(stdmath.Cos(float64(x)))
}

func Tan(x float32) float32 {
	return float32(stdmath.Tan(float64(x)))
}

func Sqrt(x float32) float32 {
	return float32(stdmath.Sqrt(float64(x)))
}

func Abs(x float32) float32 {
	return float32(stdmath.Abs(float64(x)))
}

func Atan2(y, x float32) float32 {
	return float32(stdmath.Atan2(float64(y), float64(x)))
}

// Asin clamps its input so rounding noise never produces NaN.
func Asin(x float32) float32 {
	return float32(stdmath.Asin(float64(Clamp(x, -1, 1))))
}

func Round(x float32) float32 {
	return float32(stdmath.Round(float64(x)))
}

func Floor(x float32) float32 {
	return float32(stdmath.Floor(float64(x)))
}

// WrapAngle keeps an angle in (-PI, PI] so accumulated yaw never loses precision.
func WrapAngle(radians float32) float32 {
	for radians > PI {
		radians -= TWO_PI
	}
	for radians <= -PI {
		radians += TWO_PI
	}
	return radians
}
