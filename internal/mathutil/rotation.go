package mathutil

import "math"

// AxisRotation returns the 3×3 rotation of a radians around axis. A zero
// axis yields the identity.
func AxisRotation(axis Vec3, a float64) Mat3 {
	l := axis.Len()
	if l < 1e-12 {
		return Mat3Identity()
	}
	x, y, z := axis[0]/l, axis[1]/l, axis[2]/l
	c, s := math.Cos(a), math.Sin(a)
	t := 1 - c
	return Mat3{
		c + x*x*t, x*y*t - z*s, x*z*t + y*s,
		x*y*t + z*s, c + y*y*t, y*z*t - x*s,
		x*z*t - y*s, y*z*t + x*s, c + z*z*t,
	}
}

// EulerZYX returns the angles (x, y, z) in radians of m = Rz·Ry·Rx. At
// gimbal lock z is reported as 0.
func EulerZYX(m Mat3) Vec3 {
	sy := math.Max(-1, math.Min(1, -m[6]))
	y := math.Asin(sy)
	if math.Abs(m[6]) < 1-1e-9 {
		return Vec3{math.Atan2(m[7], m[8]), y, math.Atan2(m[3], m[0])}
	}
	return Vec3{math.Atan2(-m[5], m[4]), y, 0}
}

// Radians converts degrees to radians.
func Radians(d float64) float64 {
	return d * math.Pi / 180
}

// Degrees converts each component of v from radians to degrees.
func Degrees(v Vec3) Vec3 {
	return v.Scale(180 / math.Pi)
}
