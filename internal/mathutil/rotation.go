package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// Orbit returns the camera-to-world rotation of a camera that has turned
// yaw degrees around Y and then pitch degrees around X.
func Orbit(yawDeg, pitchDeg float64) Mat3 {
	return Mat3Mul(RotY(Deg2Rad(yawDeg)), RotX(Deg2Rad(pitchDeg)))
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}
