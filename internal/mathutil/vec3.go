package mathutil

import "math"

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 [3]float64

// V32 widens a float32 mesh position.
func V32(p [3]float32) Vec3 {
	return Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Bounds returns the per-axis min and max of points. Empty input gives
// two zero vectors.
func Bounds(points [][3]float32) (lo, hi Vec3) {
	if len(points) == 0 {
		return
	}
	lo, hi = V32(points[0]), V32(points[0])
	for _, p := range points[1:] {
		for k := 0; k < 3; k++ {
			v := float64(p[k])
			lo[k] = math.Min(lo[k], v)
			hi[k] = math.Max(hi[k], v)
		}
	}
	return lo, hi
}
